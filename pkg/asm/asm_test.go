package asm

import (
	"bytes"
	"errors"
	"os"
	"strings"
	"testing"

	"riscv-emu/pkg/cpu"
)

func testConfig() Config {
	return Config{XLen: 32, MaxReg: 31, Endian: cpu.LittleEndian}
}

// TestAssembleBackwardBranchLoop exercises the full pipeline end to end:
// a counting loop with a backward branch, asserting the exact encoded
// bytes for every instruction.
func TestAssembleBackwardBranchLoop(t *testing.T) {
	src := strings.Join([]string{
		"addi x1, x0, 0",
		"loop:",
		"addi x1, x1, 1",
		"addi x2, x0, 3",
		"bne x1, x2, loop",
		"addi x3, x0, 1",
	}, "\n")

	result, err := Assemble(strings.NewReader(src), testConfig())
	if err != nil {
		t.Fatalf("Assemble: %v", err)
	}

	want := []uint32{
		encodeI(cpu.OpArithLogI, 1, 0, 0, 0),
		encodeI(cpu.OpArithLogI, 1, 0, 1, 1),
		encodeI(cpu.OpArithLogI, 2, 0, 0, 3),
		encodeB(cpu.OpBranch, 1, 1, 2, 0xFFFFFFF8), // offset -8
		encodeI(cpu.OpArithLogI, 3, 0, 0, 1),
	}

	wantBytes := make([]byte, 0, len(want)*4)
	for _, w := range want {
		wantBytes = append(wantBytes, encodeInt(uint64(w), 4, cpu.LittleEndian)...)
	}

	if !bytes.Equal(result.Program, wantBytes) {
		t.Fatalf("program bytes mismatch:\n got: % x\nwant: % x", result.Program, wantBytes)
	}
	if len(result.Listing) != 5 {
		t.Fatalf("listing has %d entries, want 5", len(result.Listing))
	}
}

// TestAssembleForwardBranch checks a forward branch target resolves
// correctly even though the label is defined after the reference.
func TestAssembleForwardBranch(t *testing.T) {
	src := strings.Join([]string{
		"beq x1, x2, skip",
		"addi x3, x0, 1",
		"skip:",
		"addi x4, x0, 2",
	}, "\n")

	result, err := Assemble(strings.NewReader(src), testConfig())
	if err != nil {
		t.Fatalf("Assemble: %v", err)
	}
	if len(result.Program) != 12 {
		t.Fatalf("program length = %d, want 12", len(result.Program))
	}
	gotWord := decodeWordLE(result.Program[0:4])
	want := encodeB(cpu.OpBranch, 0, 1, 2, 8) // skip is 2 instructions (8 bytes) ahead
	if gotWord != want {
		t.Fatalf("branch word = 0x%08x, want 0x%08x", gotWord, want)
	}
}

// decodeWordLE is the test-local inverse of encodeInt for a 4-byte
// little-endian word.
func decodeWordLE(b []byte) uint32 {
	return uint32(b[0]) | uint32(b[1])<<8 | uint32(b[2])<<16 | uint32(b[3])<<24
}

func TestAssembleUnresolvedSymbolError(t *testing.T) {
	_, err := Assemble(strings.NewReader("j nowhere\n"), testConfig())
	if err == nil {
		t.Fatal("expected an unresolved-symbol error")
	}
}

func TestAssembleDuplicateSymbolError(t *testing.T) {
	src := "foo:\naddi x1, x0, 1\nfoo:\naddi x2, x0, 2\n"
	_, err := Assemble(strings.NewReader(src), testConfig())
	if err == nil {
		t.Fatal("expected a duplicate-symbol error")
	}
}

func TestAssembleUnknownMnemonicError(t *testing.T) {
	_, err := Assemble(strings.NewReader("frobnicate x1, x2\n"), testConfig())
	if err == nil {
		t.Fatal("expected an unknown-mnemonic error")
	}
}

func TestAssembleBranchOutOfRangeError(t *testing.T) {
	var b strings.Builder
	b.WriteString("beq x1, x2, far\n")
	for i := 0; i < 8192; i++ {
		b.WriteString("addi x3, x0, 1\n")
	}
	b.WriteString("far:\naddi x4, x0, 1\n")
	_, err := Assemble(strings.NewReader(b.String()), testConfig())
	if err == nil {
		t.Fatal("expected branch-target-out-of-range error")
	}
}

func TestAssembleFileReportsSourceFilename(t *testing.T) {
	dir := t.TempDir()
	src := dir + "/prog.s"
	dst := dir + "/prog.bin"
	if err := os.WriteFile(src, []byte("j nowhere\n"), 0o644); err != nil {
		t.Fatalf("writing fixture: %v", err)
	}

	err := AssembleFile(src, dst, testConfig(), nil)
	if err == nil {
		t.Fatal("expected an error")
	}
	var ae *AsmError
	if !errors.As(err, &ae) {
		t.Fatalf("error is not an *AsmError: %v", err)
	}
	if ae.File != src {
		t.Fatalf("AsmError.File = %q, want %q", ae.File, src)
	}
}

func TestDataDirectiveLayout(t *testing.T) {
	src := strings.Join([]string{
		".word 0x11223344",
		"label:",
		".word 0xAABBCCDD",
	}, "\n")
	result, err := Assemble(strings.NewReader(src), testConfig())
	if err != nil {
		t.Fatalf("Assemble: %v", err)
	}
	if len(result.Data) != 8 {
		t.Fatalf("data length = %d, want 8", len(result.Data))
	}
	w0 := decodeWordLE(result.Data[0:4])
	w1 := decodeWordLE(result.Data[4:8])
	if w0 != 0x11223344 || w1 != 0xAABBCCDD {
		t.Fatalf("data words = 0x%08x 0x%08x", w0, w1)
	}
}
