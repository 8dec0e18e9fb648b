package cpu

import (
	"encoding/binary"
	"testing"
)

// The helpers below assemble raw 32-bit instruction words directly,
// independent of pkg/asm (which itself depends on this package), so
// these end-to-end tests can drive the executor without an assembler.

func encR(opcode, rd, funct3, rs1, rs2, funct7 uint32) uint32 {
	return opcode&0x7F | (rd&0x1F)<<7 | (funct3&0x7)<<12 | (rs1&0x1F)<<15 | (rs2&0x1F)<<20 | (funct7&0x7F)<<25
}

func encI(opcode, rd, funct3, rs1, imm12 uint32) uint32 {
	return opcode&0x7F | (rd&0x1F)<<7 | (funct3&0x7)<<12 | (rs1&0x1F)<<15 | (imm12&0xFFF)<<20
}

func encS(opcode, funct3, rs1, rs2, imm12 uint32) uint32 {
	lo := imm12 & 0x1F
	hi := (imm12 >> 5) & 0x7F
	return opcode&0x7F | lo<<7 | (funct3&0x7)<<12 | (rs1&0x1F)<<15 | (rs2&0x1F)<<20 | hi<<25
}

// wordsToBlob packs a sequence of 32-bit little-endian instruction
// words into a byte blob suitable for CPU.Blobs.
func wordsToBlob(words ...uint32) []byte {
	out := make([]byte, 4*len(words))
	for i, w := range words {
		binary.LittleEndian.PutUint32(out[i*4:], w)
	}
	return out
}

func newTestCPU32(t *testing.T, boot []byte) *CPU[uint32] {
	t.Helper()
	c, err := New[uint32](Blobs{Bootloader: boot}, Config{RegisterCount: 32, Endian: LittleEndian})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := c.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	return c
}

// E1: ADDI x1, x0, 5
func TestE1AddiImmediate(t *testing.T) {
	word := encI(OpArithLogI, 1, 0, 0, 5)
	if word != 0x00500093 {
		t.Fatalf("expected encoding 0x00500093, got 0x%08x", word)
	}
	c := newTestCPU32(t, wordsToBlob(word))
	startPC := c.PC.Read()
	d := Decode[uint32](word, 0x1F, nil)
	if d.Opcode != OpArithLogI || d.Rd != 1 || d.Rs1 != 0 || d.Imm != 5 || d.Funct3 != 0 {
		t.Fatalf("decode mismatch: %+v", d)
	}
	c.Execute(d)
	if c.Regs.Read(1) != 5 {
		t.Fatalf("x1 = %d, want 5", c.Regs.Read(1))
	}
	if c.PC.Read() != startPC+4 {
		t.Fatalf("PC = 0x%x, want 0x%x", c.PC.Read(), startPC+4)
	}
}

// E2: SLLI x3, x1, 3 with x1 = 0x0F beforehand.
func TestE2Slli(t *testing.T) {
	addi := encI(OpArithLogI, 1, 0, 0, 0x0F)
	slli := encI(OpArithLogI, 3, 1, 1, 3) // funct3=1, shamt=3, funct7=0
	c := newTestCPU32(t, wordsToBlob(addi, slli))

	c.Execute(Decode[uint32](addi, 0x1F, nil))
	if c.Regs.Read(1) != 0x0F {
		t.Fatalf("x1 = 0x%x, want 0x0F", c.Regs.Read(1))
	}
	c.Execute(Decode[uint32](slli, 0x1F, nil))
	if c.Regs.Read(3) != 0x78 {
		t.Fatalf("x3 = 0x%x, want 0x78", c.Regs.Read(3))
	}
	if c.Regs.Read(1) != 0x0F {
		t.Fatalf("x1 changed: 0x%x", c.Regs.Read(1))
	}
}

// E3: SD x1, 0(x2) on RV64, little-endian.
func TestE3StoreDoubleword(t *testing.T) {
	sd := encS(OpStore, 0b011, 2, 1, 0)
	c, err := New[uint64](Blobs{Bootloader: wordsToBlob(sd)}, Config{RegisterCount: 32, Endian: LittleEndian})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := c.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	c.Regs.Write(2, 0x40000808)
	c.Regs.Write(1, 0x1122334455667788)

	c.Execute(Decode[uint64](sd, 0x1F, nil))

	want := []byte{0x88, 0x77, 0x66, 0x55, 0x44, 0x33, 0x22, 0x11}
	for i, b := range want {
		got := c.Mem.LoadByte(0x40000808 + uint64(i))
		if got != b {
			t.Fatalf("byte %d = 0x%x, want 0x%x", i, got, b)
		}
	}
}

// E4: store-at-zero while PC is in the bootloader region.
func TestE4StoreAtZero(t *testing.T) {
	sb := encS(OpStore, 0b000, 0, 1, 0) // SB x1, 0(x0)
	c := newTestCPU32(t, wordsToBlob(sb))
	c.Regs.Write(1, 0xAB)

	d := Decode[uint32](sb, 0x1F, nil)
	c.Execute(d)

	if !c.Mem.HasFlag(FlagSAZ) {
		t.Fatal("FlagSAZ not set")
	}
	if c.Mem.LoadByte(0) != 0 {
		t.Fatalf("byte 0 = 0x%x, want 0", c.Mem.LoadByte(0))
	}
	if c.PC.Read() != c.Ranges.Bootloader.Start+4 {
		t.Fatal("PC did not advance after store-at-zero")
	}
}

// E5: user-mode code with rd == 2 sets MSP and leaves registers
// untouched, regardless of what the instruction would otherwise do.
func TestE5UserModeStackPointerWrite(t *testing.T) {
	addi := encI(OpArithLogI, 2, 0, 0, 123) // addi x2, x0, 123
	c, err := New[uint32](Blobs{UserProgram: wordsToBlob(addi)}, Config{RegisterCount: 32, Endian: LittleEndian})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := c.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	c.PC.Set(c.Ranges.UserProgram.Start)
	before := append([]uint32(nil), c.Regs.Snapshot()...)

	d := Decode[uint32](addi, 0x1F, nil)
	c.Execute(d)

	if !c.Mem.HasFlag(FlagMSP) {
		t.Fatal("FlagMSP not set")
	}
	after := c.Regs.Snapshot()
	for i := range before {
		if before[i] != after[i] {
			t.Fatalf("register %d changed: 0x%x -> 0x%x", i, before[i], after[i])
		}
	}
}

// E6: ECALL round trip between user program and interrupt handler.
func TestE6EcallRoundTrip(t *testing.T) {
	ecall := encI(OpEnvironment, 0, 0, 0, 0)
	c, err := New[uint32](Blobs{
		UserProgram:      wordsToBlob(ecall),
		InterruptHandler: wordsToBlob(ecall),
	}, Config{RegisterCount: 32, Endian: LittleEndian})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := c.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	c.PC.Set(c.Ranges.UserProgram.Start)
	userPC := c.PC.Read()

	if !c.Step() {
		t.Fatal("step 1 (user ECALL) stopped the run")
	}
	if !c.Ranges.InterruptHandler.Contains(c.PC.Read()) {
		t.Fatalf("PC after user ECALL = 0x%x, want interrupt-handler region", c.PC.Read())
	}

	if !c.Step() {
		t.Fatal("step 2 (handler ECALL) stopped the run")
	}
	if c.PC.Read() != userPC+4 {
		t.Fatalf("PC after handler ECALL = 0x%x, want 0x%x", c.PC.Read(), userPC+4)
	}
}

func TestMemoryGuardRejectsOutOfRegionAccess(t *testing.T) {
	lw := encI(OpLoad, 1, 0b010, 2, 0) // LW x1, 0(x2)
	c, err := New[uint32](Blobs{UserProgram: wordsToBlob(lw)}, Config{RegisterCount: 32, Endian: LittleEndian})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := c.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	c.PC.Set(c.Ranges.UserProgram.Start)
	c.Regs.Write(2, 0xFFFFF900) // interrupt-handler region: out of bounds for user code

	c.Execute(Decode[uint32](lw, 0x1F, nil))
	if !c.Mem.HasFlag(FlagSF) {
		t.Fatal("expected FlagSF for out-of-region user load")
	}
}

func TestTrapHandlerFatalStopsRun(t *testing.T) {
	invalid := uint32(0xFFFFFFFF) // opcode bits never map to a recognized format
	c := newTestCPU32(t, wordsToBlob(invalid))
	if c.Step() {
		t.Fatal("expected Step to report stop on illegal instruction")
	}
	if !c.Mem.HasFlag(FlagII) {
		t.Fatal("FlagII not set for an undecodable word")
	}
}
