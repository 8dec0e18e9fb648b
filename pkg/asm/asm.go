// Package asm assembles this module's RISC-V dialect into the raw
// instruction and data binaries the loader expects (spec.md §4.7).
package asm

import (
	"errors"
	"fmt"
	"io"
	"os"

	"riscv-emu/pkg/cpu"
)

// Config selects the register-file width and endianness the assembler
// targets; both must match the emulator binary that will run the
// output.
type Config struct {
	XLen   int // 32 or 64
	MaxReg uint32
	Endian cpu.Endianness
}

// Result is the assembler's output: the instruction stream and, for
// the user program only, its accompanying data stream.
type Result struct {
	Program []byte
	Data    []byte
	Listing []ListingEntry
}

// ListingEntry is one emitted instruction's address, encoded word, and
// originating source line, for the `-v` listing cmd/asm can print.
// Mirrors the teacher's per-instruction Encode diagnostic
// ("0x%08x # 0b%032b - line: %d") generalized to this ISA.
type ListingEntry struct {
	Addr   int64
	Word   uint32
	Lineno int
}

// pendingLabel is a label seen but not yet bound to an emitted address.
type pendingLabel struct {
	Name string
	Kind labelKind
}

// Assemble runs the full two-pass pipeline over r: lex+parse (pipelined
// via channels, mirroring the source's concurrent scan), expand pseudo-
// instructions while assigning addresses and collecting fix-ups, then
// resolve and encode everything once the symbol table is complete.
func Assemble(r io.Reader, cfg Config) (Result, error) {
	var (
		pc      = userProgramBase
		dp      = globalDataBase
		pending []pendingLabel
		lines   []encLine
		data    []byte
		dfixups []dataFixup
		syms    = newSymtab()
	)

	bind := func(addr int64) error {
		for _, p := range pending {
			if p.Kind == labelLocal {
				syms.defineLocal(p.Name, addr)
			} else if err := syms.defineGlobal(p.Name, addr); err != nil {
				return err
			}
		}
		pending = nil
		return nil
	}

	for sl := range StartParsing(StartLexing(r)) {
		if sl.Label != "" {
			pending = append(pending, pendingLabel{Name: sl.Label, Kind: sl.LabelKind})
		}
		switch {
		case sl.Mnemonic != "":
			if err := bind(pc); err != nil {
				return Result{}, err
			}
			expanded, err := expandPseudo(sl, cfg.XLen, cfg.MaxReg)
			if err != nil {
				return Result{}, err
			}
			groupPC := pc
			for i := range expanded {
				expanded[i].Addr = pc
				if expanded[i].Fix != nil && expanded[i].Fix.PairPC == -1 {
					expanded[i].Fix.PairPC = groupPC
				}
				if expanded[i].Fix != nil && expanded[i].Fix.FromAddr == 0 {
					expanded[i].Fix.FromAddr = pc
				}
				pc += 4
			}
			lines = append(lines, expanded...)

		case sl.Directive != "":
			if err := bind(dp); err != nil {
				return Result{}, err
			}
			bytes, dfx, err := emitDirective(sl, cfg.Endian)
			if err != nil {
				return Result{}, err
			}
			base := len(data)
			for _, f := range dfx {
				f.Offset += base
				dfixups = append(dfixups, f)
			}
			data = append(data, bytes...)
			dp += int64(len(bytes))
		}
	}
	if err := bind(pc); err != nil {
		return Result{}, err
	}

	if err := resolveInstructionFixups(lines, syms); err != nil {
		return Result{}, err
	}
	if err := resolveDataFixups(data, dfixups, syms, cfg.Endian); err != nil {
		return Result{}, err
	}

	program := make([]byte, 0, len(lines)*4)
	listing := make([]ListingEntry, 0, len(lines))
	for _, ln := range lines {
		word, err := encodeLine(ln)
		if err != nil {
			return Result{}, err
		}
		program = append(program, encodeInt(uint64(word), 4, cfg.Endian)...)
		listing = append(listing, ListingEntry{Addr: ln.Addr, Word: word, Lineno: ln.Lineno})
	}

	return Result{Program: program, Data: data, Listing: listing}, nil
}

// resolveInstructionFixups patches every deferred immediate once the
// full symbol table is known (spec.md §9's redesign of the checkpoint-
// and-replay forward-reference scheme).
func resolveInstructionFixups(lines []encLine, syms *symtab) error {
	for i := range lines {
		f := lines[i].Fix
		if f == nil {
			continue
		}
		target, ok := resolveSymbol(syms, f.Symbol, f.FromAddr)
		if !ok {
			return &AsmError{Cause: "unresolved symbol: " + f.Symbol, Line: f.Lineno, Wrapped: ErrUnresolvedSymbol}
		}
		switch f.Kind {
		case fixBranch13:
			off := target - f.FromAddr
			if !fitsSigned(off, 13) {
				return &AsmError{Cause: "branch target out of 13-bit range", Line: f.Lineno, Wrapped: ErrOutOfRange}
			}
			lines[i].Imm = off
		case fixJal21:
			off := target - f.FromAddr
			if !fitsSigned(off, 21) {
				return &AsmError{Cause: "jump target out of 21-bit range", Line: f.Lineno, Wrapped: ErrOutOfRange}
			}
			lines[i].Imm = off
		case fixHi20PCRel:
			hi20, _ := splitHiLo(target - f.FromAddr)
			lines[i].Imm = int64(hi20)
		case fixLo12PCRel:
			_, lo12 := splitHiLo(target - f.PairPC)
			lines[i].Imm = signExtend12(lo12)
		}
	}
	return nil
}

func resolveSymbol(syms *symtab, name string, fromAddr int64) (int64, bool) {
	if isLocalRef(name) {
		return syms.resolveLocal(name, fromAddr)
	}
	return syms.resolveGlobal(name)
}

func resolveDataFixups(data []byte, fixups []dataFixup, syms *symtab, endian cpu.Endianness) error {
	for _, f := range fixups {
		addr, ok := syms.resolveGlobal(f.Symbol)
		if !ok {
			return &AsmError{Cause: "unresolved symbol: " + f.Symbol, Line: f.Lineno, Wrapped: ErrUnresolvedSymbol}
		}
		enc := encodeInt(uint64(addr), f.Size, endian)
		copy(data[f.Offset:f.Offset+f.Size], enc)
	}
	return nil
}

// encodeLine renders one fully-resolved encLine as a 32-bit word.
func encodeLine(ln encLine) (uint32, error) {
	spec, ok := baseMnemonics[ln.Mnemonic]
	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrUnknownMnemonic, ln.Mnemonic)
	}
	switch spec.form {
	case formR:
		return encodeR(spec.opcode, ln.Rd, spec.funct3, ln.Rs1, ln.Rs2, spec.funct7), nil
	case formI, formILoad:
		return encodeI(spec.opcode, ln.Rd, spec.funct3, ln.Rs1, uint32(ln.Imm)), nil
	case formS:
		return encodeS(spec.opcode, spec.funct3, ln.Rs1, ln.Rs2, uint32(ln.Imm)), nil
	case formB:
		return encodeB(spec.opcode, spec.funct3, ln.Rs1, ln.Rs2, uint32(ln.Imm)), nil
	case formU:
		return encodeU(spec.opcode, ln.Rd, uint32(ln.Imm)<<12), nil
	case formJ:
		return encodeJ(spec.opcode, ln.Rd, uint32(ln.Imm)), nil
	case formSystem:
		return encodeI(spec.opcode, 0, spec.funct3, 0, uint32(ln.Imm)), nil
	}
	return 0, fmt.Errorf("%w: %s has no encodable form", ErrCannotEncode, ln.Mnemonic)
}

// withFile stamps the source filename onto an *AsmError so the caller's
// diagnostic includes it alongside the line number (spec.md §7): every
// assembler error must report filename, line, and cause.
func withFile(err error, file string) error {
	var ae *AsmError
	if errors.As(err, &ae) {
		ae.File = file
	}
	return err
}

// AssembleFile is the convenience entry point cmd/asm uses: it reads
// src, assembles it, and writes the instruction stream to dst and (if
// any data was produced) the data stream to dst+"_data". When listing
// is non-nil, one "0x%08x: 0x%08x # line %d" row (address, encoded
// word, source line number) per emitted instruction is written to it
// (cmd/asm's -v flag).
func AssembleFile(src, dst string, cfg Config, listing io.Writer) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	result, err := Assemble(in, cfg)
	if err != nil {
		return withFile(err, src)
	}
	if err := os.WriteFile(dst, result.Program, 0o644); err != nil {
		return err
	}
	if len(result.Data) > 0 {
		if err := os.WriteFile(dst+"_data", result.Data, 0o644); err != nil {
			return err
		}
	}
	if listing != nil {
		for _, e := range result.Listing {
			fmt.Fprintf(listing, "0x%08x: 0x%08x # line %d\n", e.Addr, e.Word, e.Lineno)
		}
	}
	return nil
}
