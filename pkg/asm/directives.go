package asm

import "riscv-emu/pkg/cpu"

// dataFixup is a data-section relocation: write the resolved symbol
// address, encoded in endian order, at Offset bytes into the data
// output.
type dataFixup struct {
	Offset int
	Size   int
	Symbol string
	Lineno int
}

// emitDirective renders one data directive to bytes, returning any
// deferred symbol relocations with offsets relative to the start of
// this directive's own output.
func emitDirective(sl srcLine, endian cpu.Endianness) ([]byte, []dataFixup, error) {
	switch sl.Directive {
	case ".byte":
		return emitInts(sl, 1, endian)
	case ".half":
		return emitInts(sl, 2, endian)
	case ".word":
		return emitInts(sl, 4, endian)
	case ".dword":
		return emitInts(sl, 8, endian)
	case ".ascii":
		return emitString(sl, false)
	case ".asciz", ".string":
		return emitString(sl, true)
	default:
		return nil, nil, &AsmError{Cause: "unknown directive: " + sl.Directive, Line: sl.Lineno}
	}
}

func emitInts(sl srcLine, size int, endian cpu.Endianness) ([]byte, []dataFixup, error) {
	var out []byte
	var fixups []dataFixup
	for _, op := range sl.Operands {
		if v, ok, err := resolveOperandImm(op); err != nil {
			return nil, nil, err
		} else if ok {
			out = append(out, encodeInt(uint64(v), size, endian)...)
			continue
		}
		if size < 4 {
			return nil, nil, &AsmError{Cause: "symbol reference needs .word or .dword: " + op, Line: sl.Lineno}
		}
		fixups = append(fixups, dataFixup{Offset: len(out), Size: size, Symbol: op, Lineno: sl.Lineno})
		out = append(out, make([]byte, size)...)
	}
	return out, fixups, nil
}

func encodeInt(v uint64, size int, endian cpu.Endianness) []byte {
	b := make([]byte, size)
	for i := 0; i < size; i++ {
		shift := i * 8
		if endian == cpu.BigEndian {
			shift = (size - 1 - i) * 8
		}
		b[i] = byte(v >> shift)
	}
	return b
}

func emitString(sl srcLine, terminate bool) ([]byte, []dataFixup, error) {
	if len(sl.Operands) != 1 {
		return nil, nil, &AsmError{Cause: sl.Directive + ": expected one string operand", Line: sl.Lineno}
	}
	bytes, err := unquoteString(sl.Operands[0])
	if err != nil {
		return nil, nil, err
	}
	if terminate {
		bytes = append(bytes, 0)
	}
	return bytes, nil, nil
}
