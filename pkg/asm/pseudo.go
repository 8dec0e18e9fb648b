package asm

import "strings"

// encLine is one base (non-pseudo) instruction after expansion, still
// missing its final address and, for symbol-referencing operands, its
// resolved immediate.
type encLine struct {
	Lineno   int
	Mnemonic string
	Rd       uint32
	Rs1      uint32
	Rs2      uint32
	Imm      int64 // resolved immediate/shamt; meaningless while Fix != nil
	Addr     int64
	Fix      *fixup
}

// parseMemOperand splits an "imm(reg)" operand into its two parts.
func parseMemOperand(op string) (immPart, regPart string, err error) {
	open := strings.IndexByte(op, '(')
	if open < 0 || !strings.HasSuffix(op, ")") {
		return "", "", &AsmError{Cause: "expected imm(reg) operand: " + op, Wrapped: ErrUnclosedParen}
	}
	immPart = strings.TrimSpace(op[:open])
	regPart = strings.TrimSpace(op[open+1 : len(op)-1])
	if immPart == "" {
		immPart = "0"
	}
	return immPart, regPart, nil
}

// resolveOperandImm parses op as either a numeric/char literal (returns
// ok=true with the value) or leaves resolution to a fixup (returns
// ok=false, the operand treated as a symbol name).
func resolveOperandImm(op string) (int64, bool, error) {
	switch {
	case op == "":
		return 0, false, &AsmError{Cause: "missing operand"}
	case op[0] == '\'':
		v, err := parseCharLiteral(op)
		return v, true, err
	case isNumericOperand(op):
		v, err := parseImmediate(op)
		return v, true, err
	default:
		return 0, false, nil
	}
}

// expandPseudo turns one parsed pseudo- or base-mnemonic source line
// into one or more base-mnemonic encLines. xlen is 32 or 64.
func expandPseudo(sl srcLine, xlen int, maxReg uint32) ([]encLine, error) {
	mn := sl.Mnemonic
	ops := sl.Operands
	ln := sl.Lineno

	need := func(n int) error {
		if len(ops) != n {
			return &AsmError{Cause: mn + ": expected " + itoa(n) + " operands, got " + itoa(len(ops)), Line: ln}
		}
		return nil
	}
	reg := func(i int) (uint32, error) { return lookupRegister(ops[i], maxReg) }

	switch mn {
	case "li":
		if err := need(2); err != nil {
			return nil, err
		}
		rd, err := reg(0)
		if err != nil {
			return nil, err
		}
		imm, err := parseImmediate(ops[1])
		if err != nil {
			return nil, err
		}
		return expandLi(ln, rd, imm, xlen), nil

	case "la":
		if err := need(2); err != nil {
			return nil, err
		}
		rd, err := reg(0)
		if err != nil {
			return nil, err
		}
		return pcRelPair(ln, "auipc", "addi", rd, rd, ops[1]), nil

	case "call":
		if err := need(1); err != nil {
			return nil, err
		}
		return pcRelPair(ln, "auipc", "jalr", 1, 1, ops[0]), nil

	case "tail":
		if err := need(1); err != nil {
			return nil, err
		}
		return pcRelPair(ln, "auipc", "jalr", 6, 0, ops[0]), nil

	case "mv":
		if err := need(2); err != nil {
			return nil, err
		}
		rd, err := reg(0)
		if err != nil {
			return nil, err
		}
		rs, err := reg(1)
		if err != nil {
			return nil, err
		}
		return []encLine{{Lineno: ln, Mnemonic: "addi", Rd: rd, Rs1: rs, Imm: 0}}, nil

	case "not":
		if err := need(2); err != nil {
			return nil, err
		}
		rd, err := reg(0)
		if err != nil {
			return nil, err
		}
		rs, err := reg(1)
		if err != nil {
			return nil, err
		}
		return []encLine{{Lineno: ln, Mnemonic: "xori", Rd: rd, Rs1: rs, Imm: -1}}, nil

	case "neg":
		if err := need(2); err != nil {
			return nil, err
		}
		rd, err := reg(0)
		if err != nil {
			return nil, err
		}
		rs, err := reg(1)
		if err != nil {
			return nil, err
		}
		return []encLine{{Lineno: ln, Mnemonic: "sub", Rd: rd, Rs1: 0, Rs2: rs}}, nil

	case "nop":
		if err := need(0); err != nil {
			return nil, err
		}
		return []encLine{{Lineno: ln, Mnemonic: "addi", Rd: 0, Rs1: 0, Imm: 0}}, nil

	case "seqz":
		if err := need(2); err != nil {
			return nil, err
		}
		rd, err := reg(0)
		if err != nil {
			return nil, err
		}
		rs, err := reg(1)
		if err != nil {
			return nil, err
		}
		return []encLine{{Lineno: ln, Mnemonic: "sltiu", Rd: rd, Rs1: rs, Imm: 1}}, nil

	case "snez":
		if err := need(2); err != nil {
			return nil, err
		}
		rd, err := reg(0)
		if err != nil {
			return nil, err
		}
		rs, err := reg(1)
		if err != nil {
			return nil, err
		}
		return []encLine{{Lineno: ln, Mnemonic: "sltu", Rd: rd, Rs1: 0, Rs2: rs}}, nil

	case "sext.b", "sext.h":
		if err := need(2); err != nil {
			return nil, err
		}
		rd, err := reg(0)
		if err != nil {
			return nil, err
		}
		rs, err := reg(1)
		if err != nil {
			return nil, err
		}
		width := 8
		if mn == "sext.h" {
			width = 16
		}
		shift := int64(xlen - width)
		return []encLine{
			{Lineno: ln, Mnemonic: "slli", Rd: rd, Rs1: rs, Imm: shift},
			{Lineno: ln, Mnemonic: "srai", Rd: rd, Rs1: rd, Imm: shift},
		}, nil

	case "sext.w":
		if err := need(2); err != nil {
			return nil, err
		}
		rd, err := reg(0)
		if err != nil {
			return nil, err
		}
		rs, err := reg(1)
		if err != nil {
			return nil, err
		}
		return []encLine{{Lineno: ln, Mnemonic: "addiw", Rd: rd, Rs1: rs, Imm: 0}}, nil

	case "zext.b":
		if err := need(2); err != nil {
			return nil, err
		}
		rd, err := reg(0)
		if err != nil {
			return nil, err
		}
		rs, err := reg(1)
		if err != nil {
			return nil, err
		}
		return []encLine{{Lineno: ln, Mnemonic: "andi", Rd: rd, Rs1: rs, Imm: 0xFF}}, nil

	case "zext.h", "zext.w":
		if err := need(2); err != nil {
			return nil, err
		}
		rd, err := reg(0)
		if err != nil {
			return nil, err
		}
		rs, err := reg(1)
		if err != nil {
			return nil, err
		}
		width := 16
		if mn == "zext.w" {
			width = 32
		}
		shift := int64(xlen - width)
		return []encLine{
			{Lineno: ln, Mnemonic: "slli", Rd: rd, Rs1: rs, Imm: shift},
			{Lineno: ln, Mnemonic: "srli", Rd: rd, Rs1: rd, Imm: shift},
		}, nil

	case "j":
		if err := need(1); err != nil {
			return nil, err
		}
		return []encLine{{Lineno: ln, Mnemonic: "jal", Rd: 0, Fix: &fixup{Kind: fixJal21, Symbol: ops[0], Lineno: ln}}}, nil

	case "jr":
		if err := need(1); err != nil {
			return nil, err
		}
		rs, err := reg(0)
		if err != nil {
			return nil, err
		}
		return []encLine{{Lineno: ln, Mnemonic: "jalr", Rd: 0, Rs1: rs, Imm: 0}}, nil

	case "ret":
		if err := need(0); err != nil {
			return nil, err
		}
		return []encLine{{Lineno: ln, Mnemonic: "jalr", Rd: 0, Rs1: 1, Imm: 0}}, nil

	case "beqz", "bnez", "blez", "bgez", "bltz", "bgtz":
		if err := need(2); err != nil {
			return nil, err
		}
		rs, err := reg(0)
		if err != nil {
			return nil, err
		}
		var base string
		var a, b uint32
		switch mn {
		case "beqz":
			base, a, b = "beq", rs, 0
		case "bnez":
			base, a, b = "bne", rs, 0
		case "blez":
			base, a, b = "bge", 0, rs
		case "bgez":
			base, a, b = "bge", rs, 0
		case "bltz":
			base, a, b = "blt", rs, 0
		case "bgtz":
			base, a, b = "blt", 0, rs
		}
		return []encLine{{Lineno: ln, Mnemonic: base, Rs1: a, Rs2: b, Fix: &fixup{Kind: fixBranch13, Symbol: ops[1], Lineno: ln}}}, nil
	}

	return expandBase(sl, maxReg)
}

// t6Reg is the scratch register ("t6", x31) the 64-bit li expansion
// borrows and re-zeroes before returning.
const t6Reg = 31

// expandLi implements the li pseudo-instruction: the shortest sequence
// of base instructions materializing imm into rd. A constant outside
// the 32-bit signed range is built as two independent 32-bit halves
// (rd for the high half, t6 as scratch for the low half) joined with
// slli/add, then t6 is re-zeroed.
func expandLi(ln int, rd uint32, imm int64, xlen int) []encLine {
	if xlen <= 32 || fitsSigned(imm, 32) {
		hi20, lo12 := splitHiLo(imm)
		if hi20 == 0 {
			return []encLine{{Lineno: ln, Mnemonic: "addi", Rd: rd, Rs1: 0, Imm: signExtend12(lo12)}}
		}
		out := []encLine{{Lineno: ln, Mnemonic: "lui", Rd: rd, Imm: int64(hi20)}}
		if lo12 != 0 {
			out = append(out, encLine{Lineno: ln, Mnemonic: "addi", Rd: rd, Rs1: rd, Imm: signExtend12(lo12)})
		}
		return out
	}
	return expandLi64(ln, rd, imm)
}

// expandLi64 builds the literal seven-instruction t6-scratch sequence
// for a constant that does not fit in 32 signed bits. Each 32-bit half
// of imm is sign-extended independently by its own lui/addi pair (as
// if materializing it alone via the 32-bit path above), so before
// splitting, any chunk whose own sign bit would corrupt the chunk above
// it once combined is compensated by rounding that chunk up: the low 12
// bits' sign (bit 11) carries into bits 12-31, the low half's sign
// (bit 31) carries into bits 32-43, and that chunk's sign (bit 43)
// carries into the top 20 bits. This mirrors the rounding cascade of
// the original li encoder.
func expandLi64(ln int, rd uint32, imm int64) []encLine {
	v := uint64(imm)
	upper20 := v & 0xFFFFF00000000000
	upper12 := v & 0x00000FFF00000000
	lower20 := v & 0x00000000FFFFF000
	lower12 := v & 0x0000000000000FFF
	temp := v

	if (temp>>11)&1 == 1 {
		temp = (upper20 | upper12 | lower20) - 0xFFFFFFFFFFFFF000
		upper20 = temp & 0xFFFFF00000000000
		upper12 = temp & 0x00000FFF00000000
		lower20 = temp & 0x00000000FFFFF000
	}
	if (temp>>31)&1 == 1 {
		temp = (upper20 | upper12) - 0xFFFFFFFF00000000
		upper20 = temp & 0xFFFFF00000000000
		upper12 = temp & 0x00000FFF00000000
	}
	if (temp>>43)&1 == 1 {
		temp = upper20 - 0xFFFFF00000000000
		upper20 = temp & 0xFFFFF00000000000
	}

	hiLui := int64((upper20 >> 44) & 0xFFFFF)
	hiAddi := signExtend12(uint32((upper12 >> 32) & 0xFFF))
	loLui := int64((lower20 >> 12) & 0xFFFFF)
	loAddi := signExtend12(uint32(lower12 & 0xFFF))

	return []encLine{
		{Lineno: ln, Mnemonic: "lui", Rd: rd, Imm: hiLui},
		{Lineno: ln, Mnemonic: "addi", Rd: rd, Rs1: rd, Imm: hiAddi},
		{Lineno: ln, Mnemonic: "slli", Rd: rd, Rs1: rd, Imm: 32},
		{Lineno: ln, Mnemonic: "lui", Rd: t6Reg, Imm: loLui},
		{Lineno: ln, Mnemonic: "addi", Rd: t6Reg, Rs1: t6Reg, Imm: loAddi},
		{Lineno: ln, Mnemonic: "add", Rd: rd, Rs1: rd, Rs2: t6Reg},
		{Lineno: ln, Mnemonic: "addi", Rd: t6Reg, Rs1: 0, Imm: 0},
	}
}

// signExtend12 interprets the low 12 bits of v as a signed 12-bit field.
func signExtend12(v uint32) int64 {
	return int64(int32(v<<20) >> 20)
}

func fitsSigned(v int64, bits int) bool {
	min := -(int64(1) << (bits - 1))
	max := int64(1)<<(bits-1) - 1
	return v >= min && v <= max
}

// pcRelPair builds the auipc + (addi|jalr) pair used by la/call/tail,
// tagging both halves with fixups resolved once the symbol's address
// is known. PairPC of the second line is resolved by the caller once
// addresses are assigned (sentinel -1 means "the auipc emitted
// immediately before this one in the same expansion group").
func pcRelPair(ln int, hiMn, loMn string, hiRd, loRd uint32, symbol string) []encLine {
	return []encLine{
		{Lineno: ln, Mnemonic: hiMn, Rd: hiRd, Fix: &fixup{Kind: fixHi20PCRel, Symbol: symbol, Lineno: ln}},
		{Lineno: ln, Mnemonic: loMn, Rd: loRd, Rs1: hiRd, Fix: &fixup{Kind: fixLo12PCRel, Symbol: symbol, Lineno: ln, PairPC: -1}},
	}
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	neg := n < 0
	if neg {
		n = -n
	}
	var buf [20]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	if neg {
		i--
		buf[i] = '-'
	}
	return string(buf[i:])
}
