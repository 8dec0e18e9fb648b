package asm

// expandBase parses a non-pseudo source line directly into a single
// encLine, dispatching on the operand shape its form requires.
func expandBase(sl srcLine, maxReg uint32) ([]encLine, error) {
	spec, ok := baseMnemonics[sl.Mnemonic]
	if !ok {
		return nil, &AsmError{Cause: "unknown mnemonic: " + sl.Mnemonic, Line: sl.Lineno, Wrapped: ErrUnknownMnemonic}
	}
	ln := sl.Lineno
	ops := sl.Operands
	reg := func(i int) (uint32, error) { return lookupRegister(ops[i], maxReg) }

	switch spec.form {
	case formSystem:
		if len(ops) != 0 {
			return nil, &AsmError{Cause: sl.Mnemonic + " takes no operands", Line: ln, Wrapped: ErrTooManyOperands}
		}
		imm := int64(0)
		if sl.Mnemonic == "ebreak" {
			imm = 1
		}
		return []encLine{{Lineno: ln, Mnemonic: sl.Mnemonic, Imm: imm}}, nil

	case formR:
		if len(ops) != 3 {
			return nil, &AsmError{Cause: sl.Mnemonic + ": expected 3 operands", Line: ln}
		}
		rd, err := reg(0)
		if err != nil {
			return nil, err
		}
		rs1, err := reg(1)
		if err != nil {
			return nil, err
		}
		rs2, err := reg(2)
		if err != nil {
			return nil, err
		}
		return []encLine{{Lineno: ln, Mnemonic: sl.Mnemonic, Rd: rd, Rs1: rs1, Rs2: rs2}}, nil

	case formI:
		if sl.Mnemonic == "jalr" {
			return expandJalr(sl, maxReg)
		}
		if len(ops) != 3 {
			return nil, &AsmError{Cause: sl.Mnemonic + ": expected 3 operands", Line: ln}
		}
		rd, err := reg(0)
		if err != nil {
			return nil, err
		}
		rs1, err := reg(1)
		if err != nil {
			return nil, err
		}
		imm, ok, err := resolveOperandImm(ops[2])
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, &AsmError{Cause: sl.Mnemonic + ": immediate operand required, got symbol " + ops[2], Line: ln}
		}
		if spec.isShift {
			if imm < 0 {
				return nil, &AsmError{Cause: "negative shift amount", Line: ln, Wrapped: ErrOutOfRange}
			}
			arith := int64(0)
			if spec.funct7 == 32 {
				arith = 1 << 10
			}
			return []encLine{{Lineno: ln, Mnemonic: sl.Mnemonic, Rd: rd, Rs1: rs1, Imm: arith | imm}}, nil
		}
		if !fitsSigned(imm, 12) {
			return nil, &AsmError{Cause: sl.Mnemonic + ": immediate out of 12-bit range", Line: ln, Wrapped: ErrOutOfRange}
		}
		return []encLine{{Lineno: ln, Mnemonic: sl.Mnemonic, Rd: rd, Rs1: rs1, Imm: imm}}, nil

	case formILoad:
		if len(ops) != 2 {
			return nil, &AsmError{Cause: sl.Mnemonic + ": expected 2 operands", Line: ln}
		}
		rd, err := reg(0)
		if err != nil {
			return nil, err
		}
		immStr, regStr, err := parseMemOperand(ops[1])
		if err != nil {
			return nil, err
		}
		rs1, err := lookupRegister(regStr, maxReg)
		if err != nil {
			return nil, err
		}
		imm, err := parseImmediate(immStr)
		if err != nil {
			return nil, err
		}
		return []encLine{{Lineno: ln, Mnemonic: sl.Mnemonic, Rd: rd, Rs1: rs1, Imm: imm}}, nil

	case formS:
		if len(ops) != 2 {
			return nil, &AsmError{Cause: sl.Mnemonic + ": expected 2 operands", Line: ln}
		}
		rs2, err := reg(0)
		if err != nil {
			return nil, err
		}
		immStr, regStr, err := parseMemOperand(ops[1])
		if err != nil {
			return nil, err
		}
		rs1, err := lookupRegister(regStr, maxReg)
		if err != nil {
			return nil, err
		}
		imm, err := parseImmediate(immStr)
		if err != nil {
			return nil, err
		}
		return []encLine{{Lineno: ln, Mnemonic: sl.Mnemonic, Rs1: rs1, Rs2: rs2, Imm: imm}}, nil

	case formB:
		if len(ops) != 3 {
			return nil, &AsmError{Cause: sl.Mnemonic + ": expected 3 operands", Line: ln}
		}
		rs1, err := reg(0)
		if err != nil {
			return nil, err
		}
		rs2, err := reg(1)
		if err != nil {
			return nil, err
		}
		return []encLine{{Lineno: ln, Mnemonic: sl.Mnemonic, Rs1: rs1, Rs2: rs2,
			Fix: &fixup{Kind: fixBranch13, Symbol: ops[2], Lineno: ln}}}, nil

	case formU:
		if len(ops) != 2 {
			return nil, &AsmError{Cause: sl.Mnemonic + ": expected 2 operands", Line: ln}
		}
		rd, err := reg(0)
		if err != nil {
			return nil, err
		}
		imm, ok, err := resolveOperandImm(ops[1])
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, &AsmError{Cause: sl.Mnemonic + ": immediate operand required", Line: ln}
		}
		return []encLine{{Lineno: ln, Mnemonic: sl.Mnemonic, Rd: rd, Imm: imm & 0xFFFFF}}, nil

	case formJ:
		if len(ops) != 2 {
			return nil, &AsmError{Cause: sl.Mnemonic + ": expected 2 operands", Line: ln}
		}
		rd, err := reg(0)
		if err != nil {
			return nil, err
		}
		return []encLine{{Lineno: ln, Mnemonic: sl.Mnemonic, Rd: rd,
			Fix: &fixup{Kind: fixJal21, Symbol: ops[1], Lineno: ln}}}, nil
	}
	return nil, &AsmError{Cause: "unhandled form for " + sl.Mnemonic, Line: ln}
}

// expandJalr handles both "jalr rd, imm(rs1)" and "jalr rd, rs1, imm"
// spellings.
func expandJalr(sl srcLine, maxReg uint32) ([]encLine, error) {
	ops := sl.Operands
	ln := sl.Lineno
	if len(ops) == 2 {
		rd, err := lookupRegister(ops[0], maxReg)
		if err != nil {
			return nil, err
		}
		immStr, regStr, err := parseMemOperand(ops[1])
		if err != nil {
			return nil, err
		}
		rs1, err := lookupRegister(regStr, maxReg)
		if err != nil {
			return nil, err
		}
		imm, err := parseImmediate(immStr)
		if err != nil {
			return nil, err
		}
		return []encLine{{Lineno: ln, Mnemonic: "jalr", Rd: rd, Rs1: rs1, Imm: imm}}, nil
	}
	if len(ops) == 3 {
		rd, err := lookupRegister(ops[0], maxReg)
		if err != nil {
			return nil, err
		}
		rs1, err := lookupRegister(ops[1], maxReg)
		if err != nil {
			return nil, err
		}
		imm, err := parseImmediate(ops[2])
		if err != nil {
			return nil, err
		}
		return []encLine{{Lineno: ln, Mnemonic: "jalr", Rd: rd, Rs1: rs1, Imm: imm}}, nil
	}
	return nil, &AsmError{Cause: "jalr: expected 2 or 3 operands", Line: ln}
}
