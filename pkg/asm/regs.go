package asm

import "strconv"

// abiNames maps the ABI register alias to its numeric index. x0..x31
// are always accepted regardless of alias, handled separately in
// lookupRegister.
var abiNames = map[string]uint32{
	"zero": 0, "ra": 1, "sp": 2, "gp": 3, "tp": 4,
	"t0": 5, "t1": 6, "t2": 7,
	"s0": 8, "fp": 8, "s1": 9,
	"a0": 10, "a1": 11, "a2": 12, "a3": 13, "a4": 14, "a5": 15, "a6": 16, "a7": 17,
	"s2": 18, "s3": 19, "s4": 20, "s5": 21, "s6": 22, "s7": 23, "s8": 24, "s9": 25, "s10": 26, "s11": 27,
	"t3": 28, "t4": 29, "t5": 30, "t6": 31,
}

// lookupRegister resolves a register operand, which may be numeric
// (x0..x31) or an ABI alias, to its index. maxReg is 15 for an E variant
// or 31 for an I variant.
func lookupRegister(name string, maxReg uint32) (uint32, error) {
	if len(name) > 1 && (name[0] == 'x' || name[0] == 'X') {
		if n, err := strconv.ParseUint(name[1:], 10, 32); err == nil {
			if uint32(n) > maxReg {
				return 0, &AsmError{Cause: "register index out of range: " + name}
			}
			return uint32(n), nil
		}
	}
	if idx, ok := abiNames[name]; ok {
		if idx > maxReg {
			return 0, &AsmError{Cause: "register out of range for this variant: " + name}
		}
		return idx, nil
	}
	return 0, &AsmError{Cause: "unknown register: " + name}
}

// isRegisterName reports whether name collides with a register alias or
// numeric register form, used to reject labels that shadow a register.
func isRegisterName(name string) bool {
	if _, ok := abiNames[name]; ok {
		return true
	}
	if len(name) > 1 && (name[0] == 'x' || name[0] == 'X') {
		if _, err := strconv.ParseUint(name[1:], 10, 32); err == nil {
			return true
		}
	}
	return false
}
