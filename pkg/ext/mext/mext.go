// Package mext implements the M (integer multiply/divide) extension as
// a cpu.Extension, polled by the base decoder/executor whenever an
// arithmetic R-format instruction carries funct7 == 0b0000001.
package mext

import (
	"math/big"

	"riscv-emu/pkg/cpu"
	"riscv-emu/pkg/word"
)

const mFunct7 = 0b0000001

// Funct3 values for the eight base M instructions. The W-suffixed
// RV64 forms (opcode ArithLogRW) only define MUL/DIV/DIVU/REM/REMU;
// there is no MULHW family because a 32-bit-truncated high-multiply
// result is never useful.
const (
	funct3MUL    = 0b000
	funct3MULH   = 0b001
	funct3MULHSU = 0b010
	funct3MULHU  = 0b011
	funct3DIV    = 0b100
	funct3DIVU   = 0b101
	funct3REM    = 0b110
	funct3REMU   = 0b111
)

// Ext is the M-extension implementation for word width W.
type Ext[W word.Width] struct{}

// New constructs the extension. It holds no state; one instance may be
// shared across CPUs.
func New[W word.Width]() *Ext[W] {
	return &Ext[W]{}
}

// DecodeValid reports whether d encodes an M-extension instruction.
func (Ext[W]) DecodeValid(d cpu.Decoded) bool {
	if d.Opcode != cpu.OpArithLogR && d.Opcode != cpu.OpArithLogRW {
		return false
	}
	if d.Funct7 != mFunct7 {
		return false
	}
	if d.Opcode == cpu.OpArithLogRW {
		switch d.Funct3 {
		case funct3MUL, funct3DIV, funct3DIVU, funct3REM, funct3REMU:
			return true
		default:
			return false
		}
	}
	return true
}

// Execute performs the multiply/divide semantics against c's register
// file, using math/big so that the high-multiply and divide paths are
// correct at both W = uint32 and W = uint64 without duplicating
// overflow-prone bit-twiddling per width.
func (Ext[W]) Execute(c *cpu.CPU[W], d cpu.Decoded) (bool, error) {
	bits := word.Bits[W]()
	isW := d.Opcode == cpu.OpArithLogRW
	opBits := bits
	if isW {
		opBits = 32
	}

	a := c.Regs.Read(d.Rs1)
	b := c.Regs.Read(d.Rs2)
	if isW {
		a &= 0xFFFFFFFF
		b &= 0xFFFFFFFF
	}

	var res W
	switch d.Funct3 {
	case funct3MUL:
		res = mulLow(a, b, opBits)
	case funct3MULH:
		res = mulHigh(a, b, opBits, true, true)
	case funct3MULHSU:
		res = mulHigh(a, b, opBits, true, false)
	case funct3MULHU:
		res = mulHigh(a, b, opBits, false, false)
	case funct3DIV:
		res = divSigned(a, b, opBits)
	case funct3DIVU:
		res = divUnsigned(a, b)
	case funct3REM:
		res = remSigned(a, b, opBits)
	case funct3REMU:
		res = remUnsigned(a, b)
	default:
		return false, nil
	}

	if isW {
		res = signExtend32(res)
	}
	c.Regs.Write(d.Rd, res)
	return true, nil
}

// toBig interprets v (opBits wide) as a big.Int, signed or unsigned.
func toBig[W word.Width](v W, opBits int, signed bool) *big.Int {
	u := new(big.Int).SetUint64(uint64(v) & maskFor(opBits))
	if !signed {
		return u
	}
	signBit := new(big.Int).Lsh(big.NewInt(1), uint(opBits-1))
	if u.Cmp(signBit) >= 0 {
		full := new(big.Int).Lsh(big.NewInt(1), uint(opBits))
		u.Sub(u, full)
	}
	return u
}

// fromBig truncates x to opBits and returns it as W.
func fromBig[W word.Width](x *big.Int, opBits int) W {
	m := new(big.Int).SetUint64(maskFor(opBits))
	t := new(big.Int).And(x, m)
	return W(t.Uint64())
}

func maskFor(bits int) uint64 {
	if bits >= 64 {
		return ^uint64(0)
	}
	return (uint64(1) << uint(bits)) - 1
}

func mulLow[W word.Width](a, b W, opBits int) W {
	av := toBig[W](a, opBits, false)
	bv := toBig[W](b, opBits, false)
	return fromBig[W](new(big.Int).Mul(av, bv), opBits)
}

func mulHigh[W word.Width](a, b W, opBits int, signedA, signedB bool) W {
	av := toBig[W](a, opBits, signedA)
	bv := toBig[W](b, opBits, signedB)
	full := new(big.Int).Mul(av, bv)
	shifted := new(big.Int).Rsh(normalizeForShift(full, opBits), uint(opBits))
	return fromBig[W](shifted, opBits)
}

// normalizeForShift converts a possibly-negative product into its
// two's-complement representation over 2*opBits bits so an arithmetic
// right shift by opBits yields the correct high word.
func normalizeForShift(x *big.Int, opBits int) *big.Int {
	if x.Sign() >= 0 {
		return x
	}
	full := new(big.Int).Lsh(big.NewInt(1), uint(2*opBits))
	return new(big.Int).Add(full, x)
}

func divSigned[W word.Width](a, b W, opBits int) W {
	av := toBig[W](a, opBits, true)
	bv := toBig[W](b, opBits, true)
	if bv.Sign() == 0 {
		return ^W(0) // division by zero: all-ones (spec.md §4.5)
	}
	minVal := new(big.Int).Neg(new(big.Int).Lsh(big.NewInt(1), uint(opBits-1)))
	if av.Cmp(minVal) == 0 && bv.Cmp(big.NewInt(-1)) == 0 {
		return a // overflow: result is the dividend (spec.md §4.5)
	}
	q := new(big.Int).Quo(av, bv)
	return fromBig[W](q, opBits)
}

func divUnsigned[W word.Width](a, b W) W {
	if b == 0 {
		return ^W(0)
	}
	return a / b
}

func remSigned[W word.Width](a, b W, opBits int) W {
	av := toBig[W](a, opBits, true)
	bv := toBig[W](b, opBits, true)
	if bv.Sign() == 0 {
		return a
	}
	minVal := new(big.Int).Neg(new(big.Int).Lsh(big.NewInt(1), uint(opBits-1)))
	if av.Cmp(minVal) == 0 && bv.Cmp(big.NewInt(-1)) == 0 {
		return 0
	}
	r := new(big.Int).Rem(av, bv)
	return fromBig[W](r, opBits)
}

func remUnsigned[W word.Width](a, b W) W {
	if b == 0 {
		return a
	}
	return a % b
}

// signExtend32 sign-extends the low 32 bits of v to the full width W,
// used by every RV64 -W result.
func signExtend32[W word.Width](v W) W {
	v &= 0xFFFFFFFF
	if v&0x80000000 == 0 {
		return v
	}
	return v | ^W(0xFFFFFFFF)
}
