package cpu

import "riscv-emu/pkg/word"

// Op enumerates the ALU's operations (spec.md §4.4).
type Op int

const (
	OpADD Op = iota
	OpSUB
	OpAND
	OpOR
	OpXOR
	OpNOT
	OpEQ
	OpNEQ
	OpLT
	OpGE
	OpLTU
	OpGEU
	OpSLL
	OpSRL
	OpSRA
	OpSXT
)

// ALU holds two W-bit registers, operand1 and result, and exposes a single
// entry point, Operate, that combines operand1 (set via SetOperand1) with
// operand2. This lets the executor chain multi-step computations — e.g.
// sign-extend an immediate, then add it to a register — without
// allocating temporaries.
type ALU[W word.Width] struct {
	operand1 W
	result   W
}

// NewALU constructs an ALU with both registers zeroed.
func NewALU[W word.Width]() *ALU[W] {
	return &ALU[W]{}
}

// SetOperand1 assigns the left operand for the next Operate call.
func (a *ALU[W]) SetOperand1(v W) {
	a.operand1 = v
}

// Operand1 returns the current left operand.
func (a *ALU[W]) Operand1() W {
	return a.operand1
}

// Result returns the most recently computed result.
func (a *ALU[W]) Result() W {
	return a.result
}

// Operate combines operand1 with operand2 under op, stores the result,
// and returns it.
func (a *ALU[W]) Operate(op Op, operand2 W) W {
	switch op {
	case OpADD:
		a.result = a.operand1 + operand2
	case OpSUB:
		a.result = a.operand1 - operand2
	case OpAND:
		a.result = a.operand1 & operand2
	case OpOR:
		a.result = a.operand1 | operand2
	case OpXOR:
		a.result = a.operand1 ^ operand2
	case OpNOT:
		a.result = ^a.operand1
	case OpEQ:
		a.result = word.BoolTo[W](a.operand1 == operand2)
	case OpNEQ:
		a.result = word.BoolTo[W](a.operand1 != operand2)
	case OpLT:
		a.result = word.BoolTo[W](word.SignedLess(a.operand1, operand2))
	case OpGE:
		a.result = word.BoolTo[W](word.SignedGreaterEqual(a.operand1, operand2))
	case OpLTU:
		a.result = word.BoolTo[W](a.operand1 < operand2)
	case OpGEU:
		a.result = word.BoolTo[W](a.operand1 >= operand2)
	case OpSLL:
		a.result = word.ShiftLeft(a.operand1, int(operand2))
	case OpSRL:
		a.result = word.ShiftRightLogical(a.operand1, int(operand2))
	case OpSRA:
		a.result = word.ShiftRightArithmetic(a.operand1, int(operand2))
	case OpSXT:
		a.result = word.SignExtendByMask(a.operand1, operand2)
	default:
		panic("cpu: unknown ALU operation")
	}
	return a.result
}
