package cpu

import "riscv-emu/pkg/word"

// Register is a W-bit cell with an immutable const bit. Writes to a const
// register are silently discarded rather than rejected with an error,
// matching x0's hardwired-zero semantics (spec.md §3).
type Register[W word.Width] struct {
	value   W
	isConst bool
}

// NewRegister constructs a register with the given initial value.
func NewRegister[W word.Width](v W, isConst bool) *Register[W] {
	return &Register[W]{value: v, isConst: isConst}
}

// Read returns the stored value.
func (r *Register[W]) Read() W {
	return r.value
}

// Write updates the value unless the register is const.
func (r *Register[W]) Write(v W) {
	if r.isConst {
		return
	}
	r.value = v
}

// set writes directly, bypassing the const check. Only the program
// counter and similar internal counters use this; it must never be
// exposed to instruction execution.
func (r *Register[W]) set(v W) {
	r.value = v
}

// Counter is a Register that advances by a fixed stride.
type Counter[W word.Width] struct {
	Register[W]
	Stride W
}

// NewCounter constructs a counter with the given stride (4 for the
// program counter, 1 elsewhere).
func NewCounter[W word.Width](stride W) *Counter[W] {
	return &Counter[W]{Stride: stride}
}

// Count adds the stride to the current value.
func (c *Counter[W]) Count() {
	c.set(c.Read() + c.Stride)
}

// Set assigns the counter's value directly. Used by jumps and taken
// branches, which write the target PC directly and inhibit the
// post-increment that Count would otherwise perform.
func (c *Counter[W]) Set(v W) {
	c.set(v)
}

// RegisterFile is an indexed set of 16 (RV*E) or 32 (RV*I) registers.
// Index 0 is always const-zero.
type RegisterFile[W word.Width] struct {
	regs []*Register[W]
	mask uint32
}

// NewRegisterFile constructs a register file with the given count, which
// must be 16 (E variant) or 32 (I variant).
func NewRegisterFile[W word.Width](count int) *RegisterFile[W] {
	regs := make([]*Register[W], count)
	regs[0] = NewRegister[W](0, true)
	for i := 1; i < count; i++ {
		regs[i] = NewRegister[W](0, false)
	}
	return &RegisterFile[W]{regs: regs, mask: uint32(count - 1)}
}

// Index masks a raw register index down to the valid range for this
// register file (0x0F for RV*E, 0x1F for RV*I).
func (rf *RegisterFile[W]) Index(i uint32) uint32 {
	return i & rf.mask
}

// Read returns the value of register i (masked to the valid range).
func (rf *RegisterFile[W]) Read(i uint32) W {
	return rf.regs[rf.Index(i)].Read()
}

// Write stores v into register i (masked to the valid range). Writes to
// x0 are silently discarded.
func (rf *RegisterFile[W]) Write(i uint32, v W) {
	rf.regs[rf.Index(i)].Write(v)
}

// Reset zeroes every register (x0 is already pinned to zero).
func (rf *RegisterFile[W]) Reset() {
	for i := range rf.regs {
		rf.regs[i].Write(0)
	}
}

// Snapshot returns the current value of every register, for debugger
// display.
func (rf *RegisterFile[W]) Snapshot() []W {
	out := make([]W, len(rf.regs))
	for i, r := range rf.regs {
		out[i] = r.Read()
	}
	return out
}
