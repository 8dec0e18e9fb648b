package asm

import "sort"

// userProgramBase and globalDataBase mirror cpu.DefaultAddressRanges'
// UserProgram.Start and GlobalData.Start, which are identical across
// both word widths; the assembler never needs the full generic ranges
// type, only these two base addresses to turn section-relative offsets
// into the absolute addresses that branches and la/call encode.
const (
	userProgramBase int64 = 0x00000800
	globalDataBase  int64 = 0x40000800
)

// fixupKind identifies how a deferred immediate must be computed once
// its symbol's address is known.
type fixupKind int

const (
	fixBranch13 fixupKind = iota // B-format: 13-bit signed, symbol - own pc
	fixJal21                     // J-format: 21-bit signed, symbol - own pc
	fixHi20PCRel                 // U-format high half of (symbol - own pc)
	fixLo12PCRel                 // I/S-format low half of (symbol - pairPC), sign-extension-aware
)

// fixup is one deferred immediate, recorded during expansion and
// patched once every label's address is known (spec.md §9's redesign
// of the source's checkpoint-and-replay scheme). Data-section symbol
// relocations use the separate dataFixup type instead.
type fixup struct {
	Kind     fixupKind
	Symbol   string
	FromAddr int64 // address of the instruction being patched (for PC-relative kinds)
	PairPC   int64 // address of the paired auipc, for fixLo12PCRel
	Lineno   int
}

// symtab accumulates label definitions (global and local-numeric) as
// the expansion pass assigns addresses, in program order.
type symtab struct {
	globals map[string]int64
	locals  map[string][]int64 // sorted ascending as labels are defined
}

func newSymtab() *symtab {
	return &symtab{globals: make(map[string]int64), locals: make(map[string][]int64)}
}

func (t *symtab) defineGlobal(name string, addr int64) error {
	if isRegisterName(name) {
		return &AsmError{Cause: "label collides with register name: " + name}
	}
	if _, ok := t.globals[name]; ok {
		return &AsmError{Cause: "duplicate symbol: " + name, Wrapped: ErrDuplicateSymbol}
	}
	t.globals[name] = addr
	return nil
}

func (t *symtab) defineLocal(name string, addr int64) {
	t.locals[name] = append(t.locals[name], addr)
}

// resolveGlobal looks up a plain symbol reference.
func (t *symtab) resolveGlobal(name string) (int64, bool) {
	a, ok := t.globals[name]
	return a, ok
}

// resolveLocal resolves "Nf" (forward) or "Nb" (backward) relative to
// fromAddr, per spec.md §8 invariant 10.
func (t *symtab) resolveLocal(ref string, fromAddr int64) (int64, bool) {
	if len(ref) < 2 {
		return 0, false
	}
	dir := ref[len(ref)-1]
	name := ref[:len(ref)-1]
	addrs := t.locals[name]
	if len(addrs) == 0 {
		return 0, false
	}
	sorted := append([]int64(nil), addrs...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })
	switch dir {
	case 'f':
		for _, a := range sorted {
			if a > fromAddr {
				return a, true
			}
		}
	case 'b':
		for i := len(sorted) - 1; i >= 0; i-- {
			if sorted[i] <= fromAddr {
				return sorted[i], true
			}
		}
	}
	return 0, false
}

// isLocalRef reports whether operand looks like a numeric local-label
// reference ("1f", "42b") rather than a global symbol name.
func isLocalRef(s string) bool {
	if len(s) < 2 {
		return false
	}
	dir := s[len(s)-1]
	if dir != 'f' && dir != 'b' {
		return false
	}
	for _, c := range s[:len(s)-1] {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}
