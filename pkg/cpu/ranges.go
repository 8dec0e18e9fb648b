package cpu

import "riscv-emu/pkg/word"

// AddressRange is an inclusive [Start, End] region of the address space.
type AddressRange[W word.Width] struct {
	Start, End W
}

// Contains reports whether addr lies within the range, inclusive.
func (r AddressRange[W]) Contains(addr W) bool {
	return addr >= r.Start && addr <= r.End
}

// AddressRanges holds the four fixed memory regions: bootloader, user
// program, global data, and interrupt handler. The PC always lies in one
// of these four ranges during execution (spec.md §3).
type AddressRanges[W word.Width] struct {
	Bootloader       AddressRange[W]
	UserProgram      AddressRange[W]
	GlobalData       AddressRange[W]
	InterruptHandler AddressRange[W]
}

// DefaultAddressRanges returns the layout from spec.md §3. The spec only
// defines numeric boundaries at W = 32; for W = 64 this keeps the same
// region sizes and offsets (so existing RV32 bootloader/program/data
// blobs remain placeable unchanged) but moves the interrupt handler to
// the true top of the address space, preserving its role as the last
// region in the map (see DESIGN.md open-question resolution #4). The
// handler's end is always the all-ones value of W, which happens to
// reproduce spec.md's literal RV32 boundaries exactly.
func DefaultAddressRanges[W word.Width]() AddressRanges[W] {
	end := ^W(0)
	return AddressRanges[W]{
		Bootloader:       AddressRange[W]{Start: 0x00000004, End: 0x000007FF},
		UserProgram:      AddressRange[W]{Start: 0x00000800, End: 0x400007FF},
		GlobalData:       AddressRange[W]{Start: 0x40000800, End: 0x800007FF},
		InterruptHandler: AddressRange[W]{Start: end - 0x7FF, End: end},
	}
}
