package cpu

import "riscv-emu/pkg/word"

// Endianness selects the byte order used by multi-byte loads and stores.
// The assembler's output encoding must use the same setting (spec.md §6).
type Endianness int

const (
	LittleEndian Endianness = iota
	BigEndian
)

// The following bits make up the interrupt-flag byte stored at memory
// address 1 (spec.md §3). SAZ, II, SF, MSP, and TP are fatal; EB, EC, and
// RP are recoverable/control flags.
const (
	FlagSAZ uint8 = 1 << iota
	FlagII
	FlagSF
	FlagMSP
	FlagEB
	FlagEC
	FlagTP
	FlagRP
)

// FlagAddress is the canonical trap register's address.
const FlagAddress = 1

// Memory is a sparse byte-addressed store. Unmapped reads return 0 and
// allocate the mapping, making subsequent reads of the same address
// observable (spec.md §3). Writing to address 0 never touches memory:
// it instead raises FlagSAZ at address 1, which is itself an ordinary,
// addressable memory cell.
type Memory[W word.Width] struct {
	cells  map[W]byte
	endian Endianness
}

// NewMemory constructs an empty memory with the given endianness.
func NewMemory[W word.Width](endian Endianness) *Memory[W] {
	return &Memory[W]{cells: make(map[W]byte), endian: endian}
}

// Reset clears every mapped cell, as happens on start() and on restart.
func (m *Memory[W]) Reset() {
	m.cells = make(map[W]byte)
}

// LoadByte reads one byte, allocating (as zero) if the address was never
// written.
func (m *Memory[W]) LoadByte(addr W) byte {
	b, ok := m.cells[addr]
	if !ok {
		m.cells[addr] = 0
	}
	return b
}

// StoreByte writes one byte. A write to address 0 is rejected and raises
// FlagSAZ instead.
func (m *Memory[W]) StoreByte(addr W, v byte) {
	if addr == 0 {
		m.SetFlag(FlagSAZ)
		return
	}
	m.cells[addr] = v
}

// LoadN reads an n-byte value (n in {1,2,4,8}) respecting the configured
// endianness.
func (m *Memory[W]) LoadN(addr W, n int) W {
	var v uint64
	for i := 0; i < n; i++ {
		shift := i * 8
		if m.endian == BigEndian {
			shift = (n - 1 - i) * 8
		}
		v |= uint64(m.LoadByte(addr+W(i))) << shift
	}
	return W(v)
}

// StoreN writes an n-byte value (n in {1,2,4,8}) respecting the
// configured endianness. Any byte landing on address 0 raises FlagSAZ for
// that byte alone; the remaining bytes are still written.
func (m *Memory[W]) StoreN(addr W, n int, val W) {
	uv := uint64(val)
	for i := 0; i < n; i++ {
		shift := i * 8
		if m.endian == BigEndian {
			shift = (n - 1 - i) * 8
		}
		m.StoreByte(addr+W(i), byte(uv>>shift))
	}
}

// Flags returns the current interrupt-flag byte.
func (m *Memory[W]) Flags() uint8 {
	return m.LoadByte(FlagAddress)
}

// SetFlag sets the given bit of the interrupt-flag byte.
func (m *Memory[W]) SetFlag(bit uint8) {
	m.cells[W(FlagAddress)] = m.Flags() | bit
}

// ClearFlag clears the given bit of the interrupt-flag byte.
func (m *Memory[W]) ClearFlag(bit uint8) {
	m.cells[W(FlagAddress)] = m.Flags() &^ bit
}

// HasFlag reports whether the given bit of the interrupt-flag byte is set.
func (m *Memory[W]) HasFlag(bit uint8) bool {
	return m.Flags()&bit != 0
}
