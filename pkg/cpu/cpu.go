package cpu

import (
	"fmt"
	"log/slog"

	"riscv-emu/pkg/word"
)

// DebuggerFunc is the contract an interactive debugger satisfies. It is
// invoked whenever FlagEB (EBREAK) is raised and may inspect or mutate
// CPU state, including setting FlagTP/FlagRP to stop or restart the
// machine once it returns.
type DebuggerFunc[W word.Width] func(c *CPU[W])

// Blobs names the four binary images loaded into memory on start/restart
// (spec.md §3).
type Blobs struct {
	Bootloader       []byte
	UserProgram      []byte
	GlobalData       []byte
	InterruptHandler []byte
}

// CPU is the complete machine state for one width W (uint32 for RV32,
// uint64 for RV64). It owns memory, the register file, the program
// counter, the shared ALU and constants table, the fixed address
// layout, and any registered extensions.
type CPU[W word.Width] struct {
	Mem        *Memory[W]
	Regs       *RegisterFile[W]
	PC         *Counter[W]
	Alu        *ALU[W]
	Consts     *Constants[W]
	Ranges     AddressRanges[W]
	Extensions []Extension[W]

	regMask  uint32 // 0x1F (I variant) or 0x0F (E variant)
	blobs    Blobs
	ecallRet W // single static ECALL return-address slot (spec.md §5)
	restart  bool

	Debugger DebuggerFunc[W]
	Logger   *slog.Logger
}

// Config selects the register-file width and the endianness used for
// multi-byte memory access.
type Config struct {
	RegisterCount int // 16 or 32
	Endian        Endianness
}

// New constructs a CPU with the given blobs and configuration. It does
// not load memory; call Start to bring it up.
func New[W word.Width](blobs Blobs, cfg Config) (*CPU[W], error) {
	if cfg.RegisterCount != 16 && cfg.RegisterCount != 32 {
		return nil, fmt.Errorf("cpu: register count must be 16 or 32, got %d", cfg.RegisterCount)
	}
	c := &CPU[W]{
		Mem:     NewMemory[W](cfg.Endian),
		Regs:    NewRegisterFile[W](cfg.RegisterCount),
		PC:      NewCounter[W](4),
		Alu:     NewALU[W](),
		Consts:  NewConstants[W](),
		Ranges:  DefaultAddressRanges[W](),
		regMask: uint32(cfg.RegisterCount - 1),
		blobs:   blobs,
		Logger:  slog.Default(),
	}
	return c, nil
}

// Use registers an instruction-set extension. Extensions are polled in
// the order they are added.
func (c *CPU[W]) Use(ext Extension[W]) {
	c.Extensions = append(c.Extensions, ext)
}

// Start loads the four blobs into their fixed address ranges and sets
// the PC to the bootloader's start address. It is also the body of a
// restart (FlagRP), which clears all state first (spec.md §3).
func (c *CPU[W]) Start() error {
	c.Mem.Reset()
	c.Regs.Reset()
	c.PC.Set(c.Ranges.Bootloader.Start)
	c.ecallRet = 0
	c.restart = false

	loads := []struct {
		name string
		data []byte
		rng  AddressRange[W]
	}{
		{"bootloader", c.blobs.Bootloader, c.Ranges.Bootloader},
		{"user program", c.blobs.UserProgram, c.Ranges.UserProgram},
		{"global data", c.blobs.GlobalData, c.Ranges.GlobalData},
		{"interrupt handler", c.blobs.InterruptHandler, c.Ranges.InterruptHandler},
	}
	for _, l := range loads {
		if err := c.loadBlob(l.data, l.rng); err != nil {
			return fmt.Errorf("cpu: loading %s: %w", l.name, err)
		}
	}
	return nil
}

// loadBlob copies data into memory starting at rng.Start, rejecting any
// blob too large for its region.
func (c *CPU[W]) loadBlob(data []byte, rng AddressRange[W]) error {
	if len(data) == 0 {
		return nil
	}
	span := uint64(rng.End-rng.Start) + 1
	if uint64(len(data)) > span {
		return fmt.Errorf("%d bytes does not fit in %d-byte region starting at 0x%x", len(data), span, rng.Start)
	}
	for i, b := range data {
		c.Mem.StoreByte(rng.Start+W(i), b)
	}
	return nil
}

// Fetch reads the 32-bit instruction word at the current PC.
func (c *CPU[W]) Fetch() uint32 {
	return uint32(c.Mem.LoadN(c.PC.Read(), 4))
}

// Step runs exactly one fetch/decode/execute/trap cycle and reports
// whether the machine should keep running.
func (c *CPU[W]) Step() bool {
	ir := c.Fetch()
	d := Decode[W](ir, c.regMask, c.Extensions)
	c.Execute(d)
	return c.handleTraps()
}

// Run steps the machine until handleTraps signals a stop, honoring each
// restart (FlagRP) by reinvoking Start.
func (c *CPU[W]) Run() error {
	for {
		for c.Step() {
		}
		if !c.restart {
			return nil
		}
		if err := c.Start(); err != nil {
			return err
		}
	}
}
