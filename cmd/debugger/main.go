// cmd/debugger wraps internal/debugger.Console as a standalone binary:
// unlike cmd/emulator -debug (which only breaks on EBREAK), this always
// drops into the console immediately at the bootloader's entry point,
// then keeps breaking on every subsequent EBREAK until terminated.
package main

import (
	"flag"
	"log"
	"log/slog"
	"os"

	"riscv-emu/internal/debugger"
	"riscv-emu/internal/emulog"
	"riscv-emu/pkg/cpu"
	"riscv-emu/pkg/ext/mext"
	"riscv-emu/pkg/word"
)

func main() {
	boot := flag.String("boot", "./Programs/bootloader", "bootloader image")
	program := flag.String("program", "./Programs/program", "user program image")
	data := flag.String("data", "./Programs/program_data", "global data image")
	irq := flag.String("irq", "./Programs/interrupt_handler", "interrupt handler image")
	arch := flag.String("arch", "rv32i", "CPU variant: rv32i, rv32e, rv64i, rv64e")
	endian := flag.String("endian", "little", "byte order: little or big")
	useM := flag.Bool("ext-m", false, "enable the M (multiply/divide) extension")
	flag.Parse()

	logger := emulog.New(os.Stderr, slog.LevelInfo, true)

	is32, regCount, err := parseArch(*arch)
	if err != nil {
		log.Fatal(err)
	}
	endianness := cpu.LittleEndian
	if *endian == "big" {
		endianness = cpu.BigEndian
	}

	blobs, err := loadBlobs(*boot, *program, *data, *irq)
	if err != nil {
		logger.Error("loading program images failed", "error", err)
		log.Fatal(err)
	}

	cfg := cpu.Config{RegisterCount: regCount, Endian: endianness}
	if is32 {
		err = debug[uint32](blobs, cfg, *useM, logger)
	} else {
		err = debug[uint64](blobs, cfg, *useM, logger)
	}
	if err != nil {
		logger.Error("debugger session failed", "error", err)
		log.Fatal(err)
	}
}

func debug[W word.Width](blobs cpu.Blobs, cfg cpu.Config, useM bool, logger *slog.Logger) error {
	c, err := cpu.New[W](blobs, cfg)
	if err != nil {
		return err
	}
	c.Logger = logger
	if useM {
		c.Use(mext.New[W]())
	}

	names := debugger.ABINames32
	if cfg.RegisterCount == 16 {
		names = names[:16]
	}
	console := debugger.New[W](names)
	c.Debugger = console.Run

	if err := c.Start(); err != nil {
		return err
	}
	console.Run(c)
	return c.Run()
}

func parseArch(arch string) (is32 bool, regCount int, err error) {
	switch arch {
	case "rv32i":
		return true, 32, nil
	case "rv32e":
		return true, 16, nil
	case "rv64i":
		return false, 32, nil
	case "rv64e":
		return false, 16, nil
	default:
		return false, 0, unsupportedArch(arch)
	}
}

type unsupportedArch string

func (a unsupportedArch) Error() string {
	return "unsupported -arch " + string(a)
}

func loadBlobs(boot, program, data, irq string) (cpu.Blobs, error) {
	b, err := os.ReadFile(boot)
	if err != nil {
		return cpu.Blobs{}, err
	}
	p, err := os.ReadFile(program)
	if err != nil {
		return cpu.Blobs{}, err
	}
	d, err := os.ReadFile(data)
	if err != nil {
		return cpu.Blobs{}, err
	}
	h, err := os.ReadFile(irq)
	if err != nil {
		return cpu.Blobs{}, err
	}
	return cpu.Blobs{Bootloader: b, UserProgram: p, GlobalData: d, InterruptHandler: h}, nil
}
