package main

import (
	"flag"
	"log"
	"log/slog"
	"os"
	"strings"

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
	exts := extFlag{}
	flag.Var(&exts, "ext", "enable an extension (repeatable, e.g. -ext m)")
	debug := flag.Bool("debug", false, "break into the interactive console on EBREAK")
	flag.Parse()

	logger := emulog.New(os.Stderr, slog.LevelInfo, *debug)

	arch32, regCount, err := parseArch(*arch)
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
	var runErr error
	if arch32 {
		runErr = run[uint32](blobs, cfg, exts.names, *debug, logger)
	} else {
		runErr = run[uint64](blobs, cfg, exts.names, *debug, logger)
	}
	if runErr != nil {
		logger.Error("run failed", "error", runErr)
		log.Fatal(runErr)
	}
}

// run builds and executes a CPU of width W. It is the single place the
// emulator commits to a concrete word width, since cpu.CPU is generic
// over it but main() only learns the width from a flag at run time.
func run[W word.Width](blobs cpu.Blobs, cfg cpu.Config, extNames []string, debug bool, logger *slog.Logger) error {
	c, err := cpu.New[W](blobs, cfg)
	if err != nil {
		return err
	}
	c.Logger = logger

	for _, name := range extNames {
		switch name {
		case "m":
			c.Use(mext.New[W]())
		default:
			return errUnknownExtension(name)
		}
	}

	if debug {
		names := debugger.ABINames32
		if cfg.RegisterCount == 16 {
			names = names[:16]
		}
		console := debugger.New[W](names)
		c.Debugger = console.Run
	}

	if err := c.Start(); err != nil {
		return err
	}
	return c.Run()
}

type errUnknownExtension string

func (e errUnknownExtension) Error() string {
	return "unknown extension: " + string(e)
}

// parseArch maps -arch to the word width (true == 32-bit) and register
// count (32 for I variants, 16 for E variants).
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
		return false, 0, errUnknownExtension("unsupported -arch " + arch)
	}
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

// extFlag accumulates repeated -ext flags.
type extFlag struct {
	names []string
}

func (e *extFlag) String() string {
	return strings.Join(e.names, ",")
}

func (e *extFlag) Set(v string) error {
	e.names = append(e.names, v)
	return nil
}
