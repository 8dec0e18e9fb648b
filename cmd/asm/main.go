package main

import (
	"flag"
	"io"
	"log"
	"log/slog"
	"os"
	"strings"

	"riscv-emu/internal/emulog"
	"riscv-emu/pkg/asm"
	"riscv-emu/pkg/cpu"
)

func main() {
	filename := flag.String("f", "", "assembly source file to assemble")
	out := flag.String("o", "", "output base name (defaults to input without .s)")
	xlen := flag.Int("xlen", 32, "register width: 32 or 64")
	variant := flag.String("e", "", "set to \"e\" for the 16-register E variant")
	endian := flag.String("endian", "little", "byte order: little or big")
	verbose := flag.Bool("v", false, "print a listing (address, word, source line) to stderr")
	flag.Parse()

	logger := emulog.New(os.Stderr, slog.LevelInfo, false)
	if *filename == "" {
		log.Fatal("usage: asm -f <assembly-code-file> [-o <output>] [-xlen 32|64] [-e e] [-endian little|big]")
	}

	dst := *out
	if dst == "" {
		dst = strings.TrimSuffix(*filename, ".s")
	}

	maxReg := uint32(31)
	if *variant == "e" {
		maxReg = 15
	}
	endianness := cpu.LittleEndian
	if *endian == "big" {
		endianness = cpu.BigEndian
	}

	var listing io.Writer
	if *verbose {
		listing = os.Stderr
	}

	cfg := asm.Config{XLen: *xlen, MaxReg: maxReg, Endian: endianness}
	if err := asm.AssembleFile(*filename, dst, cfg, listing); err != nil {
		logger.Error("assembly failed", "file", *filename, "error", err)
		log.Fatal(err)
	}
}
