// Package debugger implements the interactive text console entered on
// EBREAK: read registers, read memory, continue, terminate, restart.
package debugger

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/peterh/liner"

	"riscv-emu/internal/hexdump"
	"riscv-emu/pkg/cpu"
	"riscv-emu/pkg/word"
)

// ABINames32 lists the 32 RV*I calling-convention register names in
// index order.
var ABINames32 = []string{
	"zero", "ra", "sp", "gp", "tp", "t0", "t1", "t2",
	"s0", "s1", "a0", "a1", "a2", "a3", "a4", "a5",
	"a6", "a7", "s2", "s3", "s4", "s5", "s6", "s7",
	"s8", "s9", "s10", "s11", "t3", "t4", "t5", "t6",
}

// Console is an interactive debugger for a CPU of width W. addrBytes
// controls the width memory addresses and register values print at
// (4 for RV32, 8 for RV64).
type Console[W word.Width] struct {
	names     []string
	addrBytes int
}

// New constructs a console. names should be ABINames32 for an I variant
// or ABINames32[:16] for an E variant.
func New[W word.Width](names []string) *Console[W] {
	return &Console[W]{names: names, addrBytes: word.Bits[W]() / 8}
}

// Run implements cpu.DebuggerFunc: it blocks on the console until the
// user continues, terminates, or restarts the machine.
func (d *Console[W]) Run(c *cpu.CPU[W]) {
	line := liner.NewLiner()
	defer line.Close()
	line.SetCtrlCAborts(true)

	fmt.Printf("breakpoint at pc=%s\n", hexdump.Word(uint64(c.PC.Read()), d.addrBytes))

	for {
		input, err := line.Prompt("debug> ")
		if err != nil {
			if errors.Is(err, liner.ErrPromptAborted) {
				c.Mem.SetFlag(cpu.FlagTP)
				return
			}
			fmt.Println("error reading command:", err)
			continue
		}
		line.AppendHistory(input)

		if d.dispatch(c, strings.TrimSpace(input)) {
			return
		}
	}
}

// dispatch runs one command and reports whether the console should exit
// (continue/terminate/restart all exit; reg/mem do not).
func (d *Console[W]) dispatch(c *cpu.CPU[W], input string) bool {
	fields := strings.Fields(input)
	if len(fields) == 0 {
		return false
	}
	switch fields[0] {
	case "regs", "reg", "registers":
		fmt.Println(d.formatRegisters(c))
	case "mem", "memory":
		d.printMemory(c, fields[1:])
	case "continue", "c":
		return true
	case "terminate", "t":
		c.Mem.SetFlag(cpu.FlagTP)
		return true
	case "restart", "r":
		c.Mem.SetFlag(cpu.FlagRP)
		return true
	case "help", "h":
		fmt.Println("commands: regs | mem <addr> [<addr>] | continue | terminate | restart")
	default:
		fmt.Println("unknown command:", fields[0])
	}
	return false
}

func (d *Console[W]) formatRegisters(c *cpu.CPU[W]) string {
	snap := c.Regs.Snapshot()
	values := make([]uint64, len(snap))
	for i, v := range snap {
		values[i] = uint64(v)
	}
	names := d.names
	if len(names) > len(values) {
		names = names[:len(values)]
	}
	var b strings.Builder
	b.WriteString(hexdump.Registers(names, values, d.addrBytes, 4))
	b.WriteString("\npc=")
	b.WriteString(hexdump.Word(uint64(c.PC.Read()), d.addrBytes))
	return b.String()
}

func (d *Console[W]) printMemory(c *cpu.CPU[W], args []string) {
	if len(args) == 0 {
		fmt.Println("usage: mem <addr> [<addr>]")
		return
	}
	addr, err := strconv.ParseUint(strings.TrimPrefix(args[0], "0x"), 16, 64)
	if err != nil {
		fmt.Println("bad address:", args[0])
		return
	}
	count := 16
	if len(args) > 1 {
		end, err := strconv.ParseUint(strings.TrimPrefix(args[1], "0x"), 16, 64)
		if err != nil {
			fmt.Println("bad address:", args[1])
			return
		}
		if end >= addr {
			count = int(end-addr) + 1
		}
	}
	data := make([]byte, count)
	for i := range data {
		data[i] = c.Mem.LoadByte(W(addr) + W(i))
	}
	fmt.Print(hexdump.Dump(addr, d.addrBytes, data))
}
