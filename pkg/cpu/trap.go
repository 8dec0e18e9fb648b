package cpu

import "fmt"

// handleTraps inspects the interrupt-flag byte after each step and acts
// on the highest-priority flag currently set, in the fixed order given
// by spec.md §5: SAZ, II, SF, MSP, EB, EC, TP, RP. It returns true if
// the run loop should keep stepping.
func (c *CPU[W]) handleTraps() bool {
	flags := c.Mem.Flags()

	switch {
	case flags&FlagSAZ != 0:
		c.fatal("store at address zero", 0)
		return false
	case flags&FlagII != 0:
		c.fatal("illegal instruction", 0)
		return false
	case flags&FlagSF != 0:
		c.fatal("segmentation fault", 0)
		return false
	case flags&FlagMSP != 0:
		c.fatal("Attempted to modify Stack Pointer", 0)
		return false
	case flags&FlagEB != 0:
		return c.handleBreak()
	case flags&FlagEC != 0:
		return c.handleCall()
	case flags&FlagTP != 0:
		c.Logger.Info("run terminated", "pc", fmt.Sprintf("0x%x", uint64(c.PC.Read())))
		return false
	case flags&FlagRP != 0:
		c.Logger.Info("run stopped for restart", "pc", fmt.Sprintf("0x%x", uint64(c.PC.Read())))
		c.restart = true
		return false
	}
	return true
}

// fatal logs a fatal trap with the offending PC. code is unused; it
// exists so callers can later distinguish sub-kinds without changing
// the signature.
func (c *CPU[W]) fatal(kind string, code int) {
	c.Logger.Error(kind, "pc", fmt.Sprintf("0x%x", uint64(c.PC.Read())))
}

// handleBreak runs the registered debugger (if any) and clears FlagEB.
// The debugger may itself set FlagTP or FlagRP to stop or restart the
// machine once it returns; those are handled right away, before the PC
// would advance past the EBREAK.
func (c *CPU[W]) handleBreak() bool {
	c.Mem.ClearFlag(FlagEB)
	if c.Debugger != nil {
		c.Debugger(c)
	}
	if c.Mem.Flags()&(FlagTP|FlagRP) != 0 {
		return c.handleTraps()
	}
	c.PC.Count()
	return true
}

// handleCall performs the ECALL two-way jump: the first ECALL from the
// user-program region saves the return address and jumps to the
// interrupt handler; an ECALL issued from within the interrupt handler
// is treated as "return" and jumps back. The return slot is a single
// static field (spec.md §5), so nested ECALLs are not supported.
func (c *CPU[W]) handleCall() bool {
	c.Mem.ClearFlag(FlagEC)
	pc := c.PC.Read()
	switch {
	case c.Ranges.InterruptHandler.Contains(pc):
		c.PC.Set(c.ecallRet)
	case c.Ranges.UserProgram.Contains(pc):
		c.ecallRet = pc
		c.PC.Set(c.Ranges.InterruptHandler.Start)
	default:
		c.fatal("illegal use of ECALL", 0)
		return false
	}
	return true
}
