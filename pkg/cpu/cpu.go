// Package cpu emulates the Hack computer: a 16-bit CPU with separate
// instruction ROM and data RAM, a memory-mapped screen and keyboard.
package cpu

import (
	"errors"
	"fmt"

	"govm/pkg/hack"
)

// DefaultCycleLimit bounds RunUntilDone.
const DefaultCycleLimit = 10_000_000

var (
	ErrCycleLimit   = errors.New("cycle limit reached")
	ErrProgramSize  = errors.New("program too large for ROM")
	ErrInvalidInstr = errors.New("invalid instruction")
)

// Computation field layout of a C-instruction.
const (
	bitA  = 1 << 12
	bitZX = 1 << 11
	bitNX = 1 << 10
	bitZY = 1 << 9
	bitNY = 1 << 8
	bitF  = 1 << 7
	bitNO = 1 << 6

	destA = 1 << 5
	destD = 1 << 4
	destM = 1 << 3
)

type CPU struct {
	ROM [hack.ROMSize]uint16
	RAM [hack.RAMSize]uint16

	A  uint16
	D  uint16
	PC uint16

	// Halted is set once the program enters a "(L) @L 0;JMP" self-loop or faults.
	Halted bool
	// Fault holds the reason a faulting instruction stopped the machine.
	Fault error

	Cycles uint64
}

func NewCPU() *CPU {
	return &CPU{}
}

// Load copies a program into ROM starting at address 0 and resets the CPU.
func (c *CPU) Load(program []uint16) error {
	if len(program) > len(c.ROM) {
		return fmt.Errorf("%w: %d words > %d words", ErrProgramSize, len(program), len(c.ROM))
	}
	c.ROM = [hack.ROMSize]uint16{}
	copy(c.ROM[:], program)
	c.Reset()
	return nil
}

// Reset clears the registers; RAM is left as is, like the hardware reset line.
func (c *CPU) Reset() {
	c.A, c.D, c.PC = 0, 0, 0
	c.Halted = false
	c.Fault = nil
	c.Cycles = 0
}

func (c *CPU) ReadMem(addr uint16) uint16 {
	return c.RAM[addr&0x7FFF]
}

func (c *CPU) WriteMem(addr uint16, val uint16) {
	c.RAM[addr&0x7FFF] = val
}

// PressKey latches a key code into the keyboard register.
func (c *CPU) PressKey(code uint16) {
	c.RAM[hack.KeyboardAddr] = code
}

func (c *CPU) ReleaseKey() {
	c.RAM[hack.KeyboardAddr] = 0
}

func (c *CPU) Step() {
	if c.Halted {
		return
	}

	pc := c.PC & 0x7FFF
	instr := c.ROM[pc]
	c.Cycles++

	if instr&0x8000 == 0 {
		c.A = instr
		c.PC = pc + 1
		return
	}

	var out uint16
	switch instr >> 13 {
	case 0b111:
		out = c.compute(instr)
	case 0b101:
		out = c.shift(instr)
	default:
		c.Halted = true
		c.Fault = fmt.Errorf("%w 0x%04X at %d", ErrInvalidInstr, instr, pc)
		return
	}

	// Every destination sees the pre-instruction A.
	addr := c.A
	if instr&destM != 0 {
		c.WriteMem(addr, out)
	}
	if instr&destA != 0 {
		c.A = out
	}
	if instr&destD != 0 {
		c.D = out
	}

	jump := hack.Jump(instr & 7)
	if !jump.Holds(int16(out)) {
		c.PC = pc + 1
		return
	}

	target := addr & 0x7FFF
	if jump == hack.JMP && target+1 == pc && c.ROM[target] == target {
		c.Halted = true
	}
	c.PC = target
}

// compute runs the Hack ALU: x is D, y is A or M depending on the a-bit.
func (c *CPU) compute(instr uint16) uint16 {
	x := c.D
	y := c.A
	if instr&bitA != 0 {
		y = c.ReadMem(c.A)
	}

	if instr&bitZX != 0 {
		x = 0
	}
	if instr&bitNX != 0 {
		x = ^x
	}
	if instr&bitZY != 0 {
		y = 0
	}
	if instr&bitNY != 0 {
		y = ^y
	}

	var out uint16
	if instr&bitF != 0 {
		out = x + y
	} else {
		out = x & y
	}
	if instr&bitNO != 0 {
		out = ^out
	}
	return out
}

// shift evaluates the shift extension. Right shifts are arithmetic.
func (c *CPU) shift(instr uint16) uint16 {
	field := instr >> 6 & 0x7F

	var v uint16
	switch {
	case field&0b1000000 != 0:
		v = c.ReadMem(c.A)
	case field&0b0010000 != 0:
		v = c.D
	default:
		v = c.A
	}

	if field&0b0100000 != 0 {
		return v << 1
	}
	return uint16(int16(v) >> 1)
}

// Run executes until the machine halts or maxCycles instructions have run.
func (c *CPU) Run(maxCycles uint64) (uint64, error) {
	start := c.Cycles
	for !c.Halted {
		if c.Cycles-start >= maxCycles {
			return c.Cycles - start, ErrCycleLimit
		}
		c.Step()
	}
	return c.Cycles - start, c.Fault
}

func (c *CPU) RunUntilDone() error {
	_, err := c.Run(DefaultCycleLimit)
	return err
}

// SP returns the stack pointer cell.
func (c *CPU) SP() uint16 {
	return c.RAM[0]
}

// Stack returns the cells between the stack base and SP.
func (c *CPU) Stack() []uint16 {
	sp := c.SP()
	if sp <= hack.StackBase || int(sp) > len(c.RAM) {
		return nil
	}
	out := make([]uint16, sp-hack.StackBase)
	copy(out, c.RAM[hack.StackBase:sp])
	return out
}

// Top returns the cell below SP.
func (c *CPU) Top() (uint16, bool) {
	sp := c.SP()
	if sp == 0 {
		return 0, false
	}
	return c.ReadMem(sp - 1), true
}
