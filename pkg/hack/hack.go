// Package hack models Hack assembly as typed records.
//
// Code generators build []Instruction and serialize them once with Write;
// the assembler reads text back with Parse and encodes it with Encode.
package hack

import (
	"fmt"
	"strconv"
)

// Memory map of the target machine.
const (
	TempBase     uint16 = 5
	VariableBase uint16 = 16
	StackBase    uint16 = 256
	ScreenBase   uint16 = 16384
	KeyboardAddr uint16 = 24576

	ROMSize = 32768
	RAMSize = 32768

	// MaxConstant is the largest value an A-instruction can load.
	MaxConstant uint16 = 0x7FFF
)

// Scratch registers used by generated code.
const (
	R13 = "R13"
	R14 = "R14"
)

// Predefined symbols, resolved before any label or variable.
var Predefined = map[string]uint16{
	"SP":     0,
	"LCL":    1,
	"ARG":    2,
	"THIS":   3,
	"THAT":   4,
	"SCREEN": ScreenBase,
	"KBD":    KeyboardAddr,
}

func init() {
	for i := 0; i < 16; i++ {
		Predefined["R"+strconv.Itoa(i)] = uint16(i)
	}
}

// Instruction is one line of Hack assembly.
type Instruction interface {
	fmt.Stringer
	hackInstruction()
}

// Address is an A-instruction: "@Symbol" or "@Value".
type Address struct {
	Symbol string
	Value  uint16
}

// Compute is a C-instruction: "dest=comp;jump".
type Compute struct {
	Dest Dest
	Comp Comp
	Jump Jump
}

// Label declares a jump target: "(Name)".
type Label struct {
	Name string
}

// Comment is emitted verbatim after "//" and ignored by the assembler.
type Comment struct {
	Text string
}

func (Address) hackInstruction() {}
func (Compute) hackInstruction() {}
func (Label) hackInstruction()   {}
func (Comment) hackInstruction() {}

// At loads a symbol into A.
func At(symbol string) Address { return Address{Symbol: symbol} }

// AtValue loads a literal into A.
func AtValue(v uint16) Address { return Address{Value: v} }

// Assign computes comp and stores it into dest.
func Assign(dest Dest, comp Comp) Compute { return Compute{Dest: dest, Comp: comp} }

// JumpOn computes comp and jumps to A when the condition holds.
func JumpOn(comp Comp, jump Jump) Compute { return Compute{Comp: comp, Jump: jump} }

func (a Address) String() string {
	if a.Symbol != "" {
		return "@" + a.Symbol
	}
	return "@" + strconv.Itoa(int(a.Value))
}

func (c Compute) String() string {
	s := string(c.Comp)
	if c.Dest != DestNone {
		s = c.Dest.String() + "=" + s
	}
	if c.Jump != JumpNone {
		s += ";" + c.Jump.String()
	}
	return s
}

func (l Label) String() string   { return "(" + l.Name + ")" }
func (c Comment) String() string { return "// " + c.Text }
