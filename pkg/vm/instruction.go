// Package vm models the stack-based VM language and parses it.
//
// Pipeline: VM source → Parse → []Instruction → codegen.Generate → Hack assembly
package vm

import (
	"fmt"
	"strconv"
)

// Instruction is one parsed VM command. The set of implementations is closed:
// Arithmetic, Push, Pop, Label, Goto, If, Function, Call and Return.
//
// String renders the instruction back to VM source text.
type Instruction interface {
	fmt.Stringer
	instruction()
}

// LabelSeparator joins a function name and a label or call suffix.
const LabelSeparator = "$"

// TopLevelScope qualifies labels that appear before any function header.
const TopLevelScope = "null"

type Arithmetic struct {
	Op Operator
}

type Push struct {
	Segment Segment
	Index   uint16
}

type Pop struct {
	Segment Segment
	Index   uint16
}

// Label is a jump target scoped to the function it was declared in.
type Label struct {
	Function string
	Name     string
}

type Goto struct {
	Target Label
}

// If pops the top of the stack and jumps to Target when it is non-zero.
type If struct {
	Target Label
}

type Function struct {
	Name      string
	NumLocals uint16
}

type Call struct {
	Function    string
	ReturnLabel string
	NumArgs     uint16
}

type Return struct{}

func (Arithmetic) instruction() {}
func (Push) instruction()       {}
func (Pop) instruction()        {}
func (Label) instruction()      {}
func (Goto) instruction()       {}
func (If) instruction()         {}
func (Function) instruction()   {}
func (Call) instruction()       {}
func (Return) instruction()     {}

// Qualified returns the globally unique assembly symbol for the label.
func (l Label) Qualified() string {
	parent := l.Function
	if parent == "" {
		parent = TopLevelScope
	}
	return parent + LabelSeparator + l.Name
}

// ReturnLabel formats the return address symbol of the index-th call to fn.
// The suffix is all digits, which no label name may start with, so it never
// meets a qualified label of fn.
func ReturnLabel(fn string, index int) string {
	return fn + LabelSeparator + strconv.Itoa(index)
}

func (a Arithmetic) String() string { return a.Op.String() }
func (p Push) String() string       { return fmt.Sprintf("push %s %d", p.Segment, p.Index) }
func (p Pop) String() string        { return fmt.Sprintf("pop %s %d", p.Segment, p.Index) }
func (l Label) String() string      { return "label " + l.Name }
func (g Goto) String() string       { return "goto " + g.Target.Name }
func (i If) String() string         { return "if-goto " + i.Target.Name }
func (f Function) String() string   { return fmt.Sprintf("function %s %d", f.Name, f.NumLocals) }
func (c Call) String() string       { return fmt.Sprintf("call %s %d", c.Function, c.NumArgs) }
func (Return) String() string       { return "return" }
