// Package codegen lowers VM instructions to Hack assembly records.
package codegen

import (
	"errors"
	"fmt"
	"strings"

	"govm/pkg/hack"
	"govm/pkg/vm"
)

var (
	ErrUnmappedInstruction = errors.New("instruction has no template")
	ErrInvalidPop          = errors.New("cannot pop into constant segment")
)

// TranslationError names the instruction that could not be lowered.
type TranslationError struct {
	Module      string
	Index       int
	Instruction vm.Instruction
	Err         error
}

func (e *TranslationError) Error() string {
	return fmt.Sprintf("%s: instruction %d %q: %v", e.Module, e.Index+1, e.Instruction, e.Err)
}

func (e *TranslationError) Unwrap() error { return e.Err }

// Fragment is the code emitted for one VM instruction.
type Fragment struct {
	Source vm.Instruction
	Code   []hack.Instruction
}

// Generator lowers the instructions of one module. Its comparison counter is
// private, so a Generator must not be shared between modules.
type Generator struct {
	module      string
	comparisons int
}

// NewGenerator creates a generator for the module whose static cells are
// named "<module>.<index>".
func NewGenerator(module string) *Generator {
	return &Generator{module: module}
}

// Comparisons returns how many comparison label pairs have been minted.
func (g *Generator) Comparisons() int {
	return g.comparisons
}

// Generate lowers a module. The first failing instruction aborts generation
// and no fragments are returned.
func Generate(module string, instrs []vm.Instruction) ([]Fragment, error) {
	return NewGenerator(module).Generate(instrs)
}

func (g *Generator) Generate(instrs []vm.Instruction) ([]Fragment, error) {
	out := make([]Fragment, 0, len(instrs))
	for i, instr := range instrs {
		c, err := g.lower(instr)
		if err != nil {
			return nil, &TranslationError{Module: g.module, Index: i, Instruction: instr, Err: err}
		}
		out = append(out, Fragment{Source: instr, Code: c})
	}
	return out, nil
}

func (g *Generator) lower(instr vm.Instruction) ([]hack.Instruction, error) {
	switch n := instr.(type) {
	case vm.Arithmetic:
		return g.arithmetic(n.Op)
	case vm.Push:
		return g.push(n)
	case vm.Pop:
		return g.pop(n)
	case vm.Label:
		return labelTemplate(n.Qualified()), nil
	case vm.Goto:
		return gotoTemplate(n.Target.Qualified()), nil
	case vm.If:
		return ifGotoTemplate(n.Target.Qualified()), nil
	case vm.Function:
		return functionTemplate(n.Name, n.NumLocals), nil
	case vm.Call:
		return callTemplate(n.Function, n.ReturnLabel, n.NumArgs), nil
	case vm.Return:
		return returnTemplate(), nil
	}
	return nil, ErrUnmappedInstruction
}

func (g *Generator) arithmetic(op vm.Operator) ([]hack.Instruction, error) {
	switch {
	case op.IsComparison():
		jump, ok := compareJump[op]
		if !ok {
			return nil, ErrUnmappedInstruction
		}
		trueLabel, endLabel := g.comparisonLabels()
		return compareTemplate(jump, trueLabel, endLabel), nil
	case op.Kind() == vm.KindUnary:
		if comp, ok := unaryComp[op]; ok {
			return unaryTemplate(comp), nil
		}
	case op.Kind() == vm.KindShift:
		if comp, ok := shiftComp[op]; ok {
			return unaryTemplate(comp), nil
		}
	default:
		if comp, ok := binaryComp[op]; ok {
			return binaryTemplate(comp), nil
		}
	}
	return nil, ErrUnmappedInstruction
}

// comparisonLabels mints the next true/continue label pair of this module.
func (g *Generator) comparisonLabels() (string, string) {
	g.comparisons++
	prefix := g.module + vm.LabelSeparator
	return fmt.Sprintf("%sCMP_TRUE.%d", prefix, g.comparisons),
		fmt.Sprintf("%sCMP_END.%d", prefix, g.comparisons)
}

func (g *Generator) staticSymbol(index uint16) hack.Address {
	return hack.At(fmt.Sprintf("%s.%d", g.module, index))
}

func (g *Generator) push(p vm.Push) ([]hack.Instruction, error) {
	if reg, ok := p.Segment.Register(); ok {
		return pushIndirectTemplate(reg, p.Index), nil
	}
	switch p.Segment {
	case vm.SegmentConstant:
		return pushConstantTemplate(p.Index), nil
	case vm.SegmentTemp:
		return pushCellTemplate(hack.AtValue(hack.TempBase + p.Index)), nil
	case vm.SegmentPointer:
		return pushCellTemplate(hack.At(pointerRegister(p.Index))), nil
	case vm.SegmentStatic:
		return pushCellTemplate(g.staticSymbol(p.Index)), nil
	}
	return nil, ErrUnmappedInstruction
}

func (g *Generator) pop(p vm.Pop) ([]hack.Instruction, error) {
	if reg, ok := p.Segment.Register(); ok {
		return popIndirectTemplate(reg, p.Index), nil
	}
	switch p.Segment {
	case vm.SegmentConstant:
		return nil, ErrInvalidPop
	case vm.SegmentTemp:
		return popCellTemplate(hack.AtValue(hack.TempBase + p.Index)), nil
	case vm.SegmentPointer:
		return popCellTemplate(hack.At(pointerRegister(p.Index))), nil
	case vm.SegmentStatic:
		return popCellTemplate(g.staticSymbol(p.Index)), nil
	}
	return nil, ErrUnmappedInstruction
}

// pointerRegister selects THIS for pointer 0 and THAT for pointer 1.
func pointerRegister(index uint16) string {
	if index == 0 {
		return "THIS"
	}
	return "THAT"
}

// Flatten concatenates fragments into one program. With comments set, each
// fragment is preceded by its VM source line.
func Flatten(frags []Fragment, comments bool) []hack.Instruction {
	var out []hack.Instruction
	for _, f := range frags {
		if comments && f.Source != nil {
			out = append(out, hack.Comment{Text: f.Source.String()})
		}
		out = append(out, f.Code...)
	}
	return out
}

// Render serializes fragments to assembly text.
func Render(frags []Fragment, comments bool) string {
	var sb strings.Builder
	_ = hack.Write(&sb, Flatten(frags, comments))
	return sb.String()
}
