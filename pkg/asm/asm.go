// Package asm is a two-pass Hack assembler.
package asm

import (
	"fmt"
	"strings"

	"govm/pkg/hack"
)

type Assembler struct {
	labels       map[string]uint16
	variables    map[string]uint16
	nextVariable uint16
}

type parsedLine struct {
	lineNo int
	instr  hack.Instruction
}

func NewAssembler() *Assembler {
	return &Assembler{
		labels:       make(map[string]uint16),
		variables:    make(map[string]uint16),
		nextVariable: hack.VariableBase,
	}
}

// Assemble translates assembly text into ROM words. The source map relates
// each ROM address to its 1-based source line.
func Assemble(code string) ([]uint16, map[uint16]int, error) {
	return NewAssembler().Assemble(code)
}

func (a *Assembler) Assemble(code string) ([]uint16, map[uint16]int, error) {
	lines, err := parseLines(code)
	if err != nil {
		return nil, nil, err
	}

	if err := a.pass1(lines); err != nil {
		return nil, nil, err
	}

	return a.pass2(lines)
}

// Symbol resolves a label or variable defined by the last Assemble call.
func (a *Assembler) Symbol(name string) (uint16, bool) {
	if addr, ok := hack.Predefined[name]; ok {
		return addr, true
	}
	if addr, ok := a.labels[name]; ok {
		return addr, true
	}
	addr, ok := a.variables[name]
	return addr, ok
}

func parseLines(code string) ([]parsedLine, error) {
	var out []parsedLine
	for i, raw := range strings.Split(code, "\n") {
		lineNo := i + 1
		instr, err := hack.Parse(raw)
		if err != nil {
			return nil, fmt.Errorf("%v on line %d", err, lineNo)
		}
		if instr == nil {
			continue
		}
		if _, ok := instr.(hack.Comment); ok {
			continue
		}
		out = append(out, parsedLine{lineNo: lineNo, instr: instr})
	}
	return out, nil
}

func (a *Assembler) pass1(lines []parsedLine) error {
	var address uint32

	for _, p := range lines {
		lbl, ok := p.instr.(hack.Label)
		if !ok {
			address++
			if address > hack.ROMSize {
				return fmt.Errorf("program too large near line %d", p.lineNo)
			}
			continue
		}

		if _, exists := hack.Predefined[lbl.Name]; exists {
			return fmt.Errorf("label '%s' on line %d shadows a predefined symbol", lbl.Name, p.lineNo)
		}
		if _, exists := a.labels[lbl.Name]; exists {
			return fmt.Errorf("duplicate label '%s' on line %d", lbl.Name, p.lineNo)
		}
		a.labels[lbl.Name] = uint16(address)
	}

	return nil
}

func (a *Assembler) pass2(lines []parsedLine) ([]uint16, map[uint16]int, error) {
	program := make([]uint16, 0, len(lines))
	sourceMap := make(map[uint16]int)

	for _, p := range lines {
		var word uint16
		var err error

		switch ins := p.instr.(type) {
		case hack.Label:
			continue
		case hack.Address:
			word, err = a.resolve(ins)
		case hack.Compute:
			word, err = hack.EncodeCompute(ins)
		default:
			err = fmt.Errorf("unsupported instruction %q", ins)
		}
		if err != nil {
			return nil, nil, fmt.Errorf("%v on line %d", err, p.lineNo)
		}

		sourceMap[uint16(len(program))] = p.lineNo
		program = append(program, word)
	}

	return program, sourceMap, nil
}

// resolve encodes an A-instruction, allocating a variable cell for unknown symbols.
func (a *Assembler) resolve(ins hack.Address) (uint16, error) {
	if ins.Symbol == "" {
		return hack.EncodeValue(ins.Value)
	}
	if addr, ok := a.Symbol(ins.Symbol); ok {
		return addr, nil
	}
	if a.nextVariable >= hack.ScreenBase {
		return 0, fmt.Errorf("out of variable space for '%s'", ins.Symbol)
	}
	addr := a.nextVariable
	a.variables[ins.Symbol] = addr
	a.nextVariable++
	return addr, nil
}

// Disassemble renders a ROM word back to assembly; symbols are not recovered.
func Disassemble(word uint16) string {
	if word&0x8000 == 0 {
		return hack.AtValue(word).String()
	}
	c, ok := DecodeCompute(word)
	if !ok {
		return fmt.Sprintf("<invalid 0x%04X>", word)
	}
	return c.String()
}

// DecodeCompute recovers the C-instruction record of a machine word.
func DecodeCompute(word uint16) (hack.Compute, bool) {
	for _, comp := range allComps {
		c := hack.Compute{
			Dest: hack.Dest(word >> 3 & 7),
			Comp: comp,
			Jump: hack.Jump(word & 7),
		}
		if enc, err := hack.EncodeCompute(c); err == nil && enc == word {
			return c, true
		}
	}
	return hack.Compute{}, false
}

var allComps = []hack.Comp{
	hack.CompZero, hack.CompOne, hack.CompMinusOne,
	hack.CompD, hack.CompA, hack.CompM,
	hack.CompNotD, hack.CompNotA, hack.CompNotM,
	hack.CompNegD, hack.CompNegA, hack.CompNegM,
	hack.CompDPlus1, hack.CompAPlus1, hack.CompMPlus1,
	hack.CompDMinus1, hack.CompAMinus1, hack.CompMMinus1,
	hack.CompDPlusA, hack.CompDPlusM, hack.CompDMinusA, hack.CompDMinusM,
	hack.CompAMinusD, hack.CompMMinusD,
	hack.CompDAndA, hack.CompDAndM, hack.CompDOrA, hack.CompDOrM,
	hack.CompDShiftLeft, hack.CompAShiftLeft, hack.CompMShiftLeft,
	hack.CompDShiftRight, hack.CompAShiftRight, hack.CompMShiftRight,
}

// FormatHack renders ROM words in the textual .hack format, one 16-digit
// binary word per line.
func FormatHack(words []uint16) string {
	var sb strings.Builder
	sb.Grow(len(words) * 17)
	for _, w := range words {
		fmt.Fprintf(&sb, "%016b\n", w)
	}
	return sb.String()
}
