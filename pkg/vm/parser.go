package vm

import (
	"fmt"
	"strconv"
	"strings"

	"govm/pkg/hack"
)

const commentBegin = "//"

// Parser turns the lines of one VM unit into Instructions.
//
// Grammar (one command per line, "//" starts a comment):
//
//	command    = arithmetic | memory | flow | function | call | "return"
//	arithmetic = "add" | "sub" | "neg" | "and" | "or" | "not"
//	           | "shiftleft" | "shiftright" | "eq" | "gt" | "lt"
//	memory     = ("push" | "pop") segment INDEX
//	flow       = ("label" | "goto" | "if-goto") SYMBOL
//	function   = "function" SYMBOL INDEX
//	call       = "call" SYMBOL INDEX
type Parser struct {
	unit            string
	ledger          *CallLedger
	currentFunction string

	lineNo int
	text   string
}

// NewParser creates a parser for the unit named unit. ledger must be shared
// across all units of the same program.
func NewParser(unit string, ledger *CallLedger) *Parser {
	if ledger == nil {
		ledger = NewCallLedger()
	}
	return &Parser{unit: unit, ledger: ledger}
}

// Parse parses src as the unit named unit, allocating call indices in ledger.
func Parse(unit, src string, ledger *CallLedger) ([]Instruction, error) {
	return NewParser(unit, ledger).Parse(src)
}

// CurrentFunction is the scope labels are currently qualified with.
func (p *Parser) CurrentFunction() string {
	return p.currentFunction
}

func (p *Parser) Parse(src string) ([]Instruction, error) {
	var out []Instruction
	for i, raw := range strings.Split(src, "\n") {
		p.lineNo = i + 1
		p.text = strings.TrimSpace(raw)

		line := stripComment(raw)
		if line == "" {
			continue
		}

		instr, err := p.parseLine(strings.Fields(line))
		if err != nil {
			return nil, err
		}
		out = append(out, instr)
	}
	return out, nil
}

func (p *Parser) fmtError(kind error, format string, args ...any) error {
	err := kind
	if format != "" {
		err = fmt.Errorf("%w: %s", kind, fmt.Sprintf(format, args...))
	}
	return &ParseError{Unit: p.unit, Line: p.lineNo, Text: p.text, Err: err}
}

func (p *Parser) parseLine(fields []string) (Instruction, error) {
	keyword := fields[0]
	args := fields[1:]

	if op, ok := LookupOperator(keyword); ok {
		if err := p.arity(keyword, args, 0); err != nil {
			return nil, err
		}
		return Arithmetic{Op: op}, nil
	}

	switch keyword {
	case "push", "pop":
		return p.parseMemory(keyword, args)
	case "label", "goto", "if-goto":
		return p.parseFlow(keyword, args)
	case "function":
		return p.parseFunction(args)
	case "call":
		return p.parseCall(args)
	case "return":
		if err := p.arity(keyword, args, 0); err != nil {
			return nil, err
		}
		return Return{}, nil
	}

	return nil, p.fmtError(ErrInvalidInstruction, "unknown command %q", keyword)
}

// arity checks that a command received exactly want operands.
func (p *Parser) arity(keyword string, args []string, want int) error {
	if len(args) < want {
		return p.fmtError(ErrMissingOperand, "%s expects %d operand(s), got %d", keyword, want, len(args))
	}
	if len(args) > want {
		return p.fmtError(ErrInvalidInstruction, "%s expects %d operand(s), got %d", keyword, want, len(args))
	}
	return nil
}

func (p *Parser) parseMemory(keyword string, args []string) (Instruction, error) {
	if err := p.arity(keyword, args, 2); err != nil {
		return nil, err
	}

	seg, ok := LookupSegment(args[0])
	if !ok {
		return nil, p.fmtError(ErrUnknownSegment, "%q", args[0])
	}

	index, err := p.parseIndex(args[1])
	if err != nil {
		return nil, err
	}
	if index > seg.MaxIndex() {
		return nil, p.fmtError(ErrIndexOutOfRange, "%s %d exceeds %d", seg, index, seg.MaxIndex())
	}

	if keyword == "push" {
		return Push{Segment: seg, Index: index}, nil
	}
	return Pop{Segment: seg, Index: index}, nil
}

func (p *Parser) parseFlow(keyword string, args []string) (Instruction, error) {
	if err := p.arity(keyword, args, 1); err != nil {
		return nil, err
	}
	name := args[0]
	if !hack.IsSymbol(name) {
		return nil, p.fmtError(ErrInvalidInstruction, "invalid label %q", name)
	}

	label := Label{Function: p.currentFunction, Name: name}
	switch keyword {
	case "goto":
		return Goto{Target: label}, nil
	case "if-goto":
		return If{Target: label}, nil
	}
	return label, nil
}

func (p *Parser) parseFunction(args []string) (Instruction, error) {
	if err := p.arity("function", args, 2); err != nil {
		return nil, err
	}
	if !hack.IsSymbol(args[0]) {
		return nil, p.fmtError(ErrInvalidInstruction, "invalid function name %q", args[0])
	}
	nLocals, err := p.parseCount("function", args[1])
	if err != nil {
		return nil, err
	}

	p.currentFunction = args[0]
	return Function{Name: args[0], NumLocals: nLocals}, nil
}

// parseCall allocates the next ledger index for the callee. Scope is left
// untouched; only a function header changes it.
func (p *Parser) parseCall(args []string) (Instruction, error) {
	if err := p.arity("call", args, 2); err != nil {
		return nil, err
	}
	fn := args[0]
	if !hack.IsSymbol(fn) {
		return nil, p.fmtError(ErrInvalidInstruction, "invalid function name %q", fn)
	}
	nArgs, err := p.parseCount("call", args[1])
	if err != nil {
		return nil, err
	}

	return Call{
		Function:    fn,
		ReturnLabel: ReturnLabel(fn, p.ledger.Next(fn)),
		NumArgs:     nArgs,
	}, nil
}

func (p *Parser) parseIndex(tok string) (uint16, error) {
	v, err := strconv.ParseUint(tok, 10, 16)
	if err != nil {
		if ne, ok := err.(*strconv.NumError); ok && ne.Err == strconv.ErrRange {
			return 0, p.fmtError(ErrIndexOutOfRange, "%s", tok)
		}
		return 0, p.fmtError(ErrInvalidInstruction, "invalid index %q", tok)
	}
	return uint16(v), nil
}

// parseCount parses an argument or local count. It ends up in an
// A-instruction, so it is limited to 15 bits.
func (p *Parser) parseCount(keyword, tok string) (uint16, error) {
	n, err := p.parseIndex(tok)
	if err != nil {
		return 0, err
	}
	if n > hack.MaxConstant {
		return 0, p.fmtError(ErrIndexOutOfRange, "%s count %d exceeds %d", keyword, n, hack.MaxConstant)
	}
	return n, nil
}

func stripComment(line string) string {
	if i := strings.Index(line, commentBegin); i >= 0 {
		line = line[:i]
	}
	return strings.TrimSpace(line)
}
