package hack

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
)

const (
	computePrefix uint16 = 0b111 << 13
	shiftPrefix   uint16 = 0b101 << 13
)

// EncodeCompute returns the machine word of a C-instruction.
func EncodeCompute(c Compute) (uint16, error) {
	if c.Comp.IsShift() {
		return shiftPrefix | shiftBits[c.Comp]<<6 | uint16(c.Dest&7)<<3 | uint16(c.Jump&7), nil
	}
	bits, ok := compBits[c.Comp]
	if !ok {
		return 0, fmt.Errorf("unknown computation %q", c.Comp)
	}
	return computePrefix | bits<<6 | uint16(c.Dest&7)<<3 | uint16(c.Jump&7), nil
}

// EncodeValue returns the machine word of an A-instruction loading v.
func EncodeValue(v uint16) (uint16, error) {
	if v > MaxConstant {
		return 0, fmt.Errorf("constant %d exceeds %d", v, MaxConstant)
	}
	return v, nil
}

// Parse reads one line of assembly. Blank and comment-only lines yield nil.
func Parse(line string) (Instruction, error) {
	if i := strings.Index(line, "//"); i >= 0 {
		line = line[:i]
	}
	line = strings.TrimSpace(line)
	if line == "" {
		return nil, nil
	}

	switch line[0] {
	case '(':
		if !strings.HasSuffix(line, ")") || len(line) < 3 {
			return nil, fmt.Errorf("invalid label %q", line)
		}
		name := strings.TrimSpace(line[1 : len(line)-1])
		if !IsSymbol(name) {
			return nil, fmt.Errorf("invalid label %q", name)
		}
		return Label{Name: name}, nil

	case '@':
		operand := strings.TrimSpace(line[1:])
		if operand == "" {
			return nil, fmt.Errorf("missing operand in %q", line)
		}
		if operand[0] >= '0' && operand[0] <= '9' {
			v, err := strconv.ParseUint(operand, 10, 16)
			if err != nil || uint16(v) > MaxConstant {
				return nil, fmt.Errorf("constant out of range %q", operand)
			}
			return AtValue(uint16(v)), nil
		}
		if !IsSymbol(operand) {
			return nil, fmt.Errorf("invalid symbol %q", operand)
		}
		return At(operand), nil
	}

	return parseCompute(line)
}

func parseCompute(line string) (Compute, error) {
	var c Compute
	rest := line

	if eq := strings.IndexByte(rest, '='); eq >= 0 {
		d, ok := ParseDest(strings.TrimSpace(rest[:eq]))
		if !ok {
			return c, fmt.Errorf("invalid destination in %q", line)
		}
		c.Dest = d
		rest = rest[eq+1:]
	}

	if semi := strings.IndexByte(rest, ';'); semi >= 0 {
		j, ok := ParseJump(strings.TrimSpace(rest[semi+1:]))
		if !ok {
			return c, fmt.Errorf("invalid jump in %q", line)
		}
		c.Jump = j
		rest = rest[:semi]
	}

	comp, ok := ParseComp(rest)
	if !ok {
		return c, fmt.Errorf("invalid computation in %q", line)
	}
	c.Comp = comp
	return c, nil
}

// Write serializes a program, one instruction per line. Labels and comments
// start in column zero, everything else is indented.
func Write(w io.Writer, prog []Instruction) error {
	bw := bufio.NewWriter(w)
	for _, ins := range prog {
		switch ins.(type) {
		case Label, Comment:
		default:
			bw.WriteString("    ")
		}
		bw.WriteString(ins.String())
		bw.WriteByte('\n')
	}
	return bw.Flush()
}

// Format is Write into a string.
func Format(prog []Instruction) string {
	var sb strings.Builder
	_ = Write(&sb, prog)
	return sb.String()
}

// IsSymbol reports whether s is a valid user symbol: letters, digits, '_',
// '.', '$' and ':', not starting with a digit.
func IsSymbol(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z':
		case r == '_' || r == '.' || r == '$' || r == ':':
		case r >= '0' && r <= '9':
			if i == 0 {
				return false
			}
		default:
			return false
		}
	}
	return true
}
