package hack

import "strings"

// Dest is the destination bit set of a C-instruction.
type Dest byte

const (
	DestNone Dest = 0
	DestM    Dest = 1
	DestD    Dest = 2
	DestMD   Dest = DestM | DestD
	DestA    Dest = 4
	DestAM   Dest = DestA | DestM
	DestAD   Dest = DestA | DestD
	DestAMD  Dest = DestA | DestM | DestD
)

var destNames = [...]string{"", "M", "D", "MD", "A", "AM", "AD", "AMD"}

func (d Dest) String() string { return destNames[d&7] }

// ParseDest accepts the registers in any order, e.g. "DM" or "MD".
func ParseDest(s string) (Dest, bool) {
	var d Dest
	for _, r := range s {
		var bit Dest
		switch r {
		case 'A':
			bit = DestA
		case 'D':
			bit = DestD
		case 'M':
			bit = DestM
		default:
			return 0, false
		}
		if d&bit != 0 {
			return 0, false
		}
		d |= bit
	}
	return d, s != ""
}

// Jump is the jump condition of a C-instruction, tested against the ALU output.
type Jump byte

const (
	JumpNone Jump = iota
	JGT
	JEQ
	JGE
	JLT
	JNE
	JLE
	JMP
)

var jumpNames = [...]string{"", "JGT", "JEQ", "JGE", "JLT", "JNE", "JLE", "JMP"}

func (j Jump) String() string { return jumpNames[j&7] }

func ParseJump(s string) (Jump, bool) {
	for i, name := range jumpNames {
		if i > 0 && name == s {
			return Jump(i), true
		}
	}
	return JumpNone, false
}

// Holds reports whether the jump is taken for ALU output out.
func (j Jump) Holds(out int16) bool {
	switch j {
	case JGT:
		return out > 0
	case JEQ:
		return out == 0
	case JGE:
		return out >= 0
	case JLT:
		return out < 0
	case JNE:
		return out != 0
	case JLE:
		return out <= 0
	case JMP:
		return true
	}
	return false
}

// Comp is the computation mnemonic of a C-instruction.
type Comp string

const (
	CompZero     Comp = "0"
	CompOne      Comp = "1"
	CompMinusOne Comp = "-1"
	CompD        Comp = "D"
	CompA        Comp = "A"
	CompM        Comp = "M"
	CompNotD     Comp = "!D"
	CompNotA     Comp = "!A"
	CompNotM     Comp = "!M"
	CompNegD     Comp = "-D"
	CompNegA     Comp = "-A"
	CompNegM     Comp = "-M"
	CompDPlus1   Comp = "D+1"
	CompAPlus1   Comp = "A+1"
	CompMPlus1   Comp = "M+1"
	CompDMinus1  Comp = "D-1"
	CompAMinus1  Comp = "A-1"
	CompMMinus1  Comp = "M-1"
	CompDPlusA   Comp = "D+A"
	CompDPlusM   Comp = "D+M"
	CompDMinusA  Comp = "D-A"
	CompDMinusM  Comp = "D-M"
	CompAMinusD  Comp = "A-D"
	CompMMinusD  Comp = "M-D"
	CompDAndA    Comp = "D&A"
	CompDAndM    Comp = "D&M"
	CompDOrA     Comp = "D|A"
	CompDOrM     Comp = "D|M"

	// Shift extension; encoded with the 101 prefix.
	CompDShiftLeft  Comp = "D<<"
	CompAShiftLeft  Comp = "A<<"
	CompMShiftLeft  Comp = "M<<"
	CompDShiftRight Comp = "D>>"
	CompAShiftRight Comp = "A>>"
	CompMShiftRight Comp = "M>>"
)

// compBits holds the a-bit and c1..c6 (zx nx zy ny f no) of each computation.
var compBits = map[Comp]uint16{
	CompZero:     0b0101010,
	CompOne:      0b0111111,
	CompMinusOne: 0b0111010,
	CompD:        0b0001100,
	CompA:        0b0110000,
	CompM:        0b1110000,
	CompNotD:     0b0001101,
	CompNotA:     0b0110001,
	CompNotM:     0b1110001,
	CompNegD:     0b0001111,
	CompNegA:     0b0110011,
	CompNegM:     0b1110011,
	CompDPlus1:   0b0011111,
	CompAPlus1:   0b0110111,
	CompMPlus1:   0b1110111,
	CompDMinus1:  0b0001110,
	CompAMinus1:  0b0110010,
	CompMMinus1:  0b1110010,
	CompDPlusA:   0b0000010,
	CompDPlusM:   0b1000010,
	CompDMinusA:  0b0010011,
	CompDMinusM:  0b1010011,
	CompAMinusD:  0b0000111,
	CompMMinusD:  0b1000111,
	CompDAndA:    0b0000000,
	CompDAndM:    0b1000000,
	CompDOrA:     0b0010101,
	CompDOrM:     0b1010101,
}

// shiftBits holds the a-bit and c-bits of the shift extension.
var shiftBits = map[Comp]uint16{
	CompAShiftRight: 0b0000000,
	CompDShiftRight: 0b0010000,
	CompAShiftLeft:  0b0100000,
	CompDShiftLeft:  0b0110000,
	CompMShiftRight: 0b1000000,
	CompMShiftLeft:  0b1100000,
}

// compAliases maps commuted spellings onto the canonical mnemonic.
var compAliases = map[Comp]Comp{
	"A+D": CompDPlusA,
	"M+D": CompDPlusM,
	"A&D": CompDAndA,
	"M&D": CompDAndM,
	"A|D": CompDOrA,
	"M|D": CompDOrM,
	"1+D": CompDPlus1,
	"1+A": CompAPlus1,
	"1+M": CompMPlus1,
}

// ParseComp normalizes a computation mnemonic; whitespace is ignored.
func ParseComp(s string) (Comp, bool) {
	c := Comp(strings.Join(strings.Fields(s), ""))
	if alias, ok := compAliases[c]; ok {
		c = alias
	}
	if _, ok := compBits[c]; ok {
		return c, true
	}
	if _, ok := shiftBits[c]; ok {
		return c, true
	}
	return "", false
}

// IsShift reports whether the computation belongs to the shift extension.
func (c Comp) IsShift() bool {
	_, ok := shiftBits[c]
	return ok
}
