package codegen

import (
	"govm/pkg/hack"
	"govm/pkg/vm"
)

// The helpers below are the template library: each returns the machine
// records for one family of VM instructions. None of them touch generator
// state; label names are passed in.

// pushD pushes D onto the stack.
func pushD() []hack.Instruction {
	return []hack.Instruction{
		hack.At("SP"),
		hack.Assign(hack.DestAM, hack.CompMPlus1),
		hack.Assign(hack.DestA, hack.CompAMinus1),
		hack.Assign(hack.DestM, hack.CompD),
	}
}

// popD pops the top of the stack into D, leaving A pointing at the popped cell.
func popD() []hack.Instruction {
	return []hack.Instruction{
		hack.At("SP"),
		hack.Assign(hack.DestAM, hack.CompMMinus1),
		hack.Assign(hack.DestD, hack.CompM),
	}
}

// topOfStack points A at the current top cell.
func topOfStack() []hack.Instruction {
	return []hack.Instruction{
		hack.At("SP"),
		hack.Assign(hack.DestA, hack.CompMMinus1),
	}
}

func concat(parts ...[]hack.Instruction) []hack.Instruction {
	n := 0
	for _, p := range parts {
		n += len(p)
	}
	out := make([]hack.Instruction, 0, n)
	for _, p := range parts {
		out = append(out, p...)
	}
	return out
}

func code(ins ...hack.Instruction) []hack.Instruction { return ins }

// binaryComp is the computation applied to M=x with D=y.
var binaryComp = map[vm.Operator]hack.Comp{
	vm.OpAdd: hack.CompDPlusM,
	vm.OpSub: hack.CompMMinusD,
	vm.OpAnd: hack.CompDAndM,
	vm.OpOr:  hack.CompDOrM,
}

var unaryComp = map[vm.Operator]hack.Comp{
	vm.OpNeg: hack.CompNegM,
	vm.OpNot: hack.CompNotM,
}

var shiftComp = map[vm.Operator]hack.Comp{
	vm.OpShiftLeft:  hack.CompMShiftLeft,
	vm.OpShiftRight: hack.CompMShiftRight,
}

// compareJump is taken on D = x - y when the comparison holds.
var compareJump = map[vm.Operator]hack.Jump{
	vm.OpEq: hack.JEQ,
	vm.OpGt: hack.JGT,
	vm.OpLt: hack.JLT,
}

// binaryTemplate: y in D, A at x, x = x OP y.
func binaryTemplate(comp hack.Comp) []hack.Instruction {
	return concat(
		popD(),
		code(
			hack.Assign(hack.DestA, hack.CompAMinus1),
			hack.Assign(hack.DestM, comp),
		),
	)
}

// unaryTemplate covers both unary and shift operators: top = comp(top).
func unaryTemplate(comp hack.Comp) []hack.Instruction {
	return concat(
		topOfStack(),
		code(hack.Assign(hack.DestM, comp)),
	)
}

// compareTemplate leaves -1 in x when the jump holds on x - y, 0 otherwise.
func compareTemplate(jump hack.Jump, trueLabel, endLabel string) []hack.Instruction {
	return concat(
		popD(),
		code(
			hack.Assign(hack.DestA, hack.CompAMinus1),
			hack.Assign(hack.DestD, hack.CompMMinusD),
			hack.At(trueLabel),
			hack.JumpOn(hack.CompD, jump),
		),
		topOfStack(),
		code(
			hack.Assign(hack.DestM, hack.CompZero),
			hack.At(endLabel),
			hack.JumpOn(hack.CompZero, hack.JMP),
			hack.Label{Name: trueLabel},
		),
		topOfStack(),
		code(
			hack.Assign(hack.DestM, hack.CompMinusOne),
			hack.Label{Name: endLabel},
		),
	)
}

// pushConstantTemplate pushes a literal.
func pushConstantTemplate(v uint16) []hack.Instruction {
	return concat(
		code(hack.AtValue(v), hack.Assign(hack.DestD, hack.CompA)),
		pushD(),
	)
}

// pushCellTemplate pushes the cell at a fixed address or symbol.
func pushCellTemplate(at hack.Address) []hack.Instruction {
	return concat(
		code(at, hack.Assign(hack.DestD, hack.CompM)),
		pushD(),
	)
}

// pushIndirectTemplate pushes RAM[RAM[base] + index].
func pushIndirectTemplate(base string, index uint16) []hack.Instruction {
	return concat(
		code(
			hack.AtValue(index),
			hack.Assign(hack.DestD, hack.CompA),
			hack.At(base),
			hack.Assign(hack.DestA, hack.CompDPlusM),
			hack.Assign(hack.DestD, hack.CompM),
		),
		pushD(),
	)
}

// popCellTemplate pops into the cell at a fixed address or symbol.
func popCellTemplate(at hack.Address) []hack.Instruction {
	return concat(
		popD(),
		code(at, hack.Assign(hack.DestM, hack.CompD)),
	)
}

// popIndirectTemplate pops into RAM[RAM[base] + index], using R13 for the address.
func popIndirectTemplate(base string, index uint16) []hack.Instruction {
	return concat(
		code(
			hack.AtValue(index),
			hack.Assign(hack.DestD, hack.CompA),
			hack.At(base),
			hack.Assign(hack.DestD, hack.CompDPlusM),
			hack.At(hack.R13),
			hack.Assign(hack.DestM, hack.CompD),
		),
		popD(),
		code(
			hack.At(hack.R13),
			hack.Assign(hack.DestA, hack.CompM),
			hack.Assign(hack.DestM, hack.CompD),
		),
	)
}

func labelTemplate(name string) []hack.Instruction {
	return code(hack.Label{Name: name})
}

func gotoTemplate(target string) []hack.Instruction {
	return code(hack.At(target), hack.JumpOn(hack.CompZero, hack.JMP))
}

// ifGotoTemplate jumps when the popped value is non-zero.
func ifGotoTemplate(target string) []hack.Instruction {
	return concat(
		popD(),
		code(hack.At(target), hack.JumpOn(hack.CompD, hack.JNE)),
	)
}

// frameRegisters are saved by call in this order and restored by return in reverse.
var frameRegisters = []string{"LCL", "ARG", "THIS", "THAT"}

// frameSize is the return address plus the saved registers.
const frameSize = 5

func functionTemplate(name string, nLocals uint16) []hack.Instruction {
	out := labelTemplate(name)
	for i := uint16(0); i < nLocals; i++ {
		out = append(out, pushConstantTemplate(0)...)
	}
	return out
}

func callTemplate(fn, returnLabel string, nArgs uint16) []hack.Instruction {
	out := concat(
		code(hack.At(returnLabel), hack.Assign(hack.DestD, hack.CompA)),
		pushD(),
	)
	for _, reg := range frameRegisters {
		out = append(out, pushCellTemplate(hack.At(reg))...)
	}
	return append(out,
		// ARG = SP - 5 - nArgs
		hack.At("SP"),
		hack.Assign(hack.DestD, hack.CompM),
		hack.AtValue(frameSize),
		hack.Assign(hack.DestD, hack.CompDMinusA),
		hack.AtValue(nArgs),
		hack.Assign(hack.DestD, hack.CompDMinusA),
		hack.At("ARG"),
		hack.Assign(hack.DestM, hack.CompD),
		// LCL = SP
		hack.At("SP"),
		hack.Assign(hack.DestD, hack.CompM),
		hack.At("LCL"),
		hack.Assign(hack.DestM, hack.CompD),
		hack.At(fn),
		hack.JumpOn(hack.CompZero, hack.JMP),
		hack.Label{Name: returnLabel},
	)
}

// returnTemplate keeps FRAME in R13 and the return address in R14. The return
// address is read before *ARG is overwritten, since with zero arguments ARG
// points at the saved return address.
func returnTemplate() []hack.Instruction {
	out := code(
		// FRAME = LCL
		hack.At("LCL"),
		hack.Assign(hack.DestD, hack.CompM),
		hack.At(hack.R13),
		hack.Assign(hack.DestM, hack.CompD),
		// RET = *(FRAME - 5)
		hack.AtValue(frameSize),
		hack.Assign(hack.DestA, hack.CompDMinusA),
		hack.Assign(hack.DestD, hack.CompM),
		hack.At(hack.R14),
		hack.Assign(hack.DestM, hack.CompD),
	)
	out = append(out, popD()...)
	out = append(out,
		// *ARG = pop()
		hack.At("ARG"),
		hack.Assign(hack.DestA, hack.CompM),
		hack.Assign(hack.DestM, hack.CompD),
		// SP = ARG + 1
		hack.At("ARG"),
		hack.Assign(hack.DestD, hack.CompMPlus1),
		hack.At("SP"),
		hack.Assign(hack.DestM, hack.CompD),
	)
	// THAT, THIS, ARG, LCL = *(FRAME-1) .. *(FRAME-4); LCL last.
	for i := len(frameRegisters) - 1; i >= 0; i-- {
		out = append(out,
			hack.At(hack.R13),
			hack.Assign(hack.DestAM, hack.CompMMinus1),
			hack.Assign(hack.DestD, hack.CompM),
			hack.At(frameRegisters[i]),
			hack.Assign(hack.DestM, hack.CompD),
		)
	}
	return append(out,
		hack.At(hack.R14),
		hack.Assign(hack.DestA, hack.CompM),
		hack.JumpOn(hack.CompZero, hack.JMP),
	)
}
