package vm

// Operator is an arithmetic, logical or shift VM command.
type Operator byte

const (
	OpAdd Operator = iota
	OpSub
	OpNeg
	OpAnd
	OpOr
	OpNot
	OpShiftLeft
	OpShiftRight
	OpEq
	OpGt
	OpLt
)

// ArithmeticKind groups operators by how they use the stack.
type ArithmeticKind byte

const (
	// KindBinary pops two cells and pushes one.
	KindBinary ArithmeticKind = iota
	// KindUnary rewrites the top cell as OP top.
	KindUnary
	// KindShift rewrites the top cell as top OP.
	KindShift
)

var operatorNames = [...]string{
	OpAdd:        "add",
	OpSub:        "sub",
	OpNeg:        "neg",
	OpAnd:        "and",
	OpOr:         "or",
	OpNot:        "not",
	OpShiftLeft:  "shiftleft",
	OpShiftRight: "shiftright",
	OpEq:         "eq",
	OpGt:         "gt",
	OpLt:         "lt",
}

var operators = map[string]Operator{
	"add":        OpAdd,
	"sub":        OpSub,
	"neg":        OpNeg,
	"and":        OpAnd,
	"or":         OpOr,
	"not":        OpNot,
	"shiftleft":  OpShiftLeft,
	"shiftright": OpShiftRight,
	"eq":         OpEq,
	"gt":         OpGt,
	"lt":         OpLt,
}

// LookupOperator resolves an arithmetic keyword.
func LookupOperator(keyword string) (Operator, bool) {
	op, ok := operators[keyword]
	return op, ok
}

func (o Operator) String() string {
	if int(o) < len(operatorNames) {
		return operatorNames[o]
	}
	return "unknown"
}

func (o Operator) Kind() ArithmeticKind {
	switch o {
	case OpNeg, OpNot:
		return KindUnary
	case OpShiftLeft, OpShiftRight:
		return KindShift
	}
	return KindBinary
}

// IsComparison reports whether the operator yields a boolean (all ones or all zeros).
func (o Operator) IsComparison() bool {
	return o == OpEq || o == OpGt || o == OpLt
}

func (k ArithmeticKind) String() string {
	switch k {
	case KindBinary:
		return "binary"
	case KindUnary:
		return "unary"
	case KindShift:
		return "shift"
	}
	return "unknown"
}
