package vm

import (
	"errors"
	"fmt"
)

var (
	ErrUnknownSegment     = errors.New("unknown segment")
	ErrInvalidInstruction = errors.New("invalid instruction")
	ErrMissingOperand     = errors.New("missing operand")
	ErrIndexOutOfRange    = errors.New("index out of range")
)

// ParseError locates a rejected source line. Err is one of the sentinel
// errors above, possibly wrapped with detail.
type ParseError struct {
	Unit string
	Line int
	Text string
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s:%d: %v\n  |> %s", e.Unit, e.Line, e.Err, e.Text)
}

func (e *ParseError) Unwrap() error { return e.Err }
