package vm

import (
	"strings"

	"govm/pkg/hack"
)

// Segment is one of the eight logical memory regions addressable by push/pop.
type Segment byte

const (
	SegmentArgument Segment = iota
	SegmentLocal
	SegmentStatic
	SegmentConstant
	SegmentThis
	SegmentThat
	SegmentPointer
	SegmentTemp
)

var segmentNames = [...]string{
	SegmentArgument: "argument",
	SegmentLocal:    "local",
	SegmentStatic:   "static",
	SegmentConstant: "constant",
	SegmentThis:     "this",
	SegmentThat:     "that",
	SegmentPointer:  "pointer",
	SegmentTemp:     "temp",
}

// segments maps the lower-cased source keyword to its Segment.
var segments = map[string]Segment{
	"argument": SegmentArgument,
	"local":    SegmentLocal,
	"static":   SegmentStatic,
	"constant": SegmentConstant,
	"this":     SegmentThis,
	"that":     SegmentThat,
	"pointer":  SegmentPointer,
	"temp":     SegmentTemp,
}

// LookupSegment resolves a segment keyword case-insensitively.
func LookupSegment(name string) (Segment, bool) {
	s, ok := segments[strings.ToLower(name)]
	return s, ok
}

func (s Segment) String() string {
	if int(s) < len(segmentNames) {
		return segmentNames[s]
	}
	return "unknown"
}

// Register returns the base-pointer register backing an addressable segment.
// ok is false for segments that are not addressed through a base pointer.
func (s Segment) Register() (name string, ok bool) {
	switch s {
	case SegmentLocal:
		return "LCL", true
	case SegmentArgument:
		return "ARG", true
	case SegmentThis:
		return "THIS", true
	case SegmentThat:
		return "THAT", true
	}
	return "", false
}

// MaxIndex is the largest index a push/pop on this segment may carry.
func (s Segment) MaxIndex() uint16 {
	switch s {
	case SegmentPointer:
		return 1
	case SegmentTemp:
		return 7
	case SegmentStatic:
		// Static cells are named, never loaded as a number.
		return 0xFFFF
	}
	// Constants and base-pointer offsets are loaded with an A-instruction.
	return hack.MaxConstant
}
