package layout

import (
	"fmt"
	"strings"
)

// LayoutErrorKind enumerates types of size calculation errors.
type LayoutErrorKind uint8

const (
	// LayoutErrRecursiveUnsized indicates a recursive value type with no fixed size.
	LayoutErrRecursiveUnsized LayoutErrorKind = iota + 1
	// LayoutErrUnsized indicates a type that has no in-memory size (mappings).
	LayoutErrUnsized
	// LayoutErrUnknownType indicates a dangling struct, enum or user type number.
	LayoutErrUnknownType
)

// LayoutError represents an error during size calculation.
type LayoutError struct {
	Kind  LayoutErrorKind
	Type  string
	Cycle []string // for LayoutErrRecursiveUnsized
}

func (e *LayoutError) Error() string {
	if e == nil {
		return "<nil>"
	}
	switch e.Kind {
	case LayoutErrRecursiveUnsized:
		if len(e.Cycle) == 0 {
			return fmt.Sprintf("recursive value type has infinite size (%s)", e.Type)
		}
		return fmt.Sprintf("recursive value type has infinite size (cycle: %s)", strings.Join(e.Cycle, " -> "))
	case LayoutErrUnsized:
		return fmt.Sprintf("type %s has no in-memory size", e.Type)
	case LayoutErrUnknownType:
		return fmt.Sprintf("unknown type %s", e.Type)
	default:
		return fmt.Sprintf("layout error kind=%d %s", e.Kind, e.Type)
	}
}
