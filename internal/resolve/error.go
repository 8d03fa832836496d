package resolve

import (
	"fmt"
	"strings"
)

// ErrorKind enumerates resolution failures.
type ErrorKind uint8

const (
	// ErrUnsupportedType is a source type outside the lowering rules.
	ErrUnsupportedType ErrorKind = iota + 1
	// ErrMalformedInput is an inconsistent program model, e.g. a dangling struct number.
	ErrMalformedInput
	// ErrRecursiveType is a struct or user type reachable from itself by value.
	ErrRecursiveType
)

func (k ErrorKind) String() string {
	switch k {
	case ErrUnsupportedType:
		return "unsupported type"
	case ErrMalformedInput:
		return "malformed input"
	case ErrRecursiveType:
		return "recursive type"
	default:
		return fmt.Sprintf("ErrorKind(%d)", k)
	}
}

// Error is returned by the resolver. Type holds the human-readable description
// of the offending type.
type Error struct {
	Kind   ErrorKind
	Type   string
	Detail string
	Cycle  []string // for ErrRecursiveType
}

func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	switch e.Kind {
	case ErrRecursiveType:
		if len(e.Cycle) == 0 {
			return fmt.Sprintf("recursive type %s", e.Type)
		}
		return fmt.Sprintf("recursive type %s (cycle: %s)", e.Type, strings.Join(e.Cycle, " -> "))
	default:
		if e.Detail != "" {
			return fmt.Sprintf("%s %s: %s", e.Kind, e.Type, e.Detail)
		}
		return fmt.Sprintf("%s %s", e.Kind, e.Type)
	}
}

// Malformed reports whether the error is a MalformedInput, recursive types included.
func (e *Error) Malformed() bool {
	return e != nil && (e.Kind == ErrMalformedInput || e.Kind == ErrRecursiveType)
}
