package spec

import "fmt"

// ErrorKind enumerates spec building failures.
type ErrorKind uint8

const (
	// ErrMalformedInput is an inconsistent function or event in the program model.
	ErrMalformedInput ErrorKind = iota + 1
	// ErrSelectorWidth is a selector whose width differs from the configured one.
	ErrSelectorWidth
)

func (k ErrorKind) String() string {
	switch k {
	case ErrMalformedInput:
		return "malformed input"
	case ErrSelectorWidth:
		return "malformed selector"
	default:
		return fmt.Sprintf("ErrorKind(%d)", k)
	}
}

// Error is returned by the Builder.
type Error struct {
	Kind    ErrorKind
	Subject string
	Detail  string
}

func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	return fmt.Sprintf("%s: %s: %s", e.Kind, e.Subject, e.Detail)
}

// Malformed reports whether the error is a MalformedInput; every spec error is one.
func (e *Error) Malformed() bool { return e != nil }
