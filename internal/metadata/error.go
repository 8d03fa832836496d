package metadata

import "fmt"

// ErrorKind enumerates assembly and verification failures.
type ErrorKind uint8

const (
	// ErrMalformedInput is an unknown contract or a bad config value.
	ErrMalformedInput ErrorKind = iota + 1
	// ErrBadVersion is a contract version that is not semver.
	ErrBadVersion
	// ErrInconsistent is a descriptor that fails Verify.
	ErrInconsistent
)

func (k ErrorKind) String() string {
	switch k {
	case ErrMalformedInput:
		return "malformed input"
	case ErrBadVersion:
		return "bad version"
	case ErrInconsistent:
		return "inconsistent descriptor"
	default:
		return fmt.Sprintf("ErrorKind(%d)", k)
	}
}

// Error is returned by Assemble, Load and Verify.
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

// Malformed reports whether the error came from bad input rather than a bad descriptor.
func (e *Error) Malformed() bool {
	return e != nil && (e.Kind == ErrMalformedInput || e.Kind == ErrBadVersion)
}
