// Package selector derives call selectors from function signatures.
package selector

import (
	"golang.org/x/crypto/sha3"
)

// DefaultWidth is the selector width in bytes.
const DefaultWidth = 4

// Func computes the selector of a signature such as "transfer(address,uint256)".
type Func func(signature string) []byte

// Keccak returns the first DefaultWidth bytes of the legacy keccak-256 digest.
func Keccak(signature string) []byte {
	h := sha3.NewLegacyKeccak256()
	_, _ = h.Write([]byte(signature))
	return h.Sum(nil)[:DefaultWidth]
}

// Truncated returns a Func keeping the first width bytes of the keccak-256 digest.
func Truncated(width int) Func {
	return func(signature string) []byte {
		h := sha3.NewLegacyKeccak256()
		_, _ = h.Write([]byte(signature))
		sum := h.Sum(nil)
		if width < 0 || width > len(sum) {
			return sum
		}
		return sum[:width]
	}
}
