package layout

import "math"

// Target describes the execution target and its memory bounds.
type Target struct {
	Triple   string // e.g. "wasm32-unknown-unknown"
	PtrSize  uint64 // bytes
	PtrAlign uint64 // bytes
	// MemoryLimit is the largest value size the target can hold in linear memory.
	MemoryLimit uint64
}

// Wasm32 is the default contract target.
func Wasm32() Target {
	return Target{
		Triple:      "wasm32-unknown-unknown",
		PtrSize:     4,
		PtrAlign:    4,
		MemoryLimit: math.MaxUint32,
	}
}
