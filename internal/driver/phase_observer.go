package driver

import "time"

// PhaseStatus reports whether a phase started or finished.
type PhaseStatus int

const (
	// PhaseStart indicates that a generation phase has begun.
	PhaseStart PhaseStatus = iota
	PhaseEnd
	// PhaseFailed ends a phase that returned an error.
	PhaseFailed
)

// Phase names reported by Generate.
const (
	PhaseDecode   = "decode"
	PhaseAssemble = "assemble"
	PhaseEncode   = "encode"
)

// PhaseEvent describes a timing phase boundary of one contract.
type PhaseEvent struct {
	Contract string
	Name     string
	Status   PhaseStatus
	Elapsed  time.Duration
	Cached   bool
	Err      error
}

// PhaseObserver receives phase events emitted during Generate. It may be
// called from several goroutines at once.
type PhaseObserver func(PhaseEvent)
