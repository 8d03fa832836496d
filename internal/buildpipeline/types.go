package buildpipeline

import (
	"sync"
	"time"
)

// Stage describes a high-level pipeline phase.
type Stage string

const (
	// StageDecode reads and decodes the program model.
	StageDecode Stage = "decode"
	// StageAssemble builds the descriptor.
	StageAssemble Stage = "assemble"
	// StageEncode serializes the descriptor.
	StageEncode Stage = "encode"
	// StageWrite stores the encoded descriptor.
	StageWrite Stage = "write"
)

// Stages lists every stage in execution order.
var Stages = []Stage{StageDecode, StageAssemble, StageEncode, StageWrite}

// Status captures progress state within a stage.
type Status string

const (
	// StatusQueued indicates the task is waiting to start.
	StatusQueued Status = "queued"
	// StatusWorking indicates the task is currently working.
	StatusWorking Status = "working"
	// StatusDone indicates the task is done.
	StatusDone Status = "done"
	// StatusError indicates the task encountered an error.
	StatusError Status = "error"
)

// Event reports progress for a contract (or for the whole run when Contract is empty).
type Event struct {
	Contract string
	Stage    Stage
	Status   Status
	Cached   bool
	Err      error
	Elapsed  time.Duration
}

// ProgressSink consumes progress events. OnEvent may be called from several
// goroutines.
type ProgressSink interface {
	OnEvent(Event)
}

// Timings holds stage durations summed over contracts. It is safe for
// concurrent use; the zero value is ready.
type Timings struct {
	mu     sync.Mutex
	stages map[Stage]time.Duration
}

func (t *Timings) locked(fn func(m map[Stage]time.Duration)) {
	if t == nil {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.stages == nil {
		t.stages = make(map[Stage]time.Duration, len(Stages))
	}
	fn(t.stages)
}

// Add accumulates dur for stage.
func (t *Timings) Add(stage Stage, dur time.Duration) {
	t.locked(func(m map[Stage]time.Duration) { m[stage] += dur })
}

// Has reports whether stage ran at least once.
func (t *Timings) Has(stage Stage) (ok bool) {
	t.locked(func(m map[Stage]time.Duration) { _, ok = m[stage] })
	return ok
}

// Duration returns the time recorded for stage.
func (t *Timings) Duration(stage Stage) (d time.Duration) {
	t.locked(func(m map[Stage]time.Duration) { d = m[stage] })
	return d
}

// Sum totals the given stages.
func (t *Timings) Sum(stages ...Stage) (total time.Duration) {
	t.locked(func(m map[Stage]time.Duration) {
		for _, s := range stages {
			total += m[s]
		}
	})
	return total
}
