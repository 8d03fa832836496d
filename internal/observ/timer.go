// Package observ collects per-contract step timings for --timings output.
package observ

import (
	"fmt"
	"strings"
	"sync"
	"time"
)

// Timer accumulates measured steps in recording order. It is safe for
// concurrent use.
type Timer struct {
	mu    sync.Mutex
	steps []PhaseReport
	total time.Duration
}

// NewTimer creates an empty Timer.
func NewTimer() *Timer { return &Timer{steps: make([]PhaseReport, 0, 8)} }

// Record appends a measured step, e.g. one reported by an assembly hook.
func (t *Timer) Record(name string, dur time.Duration, note string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.steps = append(t.steps, PhaseReport{Name: name, DurationMS: millis(dur), Note: note})
	t.total += dur
}

// PhaseReport is one recorded step.
type PhaseReport struct {
	Name       string  `json:"name"`
	DurationMS float64 `json:"duration_ms"`
	Note       string  `json:"note,omitempty"`
}

// Report lists every step and their sum.
type Report struct {
	TotalMS float64       `json:"total_ms"`
	Phases  []PhaseReport `json:"phases"`
}

// Report snapshots the recorded steps.
func (t *Timer) Report() Report {
	t.mu.Lock()
	defer t.mu.Unlock()
	if len(t.steps) == 0 {
		return Report{}
	}
	return Report{TotalMS: millis(t.total), Phases: append([]PhaseReport(nil), t.steps...)}
}

// Summary renders the steps as an aligned table.
func (r Report) Summary() string {
	var sb strings.Builder
	for _, p := range r.Phases {
		fmt.Fprintf(&sb, "  %-28s %8.2f ms", p.Name, p.DurationMS)
		if p.Note != "" {
			sb.WriteString("  // " + p.Note)
		}
		sb.WriteByte('\n')
	}
	fmt.Fprintf(&sb, "  %-28s %8.2f ms\n", "total", r.TotalMS)
	return sb.String()
}

func millis(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}
