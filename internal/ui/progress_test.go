package ui

import (
	"errors"
	"math"
	"strings"
	"testing"

	"contractmeta/internal/buildpipeline"
)

func newTestModel(contracts ...string) *progressModel {
	return NewProgressModel("generating", contracts, nil).(*progressModel)
}

func TestApplyEventTracksStages(t *testing.T) {
	m := newTestModel("flipper", "counter", "flipper")
	if len(m.items) != 2 {
		t.Fatalf("duplicate contracts must collapse, got %d items", len(m.items))
	}

	m.applyEvent(buildpipeline.Event{Contract: "flipper", Stage: buildpipeline.StageAssemble, Status: buildpipeline.StatusWorking})
	if m.items[0].status != "assembling" {
		t.Fatalf("status = %q", m.items[0].status)
	}
	// A finished intermediate stage keeps the stage label.
	m.applyEvent(buildpipeline.Event{Contract: "flipper", Stage: buildpipeline.StageAssemble, Status: buildpipeline.StatusDone})
	if m.items[0].status != "assembling" || m.items[0].finished {
		t.Fatalf("assemble done must not finish the contract: %+v", m.items[0])
	}
	m.applyEvent(buildpipeline.Event{Contract: "flipper", Stage: buildpipeline.StageWrite, Status: buildpipeline.StatusDone, Cached: true})
	if m.items[0].status != "cached" || !m.items[0].finished {
		t.Fatalf("write done must finish the contract: %+v", m.items[0])
	}
	if got := m.percent(); math.Abs(got-0.5) > 1e-9 {
		t.Fatalf("percent = %v, want 0.5", got)
	}

	m.applyEvent(buildpipeline.Event{Contract: "counter", Stage: buildpipeline.StageAssemble, Status: buildpipeline.StatusError, Err: errors.New("boom")})
	m.applyEvent(buildpipeline.Event{Contract: "counter", Stage: buildpipeline.StageWrite, Status: buildpipeline.StatusWorking})
	if m.items[1].status != "error" {
		t.Fatalf("events after an error must be ignored, status %q", m.items[1].status)
	}
	if got := m.percent(); got != 1 {
		t.Fatalf("percent = %v, want 1", got)
	}

	m.applyEvent(buildpipeline.Event{Stage: buildpipeline.StageWrite, Status: buildpipeline.StatusDone})
	if m.stageLabel != "done" {
		t.Fatalf("stage label = %q", m.stageLabel)
	}
	m.applyEvent(buildpipeline.Event{Contract: "unknown", Stage: buildpipeline.StageWrite, Status: buildpipeline.StatusDone})
}

func TestViewListsContracts(t *testing.T) {
	m := newTestModel("flipper")
	m.done = true
	view := m.View()
	if !strings.Contains(view, "done: generating") || !strings.Contains(view, "flipper") || !strings.Contains(view, "queued") {
		t.Fatalf("unexpected view:\n%s", view)
	}
	if newTestModel().View() != "" {
		t.Fatal("empty model renders nothing")
	}
}

func TestTruncate(t *testing.T) {
	if got := truncate("abcdefghij", 6); !strings.HasSuffix(got, "...") || len(got) > 6 {
		t.Fatalf("truncate = %q", got)
	}
	if got := truncate("abc", 6); got != "abc" {
		t.Fatalf("truncate = %q", got)
	}
	if got := truncate("abcdef", 2); got != "ab" {
		t.Fatalf("truncate = %q", got)
	}
}
