package trace

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"
)

func TestLevelScopes(t *testing.T) {
	cases := []struct {
		level Level
		scope Scope
		want  bool
	}{
		{LevelOff, ScopeDriver, false},
		{LevelPhase, ScopePass, true},
		{LevelPhase, ScopeContract, false},
		{LevelDetail, ScopeContract, true},
		{LevelDetail, ScopeType, false},
		{LevelDebug, ScopeType, true},
		{LevelError, ScopeType, true},
	}
	for _, tc := range cases {
		if got := tc.level.ShouldEmit(tc.scope); got != tc.want {
			t.Errorf("%s.ShouldEmit(%s) = %v, want %v", tc.level, tc.scope, got, tc.want)
		}
	}
	if _, err := ParseLevel("loud"); err == nil {
		t.Fatalf("expected error for unknown level")
	}
	if l, err := ParseLevel("DETAIL"); err != nil || l != LevelDetail {
		t.Fatalf("ParseLevel(DETAIL) = %v, %v", l, err)
	}
}

func TestRingWraps(t *testing.T) {
	r := NewRingTracer(3, LevelDebug)
	for _, name := range []string{"a", "b", "c", "d", "e"} {
		r.Emit(&Event{Kind: KindPoint, Scope: ScopePass, Name: name})
	}
	snap := r.Snapshot()
	if len(snap) != 3 {
		t.Fatalf("expected 3 events, got %d", len(snap))
	}
	for i, want := range []string{"c", "d", "e"} {
		if snap[i].Name != want {
			t.Fatalf("event %d = %q, want %q", i, snap[i].Name, want)
		}
	}
}

func TestStreamSpanNDJSON(t *testing.T) {
	var buf bytes.Buffer
	tr := NewStreamTracer(&buf, LevelDetail, FormatNDJSON)

	root := Begin(tr, ScopeDriver, "gen", 0)
	child := Begin(tr, ScopeContract, "contract:flipper", root.ID())
	Begin(tr, ScopeType, "filtered", child.ID()).End("")
	child.WithExtra("types", "3").End("ok")
	root.End("")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 4 {
		t.Fatalf("expected 4 events, got %d:\n%s", len(lines), buf.String())
	}
	var ev jsonEvent
	if err := json.Unmarshal([]byte(lines[2]), &ev); err != nil {
		t.Fatalf("bad json: %v", err)
	}
	if ev.Kind != "end" || ev.Scope != "contract" || ev.Extra["types"] != "3" || ev.Detail != "ok" {
		t.Fatalf("unexpected end event %+v", ev)
	}
	if ev.ParentID != root.ID() {
		t.Fatalf("parent = %d, want %d", ev.ParentID, root.ID())
	}
}

func TestTextFormatSortsExtra(t *testing.T) {
	got := string(FormatEvent(&Event{
		Seq:   7,
		Kind:  KindPoint,
		Name:  "assemble",
		Extra: map[string]string{"b": "2", "a": "1"},
	}, FormatText))
	want := "[     7] • assemble {a=1, b=2}\n"
	if got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestContextAndRingLookup(t *testing.T) {
	if FromContext(context.Background()) != Nop {
		t.Fatalf("expected Nop from empty context")
	}
	ring := NewRingTracer(8, LevelPhase)
	multi := NewMultiTracer(LevelPhase, NewStreamTracer(&bytes.Buffer{}, LevelPhase, FormatText), ring)
	ctx := WithTracer(context.Background(), multi)
	got, ok := Ring(FromContext(ctx))
	if !ok || got != ring {
		t.Fatalf("ring not found behind multi tracer")
	}
	Point(multi, ScopePass, "decode", 0, "", nil)
	if len(ring.Snapshot()) != 1 {
		t.Fatalf("point not recorded")
	}
}

func TestNewOff(t *testing.T) {
	tr, err := New(Config{Level: LevelOff})
	if err != nil || tr.Enabled() {
		t.Fatalf("expected disabled tracer, got %v %v", tr, err)
	}
}

func TestHeartbeatStops(t *testing.T) {
	if StartHeartbeat(Nop, time.Millisecond) != nil {
		t.Fatalf("disabled tracer must not start a heartbeat")
	}
	ring := NewRingTracer(16, LevelError)
	h := StartHeartbeat(ring, time.Millisecond)
	deadline := time.Now().Add(2 * time.Second)
	for len(ring.Snapshot()) == 0 && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	h.Stop()
	h.Stop()
	snap := ring.Snapshot()
	if len(snap) == 0 || snap[0].Kind != KindHeartbeat || snap[0].Detail != "#1" {
		t.Fatalf("expected a heartbeat despite the error level, got %+v", snap)
	}
}
