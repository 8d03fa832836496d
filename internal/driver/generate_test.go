package driver_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"contractmeta/internal/diag"
	"contractmeta/internal/driver"
	"contractmeta/internal/metadata"
)

const modelJSON = `{
  "contracts": [
    {
      "name": "flipper",
      "tags": [{"tag": "notice", "value": "Flips a bool"}],
      "functions": [0],
      "all_functions": [0, 1],
      "variables": [{"name": "value", "type": {"kind": "bool"}}],
      "layout": [{"var": 0, "slot": "0x0"}]
    },
    {
      "name": "counter",
      "variables": [{"name": "n", "type": {"kind": "uint", "bits": 24}}],
      "layout": [{"var": 0, "slot": "0x0"}]
    }
  ],
  "functions": [
    {"name": "new", "signature": "new(bool)", "kind": "constructor", "contract": 0,
     "params": [{"name": "init", "type": {"kind": "bool"}}]},
    {"name": "get", "signature": "get()", "mutability": "view", "contract": 0,
     "returns": [{"type": {"kind": "bool"}}]}
  ]
}`

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return p
}

func TestGenerate_SharedModel(t *testing.T) {
	dir := t.TempDir()
	modelPath := writeFile(t, dir, "model.json", modelJSON)
	codePath := writeFile(t, dir, "flipper.wasm", "\x00asm\x01\x00\x00\x00")

	models := driver.NewModelCache(2)
	jobs := []driver.Job{
		{Contract: "flipper", ModelPath: modelPath, CodePath: codePath},
		{Contract: "counter", ModelPath: modelPath},
		{Contract: "fliper", ModelPath: modelPath},
	}
	results, err := driver.Generate(context.Background(), jobs, &driver.Options{Jobs: 2, Models: models})
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if len(results) != 3 {
		t.Fatalf("expected 3 results, got %d", len(results))
	}
	if models.Len() != 1 {
		t.Fatalf("model must be decoded once, cache has %d entries", models.Len())
	}

	for i, name := range []string{"flipper", "counter"} {
		r := results[i]
		if r.Failed() {
			t.Fatalf("%s failed: %v", name, r.Err)
		}
		if r.Job.Contract != name {
			t.Fatalf("results out of order: %d is %s", i, r.Job.Contract)
		}
		d, err := metadata.Load(r.Output, metadata.FormatJSON)
		if err != nil {
			t.Fatalf("%s: load: %v", name, err)
		}
		if d.Contract.Name != name {
			t.Fatalf("descriptor name %q, want %q", d.Contract.Name, name)
		}
		if err := metadata.Verify(d, diag.NopReporter{}); err != nil {
			t.Fatalf("%s: verify: %v", name, err)
		}
	}
	if results[0].Descriptor.Source.Hash.String() == results[1].Descriptor.Source.Hash.String() {
		t.Fatal("code hash must depend on the code file")
	}

	missing := results[2]
	var nf *driver.ContractNotFoundError
	if !errors.As(missing.Err, &nf) {
		t.Fatalf("expected ContractNotFoundError, got %v", missing.Err)
	}
	if len(nf.Candidates) != 1 || nf.Candidates[0] != "flipper" {
		t.Fatalf("unexpected candidates %v", nf.Candidates)
	}
	items := missing.Bag.Items()
	if len(items) != 1 || items[0].Code != diag.PrjContractNotFound || len(items[0].Notes) != 1 {
		t.Fatalf("unexpected diagnostics %+v", items)
	}
}

func TestGenerate_DiskCache(t *testing.T) {
	dir := t.TempDir()
	modelPath := writeFile(t, dir, "model.json", modelJSON)
	codePath := writeFile(t, dir, "flipper.wasm", "\x00asm")
	disk, err := driver.OpenDiskCacheAt(filepath.Join(dir, "cache"))
	if err != nil {
		t.Fatalf("open cache: %v", err)
	}
	jobs := []driver.Job{{Contract: "flipper", ModelPath: modelPath, CodePath: codePath}}
	opts := func() *driver.Options {
		return &driver.Options{Disk: disk, Encode: metadata.EncodeOptions{Format: metadata.FormatCBOR}}
	}

	first, err := driver.Generate(context.Background(), jobs, opts())
	if err != nil || first[0].Failed() {
		t.Fatalf("first run: %v %v", err, first[0].Err)
	}
	if first[0].Cached {
		t.Fatal("first run cannot be cached")
	}

	second, err := driver.Generate(context.Background(), jobs, opts())
	if err != nil || second[0].Failed() {
		t.Fatalf("second run: %v %v", err, second[0].Err)
	}
	if !second[0].Cached || second[0].Descriptor != nil {
		t.Fatal("second run must come from the disk cache")
	}
	if string(second[0].Output) != string(first[0].Output) {
		t.Fatal("cached output differs")
	}

	writeFile(t, dir, "flipper.wasm", "\x00asm\x01")
	third, err := driver.Generate(context.Background(), jobs, opts())
	if err != nil || third[0].Failed() {
		t.Fatalf("third run: %v %v", err, third[0].Err)
	}
	if third[0].Cached {
		t.Fatal("changed code must miss the cache")
	}
}

func TestGenerate_PhasesAndTimings(t *testing.T) {
	dir := t.TempDir()
	modelPath := writeFile(t, dir, "model.json", modelJSON)

	var (
		mu     sync.Mutex
		phases []string
	)
	opts := &driver.Options{
		EnableTimings: true,
		OnPhase: func(ev driver.PhaseEvent) {
			mu.Lock()
			defer mu.Unlock()
			status := "start"
			if ev.Status == driver.PhaseEnd {
				status = "end"
			}
			phases = append(phases, ev.Contract+":"+ev.Name+":"+status)
		},
	}
	results, err := driver.Generate(context.Background(), []driver.Job{{Contract: "counter", ModelPath: modelPath}}, opts)
	if err != nil || results[0].Failed() {
		t.Fatalf("generate: %v %v", err, results[0].Err)
	}

	want := []string{
		"counter:decode:start", "counter:decode:end",
		"counter:assemble:start", "counter:assemble:end",
		"counter:encode:start", "counter:encode:end",
	}
	if strings.Join(phases, ",") != strings.Join(want, ",") {
		t.Fatalf("phases = %v, want %v", phases, want)
	}

	rep := results[0].Timing
	if rep == nil {
		t.Fatal("expected a timing report")
	}
	names := make([]string, 0, len(rep.Phases))
	for _, p := range rep.Phases {
		names = append(names, p.Name)
	}
	got := strings.Join(names, ",")
	if got != "assemble.storage,assemble.constructors,assemble.messages,assemble.events,encode" {
		t.Fatalf("timing phases = %s", got)
	}
	found := false
	for _, d := range results[0].Bag.Items() {
		if d.Code == diag.ObsTimings {
			found = true
		}
	}
	if !found {
		t.Fatal("expected a timings diagnostic")
	}
}

func TestGenerate_ModelErrors(t *testing.T) {
	dir := t.TempDir()
	bad := writeFile(t, dir, "bad.json", `{"contracts": [], "bogus": 1}`)
	jobs := []driver.Job{
		{Contract: "a", ModelPath: filepath.Join(dir, "missing.json")},
		{Contract: "b", ModelPath: bad},
	}
	results, err := driver.Generate(context.Background(), jobs, nil)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	wantCodes := []diag.Code{diag.IOReadError, diag.ResMalformedInput}
	for i, r := range results {
		if !r.Failed() {
			t.Fatalf("job %d must fail", i)
		}
		items := r.Bag.Items()
		if len(items) != 1 || items[0].Code != wantCodes[i] || items[0].Severity != diag.SevError {
			t.Fatalf("job %d diagnostics %+v", i, items)
		}
		if items[0].Contract != r.Job.Contract {
			t.Fatalf("job %d diagnostic not stamped with contract", i)
		}
	}
}

func TestGenerate_Cancelled(t *testing.T) {
	dir := t.TempDir()
	modelPath := writeFile(t, dir, "model.json", modelJSON)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	results, err := driver.Generate(ctx, []driver.Job{{Contract: "flipper", ModelPath: modelPath}}, nil)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if len(results) != 1 || !results[0].Failed() {
		t.Fatal("cancelled job must be marked failed")
	}
}

func TestGenerate_NoJobs(t *testing.T) {
	results, err := driver.Generate(context.Background(), nil, nil)
	if err != nil || results != nil {
		t.Fatalf("expected nothing, got %v %v", results, err)
	}
}
