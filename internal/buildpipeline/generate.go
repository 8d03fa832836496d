// Package buildpipeline turns a list of contracts into descriptor files.
package buildpipeline

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"contractmeta/internal/diag"
	"contractmeta/internal/driver"
	"contractmeta/internal/metadata"
	"contractmeta/internal/trace"
)

// Target is one contract to generate.
type Target struct {
	Contract  string
	ModelPath string
	CodePath  string
	// OutPath overrides the derived output file.
	OutPath string
}

// GenerateRequest configures the shared generation pipeline.
type GenerateRequest struct {
	Targets        []Target
	OutputDir      string
	Jobs           int
	MaxDiagnostics int
	Metadata       metadata.Config
	Encode         metadata.EncodeOptions
	Disk           *driver.DiskCache
	Progress       ProgressSink
	EnableTimings  bool
}

// Output is the outcome of one target.
type Output struct {
	Target Target
	Path   string
	Size   int
	Cached bool
	Result driver.Result
	Err    error
}

// GenerateResult captures every output, the merged diagnostics and stage timings.
type GenerateResult struct {
	Outputs []Output
	Bag     *diag.Bag
	Timings Timings
}

// Failed counts outputs that were not written.
func (r *GenerateResult) Failed() int {
	n := 0
	for _, o := range r.Outputs {
		if o.Err != nil {
			n++
		}
	}
	return n
}

// ErrGenerationFailed is wrapped by Generate when at least one target failed.
var ErrGenerationFailed = errors.New("descriptor generation failed")

// Generate decodes, assembles, encodes and writes every target. Outputs are
// written only for targets that succeeded; a failing target never leaves a
// partial file behind.
func Generate(ctx context.Context, req *GenerateRequest) (*GenerateResult, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if req == nil {
		return nil, fmt.Errorf("missing generate request")
	}
	if len(req.Targets) == 0 {
		return nil, fmt.Errorf("no contracts to generate")
	}

	paths := make([]string, len(req.Targets))
	seen := make(map[string]string, len(req.Targets))
	for i, t := range req.Targets {
		if t.Contract == "" || t.ModelPath == "" {
			return nil, fmt.Errorf("target %d: contract and model are required", i)
		}
		p := filepath.Clean(OutputPath(t.OutPath, req.OutputDir, t.Contract, req.Encode.Format))
		if prev, ok := seen[p]; ok {
			return nil, fmt.Errorf("contracts %s and %s both write %s", prev, t.Contract, p)
		}
		seen[p] = t.Contract
		paths[i] = p
	}

	result := &GenerateResult{Bag: diag.NewBag(req.MaxDiagnostics)}
	emitQueued(req.Progress, req.Targets)
	observer := &phaseObserver{sink: req.Progress, timings: &result.Timings}

	jobs := make([]driver.Job, len(req.Targets))
	for i, t := range req.Targets {
		jobs[i] = driver.Job{Contract: t.Contract, ModelPath: t.ModelPath, CodePath: t.CodePath}
	}
	results, err := driver.Generate(ctx, jobs, &driver.Options{
		Jobs:           req.Jobs,
		MaxDiagnostics: req.MaxDiagnostics,
		Metadata:       req.Metadata,
		Encode:         req.Encode,
		Disk:           req.Disk,
		OnPhase:        observer.OnPhase,
		EnableTimings:  req.EnableTimings,
	})

	writeSpan := trace.Begin(trace.FromContext(ctx), trace.ScopePass, string(StageWrite), trace.CurrentSpan(ctx).SpanID)
	result.Outputs = make([]Output, len(results))
	for i, r := range results {
		out := Output{Target: req.Targets[i], Path: paths[i], Cached: r.Cached, Result: r, Err: r.Err}
		if out.Err == nil {
			out.Err = writeOutput(req.Progress, &result.Timings, r, paths[i])
			if out.Err != nil {
				d := diag.NewError(diag.IOWriteError, diag.Subject(paths[i]), out.Err.Error())
				d.Contract = r.Job.Contract
				r.Bag.Add(d)
			}
			out.Size = len(r.Output)
		} else {
			emitContract(req.Progress, r.Job.Contract, StageAssemble, StatusError, out.Err, 0)
		}
		result.Bag.Merge(r.Bag)
		result.Outputs[i] = out
	}
	writeSpan.End("")
	result.Bag.Sort()

	if err != nil {
		emitStage(req.Progress, StageAssemble, StatusError, err, 0)
		return result, err
	}
	if n := result.Failed(); n > 0 {
		err = fmt.Errorf("%w: %d of %d contracts", ErrGenerationFailed, n, len(result.Outputs))
		emitStage(req.Progress, StageWrite, StatusError, err, 0)
		return result, err
	}
	emitStage(req.Progress, StageWrite, StatusDone, nil, result.Timings.Sum(Stages...))
	return result, nil
}

func writeOutput(sink ProgressSink, timings *Timings, r driver.Result, path string) error {
	start := time.Now()
	emitContract(sink, r.Job.Contract, StageWrite, StatusWorking, nil, 0)
	if err := WriteFileAtomic(path, r.Output); err != nil {
		emitContract(sink, r.Job.Contract, StageWrite, StatusError, err, time.Since(start))
		return err
	}
	elapsed := time.Since(start)
	timings.Add(StageWrite, elapsed)
	emit(sink, Event{Contract: r.Job.Contract, Stage: StageWrite, Status: StatusDone, Cached: r.Cached, Elapsed: elapsed})
	return nil
}

// WriteFileAtomic writes data to a temp file next to path and renames it into place.
func WriteFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create output dir: %w", err)
	}
	f, err := os.CreateTemp(dir, "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to write %q: %w", path, err)
	}
	tmp := f.Name()
	if _, err := f.Write(data); err != nil {
		_ = f.Close()
		_ = os.Remove(tmp)
		return fmt.Errorf("failed to write %q: %w", path, err)
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("failed to write %q: %w", path, err)
	}
	if err := os.Chmod(tmp, 0o644); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("failed to write %q: %w", path, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("failed to write %q: %w", path, err)
	}
	return nil
}

type phaseObserver struct {
	mu      sync.Mutex
	sink    ProgressSink
	timings *Timings
}

// OnPhase forwards driver phase boundaries as progress events.
func (p *phaseObserver) OnPhase(ev driver.PhaseEvent) {
	stage := stageOf(ev.Name)
	if stage == "" {
		return
	}
	if ev.Status != driver.PhaseStart {
		p.timings.Add(stage, ev.Elapsed)
	}
	if p.sink == nil {
		return
	}
	// Serialize so that per-contract events keep their order in the sink.
	p.mu.Lock()
	defer p.mu.Unlock()
	switch ev.Status {
	case driver.PhaseStart:
		p.sink.OnEvent(Event{Contract: ev.Contract, Stage: stage, Status: StatusWorking})
	case driver.PhaseEnd:
		p.sink.OnEvent(Event{Contract: ev.Contract, Stage: stage, Status: StatusDone, Cached: ev.Cached, Elapsed: ev.Elapsed})
	case driver.PhaseFailed:
		p.sink.OnEvent(Event{Contract: ev.Contract, Stage: stage, Status: StatusError, Err: ev.Err, Elapsed: ev.Elapsed})
	}
}

func stageOf(phase string) Stage {
	switch phase {
	case driver.PhaseDecode:
		return StageDecode
	case driver.PhaseAssemble:
		return StageAssemble
	case driver.PhaseEncode:
		return StageEncode
	default:
		return ""
	}
}

func emitQueued(sink ProgressSink, targets []Target) {
	if sink == nil {
		return
	}
	for _, t := range targets {
		sink.OnEvent(Event{Contract: t.Contract, Stage: StageDecode, Status: StatusQueued})
	}
}

func emit(sink ProgressSink, evt Event) {
	if sink == nil {
		return
	}
	sink.OnEvent(evt)
}

func emitContract(sink ProgressSink, contract string, stage Stage, status Status, err error, elapsed time.Duration) {
	emit(sink, Event{Contract: contract, Stage: stage, Status: status, Err: err, Elapsed: elapsed})
}

func emitStage(sink ProgressSink, stage Stage, status Status, err error, elapsed time.Duration) {
	emitContract(sink, "", stage, status, err, elapsed)
}
