package driver

import (
	"context"
	"os"
	"runtime"
	"strconv"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"

	"contractmeta/internal/diag"
	"contractmeta/internal/metadata"
	"contractmeta/internal/model"
	"contractmeta/internal/observ"
	"contractmeta/internal/suggest"
	"contractmeta/internal/trace"
)

// Job names one contract to generate.
type Job struct {
	Contract  string
	ModelPath string
	// CodePath is the compiled code. Empty means no code: the descriptor then
	// carries the hash of zero bytes.
	CodePath string
}

// Options configures Generate. The zero value is usable.
type Options struct {
	// Jobs limits concurrent contracts; <= 0 means GOMAXPROCS.
	Jobs           int
	MaxDiagnostics int
	// Metadata is copied per job. Its Reporter is replaced by the job's bag;
	// OnRecordTrace, when set, still receives every pass.
	Metadata metadata.Config
	Encode   metadata.EncodeOptions
	// Models shares decoded models between calls. Nil uses a fresh cache.
	Models *ModelCache
	// Disk caches encoded output across runs. Nil disables it.
	Disk          *DiskCache
	OnPhase       PhaseObserver
	EnableTimings bool
}

// Result is the outcome of one job.
type Result struct {
	Job Job
	// Descriptor is nil when Output came from the disk cache.
	Descriptor *metadata.Descriptor
	Output     []byte
	Bag        *diag.Bag
	Cached     bool
	Digest     Digest
	Timing     *observ.Report
	Err        error
}

// Failed reports whether the job produced no output.
func (r *Result) Failed() bool { return r.Err != nil }

type loaded struct {
	data   []byte
	digest Digest
	ns     *model.Namespace
	err    error
}

type generator struct {
	opts   *Options
	tracer trace.Tracer
	parent uint64
	models map[string]*loaded
	codes  map[string]*loaded
}

// Generate assembles and encodes every job, at most opts.Jobs at a time.
// Each contract runs its own pipeline; failures are reported through
// Result.Err and Result.Bag. The returned error is non-nil only when ctx was
// cancelled. Results are in job order.
func Generate(ctx context.Context, jobs []Job, opts *Options) ([]Result, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if opts == nil {
		opts = &Options{}
	}
	if len(jobs) == 0 {
		return nil, nil
	}

	tracer := trace.FromContext(ctx)
	span := trace.Begin(tracer, trace.ScopeDriver, "generate", trace.CurrentSpan(ctx).SpanID)
	span.WithExtra("jobs", strconv.Itoa(len(jobs)))
	defer span.End("")

	g := &generator{
		opts:   opts,
		tracer: tracer,
		parent: span.ID(),
		models: make(map[string]*loaded, len(jobs)),
		codes:  make(map[string]*loaded, len(jobs)),
	}
	if g.opts.Models == nil {
		g.opts = copyOptions(opts)
		g.opts.Models = NewModelCache(len(jobs))
	}
	g.preload(jobs)

	workers := opts.Jobs
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	// Every goroutine owns one index; no mutex needed.
	results := make([]Result, len(jobs))

	eg, egctx := errgroup.WithContext(ctx)
	eg.SetLimit(min(workers, len(jobs)))
	for i, job := range jobs {
		eg.Go(func() error {
			select {
			case <-egctx.Done():
				results[i] = Result{Job: job, Bag: diag.NewBag(opts.MaxDiagnostics), Err: egctx.Err()}
				return egctx.Err()
			default:
			}
			results[i] = g.run(job)
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return results, err
	}
	return results, ctx.Err()
}

func copyOptions(opts *Options) *Options {
	c := *opts
	return &c
}

// preload reads every distinct model and code file once, sequentially, so
// that jobs sharing a model share its decoded namespace.
func (g *generator) preload(jobs []Job) {
	for _, job := range jobs {
		if _, ok := g.models[job.ModelPath]; !ok {
			g.models[job.ModelPath] = g.loadModel(job)
		}
		if job.CodePath == "" {
			continue
		}
		if _, ok := g.codes[job.CodePath]; !ok {
			data, err := os.ReadFile(job.CodePath)
			g.codes[job.CodePath] = &loaded{data: data, digest: DigestOf(data), err: err}
		}
	}
}

func (g *generator) loadModel(job Job) *loaded {
	span := trace.Begin(g.tracer, trace.ScopePass, PhaseDecode, g.parent)
	span.WithExtra("path", job.ModelPath)
	start := time.Now()
	g.observe(PhaseEvent{Contract: job.Contract, Name: PhaseDecode, Status: PhaseStart})

	data, err := os.ReadFile(job.ModelPath)
	if err != nil {
		g.observe(PhaseEvent{Contract: job.Contract, Name: PhaseDecode, Status: PhaseFailed, Elapsed: time.Since(start), Err: err})
		span.End("error")
		return &loaded{err: err}
	}
	l := &loaded{data: data, digest: DigestOf(data)}
	if ns, ok := g.opts.Models.Get(job.ModelPath, l.digest); ok {
		l.ns = ns
		g.observe(PhaseEvent{Contract: job.Contract, Name: PhaseDecode, Status: PhaseEnd, Elapsed: time.Since(start), Cached: true})
		span.End("cached")
		return l
	}
	ns, err := model.Decode(data, model.FormatForPath(job.ModelPath))
	if err != nil {
		err = &ModelError{Path: job.ModelPath, Err: err}
		l.err = err
		g.observe(PhaseEvent{Contract: job.Contract, Name: PhaseDecode, Status: PhaseFailed, Elapsed: time.Since(start), Err: err})
		span.End("error")
		return l
	}
	l.ns = ns
	g.opts.Models.Put(job.ModelPath, l.digest, ns)
	g.observe(PhaseEvent{Contract: job.Contract, Name: PhaseDecode, Status: PhaseEnd, Elapsed: time.Since(start)})
	span.End("")
	return l
}

func (g *generator) run(job Job) (res Result) {
	res = Result{Job: job, Bag: diag.NewBag(g.opts.MaxDiagnostics)}

	span := trace.Begin(g.tracer, trace.ScopeContract, "contract:"+job.Contract, g.parent)
	defer func() {
		switch {
		case res.Err != nil:
			span.End("error")
		case res.Cached:
			span.End("cached")
		default:
			span.End("")
		}
	}()

	var timer *observ.Timer
	if g.opts.EnableTimings {
		timer = observ.NewTimer()
	}

	mod := g.models[job.ModelPath]
	if mod == nil || mod.err != nil {
		res.fail(modelErr(mod))
		return res
	}
	var code loaded
	if job.CodePath != "" {
		c := g.codes[job.CodePath]
		if c.err != nil {
			res.fail(c.err)
			return res
		}
		code = *c
	} else {
		code.digest = DigestOf(nil)
	}

	res.Digest = jobDigest(mod.digest, code.digest, job.Contract, g.opts.Metadata, g.opts.Encode)
	if g.fromDisk(&res) {
		g.observe(PhaseEvent{Contract: job.Contract, Name: PhaseAssemble, Status: PhaseEnd, Cached: true})
		g.observe(PhaseEvent{Contract: job.Contract, Name: PhaseEncode, Status: PhaseEnd, Cached: true})
		return res
	}

	no, ok := mod.ns.ContractIndex(job.Contract)
	if !ok {
		res.fail(notFound(job, mod.ns))
		return res
	}

	cfg := g.opts.Metadata
	cfg.Reporter = diag.NewDedupReporter(diag.BagReporter{Bag: res.Bag, Contract: job.Contract})
	cfg.OnRecordTrace = g.recordTrace(span.ID(), timer, g.opts.Metadata.OnRecordTrace)

	start := time.Now()
	g.observe(PhaseEvent{Contract: job.Contract, Name: PhaseAssemble, Status: PhaseStart})
	d, err := metadata.Assemble(code.data, mod.ns, no, cfg)
	if err != nil {
		g.observe(PhaseEvent{Contract: job.Contract, Name: PhaseAssemble, Status: PhaseFailed, Elapsed: time.Since(start), Err: err})
		res.fail(err)
		return res
	}
	g.observe(PhaseEvent{Contract: job.Contract, Name: PhaseAssemble, Status: PhaseEnd, Elapsed: time.Since(start)})

	encodeSpan := trace.Begin(g.tracer, trace.ScopePass, PhaseEncode, span.ID())
	encodeSpan.WithExtra("format", g.opts.Encode.Format.String())
	start = time.Now()
	g.observe(PhaseEvent{Contract: job.Contract, Name: PhaseEncode, Status: PhaseStart})
	out, err := metadata.Encode(d, g.opts.Encode)
	elapsed := time.Since(start)
	if err != nil {
		encodeSpan.End("error")
		g.observe(PhaseEvent{Contract: job.Contract, Name: PhaseEncode, Status: PhaseFailed, Elapsed: elapsed, Err: err})
		res.fail(err)
		return res
	}
	encodeSpan.WithExtra("bytes", strconv.Itoa(len(out))).End("")
	g.observe(PhaseEvent{Contract: job.Contract, Name: PhaseEncode, Status: PhaseEnd, Elapsed: elapsed})
	if timer != nil {
		timer.Record(PhaseEncode, elapsed, strconv.Itoa(len(out))+" bytes")
	}

	res.Descriptor = d
	res.Output = out
	g.toDisk(&res)

	if timer != nil {
		report := timer.Report()
		res.Timing = &report
		addTimings(res.Bag, job.Contract, report)
	}
	return res
}

func (r *Result) fail(err error) {
	r.Err = err
	reportError(r.Bag, r.Job.Contract, err)
}

func (g *generator) fromDisk(res *Result) bool {
	if g.opts.Disk == nil {
		return false
	}
	var payload DiskPayload
	ok, err := g.opts.Disk.Get(res.Digest, &payload)
	if err != nil || !ok {
		return false
	}
	if payload.Contract != res.Job.Contract || payload.Format != uint8(g.opts.Encode.Format) {
		return false
	}
	res.Output = payload.Output
	res.Cached = true
	restoreDiagnostics(res.Bag, res.Job.Contract, payload.Diagnostics)
	return true
}

func (g *generator) toDisk(res *Result) {
	if g.opts.Disk == nil {
		return
	}
	err := g.opts.Disk.Put(res.Digest, &DiskPayload{
		Contract:    res.Job.Contract,
		Format:      uint8(g.opts.Encode.Format),
		Output:      res.Output,
		Diagnostics: cacheDiagnostics(res.Bag.Items()),
	})
	if err != nil {
		d := diag.NewWarning(diag.IOWriteError, diag.Subject(g.opts.Disk.Dir()), "cannot update descriptor cache: "+err.Error())
		d.Contract = res.Job.Contract
		res.Bag.Add(d)
	}
}

// recordTrace forwards assembly passes into the tracer as point events and,
// when timings are on, into timer.
func (g *generator) recordTrace(parent uint64, timer *observ.Timer, next metadata.OnRecordTraceFunc) metadata.OnRecordTraceFunc {
	return func(op string, dur time.Duration, attrs []attribute.KeyValue) {
		extra := make(map[string]string, len(attrs)+1)
		notes := make([]string, 0, len(attrs))
		for _, kv := range attrs {
			extra[string(kv.Key)] = kv.Value.Emit()
			if kv.Key != "Contract" {
				notes = append(notes, string(kv.Key)+"="+kv.Value.Emit())
			}
		}
		extra["duration_ms"] = strconv.FormatFloat(float64(dur)/float64(time.Millisecond), 'f', 3, 64)
		trace.Point(g.tracer, trace.ScopeType, op, parent, "", extra)

		// "assemble" spans the sub-passes; recording it would count them twice.
		if timer != nil && strings.HasPrefix(op, "assemble.") {
			timer.Record(op, dur, strings.Join(notes, " "))
		}
		if next != nil {
			next(op, dur, attrs)
		}
	}
}

func (g *generator) observe(ev PhaseEvent) {
	if g.opts.OnPhase != nil {
		g.opts.OnPhase(ev)
	}
}

func modelErr(l *loaded) error {
	if l == nil || l.err == nil {
		return os.ErrNotExist
	}
	return l.err
}

func notFound(job Job, ns *model.Namespace) error {
	names := make([]string, 0, len(ns.Contracts))
	for _, c := range ns.Contracts {
		if c != nil {
			names = append(names, c.Name)
		}
	}
	err := &ContractNotFoundError{Contract: job.Contract, Model: job.ModelPath}
	if best := suggest.Closest(job.Contract, names); best != "" {
		err.Candidates = []string{best}
	}
	return err
}
