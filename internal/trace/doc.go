// Package trace records what the descriptor pipeline is doing, for diagnosing
// slow or stuck generation runs.
//
// Enable it from the command line:
//
//	contractmeta gen --trace=- --trace-level=detail
//
// Tracers: Nop (disabled), StreamTracer (writes each event as it happens),
// RingTracer (keeps the last N events for a dump on failure) and MultiTracer
// (fans out to several).
//
// Levels gate scopes: phase shows driver and pass events, detail adds one
// span per contract, debug adds per-type events.
//
// Tracers travel through context:
//
//	ctx = trace.WithTracer(ctx, tracer)
//	span := trace.Begin(trace.FromContext(ctx), trace.ScopeContract, "contract:flipper", 0)
//	defer span.End("")
package trace
