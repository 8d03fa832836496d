package metadata

import (
	"time"

	"go.opentelemetry.io/otel/attribute"
)

// OnRecordTraceFunc records the duration of one assembly pass.
type OnRecordTraceFunc func(
	operationName string,
	duration time.Duration,
	attrs []attribute.KeyValue,
)

const (
	tracingStorage      = "assemble.storage"
	tracingConstructors = "assemble.constructors"
	tracingMessages     = "assemble.messages"
	tracingEvents       = "assemble.events"
	tracingAssemble     = "assemble"
)

func (a *assembler) reportCountTrace(op string, count int, start time.Time) {
	if a.cfg.OnRecordTrace == nil {
		return
	}
	a.cfg.OnRecordTrace(
		op,
		time.Since(start),
		[]attribute.KeyValue{
			attribute.String("Contract", a.contract.Name),
			attribute.Int("Count", count),
			attribute.Int("Types", a.res.Registry().Len()),
		},
	)
}

func (a *assembler) reportAssembleTrace(start time.Time) {
	if a.cfg.OnRecordTrace == nil {
		return
	}
	hits, misses := a.res.Cache().Stats()
	a.cfg.OnRecordTrace(
		tracingAssemble,
		time.Since(start),
		[]attribute.KeyValue{
			attribute.String("Contract", a.contract.Name),
			attribute.Int("Types", a.res.Registry().Len()),
			attribute.Int("Cache hits", hits),
			attribute.Int("Cache misses", misses),
			attribute.Int("Code size", len(a.code)),
		},
	)
}
