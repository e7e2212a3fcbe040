package objectx

import (
	"context"
	"time"

	"github.com/gostratum/metricsx"
	"github.com/gostratum/tracingx"
)

const (
	metricOperations = "objectx_operations_total"
	metricDuration   = "objectx_operation_duration_seconds"
	metricBytes      = "objectx_operation_bytes"
	metricListItems  = "objectx_list_items"
	metricPresign    = "objectx_presign_operations_total"
)

// Instrumenter wraps client operations with metrics and tracing.
// Both backends are optional; without them it only runs the operation.
type Instrumenter struct {
	metrics metricsx.Metrics
	tracer  tracingx.Tracer
}

// NewInstrumenter creates an instrumenter; either argument may be nil
func NewInstrumenter(metrics metricsx.Metrics, tracer tracingx.Tracer) *Instrumenter {
	return &Instrumenter{metrics: metrics, tracer: tracer}
}

// TraceOperation runs fn inside a client span named "objectx.<operation>",
// then counts the call by outcome and observes its duration
func (i *Instrumenter) TraceOperation(ctx context.Context, operation string, ref ObjectRef, fn func(ctx context.Context) error) error {
	if i.tracer != nil {
		var span tracingx.Span
		ctx, span = i.tracer.Start(ctx, "objectx."+operation,
			tracingx.WithSpanKind(tracingx.SpanKindClient),
			tracingx.WithAttributes(map[string]any{
				"objectx.operation": operation,
				"objectx.bucket":    ref.Bucket,
				"objectx.key":       ref.Key,
			}),
		)
		defer span.End()

		inner := fn
		fn = func(ctx context.Context) error {
			err := inner(ctx)
			if err != nil {
				span.SetError(err)
			}
			return err
		}
	}

	start := time.Now()
	err := fn(ctx)
	i.observeCall(operation, time.Since(start), err)
	return err
}

func (i *Instrumenter) observeCall(operation string, elapsed time.Duration, err error) {
	if i.metrics == nil {
		return
	}

	outcome := "success"
	if err != nil {
		outcome = "error"
	}

	i.metrics.Counter(metricOperations,
		metricsx.WithHelp("Total number of object storage operations"),
		metricsx.WithLabels("operation", "status"),
	).Inc(operation, outcome)

	i.metrics.Histogram(metricDuration,
		metricsx.WithHelp("Object storage operation duration in seconds"),
		metricsx.WithLabels("operation"),
		metricsx.WithBuckets(.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10),
	).Observe(elapsed.Seconds(), operation)
}

// RecordOperationSize records the payload size of an upload or download
func (i *Instrumenter) RecordOperationSize(operation string, size int64) {
	if i.metrics == nil {
		return
	}
	i.metrics.Histogram(metricBytes,
		metricsx.WithHelp("Object storage payload size in bytes"),
		metricsx.WithLabels("operation"),
		metricsx.WithBuckets(1<<10, 10<<10, 100<<10, 1<<20, 10<<20, 100<<20, 1<<30),
	).Observe(float64(size), operation)
}

// RecordListOperation records how many references one listing produced
func (i *Instrumenter) RecordListOperation(itemCount int) {
	if i.metrics == nil {
		return
	}
	i.metrics.Histogram(metricListItems,
		metricsx.WithHelp("Number of objects returned by list operations"),
		metricsx.WithBuckets(1, 10, 50, 100, 500, 1000, 5000, 10000),
	).Observe(float64(itemCount))
}

// RecordPresignOperation counts presigned URLs by method
func (i *Instrumenter) RecordPresignOperation(operation string) {
	if i.metrics == nil {
		return
	}
	i.metrics.Counter(metricPresign,
		metricsx.WithHelp("Total number of presigned URL operations"),
		metricsx.WithLabels("operation"),
	).Inc(operation)
}
