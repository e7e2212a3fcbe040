package objectx

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gostratum/metricsx"
	"github.com/gostratum/tracingx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// sample is one recorded metric update
type sample struct {
	name   string
	labels string
	value  float64
}

// recordingMetrics implements metricsx.Metrics and keeps every counter and
// histogram update in order
type recordingMetrics struct {
	mu      sync.Mutex
	samples []sample
}

func (r *recordingMetrics) record(name string, value float64, labels []string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.samples = append(r.samples, sample{name: name, labels: strings.Join(labels, ","), value: value})
}

// values returns the recorded values for name with the given labels
func (r *recordingMetrics) values(name string, labels ...string) []float64 {
	r.mu.Lock()
	defer r.mu.Unlock()

	want := strings.Join(labels, ",")
	var out []float64
	for _, s := range r.samples {
		if s.name == name && s.labels == want {
			out = append(out, s.value)
		}
	}
	return out
}

func (r *recordingMetrics) Counter(name string, opts ...metricsx.Option) metricsx.Counter {
	return recordingCounter{r: r, name: name}
}

func (r *recordingMetrics) Gauge(name string, opts ...metricsx.Option) metricsx.Gauge {
	return discardGauge{}
}

func (r *recordingMetrics) Histogram(name string, opts ...metricsx.Option) metricsx.Histogram {
	return recordingHistogram{r: r, name: name}
}

func (r *recordingMetrics) Summary(name string, opts ...metricsx.Option) metricsx.Summary {
	return discardSummary{}
}

type recordingCounter struct {
	r    *recordingMetrics
	name string
}

func (c recordingCounter) Inc(labels ...string)                { c.r.record(c.name, 1, labels) }
func (c recordingCounter) Add(value float64, labels ...string) { c.r.record(c.name, value, labels) }

type recordingHistogram struct {
	r    *recordingMetrics
	name string
}

func (h recordingHistogram) Observe(value float64, labels ...string) {
	h.r.record(h.name, value, labels)
}

func (h recordingHistogram) Timer(labels ...string) metricsx.Timer {
	return &stopwatch{start: time.Now()}
}

type discardGauge struct{}

func (discardGauge) Set(value float64, labels ...string) {}
func (discardGauge) Inc(labels ...string)                {}
func (discardGauge) Dec(labels ...string)                {}
func (discardGauge) Add(value float64, labels ...string) {}
func (discardGauge) Sub(value float64, labels ...string) {}

type discardSummary struct{}

func (discardSummary) Observe(value float64, labels ...string) {}

type stopwatch struct {
	start time.Time
}

func (s *stopwatch) ObserveDuration()    {}
func (s *stopwatch) Stop() time.Duration { return time.Since(s.start) }

// recordingTracer implements tracingx.Tracer and keeps the spans it starts
type recordingTracer struct {
	mu    sync.Mutex
	spans []*recordedSpan
}

func (t *recordingTracer) Start(ctx context.Context, operationName string, opts ...tracingx.SpanOption) (context.Context, tracingx.Span) {
	cfg := &tracingx.SpanConfig{Attributes: map[string]any{}}
	for _, opt := range opts {
		opt(cfg)
	}

	span := &recordedSpan{name: operationName, attrs: cfg.Attributes}

	t.mu.Lock()
	t.spans = append(t.spans, span)
	t.mu.Unlock()
	return ctx, span
}

func (t *recordingTracer) Extract(ctx context.Context, carrier any) (context.Context, error) {
	return ctx, nil
}

func (t *recordingTracer) Inject(ctx context.Context, carrier any) error { return nil }

func (t *recordingTracer) Shutdown(ctx context.Context) error { return nil }

type recordedSpan struct {
	name  string
	attrs map[string]any
	err   error
	ended bool
}

func (s *recordedSpan) End()                              { s.ended = true }
func (s *recordedSpan) SetTag(key string, value any)      { s.attrs[key] = value }
func (s *recordedSpan) SetError(err error)                { s.err = err }
func (s *recordedSpan) LogFields(fields ...tracingx.Field) {}
func (s *recordedSpan) Context() context.Context          { return context.Background() }
func (s *recordedSpan) TraceID() string                   { return "trace" }
func (s *recordedSpan) SpanID() string                    { return "span" }

func TestNewInstrumenter(t *testing.T) {
	metrics := &recordingMetrics{}
	tracer := &recordingTracer{}

	i := NewInstrumenter(metrics, tracer)
	assert.Same(t, metrics, i.metrics)
	assert.Same(t, tracer, i.tracer)

	empty := NewInstrumenter(nil, nil)
	assert.Nil(t, empty.metrics)
	assert.Nil(t, empty.tracer)
}

func TestTraceOperation(t *testing.T) {
	ref := ObjectRef{Bucket: "demo", Key: "a/b.txt"}
	failure := errors.New("boom")

	tests := []struct {
		name    string
		op      string
		err     error
		status  string
		metrics bool
		tracer  bool
	}{
		{name: "success", op: "upload", status: "success", metrics: true, tracer: true},
		{name: "failure", op: "download", err: failure, status: "error", metrics: true, tracer: true},
		{name: "tracer only", op: "delete", status: "success", tracer: true},
		{name: "metrics only", op: "head", status: "success", metrics: true},
		{name: "neither", op: "list_page", err: failure, status: "error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var (
				metrics *recordingMetrics
				tracer  *recordingTracer
				i       *Instrumenter
			)
			switch {
			case tt.metrics && tt.tracer:
				metrics, tracer = &recordingMetrics{}, &recordingTracer{}
				i = NewInstrumenter(metrics, tracer)
			case tt.metrics:
				metrics = &recordingMetrics{}
				i = NewInstrumenter(metrics, nil)
			case tt.tracer:
				tracer = &recordingTracer{}
				i = NewInstrumenter(nil, tracer)
			default:
				i = NewInstrumenter(nil, nil)
			}

			called := false
			err := i.TraceOperation(context.Background(), tt.op, ref, func(ctx context.Context) error {
				called = true
				return tt.err
			})

			assert.True(t, called)
			assert.Equal(t, tt.err, err)

			if metrics != nil {
				assert.Equal(t, []float64{1}, metrics.values("objectx_operations_total", tt.op, tt.status))
				assert.Len(t, metrics.values("objectx_operation_duration_seconds", tt.op), 1)
			}

			if tracer != nil {
				require.Len(t, tracer.spans, 1)
				span := tracer.spans[0]
				assert.Equal(t, "objectx."+tt.op, span.name)
				assert.Equal(t, tt.op, span.attrs["objectx.operation"])
				assert.Equal(t, "demo", span.attrs["objectx.bucket"])
				assert.Equal(t, "a/b.txt", span.attrs["objectx.key"])
				assert.True(t, span.ended)
				assert.Equal(t, tt.err, span.err)
			}
		})
	}
}

func TestInstrumenterRecorders(t *testing.T) {
	metrics := &recordingMetrics{}
	i := NewInstrumenter(metrics, nil)

	i.RecordOperationSize("upload", 1024)
	i.RecordOperationSize("download", 2048)
	i.RecordListOperation(50)
	i.RecordListOperation(0)
	i.RecordPresignOperation("get")
	i.RecordPresignOperation("put")

	assert.Equal(t, []float64{1024}, metrics.values("objectx_operation_bytes", "upload"))
	assert.Equal(t, []float64{2048}, metrics.values("objectx_operation_bytes", "download"))
	assert.Equal(t, []float64{50, 0}, metrics.values("objectx_list_items"))
	assert.Equal(t, []float64{1}, metrics.values("objectx_presign_operations_total", "get"))
	assert.Equal(t, []float64{1}, metrics.values("objectx_presign_operations_total", "put"))

	// No metrics backend is a no-op
	assert.NotPanics(t, func() {
		noop := NewInstrumenter(nil, nil)
		noop.RecordOperationSize("upload", 1)
		noop.RecordListOperation(1)
		noop.RecordPresignOperation("get")
	})
}
