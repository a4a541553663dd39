package telemetry

import (
	"context"
	"testing"

	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

// TestTelemetry records spans and metrics in memory. Nothing is installed
// globally, so parallel tests do not see each other's data.
type TestTelemetry struct {
	*Telemetry

	Recorder *tracetest.SpanRecorder
	Reader   *sdkmetric.ManualReader
}

func NewTestTelemetry() *TestTelemetry {
	cfg := NewDefaultConfig()
	cfg.Enabled = true

	rec := tracetest.NewSpanRecorder()
	reader := sdkmetric.NewManualReader()
	return &TestTelemetry{
		Telemetry: &Telemetry{
			config:         cfg,
			tracerProvider: sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(rec)),
			meterProvider:  sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader)),
			health:         HealthStatus{Healthy: true},
		},
		Recorder: rec,
		Reader:   reader,
	}
}

// SpanByName returns the first ended span called name, or nil.
func (t *TestTelemetry) SpanByName(name string) sdktrace.ReadOnlySpan {
	for _, s := range t.Recorder.Ended() {
		if s.Name() == name {
			return s
		}
	}
	return nil
}

// MetricByName collects now and returns the instrument called name.
func (t *TestTelemetry) MetricByName(ctx context.Context, name string) (metricdata.Metrics, bool) {
	var rm metricdata.ResourceMetrics
	if err := t.Reader.Collect(ctx, &rm); err != nil {
		return metricdata.Metrics{}, false
	}
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if m.Name == name {
				return m, true
			}
		}
	}
	return metricdata.Metrics{}, false
}

func (t *TestTelemetry) AssertSpanExists(tb testing.TB, name string) {
	tb.Helper()
	if t.SpanByName(name) != nil {
		return
	}
	var names []string
	for _, s := range t.Recorder.Ended() {
		names = append(names, s.Name())
	}
	tb.Errorf("no span %q among %v", name, names)
}

// AssertSpanAttribute compares the attribute as a Go value: strings,
// int64, float64 or bool.
func (t *TestTelemetry) AssertSpanAttribute(tb testing.TB, span, key string, want any) {
	tb.Helper()
	s := t.SpanByName(span)
	if s == nil {
		tb.Fatalf("no span %q", span)
		return
	}
	set := attribute.NewSet(s.Attributes()...)
	v, ok := set.Value(attribute.Key(key))
	if !ok {
		tb.Errorf("span %q has no attribute %q", span, key)
		return
	}
	if got := v.AsInterface(); got != want {
		tb.Errorf("span %q attribute %q = %v, want %v", span, key, got, want)
	}
}
