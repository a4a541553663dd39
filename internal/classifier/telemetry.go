package classifier

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/fyrsmithlabs/sdrclassifier/internal/history"
)

const (
	// InstrumentationName is the name used for OTEL instrumentation.
	InstrumentationName = "github.com/fyrsmithlabs/sdrclassifier/internal/classifier"
)

// Metrics provides OpenTelemetry metrics for the classifier package.
type Metrics struct {
	learnTotal     metric.Int64Counter
	evictionsTotal metric.Int64Counter
	exactTotal     metric.Int64Counter
	roundsTotal    metric.Int64Counter
	samplesTotal   metric.Int64Counter

	predictDuration metric.Float64Histogram

	initialized bool
}

// NewMetrics creates a new Metrics instance with the provided meter.
// If meter is nil, uses the global meter provider.
func NewMetrics(meter metric.Meter) (*Metrics, error) {
	if meter == nil {
		meter = otel.Meter(InstrumentationName)
	}

	m := &Metrics{}
	var err error

	m.learnTotal, err = meter.Int64Counter(
		"classifier.learn.total",
		metric.WithDescription("Learn calls by outcome"),
		metric.WithUnit("{call}"),
	)
	if err != nil {
		return nil, err
	}

	m.evictionsTotal, err = meter.Int64Counter(
		"classifier.history.evictions.total",
		metric.WithDescription("SDRs dropped from a full label history"),
		metric.WithUnit("{sdr}"),
	)
	if err != nil {
		return nil, err
	}

	m.exactTotal, err = meter.Int64Counter(
		"classifier.predict.exact.total",
		metric.WithDescription("Exact matches returned by predictions"),
		metric.WithUnit("{match}"),
	)
	if err != nil {
		return nil, err
	}

	m.roundsTotal, err = meter.Int64Counter(
		"classifier.objects.rounds.total",
		metric.WithDescription("Spatial voting rounds by outcome"),
		metric.WithUnit("{round}"),
	)
	if err != nil {
		return nil, err
	}

	m.samplesTotal, err = meter.Int64Counter(
		"classifier.objects.samples.total",
		metric.WithDescription("Positioned samples learned by pool"),
		metric.WithUnit("{sample}"),
	)
	if err != nil {
		return nil, err
	}

	m.predictDuration, err = meter.Float64Histogram(
		"classifier.predict.duration.seconds",
		metric.WithDescription("GetPredictedInputValues latency"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1),
	)
	if err != nil {
		return nil, err
	}

	m.initialized = true
	return m, nil
}

// RecordLearn records one Learn call.
func (m *Metrics) RecordLearn(ctx context.Context, out history.Outcome) {
	if m == nil || !m.initialized {
		return
	}
	outcome := "duplicate"
	if out.Inserted {
		outcome = "inserted"
	}
	m.learnTotal.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", outcome)))
	if out.Evicted {
		m.evictionsTotal.Add(ctx, 1)
	}
}

// RecordPrediction records one GetPredictedInputValues call.
func (m *Metrics) RecordPrediction(ctx context.Context, exact int, duration time.Duration) {
	if m == nil || !m.initialized {
		return
	}
	m.predictDuration.Record(ctx, duration.Seconds())
	if exact > 0 {
		m.exactTotal.Add(ctx, int64(exact))
	}
}

// RecordRound records one spatial voting round.
func (m *Metrics) RecordRound(ctx context.Context, consensus bool) {
	if m == nil || !m.initialized {
		return
	}
	outcome := "unknown"
	if consensus {
		outcome = "consensus"
	}
	m.roundsTotal.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", outcome)))
}

// RecordSamples records samples added to a pool ("training" or "whole").
func (m *Metrics) RecordSamples(ctx context.Context, pool string, n int) {
	if m == nil || !m.initialized || n == 0 {
		return
	}
	m.samplesTotal.Add(ctx, int64(n), metric.WithAttributes(attribute.String("pool", pool)))
}

// Tracer returns a tracer for the classifier package.
func Tracer() trace.Tracer {
	return otel.Tracer(InstrumentationName)
}

// recordError marks the span as failed.
func recordError(span trace.Span, err error) {
	if span.IsRecording() {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
}
