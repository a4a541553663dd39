package classifier

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/fyrsmithlabs/sdrclassifier/internal/history"
	"github.com/fyrsmithlabs/sdrclassifier/internal/sdr"
	"github.com/fyrsmithlabs/sdrclassifier/internal/spatial"
)

func sumCounter(t *testing.T, rm metricdata.ResourceMetrics, name string, attr ...attribute.KeyValue) int64 {
	t.Helper()
	var total int64
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if m.Name != name {
				continue
			}
			sum, ok := m.Data.(metricdata.Sum[int64])
			require.True(t, ok, "%s should be an int64 sum", name)
			for _, dp := range sum.DataPoints {
				match := true
				for _, kv := range attr {
					v, found := dp.Attributes.Value(kv.Key)
					if !found || v != kv.Value {
						match = false
					}
				}
				if match {
					total += dp.Value
				}
			}
		}
	}
	return total
}

func TestNewMetrics_NilMeter(t *testing.T) {
	metrics, err := NewMetrics(nil)
	require.NoError(t, err)
	require.NotNil(t, metrics)
	assert.True(t, metrics.initialized)
}

func TestMetrics_NilSafe(t *testing.T) {
	var m *Metrics
	ctx := context.Background()
	m.RecordLearn(ctx, historyOutcome(true, false))
	m.RecordPrediction(ctx, 1, 0)
	m.RecordRound(ctx, true)
	m.RecordSamples(ctx, "training", 1)
}

func TestClassifier_Metrics(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	meter := provider.Meter(InstrumentationName)

	cfg := DefaultConfig("unknown")
	cfg.MaxRecordedElements = 1
	c, err := New(cfg, WithMeter(meter))
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, c.Learn(ctx, "a", sdr.SDR{1}))
	require.NoError(t, c.Learn(ctx, "a", sdr.SDR{1}))
	require.NoError(t, c.Learn(ctx, "a", sdr.SDR{2}))
	_, err = c.GetPredictedInputValues(ctx, sdr.SDR{2}, 1)
	require.NoError(t, err)
	require.NoError(t, c.LearnObj(ctx, catDogSamples()))
	c.PredictObj(ctx, []spatial.Sample[string]{{SDR: sdr.SDR{1, 2, 3, 4}}}, 3)
	c.PredictObj(ctx, nil, 3)

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(ctx, &rm))

	assert.Equal(t, int64(2), sumCounter(t, rm, "classifier.learn.total", attribute.String("outcome", "inserted")))
	assert.Equal(t, int64(1), sumCounter(t, rm, "classifier.learn.total", attribute.String("outcome", "duplicate")))
	assert.Equal(t, int64(1), sumCounter(t, rm, "classifier.history.evictions.total"))
	assert.Equal(t, int64(1), sumCounter(t, rm, "classifier.predict.exact.total"))
	assert.Equal(t, int64(3), sumCounter(t, rm, "classifier.objects.samples.total", attribute.String("pool", "training")))
	assert.Equal(t, int64(1), sumCounter(t, rm, "classifier.objects.rounds.total", attribute.String("outcome", "consensus")))
	assert.Equal(t, int64(1), sumCounter(t, rm, "classifier.objects.rounds.total", attribute.String("outcome", "unknown")))
}

func TestClassifier_Spans(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	c, err := New(DefaultConfig("unknown"), WithTracer(tp.Tracer(InstrumentationName)))
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, c.Learn(ctx, "a", sdr.SDR{1, 2}))
	require.Error(t, c.Learn(ctx, "a", sdr.SDR{-1}))
	_, err = c.GetPredictedInputValues(ctx, sdr.SDR{1, 2}, 1)
	require.NoError(t, err)

	spans := recorder.Ended()
	require.Len(t, spans, 3)
	assert.Equal(t, "classifier.Learn", spans[0].Name())
	assert.Equal(t, codes.Unset, spans[0].Status().Code)
	assert.Equal(t, codes.Error, spans[1].Status().Code)
	assert.Equal(t, "classifier.GetPredictedInputValues", spans[2].Name())
}

func TestClassifier_Logging(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	c, err := New(DefaultConfig("unknown"), WithLogger(zap.New(core)))
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, c.Learn(ctx, "a", sdr.SDR{1, 2}))
	require.NoError(t, c.Learn(ctx, "a", sdr.SDR{2, 3}))

	learned := logs.FilterMessage("sdr learned").All()
	require.Len(t, learned, 2)
	assert.Equal(t, "classifier", learned[0].LoggerName)
	assert.Equal(t, "a", learned[0].ContextMap()["label"])

	drift := logs.FilterMessage("sdr drift").All()
	require.Len(t, drift, 1)
	assert.Equal(t, int64(1), drift[0].ContextMap()["same_bits"])

	c.ClearState(ctx)
	cleared := logs.FilterMessage("state cleared").All()
	require.Len(t, cleared, 1)
	assert.Equal(t, zapcore.InfoLevel, cleared[0].Level)
	assert.Equal(t, int64(1), cleared[0].ContextMap()["labels"])
}

func TestLogger_NilSafe(t *testing.T) {
	var l *Logger
	ctx := context.Background()
	l.Debug(ctx, "ignored")
	l.Cleared(ctx, 0, 0, 0, 0)
	l.Round(ctx, "x", spatial.Frame{}, 0, 0, 0)
}

func historyOutcome(inserted, evicted bool) history.Outcome {
	return history.Outcome{Inserted: inserted, Evicted: evicted}
}
