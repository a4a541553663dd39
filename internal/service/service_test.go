package service

import (
	"bytes"
	"context"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"

	"github.com/fyrsmithlabs/sdrclassifier/internal/classifier"
	"github.com/fyrsmithlabs/sdrclassifier/internal/logging"
	"github.com/fyrsmithlabs/sdrclassifier/internal/sdr"
	"github.com/fyrsmithlabs/sdrclassifier/internal/spatial"
	"github.com/fyrsmithlabs/sdrclassifier/internal/telemetry"
)

type fixture struct {
	svc *Service
	reg *prometheus.Registry
	log *logging.TestLogger
	tel *telemetry.TestTelemetry
}

func newFixture(t *testing.T, opts ...Option) *fixture {
	t.Helper()
	f := &fixture{
		reg: prometheus.NewRegistry(),
		log: logging.NewTestLogger(),
		tel: telemetry.NewTestTelemetry(),
	}
	base := []Option{
		WithRegisterer(f.reg),
		WithLogger(f.log.Logger),
		WithTracer(f.tel.Tracer(instrumentationName)),
		WithMeter(f.tel.Meter(instrumentationName)),
	}
	svc, err := New(classifier.DefaultConfig("unknown"), append(base, opts...)...)
	require.NoError(t, err)
	f.svc = svc
	return f
}

func (f *fixture) gauge(t *testing.T, name string) float64 {
	t.Helper()
	families, err := f.reg.Gather()
	require.NoError(t, err)
	for _, mf := range families {
		if mf.GetName() == name {
			require.Len(t, mf.GetMetric(), 1)
			return mf.GetMetric()[0].GetGauge().GetValue()
		}
	}
	t.Fatalf("metric %s not registered", name)
	return 0
}

func TestNew(t *testing.T) {
	f := newFixture(t)
	assert.NotEmpty(t, f.svc.ID())

	st := f.svc.Status()
	assert.Equal(t, f.svc.ID(), st.InstanceID)
	assert.Equal(t, 10, st.MaxRecordedElements)
	assert.Equal(t, "greedy", st.MatchPolicy)
	assert.Equal(t, "zero", st.FramePolicy)
	assert.Equal(t, "unknown", st.UnknownLabel)
	assert.Empty(t, st.Labels)
}

func TestNew_Errors(t *testing.T) {
	reg := prometheus.NewRegistry()

	_, err := New(classifier.DefaultConfig("unknown"), WithRegisterer(reg), WithInstanceID("bad id!"))
	require.Error(t, err)

	cfg := classifier.DefaultConfig("unknown")
	cfg.MaxRecordedElements = 0
	_, err = New(cfg, WithRegisterer(reg))
	assert.ErrorIs(t, err, classifier.ErrInvalidConfig)
}

func TestNew_SameInstanceReusesGauges(t *testing.T) {
	reg := prometheus.NewRegistry()
	_, err := New(classifier.DefaultConfig("unknown"), WithRegisterer(reg), WithInstanceID("fixed"))
	require.NoError(t, err)
	_, err = New(classifier.DefaultConfig("unknown"), WithRegisterer(reg), WithInstanceID("fixed"))
	require.NoError(t, err)
}

func TestService_LearnAndPredict(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	_, err := f.svc.Learn(ctx, "a", sdr.SDR{1, 2, 3, 4})
	require.NoError(t, err)
	_, err = f.svc.Learn(ctx, "b", sdr.SDR{1, 2, 7, 8})
	require.NoError(t, err)

	results, err := f.svc.Predict(ctx, sdr.SDR{1, 2, 3, 4}, 2)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, classifier.Result[string]{Label: "a", NumOfSameBits: 4, Similarity: 100}, results[0])
	assert.Equal(t, classifier.Result[string]{Label: "b", NumOfSameBits: 2, Similarity: 50}, results[1])

	assert.Equal(t, 2.0, f.gauge(t, "sdr_labels"))
	assert.Equal(t, []string{"a", "b"}, f.svc.Status().Labels)

	hist, err := f.svc.History("a")
	require.NoError(t, err)
	assert.Equal(t, []sdr.SDR{{1, 2, 3, 4}}, hist)

	f.tel.AssertSpanExists(t, "service.Learn")
	f.tel.AssertSpanExists(t, "service.Predict")
	f.tel.AssertSpanAttribute(t, "service.Predict", "classifier.id", f.svc.ID())
}

func TestService_LearnRejectsBadInput(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	stored, err := f.svc.Learn(ctx, "", sdr.SDR{1})
	assert.Zero(t, stored)
	assert.ErrorIs(t, err, ErrInvalidInput)
	assert.ErrorIs(t, err, ErrEmptyLabel)

	_, err = f.svc.Learn(ctx, "a", sdr.SDR{1, -2})
	assert.ErrorIs(t, err, ErrInvalidInput)
	assert.ErrorIs(t, err, sdr.ErrNegativeIndex)

	_, err = f.svc.Predict(ctx, sdr.SDR{-1}, 1)
	assert.ErrorIs(t, err, ErrInvalidInput)

	f.log.AssertLogged(t, zapcore.WarnLevel, "learn rejected")
	f.log.AssertField(t, "learn failed", "classifier.id", f.svc.ID())
	assert.Empty(t, f.svc.Status().Labels)
}

func TestService_Objects(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	training := []spatial.Sample[string]{
		{Label: "cat", SDR: sdr.SDR{1, 2, 3}, Frame: spatial.NewFrame(0, 0, 5, 5)},
		{Label: "cat", SDR: sdr.SDR{4, 5, 6}, Frame: spatial.NewFrame(1, 1, 6, 6), Source: "given"},
	}
	require.NoError(t, f.svc.LearnObj(ctx, training))
	assert.Equal(t, 2.0, f.gauge(t, "sdr_training_pool"))

	winners, err := f.svc.PredictObj(ctx, []spatial.Sample[string]{
		{SDR: sdr.SDR{1, 2, 3}, Frame: spatial.NewFrame(10, 10, 0, 0)},
		{SDR: sdr.SDR{4, 5, 6}, Frame: spatial.NewFrame(10, 10, 0, 0)},
	}, 3)
	require.NoError(t, err)
	require.Len(t, winners, 1)
	assert.Equal(t, "cat", winners[0].Label)
	assert.Equal(t, 1.0, f.gauge(t, "sdr_winners"))

	require.NoError(t, f.svc.LearnWholeObj(ctx, []spatial.Sample[string]{
		{Label: "cat", SDR: sdr.SDR{1, 2, 3, 4}},
		{Label: "dog", SDR: sdr.SDR{7, 8}},
	}))
	labels, err := f.svc.ValidateObj(ctx, sdr.SDR{7, 8, 9}, 1)
	require.NoError(t, err)
	assert.Equal(t, []string{"dog"}, labels)
	assert.Equal(t, 2.0, f.gauge(t, "sdr_whole_pool"))

	st := f.svc.Status()
	assert.Equal(t, 2, st.TrainingPool)
	assert.Equal(t, 2, st.WholePool)
	assert.Equal(t, 1, st.Winners)
}

func TestService_ObjectsRejectBadInput(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	err := f.svc.LearnObj(ctx, []spatial.Sample[string]{{SDR: sdr.SDR{1}}})
	assert.ErrorIs(t, err, ErrEmptyLabel)

	err = f.svc.LearnWholeObj(ctx, []spatial.Sample[string]{{Label: "x", SDR: sdr.SDR{-1}}})
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = f.svc.PredictObj(ctx, []spatial.Sample[string]{{SDR: sdr.SDR{-4}}}, 1)
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = f.svc.ValidateObj(ctx, sdr.SDR{-4}, 1)
	assert.ErrorIs(t, err, ErrInvalidInput)

	assert.Equal(t, 0, f.svc.Status().TrainingPool)
	assert.Equal(t, 0, f.svc.Status().Winners)
}

func TestPrepare_FillsSources(t *testing.T) {
	in := []spatial.Sample[string]{
		{Label: "a", SDR: sdr.SDR{1}},
		{Label: "a", SDR: sdr.SDR{2}, Source: "kept"},
	}
	out, err := prepare(in)
	require.NoError(t, err)

	assert.NotEmpty(t, out[0].Source)
	assert.Equal(t, "kept", out[1].Source)
	assert.Empty(t, in[0].Source, "input must not be modified")
}

func TestService_LearnReturnsStoredCount(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	stored, err := f.svc.Learn(ctx, "a", sdr.SDR{1, 2})
	require.NoError(t, err)
	assert.Equal(t, 1, stored)

	stored, err = f.svc.Learn(ctx, "a", sdr.SDR{3, 4})
	require.NoError(t, err)
	assert.Equal(t, 2, stored)

	// Set-equal to the latest entry, so nothing new is stored.
	stored, err = f.svc.Learn(ctx, "a", sdr.SDR{4, 3})
	require.NoError(t, err)
	assert.Equal(t, 2, stored)
}

func TestService_LearnCountSurvivesConcurrentReset(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for range 200 {
			f.svc.Reset(ctx)
		}
	}()
	go func() {
		defer wg.Done()
		for j := range 200 {
			stored, err := f.svc.Learn(ctx, "a", sdr.SDR{j})
			assert.NoError(t, err)
			assert.GreaterOrEqual(t, stored, 1)
		}
	}()
	wg.Wait()
}

func TestService_TraceAndReset(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	_, err := f.svc.Learn(ctx, "a", sdr.SDR{1, 2})
	require.NoError(t, err)

	var buf bytes.Buffer
	out, err := f.svc.Trace(ctx, &buf)
	require.NoError(t, err)
	assert.Equal(t, "\na\n1, 2\n........... Cell State .............\n\na\n1, 2\n", out)
	assert.Equal(t, out, buf.String())

	f.svc.Reset(ctx)
	assert.Empty(t, f.svc.Status().Labels)
	assert.Equal(t, 0.0, f.gauge(t, "sdr_labels"))
	f.log.AssertLogged(t, zapcore.InfoLevel, "classifier reset")

	out, err = f.svc.Trace(ctx, nil)
	require.NoError(t, err)
	assert.Equal(t, "........... Cell State .............\n", out)
}

func TestService_ConcurrentUse(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	var wg sync.WaitGroup
	for i := range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := range 20 {
				_, _ = f.svc.Learn(ctx, "label", sdr.SDR{i, j})
				_, _ = f.svc.Predict(ctx, sdr.SDR{i}, 1)
			}
		}()
	}
	wg.Wait()

	hist, err := f.svc.History("label")
	require.NoError(t, err)
	assert.Len(t, hist, 10)
}

func TestGauges_CollectFromRegistry(t *testing.T) {
	reg := prometheus.NewRegistry()
	g, err := newGauges(reg, "inst")
	require.NoError(t, err)

	g.set(Status{LabelCount: 3, TrainingPool: 4, WholePool: 5, Winners: 6})
	assert.Equal(t, 3.0, testutil.ToFloat64(g.labels))
	assert.Equal(t, 6.0, testutil.ToFloat64(g.winners))
	assert.Equal(t, 4, testutil.CollectAndCount(reg))
}
