package logging

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap/zapcore"
)

func TestContextFields_Empty(t *testing.T) {
	assert.Empty(t, ContextFields(context.Background()))
}

func TestContextFields_All(t *testing.T) {
	traceID, _ := trace.TraceIDFromHex("4bf92f3577b34da6a3ce929d0e0e4736")
	spanID, _ := trace.SpanIDFromHex("00f067aa0ba902b7")
	ctx := trace.ContextWithSpanContext(context.Background(), trace.NewSpanContext(trace.SpanContextConfig{
		TraceID:    traceID,
		SpanID:     spanID,
		TraceFlags: trace.FlagsSampled,
	}))
	ctx = WithClassifierID(ctx, "clf-1")
	ctx = WithRequestID(ctx, "req_9")

	enc := zapcore.NewMapObjectEncoder()
	for _, f := range ContextFields(ctx) {
		f.AddTo(enc)
	}

	assert.Equal(t, map[string]any{
		"trace_id":      "4bf92f3577b34da6a3ce929d0e0e4736",
		"span_id":       "00f067aa0ba902b7",
		"trace_sampled": true,
		"classifier.id": "clf-1",
		"request.id":    "req_9",
	}, enc.Fields)
}

func TestCorrelation_LayersIndependently(t *testing.T) {
	base := WithClassifierID(context.Background(), "clf")
	req := WithRequestID(base, "r1")

	assert.Equal(t, "clf", ClassifierIDFromContext(req))
	assert.Equal(t, "r1", RequestIDFromContext(req))
	assert.Empty(t, RequestIDFromContext(base), "parent context is untouched")
}

func TestWithRequestID_PanicsOnInvalid(t *testing.T) {
	ctx := context.Background()
	assert.Panics(t, func() { WithRequestID(ctx, "") })
	assert.Panics(t, func() { WithRequestID(ctx, "has space") })
	assert.Panics(t, func() { WithRequestID(ctx, strings.Repeat("a", maxIDLen+1)) })
	assert.Panics(t, func() { WithClassifierID(ctx, "bad/id") })
	assert.NotPanics(t, func() { WithRequestID(ctx, "0b7e2f4c-9d1a-4c55-8f0e-1a2b3c4d5e6f") })
}

func TestValidateID(t *testing.T) {
	assert.NoError(t, ValidateID("abc-123_X", "id"))
	assert.Error(t, ValidateID("\xff", "id"))
	assert.Error(t, ValidateID("café", "id"))
}

func TestFromContext(t *testing.T) {
	assert.NotNil(t, FromContext(context.Background()))

	tl := NewTestLogger()
	ctx := WithLogger(context.Background(), tl.Logger)
	assert.Same(t, tl.Logger, FromContext(ctx))
}
