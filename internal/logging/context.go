package logging

import (
	"context"
	"fmt"
	"unicode/utf8"

	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

const maxIDLen = 128

// correlation is the set of IDs carried through a request.
type correlation struct {
	classifierID string
	requestID    string
}

type correlationKey struct{}
type loggerKey struct{}

func correlationFrom(ctx context.Context) correlation {
	c, _ := ctx.Value(correlationKey{}).(correlation)
	return c
}

func withCorrelation(ctx context.Context, name, id string, set func(*correlation)) context.Context {
	if err := ValidateID(id, name); err != nil {
		panic("logging: " + err.Error())
	}
	c := correlationFrom(ctx)
	set(&c)
	return context.WithValue(ctx, correlationKey{}, c)
}

// ValidateID accepts 1 to 128 ASCII letters, digits, '-' or '_'. UUIDs
// pass; anything that would need escaping in a log line does not.
func ValidateID(id, name string) error {
	switch {
	case id == "":
		return fmt.Errorf("%s is empty", name)
	case !utf8.ValidString(id):
		return fmt.Errorf("%s is not valid UTF-8", name)
	case len(id) > maxIDLen:
		return fmt.Errorf("%s is longer than %d bytes", name, maxIDLen)
	}
	for _, r := range id {
		ok := r == '-' || r == '_' ||
			(r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9')
		if !ok {
			return fmt.Errorf("%s has invalid character %q", name, r)
		}
	}
	return nil
}

// WithClassifierID tags ctx with a classifier instance. It panics on an
// ID that ValidateID rejects.
func WithClassifierID(ctx context.Context, id string) context.Context {
	return withCorrelation(ctx, "classifier id", id, func(c *correlation) { c.classifierID = id })
}

// WithRequestID tags ctx with a request. It panics on an ID that
// ValidateID rejects.
func WithRequestID(ctx context.Context, id string) context.Context {
	return withCorrelation(ctx, "request id", id, func(c *correlation) { c.requestID = id })
}

func ClassifierIDFromContext(ctx context.Context) string {
	return correlationFrom(ctx).classifierID
}

func RequestIDFromContext(ctx context.Context) string {
	return correlationFrom(ctx).requestID
}

// ContextFields returns the span and correlation IDs found in ctx.
func ContextFields(ctx context.Context) []zap.Field {
	var fields []zap.Field
	if sc := trace.SpanContextFromContext(ctx); sc.IsValid() {
		fields = append(fields,
			zap.String("trace_id", sc.TraceID().String()),
			zap.String("span_id", sc.SpanID().String()),
		)
		if sc.IsSampled() {
			fields = append(fields, zap.Bool("trace_sampled", true))
		}
	}
	c := correlationFrom(ctx)
	if c.classifierID != "" {
		fields = append(fields, zap.String("classifier.id", c.classifierID))
	}
	if c.requestID != "" {
		fields = append(fields, zap.String("request.id", c.requestID))
	}
	return fields
}

// WithLogger stores l in ctx.
func WithLogger(ctx context.Context, l *Logger) context.Context {
	return context.WithValue(ctx, loggerKey{}, l)
}

// FromContext returns the logger stored by WithLogger, or a nop logger.
func FromContext(ctx context.Context) *Logger {
	if l, ok := ctx.Value(loggerKey{}).(*Logger); ok {
		return l
	}
	return NewNop()
}
