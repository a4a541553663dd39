package classifier

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/sdrclassifier/internal/history"
	"github.com/fyrsmithlabs/sdrclassifier/internal/spatial"
)

// Logger wraps zap.Logger with classifier-specific structured logging.
type Logger struct {
	logger *zap.Logger
}

// NewLogger creates a new Logger. If logger is nil, uses a no-op logger.
func NewLogger(logger *zap.Logger) *Logger {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Logger{logger: logger.Named("classifier")}
}

// Learned logs the outcome of a Learn call.
func (l *Logger) Learned(ctx context.Context, label any, size int, out history.Outcome, stored int) {
	if l == nil || l.logger == nil {
		return
	}
	fields := l.labelFields(ctx, label)
	fields = append(fields,
		zap.Int("sdr_size", size),
		zap.Bool("inserted", out.Inserted),
		zap.Bool("new_label", out.Created),
		zap.Int("stored", stored),
	)
	if out.Evicted {
		fields = append(fields, zap.Bool("evicted", true))
	}
	l.logger.Debug("sdr learned", fields...)
}

// Drift logs how much a newly learned SDR overlaps the one stored before it.
func (l *Logger) Drift(ctx context.Context, label any, prevSize, size, same int) {
	if l == nil || l.logger == nil {
		return
	}
	fields := l.labelFields(ctx, label)
	fields = append(fields,
		zap.Int("previous_size", prevSize),
		zap.Int("sdr_size", size),
		zap.Int("same_bits", same),
	)
	l.logger.Debug("sdr drift", fields...)
}

// Candidate logs one label considered by a prediction.
func (l *Logger) Candidate(ctx context.Context, index int, label any, sameBits int, similarity float64, exact bool) {
	if l == nil || l.logger == nil {
		return
	}
	fields := l.labelFields(ctx, label)
	fields = append(fields,
		zap.Int("index", index),
		zap.Int("same_bits", sameBits),
		zap.Float64("similarity", similarity),
		zap.Bool("exact", exact),
	)
	l.logger.Debug("prediction candidate", fields...)
}

// Predicted logs a prediction summary.
func (l *Logger) Predicted(ctx context.Context, querySize, labels, exact, returned int, duration time.Duration) {
	if l == nil || l.logger == nil {
		return
	}
	fields := []zap.Field{
		zap.Int("query_size", querySize),
		zap.Int("labels", labels),
		zap.Int("exact_matches", exact),
		zap.Int("returned", returned),
		zap.Duration("duration", duration),
	}
	fields = append(fields, l.traceFields(ctx)...)
	l.logger.Debug("prediction complete", fields...)
}

// Round logs the result of one spatial voting round.
func (l *Logger) Round(ctx context.Context, winner any, frame spatial.Frame, score, candidates, labels int) {
	if l == nil || l.logger == nil {
		return
	}
	fields := l.labelFields(ctx, winner)
	fields = append(fields,
		zap.Stringer("frame", frame),
		zap.Int("score", score),
		zap.Int("candidates", candidates),
		zap.Int("candidate_labels", labels),
	)
	if score == 0 {
		l.logger.Info("object round without consensus", fields...)
		return
	}
	l.logger.Info("object round", fields...)
}

// Cleared logs a state reset.
func (l *Logger) Cleared(ctx context.Context, labels, pool, whole, winners int) {
	if l == nil || l.logger == nil {
		return
	}
	fields := []zap.Field{
		zap.Int("labels", labels),
		zap.Int("training_pool", pool),
		zap.Int("whole_pool", whole),
		zap.Int("winners", winners),
	}
	fields = append(fields, l.traceFields(ctx)...)
	l.logger.Info("state cleared", fields...)
}

// Error logs an error with context.
func (l *Logger) Error(ctx context.Context, msg string, err error, fields ...zap.Field) {
	if l == nil || l.logger == nil {
		return
	}
	allFields := l.traceFields(ctx)
	allFields = append(allFields, zap.Error(err))
	allFields = append(allFields, fields...)
	l.logger.Error(msg, allFields...)
}

// Debug logs a debug message with context.
func (l *Logger) Debug(ctx context.Context, msg string, fields ...zap.Field) {
	if l == nil || l.logger == nil {
		return
	}
	allFields := l.traceFields(ctx)
	allFields = append(allFields, fields...)
	l.logger.Debug(msg, allFields...)
}

func (l *Logger) labelFields(ctx context.Context, label any) []zap.Field {
	fields := []zap.Field{zap.String("label", fmt.Sprint(label))}
	return append(fields, l.traceFields(ctx)...)
}

// traceFields extracts trace context from the context.
func (l *Logger) traceFields(ctx context.Context) []zap.Field {
	span := trace.SpanFromContext(ctx)
	if !span.SpanContext().IsValid() {
		return nil
	}
	sc := span.SpanContext()
	return []zap.Field{
		zap.String("trace_id", sc.TraceID().String()),
		zap.String("span_id", sc.SpanID().String()),
	}
}
