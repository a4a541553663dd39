package logging

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"syscall"

	"go.opentelemetry.io/otel/log"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// wrapperFrames are the Logger frames between the caller and zap's Check.
const wrapperFrames = 2

// Logger is a zap logger whose methods take a context and add its
// correlation fields to every entry.
type Logger struct {
	zap *zap.Logger
}

// NewLogger writes to stdout and, when cfg.OTEL is set and provider is not
// nil, to the OpenTelemetry log pipeline.
func NewLogger(cfg *Config, provider log.LoggerProvider) (*Logger, error) {
	return NewLoggerWithWriter(cfg, os.Stdout, provider)
}

// NewLoggerWithWriter is NewLogger writing to w instead of stdout.
func NewLoggerWithWriter(cfg *Config, w io.Writer, provider log.LoggerProvider) (*Logger, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	core, err := newCore(cfg, zapcore.AddSync(w), provider)
	if err != nil {
		return nil, fmt.Errorf("building log core: %w", err)
	}

	opts := []zap.Option{zap.AddStacktrace(cfg.StacktraceLevel)}
	if cfg.CallerSkip >= 0 {
		opts = append(opts, zap.AddCaller(), zap.AddCallerSkip(wrapperFrames+cfg.CallerSkip))
	}
	z := zap.New(core, opts...)

	if len(cfg.Fields) > 0 {
		keys := make([]string, 0, len(cfg.Fields))
		for k := range cfg.Fields {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		fields := make([]zap.Field, 0, len(keys))
		for _, k := range keys {
			fields = append(fields, zap.String(k, cfg.Fields[k]))
		}
		z = z.With(fields...)
	}
	return &Logger{zap: z}, nil
}

// NewNop discards everything.
func NewNop() *Logger {
	return &Logger{zap: zap.NewNop()}
}

func (l *Logger) write(ctx context.Context, lvl zapcore.Level, msg string, fields []zap.Field) {
	ce := l.zap.Check(lvl, msg)
	if ce == nil {
		return
	}
	ce.Write(append(ContextFields(ctx), fields...)...)
}

func (l *Logger) Trace(ctx context.Context, msg string, fields ...zap.Field) {
	l.write(ctx, TraceLevel, msg, fields)
}

func (l *Logger) Debug(ctx context.Context, msg string, fields ...zap.Field) {
	l.write(ctx, zapcore.DebugLevel, msg, fields)
}

func (l *Logger) Info(ctx context.Context, msg string, fields ...zap.Field) {
	l.write(ctx, zapcore.InfoLevel, msg, fields)
}

func (l *Logger) Warn(ctx context.Context, msg string, fields ...zap.Field) {
	l.write(ctx, zapcore.WarnLevel, msg, fields)
}

func (l *Logger) Error(ctx context.Context, msg string, fields ...zap.Field) {
	l.write(ctx, zapcore.ErrorLevel, msg, fields)
}

// With returns a child carrying fields; the receiver is unchanged.
func (l *Logger) With(fields ...zap.Field) *Logger {
	return &Logger{zap: l.zap.With(fields...)}
}

// Named appends name to the logger name, dot separated.
func (l *Logger) Named(name string) *Logger {
	return &Logger{zap: l.zap.Named(name)}
}

func (l *Logger) Enabled(lvl zapcore.Level) bool {
	return l.zap.Core().Enabled(lvl)
}

// Underlying exposes the zap logger for packages that log without a
// context. Entries written through it carry no correlation fields.
func (l *Logger) Underlying() *zap.Logger {
	return l.zap
}

// Sync flushes buffered entries. Syncing a terminal or pipe fails with
// EINVAL or ENOTTY on Linux; those are ignored.
func (l *Logger) Sync() error {
	err := l.zap.Sync()
	var errno syscall.Errno
	if errors.As(err, &errno) && (errno == syscall.EINVAL || errno == syscall.ENOTTY) {
		return nil
	}
	return err
}
