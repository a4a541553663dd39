package logging

import (
	"fmt"

	"go.opentelemetry.io/contrib/bridges/otelzap"
	"go.opentelemetry.io/otel/log"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// newCore tees the stdout encoder with the OpenTelemetry bridge and
// applies sampling to the result.
func newCore(cfg *Config, out zapcore.WriteSyncer, provider log.LoggerProvider) (zapcore.Core, error) {
	var cores []zapcore.Core
	if cfg.Stdout {
		cores = append(cores, zapcore.NewCore(newEncoder(cfg.Format), out, cfg.Level))
	}
	if cfg.OTEL && provider != nil {
		cores = append(cores, otelzap.NewCore(scopeName(cfg), otelzap.WithLoggerProvider(provider)))
	}

	switch len(cores) {
	case 0:
		return nil, fmt.Errorf("no usable output (otel requested without a logger provider)")
	case 1:
		return sampleCore(cores[0], cfg.Sampling), nil
	default:
		return sampleCore(zapcore.NewTee(cores...), cfg.Sampling), nil
	}
}

func scopeName(cfg *Config) string {
	if name := cfg.Fields["service"]; name != "" {
		return name
	}
	return "sdrd"
}

func newEncoder(format string) zapcore.Encoder {
	ec := zap.NewProductionEncoderConfig()
	ec.TimeKey = "ts"
	ec.EncodeTime = zapcore.ISO8601TimeEncoder
	ec.EncodeLevel = encodeLevel
	if format == "console" {
		return zapcore.NewConsoleEncoder(ec)
	}
	return zapcore.NewJSONEncoder(ec)
}
