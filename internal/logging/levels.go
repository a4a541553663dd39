package logging

import (
	"strings"

	"go.uber.org/zap/zapcore"
)

// TraceLevel sits below Debug for per-candidate detail. zap's sampler does
// not cover it, see newSampler.
const TraceLevel = zapcore.DebugLevel - 1

// LevelFromString accepts zap's level names plus "trace". Empty is info.
func LevelFromString(s string) (zapcore.Level, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	switch s {
	case "":
		return zapcore.InfoLevel, nil
	case "trace":
		return TraceLevel, nil
	}
	return zapcore.ParseLevel(s)
}

func levelName(l zapcore.Level) string {
	if l == TraceLevel {
		return "trace"
	}
	return l.String()
}

func encodeLevel(l zapcore.Level, enc zapcore.PrimitiveArrayEncoder) {
	enc.AppendString(levelName(l))
}
