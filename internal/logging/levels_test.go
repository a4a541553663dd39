package logging

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestLevelFromString(t *testing.T) {
	tests := map[string]zapcore.Level{
		"trace":   TraceLevel,
		" TRACE ": TraceLevel,
		"debug":   zapcore.DebugLevel,
		"":        zapcore.InfoLevel,
		"info":    zapcore.InfoLevel,
		"WARN":    zapcore.WarnLevel,
		"error":   zapcore.ErrorLevel,
	}
	for in, want := range tests {
		got, err := LevelFromString(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := LevelFromString("chatty")
	assert.Error(t, err)
}

func TestLevelName(t *testing.T) {
	assert.Less(t, int8(TraceLevel), int8(zapcore.DebugLevel))
	assert.Equal(t, "trace", levelName(TraceLevel))
	assert.Equal(t, "warn", levelName(zapcore.WarnLevel))
}
