package logging

import (
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap/zapcore"

	"github.com/fyrsmithlabs/sdrclassifier/internal/config"
)

// ErrInvalidConfig is wrapped by every Validate failure.
var ErrInvalidConfig = errors.New("invalid logging config")

// Config controls encoding, outputs and sampling of a Logger.
type Config struct {
	Level  zapcore.Level
	Format string // "json" or "console"

	// Stdout and OTEL select the outputs; at least one must be on.
	Stdout bool
	OTEL   bool

	Sampling SamplingConfig

	// CallerSkip is added on top of the wrapper frames. Negative disables
	// caller annotation.
	CallerSkip      int
	StacktraceLevel zapcore.Level

	// Fields are attached to every entry.
	Fields map[string]string
}

// SamplingConfig caps per-level volume within each Tick. Error and above
// are never sampled.
type SamplingConfig struct {
	Enabled bool
	Tick    time.Duration
	Rates   map[zapcore.Level]Rate
}

// Rate keeps the First entries with the same message per tick, then every
// Thereafter-th one (none when zero).
type Rate struct {
	First      int
	Thereafter int
}

// DefaultRates keeps prediction-path Trace and Debug output bounded while
// leaving Warn nearly untouched.
func DefaultRates() map[zapcore.Level]Rate {
	return map[zapcore.Level]Rate{
		TraceLevel:         {First: 1},
		zapcore.DebugLevel: {First: 10},
		zapcore.InfoLevel:  {First: 100, Thereafter: 10},
		zapcore.WarnLevel:  {First: 100, Thereafter: 100},
	}
}

// DefaultConfig is JSON at info to stdout with sampling on.
func DefaultConfig() *Config {
	return &Config{
		Level:  zapcore.InfoLevel,
		Format: "json",
		Stdout: true,
		Sampling: SamplingConfig{
			Enabled: true,
			Tick:    time.Second,
			Rates:   DefaultRates(),
		},
		StacktraceLevel: zapcore.ErrorLevel,
		Fields:          map[string]string{"service": "sdrd"},
	}
}

// FromSection maps the daemon's logging section onto DefaultConfig.
func FromSection(section config.LoggingConfig) (*Config, error) {
	level, err := LevelFromString(section.Level)
	if err != nil {
		return nil, fmt.Errorf("%w: level %q: %w", ErrInvalidConfig, section.Level, err)
	}
	cfg := DefaultConfig()
	cfg.Level = level
	if section.Format != "" {
		cfg.Format = section.Format
	}
	cfg.Sampling.Enabled = section.Sampling
	cfg.OTEL = section.OTEL
	return cfg, cfg.Validate()
}

func (c *Config) Validate() error {
	switch {
	case c.Format != "json" && c.Format != "console":
		return fmt.Errorf("%w: format %q, want json or console", ErrInvalidConfig, c.Format)
	case !c.Stdout && !c.OTEL:
		return fmt.Errorf("%w: no output enabled", ErrInvalidConfig)
	case c.Sampling.Enabled && c.Sampling.Tick <= 0:
		return fmt.Errorf("%w: sampling tick must be positive", ErrInvalidConfig)
	}
	for lvl, r := range c.Sampling.Rates {
		if r.First < 0 || r.Thereafter < 0 {
			return fmt.Errorf("%w: negative sampling rate for %s", ErrInvalidConfig, lvl)
		}
	}
	for k, v := range c.Fields {
		if k == "" || v == "" {
			return fmt.Errorf("%w: static field %q=%q", ErrInvalidConfig, k, v)
		}
	}
	return nil
}
