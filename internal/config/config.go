// Package config loads sdrd configuration.
//
// Values come from three layers, later layers winning:
//  1. Built-in defaults (defaults.yaml, embedded)
//  2. An optional YAML file
//  3. SDRD_-prefixed environment variables
//
// Environment variables name a section and a field separated by the first
// underscore after the prefix:
//
//	SDRD_SERVER_PORT                      -> server.port
//	SDRD_CLASSIFIER_MAX_RECORDED_ELEMENTS -> classifier.max_recorded_elements
//	SDRD_TELEMETRY_SAMPLE_RATE            -> telemetry.sample_rate
package config

import (
	"errors"
	"fmt"

	"github.com/fyrsmithlabs/sdrclassifier/internal/classifier"
	"github.com/fyrsmithlabs/sdrclassifier/internal/spatial"
)

// ErrInvalid is wrapped by every validation failure.
var ErrInvalid = errors.New("invalid configuration")

// Config is the complete sdrd configuration.
type Config struct {
	Classifier ClassifierConfig `koanf:"classifier"`
	Server     ServerConfig     `koanf:"server"`
	Logging    LoggingConfig    `koanf:"logging"`
	Telemetry  TelemetryConfig  `koanf:"telemetry"`
}

// ClassifierConfig holds the construction parameters of the hosted
// classifier.
type ClassifierConfig struct {
	MaxRecordedElements int    `koanf:"max_recorded_elements"`
	CompactHistory      bool   `koanf:"compact_history"`
	DigitWidth          int    `koanf:"digit_width"`
	Radix               int    `koanf:"radix"`
	MatchPolicy         string `koanf:"match_policy"`
	FramePolicy         string `koanf:"frame_policy"`
	UnknownLabel        string `koanf:"unknown_label"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host            string   `koanf:"host"`
	Port            int      `koanf:"port"`
	BodyLimit       string   `koanf:"body_limit"`
	ReadTimeout     Duration `koanf:"read_timeout"`
	WriteTimeout    Duration `koanf:"write_timeout"`
	ShutdownTimeout Duration `koanf:"shutdown_timeout"`

	// RateLimit is requests per second per client IP. Zero disables limiting.
	RateLimit float64 `koanf:"rate_limit"`
	RateBurst int     `koanf:"rate_burst"`
}

// Addr returns host:port.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// LoggingConfig selects the log level and encoding.
type LoggingConfig struct {
	Level    string `koanf:"level"`
	Format   string `koanf:"format"`
	Sampling bool   `koanf:"sampling"`
	OTEL     bool   `koanf:"otel"`
}

// TelemetryConfig controls OpenTelemetry export.
type TelemetryConfig struct {
	Enabled         bool     `koanf:"enabled"`
	Endpoint        string   `koanf:"endpoint"`
	Protocol        string   `koanf:"protocol"`
	ServiceName     string   `koanf:"service_name"`
	Insecure        bool     `koanf:"insecure"`
	SampleRate      float64  `koanf:"sample_rate"`
	ExportInterval  Duration `koanf:"export_interval"`
	ShutdownTimeout Duration `koanf:"shutdown_timeout"`
}

// ClassifierSettings converts the section into classifier construction
// parameters.
func (c ClassifierConfig) ClassifierSettings() classifier.Config[string] {
	return classifier.Config[string]{
		MaxRecordedElements: c.MaxRecordedElements,
		CompactHistory:      c.CompactHistory,
		DigitWidth:          c.DigitWidth,
		Radix:               c.Radix,
		MatchPolicy:         spatial.MatchPolicy(c.MatchPolicy),
		FramePolicy:         spatial.FramePolicy(c.FramePolicy),
		Unknown:             c.UnknownLabel,
	}
}

// Validate checks every section.
func (c *Config) Validate() error {
	if err := c.Classifier.ClassifierSettings().Validate(); err != nil {
		return fmt.Errorf("%w: classifier: %v", ErrInvalid, err)
	}
	if c.Classifier.UnknownLabel == "" {
		return fmt.Errorf("%w: classifier.unknown_label must not be empty", ErrInvalid)
	}

	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return fmt.Errorf("%w: server.port must be 0-65535, got %d", ErrInvalid, c.Server.Port)
	}
	if c.Server.RateLimit < 0 {
		return fmt.Errorf("%w: server.rate_limit must be >= 0, got %g", ErrInvalid, c.Server.RateLimit)
	}
	if c.Server.RateLimit > 0 && c.Server.RateBurst < 1 {
		return fmt.Errorf("%w: server.rate_burst must be >= 1 when rate limiting", ErrInvalid)
	}
	if c.Server.ShutdownTimeout.Duration() <= 0 {
		return fmt.Errorf("%w: server.shutdown_timeout must be positive", ErrInvalid)
	}

	switch c.Logging.Format {
	case "json", "console":
	default:
		return fmt.Errorf("%w: logging.format must be json or console, got %q", ErrInvalid, c.Logging.Format)
	}

	if c.Telemetry.Enabled {
		switch c.Telemetry.Protocol {
		case "grpc", "http":
		default:
			return fmt.Errorf("%w: telemetry.protocol must be grpc or http, got %q", ErrInvalid, c.Telemetry.Protocol)
		}
		if c.Telemetry.Endpoint == "" {
			return fmt.Errorf("%w: telemetry.endpoint is required when telemetry is enabled", ErrInvalid)
		}
		if c.Telemetry.SampleRate < 0 || c.Telemetry.SampleRate > 1 {
			return fmt.Errorf("%w: telemetry.sample_rate must be between 0 and 1, got %g", ErrInvalid, c.Telemetry.SampleRate)
		}
	}
	return nil
}
