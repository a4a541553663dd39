package telemetry

import (
	"fmt"
	"strings"
	"time"

	"github.com/fyrsmithlabs/sdrclassifier/internal/config"
)

// Config describes the OTLP export of traces and metrics.
type Config struct {
	Enabled        bool
	Endpoint       string
	Protocol       string // "grpc" or "http"
	ServiceName    string
	ServiceVersion string

	// Insecure sends plaintext and is only accepted for loopback endpoints.
	// TLSSkipVerify keeps TLS but skips certificate checks.
	Insecure      bool
	TLSSkipVerify bool

	SampleRate      float64 // 0 to 1
	MetricsEnabled  bool
	ExportInterval  time.Duration
	ShutdownTimeout time.Duration
}

// NewDefaultConfig exports nothing until Enabled is set; the rest points at
// a collector on localhost.
func NewDefaultConfig() *Config {
	return &Config{
		Endpoint:        "localhost:4317",
		Protocol:        "grpc",
		ServiceName:     "sdrd",
		ServiceVersion:  "dev",
		Insecure:        true,
		SampleRate:      1,
		MetricsEnabled:  true,
		ExportInterval:  15 * time.Second,
		ShutdownTimeout: 5 * time.Second,
	}
}

// FromSection maps the daemon's telemetry section onto NewDefaultConfig.
// Zero durations keep the defaults.
func FromSection(section config.TelemetryConfig, version string) *Config {
	cfg := NewDefaultConfig()
	cfg.Enabled = section.Enabled
	cfg.Endpoint = section.Endpoint
	cfg.Protocol = section.Protocol
	cfg.ServiceName = section.ServiceName
	cfg.Insecure = section.Insecure
	cfg.SampleRate = section.SampleRate
	if d := section.ExportInterval.Duration(); d > 0 {
		cfg.ExportInterval = d
	}
	if d := section.ShutdownTimeout.Duration(); d > 0 {
		cfg.ShutdownTimeout = d
	}
	if version != "" {
		cfg.ServiceVersion = version
	}
	return cfg
}

// Validate only checks an enabled config.
func (c *Config) Validate() error {
	if !c.Enabled {
		return nil
	}

	if c.Endpoint == "" {
		return fmt.Errorf("endpoint is required when telemetry is enabled")
	}
	if c.ServiceName == "" {
		return fmt.Errorf("service_name is required when telemetry is enabled")
	}
	if c.ServiceVersion == "" {
		return fmt.Errorf("service_version is required when telemetry is enabled")
	}
	switch c.Protocol {
	case "", "grpc", "http":
	default:
		return fmt.Errorf("protocol must be grpc or http, got %q", c.Protocol)
	}

	if c.Insecure && !c.isLocalEndpoint() {
		return fmt.Errorf("insecure connections to remote endpoints are not allowed; set insecure=false for TLS or use a local endpoint (localhost/127.0.0.1)")
	}

	if c.SampleRate < 0 || c.SampleRate > 1 {
		return fmt.Errorf("sample rate must be between 0 and 1, got %g", c.SampleRate)
	}
	if c.MetricsEnabled && c.ExportInterval <= 0 {
		return fmt.Errorf("export interval must be positive when metrics are enabled")
	}
	if c.ShutdownTimeout <= 0 {
		return fmt.Errorf("shutdown timeout must be positive")
	}
	return nil
}

// isLocalEndpoint checks if the endpoint is a loopback address.
func (c *Config) isLocalEndpoint() bool {
	host := stripScheme(c.Endpoint)

	if strings.HasPrefix(host, "[") {
		if idx := strings.Index(host, "]"); idx != -1 {
			host = host[1:idx]
		}
	} else if strings.Count(host, ":") == 1 {
		host = host[:strings.LastIndex(host, ":")]
	}

	return host == "localhost" ||
		host == "::1" ||
		strings.HasPrefix(host, "127.")
}
