package telemetry

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/log"
	"go.opentelemetry.io/otel/log/global"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/propagation"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/trace"
	oteltrace "go.opentelemetry.io/otel/trace"
)

// provider is what Shutdown and ForceFlush need from the SDK providers.
type provider interface {
	ForceFlush(context.Context) error
	Shutdown(context.Context) error
}

// Telemetry owns the tracer and meter providers of sdrd. A provider that
// fails to start leaves the instance degraded; callers then get the global
// no-op providers and keep running.
type Telemetry struct {
	config *Config

	tracerProvider *trace.TracerProvider
	meterProvider  *sdkmetric.MeterProvider
	logProvider    log.LoggerProvider

	mu     sync.Mutex
	health HealthStatus
}

// HealthStatus reports the state of the providers.
type HealthStatus struct {
	Healthy  bool   `json:"healthy"`
	Degraded bool   `json:"degraded"`
	Reason   string `json:"reason,omitempty"`
}

// New builds the providers described by cfg and installs them as the
// otel globals. A disabled cfg yields an instance that only hands out the
// globals.
func New(ctx context.Context, cfg *Config, opts ...Option) (*Telemetry, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid telemetry config: %w", err)
	}

	var o options
	for _, opt := range opts {
		opt(&o)
	}

	t := &Telemetry{
		config:      cfg,
		logProvider: o.logProvider,
		health:      HealthStatus{Healthy: true},
	}
	if !cfg.Enabled {
		return t, nil
	}

	res, err := newResource(cfg)
	if err != nil {
		t.setDegraded("resource: %v", err)
		return t, nil
	}

	if tp, err := newTracerProvider(ctx, cfg, res, o.traceExporter); err != nil {
		t.setDegraded("tracer provider: %v", err)
	} else {
		t.tracerProvider = tp
		otel.SetTracerProvider(tp)
	}

	if mp, err := newMeterProvider(ctx, cfg, res, o.metricExporter); err != nil {
		t.setDegraded("meter provider: %v", err)
	} else if mp != nil {
		t.meterProvider = mp
		otel.SetMeterProvider(mp)
	}

	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))
	return t, nil
}

func (t *Telemetry) Tracer(name string, opts ...oteltrace.TracerOption) oteltrace.Tracer {
	if t == nil || t.tracerProvider == nil {
		return otel.Tracer(name, opts...)
	}
	return t.tracerProvider.Tracer(name, opts...)
}

func (t *Telemetry) Meter(name string, opts ...metric.MeterOption) metric.Meter {
	if t == nil || t.meterProvider == nil {
		return otel.Meter(name, opts...)
	}
	return t.meterProvider.Meter(name, opts...)
}

// LoggerProvider feeds the zap bridge. Without WithLoggerProvider it is the
// global provider, a no-op until something installs an exporter there.
func (t *Telemetry) LoggerProvider() log.LoggerProvider {
	if t == nil || t.logProvider == nil {
		return global.GetLoggerProvider()
	}
	return t.logProvider
}

func (t *Telemetry) providers() []provider {
	var ps []provider
	if t.tracerProvider != nil {
		ps = append(ps, t.tracerProvider)
	}
	if t.meterProvider != nil {
		ps = append(ps, t.meterProvider)
	}
	return ps
}

// ForceFlush exports everything pending.
func (t *Telemetry) ForceFlush(ctx context.Context) error {
	if t == nil {
		return nil
	}
	var errs []error
	for _, p := range t.providers() {
		if err := p.ForceFlush(ctx); err != nil {
			errs = append(errs, fmt.Errorf("flush %T: %w", p, err))
		}
	}
	return errors.Join(errs...)
}

// Shutdown flushes and stops the providers. Without a deadline on ctx the
// configured shutdown timeout applies.
func (t *Telemetry) Shutdown(ctx context.Context) error {
	if t == nil {
		return nil
	}
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, t.config.ShutdownTimeout)
		defer cancel()
	}

	var errs []error
	for _, p := range t.providers() {
		if err := p.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("shutdown %T: %w", p, err))
		}
	}

	t.mu.Lock()
	t.health.Healthy = false
	t.mu.Unlock()
	return errors.Join(errs...)
}

func (t *Telemetry) Health() HealthStatus {
	if t == nil {
		return HealthStatus{Degraded: true}
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.health
}

// IsEnabled is true while an enabled instance has not been shut down.
func (t *Telemetry) IsEnabled() bool {
	if t == nil {
		return false
	}
	return t.config.Enabled && t.Health().Healthy
}

// setDegraded keeps the first reason it is given.
func (t *Telemetry) setDegraded(format string, args ...any) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.health.Degraded = true
	if t.health.Reason == "" {
		t.health.Reason = fmt.Sprintf(format, args...)
	}
}
