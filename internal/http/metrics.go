package http

import (
	"errors"
	"time"

	"github.com/labstack/echo/v4"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	"go.uber.org/zap"
)

const httpInstrumentationName = "github.com/fyrsmithlabs/sdrclassifier/internal/http"

// HTTPMetrics records request counts, latency, response size, in-flight
// requests and rate-limit rejections as OpenTelemetry instruments.
type HTTPMetrics struct {
	requests    metric.Int64Counter
	duration    metric.Float64Histogram
	size        metric.Int64Histogram
	inFlight    metric.Int64UpDownCounter
	rateLimited metric.Int64Counter
}

// NewHTTPMetrics registers the instruments on meter (the global meter when
// nil). If any instrument cannot be created the whole set falls back to
// no-ops and the failure is logged once.
func NewHTTPMetrics(meter metric.Meter, logger *zap.Logger) *HTTPMetrics {
	if meter == nil {
		meter = otel.Meter(httpInstrumentationName)
	}
	m, err := newHTTPMetrics(meter)
	if err != nil {
		if logger != nil {
			logger.Warn("http metrics disabled", zap.Error(err))
		}
		m, _ = newHTTPMetrics(noop.NewMeterProvider().Meter(httpInstrumentationName))
	}
	return m
}

func newHTTPMetrics(meter metric.Meter) (*HTTPMetrics, error) {
	var m HTTPMetrics
	var errs [5]error

	m.requests, errs[0] = meter.Int64Counter("sdrd.http.requests_total",
		metric.WithDescription("HTTP requests by method, endpoint and status"),
		metric.WithUnit("{request}"))
	m.duration, errs[1] = meter.Float64Histogram("sdrd.http.request_duration_seconds",
		metric.WithDescription("HTTP request latency by method, endpoint and status"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.0005, 0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5))
	m.size, errs[2] = meter.Int64Histogram("sdrd.http.response_size_bytes",
		metric.WithDescription("HTTP response body size"),
		metric.WithUnit("By"),
		metric.WithExplicitBucketBoundaries(100, 500, 1000, 5000, 10000, 50000, 100000, 500000))
	m.inFlight, errs[3] = meter.Int64UpDownCounter("sdrd.http.active_requests",
		metric.WithDescription("HTTP requests being served"),
		metric.WithUnit("{request}"))
	m.rateLimited, errs[4] = meter.Int64Counter("sdrd.http.rate_limited_total",
		metric.WithDescription("Requests rejected by the per-client rate limiter"),
		metric.WithUnit("{request}"))

	return &m, errors.Join(errs[:]...)
}

// MetricsMiddleware records every request. Handler errors are rendered
// here so the recorded status is the one the client sees.
func (m *HTTPMetrics) MetricsMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ctx := c.Request().Context()
			start := time.Now()
			m.inFlight.Add(ctx, 1)
			defer m.inFlight.Add(ctx, -1)

			if err := next(c); err != nil {
				c.Error(err)
			}

			res := c.Response()
			attrs := metric.WithAttributes(
				attribute.String("method", c.Request().Method),
				attribute.String("endpoint", normalizePath(c.Path())),
				attribute.Int("status", res.Status),
			)
			m.requests.Add(ctx, 1, attrs)
			m.duration.Record(ctx, time.Since(start).Seconds(), attrs)
			m.size.Record(ctx, res.Size, attrs)
			return nil
		}
	}
}

// RecordRateLimited counts one rejected request.
func (m *HTTPMetrics) RecordRateLimited(c echo.Context) {
	if m == nil {
		return
	}
	m.rateLimited.Add(c.Request().Context(), 1,
		metric.WithAttributes(attribute.String("endpoint", normalizePath(c.Path()))))
}

// normalizePath maps unmatched routes to "/". Matched routes already come
// back as their pattern, e.g. /api/v1/labels/:label/history.
func normalizePath(path string) string {
	if path == "" {
		return "/"
	}
	return path
}
