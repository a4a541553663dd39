// Package telemetry wires OpenTelemetry tracing and metrics for sdrd.
//
// Spans and metrics are exported over OTLP (gRPC or HTTP) to a collector.
// When telemetry is disabled every accessor falls back to the global
// providers, which are no-ops unless something else installs them.
//
//	tel, err := telemetry.New(ctx, telemetry.FromSection(cfg.Telemetry, version))
//	if err != nil {
//	    return err
//	}
//	defer tel.Shutdown(context.Background())
//
//	c, err := classifier.New(settings,
//	    classifier.WithTracer(tel.Tracer(classifier.InstrumentationName)),
//	    classifier.WithMeter(tel.Meter(classifier.InstrumentationName)),
//	)
//
// Initialization failures degrade the instance instead of failing startup;
// Health reports the first reason.
//
// Tests in other packages can use NewTestTelemetry, which records spans and
// metrics in memory.
package telemetry
