// Package logging wraps zap for sdrd.
//
// Every Logger method takes a context and prefixes the entry with the
// trace, classifier and request IDs found there. Entries go to stdout as
// JSON or console text, and optionally to OpenTelemetry through the otelzap
// bridge. A Trace level below Debug carries per-candidate prediction
// detail; per-level sampling keeps it from flooding output. Error and
// above are never sampled.
//
//	cfg, err := logging.FromSection(appCfg.Logging)
//	if err != nil {
//	    return err
//	}
//	logger, err := logging.NewLogger(cfg, tel.LoggerProvider())
//	if err != nil {
//	    return err
//	}
//	defer logger.Sync()
//
//	ctx = logging.WithRequestID(ctx, "req-42")
//	logger.Info(ctx, "prediction served", zap.Int("results", 3))
//
// Tests use NewTestLogger, which records entries for assertions.
package logging
