// Sdrd serves one SDR classifier over HTTP.
//
// Configuration comes from built-in defaults, an optional YAML file and
// SDRD_-prefixed environment variables. See internal/config for details.
//
// Usage:
//
//	# Start with defaults
//	sdrd
//
//	# Start with a config file and an override
//	SDRD_SERVER_PORT=9000 sdrd -config sdrd.yaml
//
//	# Print version information
//	sdrd version
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	nethttp "net/http"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/fyrsmithlabs/sdrclassifier/internal/config"
	"github.com/fyrsmithlabs/sdrclassifier/internal/http"
	"github.com/fyrsmithlabs/sdrclassifier/internal/logging"
	"github.com/fyrsmithlabs/sdrclassifier/internal/service"
	"github.com/fyrsmithlabs/sdrclassifier/internal/telemetry"
)

// Version information (set via ldflags during build)
var (
	version   = "dev"
	gitCommit = "unknown"
	buildDate = "unknown"
)

func main() {
	configPath := flag.String("config", "", "path to a YAML config file")
	flag.Parse()
	args := flag.Args()

	if len(args) > 0 {
		switch args[0] {
		case "version":
			printVersion()
			os.Exit(0)
		default:
			fmt.Fprintf(os.Stderr, "Unknown command: %s\n", args[0])
			fmt.Fprintf(os.Stderr, "\nUsage:\n")
			fmt.Fprintf(os.Stderr, "  sdrd [-config file]   Start the classifier daemon\n")
			fmt.Fprintf(os.Stderr, "  sdrd version          Show version information\n")
			os.Exit(1)
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, *configPath); err != nil {
		log.Fatalf("Server error: %v", err)
	}
}

func printVersion() {
	fmt.Printf("sdrd by Fyrsmith Labs\n")
	fmt.Printf("Version:    %s\n", version)
	fmt.Printf("Commit:     %s\n", gitCommit)
	fmt.Printf("Build Date: %s\n", buildDate)
}

// run wires the daemon and blocks until ctx is cancelled, then shuts the
// HTTP server and telemetry down.
func run(ctx context.Context, configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}

	tel, err := telemetry.New(ctx, telemetry.FromSection(cfg.Telemetry, version))
	if err != nil {
		return fmt.Errorf("initializing telemetry: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Telemetry.ShutdownTimeout.Duration())
		defer cancel()
		_ = tel.Shutdown(shutdownCtx)
	}()

	logCfg, err := logging.FromSection(cfg.Logging)
	if err != nil {
		return fmt.Errorf("invalid logging configuration: %w", err)
	}
	logger, err := logging.NewLogger(logCfg, tel.LoggerProvider())
	if err != nil {
		return fmt.Errorf("initializing logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	if h := tel.Health(); h.Degraded {
		logger.Warn(ctx, "telemetry degraded", zap.String("reason", h.Reason))
	}

	svc, err := service.New(cfg.Classifier.ClassifierSettings(),
		service.WithLogger(logger),
		service.WithTracer(tel.Tracer("github.com/fyrsmithlabs/sdrclassifier/internal/service")),
		service.WithMeter(tel.Meter("github.com/fyrsmithlabs/sdrclassifier/internal/classifier")),
	)
	if err != nil {
		return fmt.Errorf("creating classifier service: %w", err)
	}

	srv, err := http.NewServer(svc, logger, http.FromSection(cfg.Server),
		http.WithMeter(tel.Meter("github.com/fyrsmithlabs/sdrclassifier/internal/http")),
		http.WithVersion(version),
	)
	if err != nil {
		return fmt.Errorf("creating http server: %w", err)
	}

	logger.Info(ctx, "starting sdrd",
		zap.String("version", version),
		zap.String("addr", cfg.Server.Addr()),
		zap.String("classifier.id", svc.ID()),
		zap.Int("max_recorded_elements", cfg.Classifier.MaxRecordedElements),
		zap.String("match_policy", cfg.Classifier.MatchPolicy),
		zap.Bool("telemetry", tel.IsEnabled()),
	)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, nethttp.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout.Duration())
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutting down http server: %w", err)
	}
	logger.Info(context.Background(), "server shutdown complete")
	return nil
}
