// Package http serves the classifier over a JSON API.
package http

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/sdrclassifier/internal/config"
	"github.com/fyrsmithlabs/sdrclassifier/internal/history"
	"github.com/fyrsmithlabs/sdrclassifier/internal/logging"
	"github.com/fyrsmithlabs/sdrclassifier/internal/service"
)

// Server provides HTTP endpoints for one classifier service.
type Server struct {
	echo    *echo.Echo
	svc     *service.Service
	logger  *logging.Logger
	config  *Config
	metrics *HTTPMetrics
	version string
}

// Config holds HTTP server configuration.
type Config struct {
	Host         string
	Port         int
	BodyLimit    string // echo size notation, e.g. "4M"
	ReadTimeout  time.Duration
	WriteTimeout time.Duration

	// RateLimit is requests per second per client IP. Zero disables it.
	RateLimit float64
	RateBurst int
}

// FromSection converts the server section of the daemon configuration.
func FromSection(s config.ServerConfig) *Config {
	return &Config{
		Host:         s.Host,
		Port:         s.Port,
		BodyLimit:    s.BodyLimit,
		ReadTimeout:  s.ReadTimeout.Duration(),
		WriteTimeout: s.WriteTimeout.Duration(),
		RateLimit:    s.RateLimit,
		RateBurst:    s.RateBurst,
	}
}

// Option configures a Server.
type Option func(*serverOptions)

type serverOptions struct {
	meter    metric.Meter
	gatherer prometheus.Gatherer
	version  string
}

// WithMeter sets the meter for request metrics.
func WithMeter(m metric.Meter) Option {
	return func(o *serverOptions) { o.meter = m }
}

// WithGatherer sets the registry served on /metrics. Defaults to
// prometheus.DefaultGatherer.
func WithGatherer(g prometheus.Gatherer) Option {
	return func(o *serverOptions) { o.gatherer = g }
}

// WithVersion sets the version reported by /api/v1/status.
func WithVersion(v string) Option {
	return func(o *serverOptions) { o.version = v }
}

// NewServer creates a new HTTP server.
func NewServer(svc *service.Service, logger *logging.Logger, cfg *Config, opts ...Option) (*Server, error) {
	if svc == nil {
		return nil, fmt.Errorf("service cannot be nil")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required for request tracking and debugging")
	}
	if cfg == nil {
		cfg = &Config{
			Host:      "127.0.0.1",
			Port:      8095,
			BodyLimit: "4M",
		}
	}

	o := serverOptions{gatherer: prometheus.DefaultGatherer}
	for _, opt := range opts {
		opt(&o)
	}

	logger = logger.Named("http")

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Server.ReadTimeout = cfg.ReadTimeout
	e.Server.WriteTimeout = cfg.WriteTimeout

	s := &Server{
		echo:    e,
		svc:     svc,
		logger:  logger,
		config:  cfg,
		metrics: NewHTTPMetrics(o.meter, logger.Underlying()),
		version: o.version,
	}

	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())
	e.Use(requestContext)
	e.Use(s.logRequests)
	e.Use(s.metrics.MetricsMiddleware())
	if cfg.RateLimit > 0 {
		e.Use(newIPLimiter(cfg.RateLimit, cfg.RateBurst).middleware(s.metrics))
	}
	if cfg.BodyLimit != "" {
		e.Use(middleware.BodyLimit(cfg.BodyLimit))
	}

	s.registerRoutes(o.gatherer)
	return s, nil
}

// Echo exposes the underlying router.
func (s *Server) Echo() *echo.Echo { return s.echo }

func (s *Server) registerRoutes(gatherer prometheus.Gatherer) {
	s.echo.GET("/health", s.handleHealth)
	s.echo.GET("/metrics", echo.WrapHandler(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))

	v1 := s.echo.Group("/api/v1")
	v1.GET("/status", s.handleStatus)
	v1.POST("/learn", s.handleLearn)
	v1.POST("/predict", s.handlePredict)
	v1.GET("/labels/:label/history", s.handleHistory)
	v1.POST("/objects/learn", s.handleObjectsLearn)
	v1.POST("/objects/predict", s.handleObjectsPredict)
	v1.POST("/objects/validate", s.handleObjectsValidate)
	v1.GET("/trace", s.handleTrace)
	v1.POST("/reset", s.handleReset)
}

// requestContext moves the echo request ID into the request context so
// downstream logs carry it.
func requestContext(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		rid := c.Response().Header().Get(echo.HeaderXRequestID)
		if logging.ValidateID(rid, "request id") == nil {
			req := c.Request()
			c.SetRequest(req.WithContext(logging.WithRequestID(req.Context(), rid)))
		}
		return next(c)
	}
}

func (s *Server) logRequests(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		start := time.Now()
		err := next(c)

		s.logger.Info(c.Request().Context(), "http request",
			zap.String("method", c.Request().Method),
			zap.String("uri", c.Request().RequestURI),
			zap.Int("status", c.Response().Status),
			zap.Duration("duration", time.Since(start)),
		)
		return err
	}
}

func (s *Server) handleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, HealthResponse{Status: "ok"})
}

func (s *Server) handleStatus(c echo.Context) error {
	return c.JSON(http.StatusOK, StatusResponse{
		Status:     "ok",
		Version:    s.version,
		Classifier: s.svc.Status(),
	})
}

func (s *Server) handleLearn(c echo.Context) error {
	var req LearnRequest
	if err := c.Bind(&req); err != nil {
		return s.badRequest(c, "invalid learn request", err)
	}
	if req.Label == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "label field is required")
	}

	ctx := c.Request().Context()
	stored, err := s.svc.Learn(ctx, req.Label, req.SDR)
	if err != nil {
		return s.serviceError(err)
	}
	return c.JSON(http.StatusOK, LearnResponse{Label: req.Label, Stored: stored})
}

func (s *Server) handlePredict(c echo.Context) error {
	var req PredictRequest
	if err := c.Bind(&req); err != nil {
		return s.badRequest(c, "invalid predict request", err)
	}

	results, err := s.svc.Predict(c.Request().Context(), req.SDR, howMany(req.HowMany))
	if err != nil {
		return s.serviceError(err)
	}
	return c.JSON(http.StatusOK, PredictResponse{Results: results})
}

func (s *Server) handleHistory(c echo.Context) error {
	label := c.Param("label")
	hist, err := s.svc.History(label)
	if err != nil {
		return s.serviceError(err)
	}
	return c.JSON(http.StatusOK, HistoryResponse{Label: label, History: hist})
}

func (s *Server) handleObjectsLearn(c echo.Context) error {
	var req ObjectsLearnRequest
	if err := c.Bind(&req); err != nil {
		return s.badRequest(c, "invalid objects learn request", err)
	}
	if len(req.Samples) == 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "samples field is required")
	}

	ctx := c.Request().Context()
	learn := s.svc.LearnObj
	if req.Whole {
		learn = s.svc.LearnWholeObj
	}
	if err := learn(ctx, req.Samples); err != nil {
		return s.serviceError(err)
	}

	st := s.svc.Status()
	return c.JSON(http.StatusOK, ObjectsLearnResponse{
		Learned:      len(req.Samples),
		TrainingPool: st.TrainingPool,
		WholePool:    st.WholePool,
	})
}

func (s *Server) handleObjectsPredict(c echo.Context) error {
	var req ObjectsPredictRequest
	if err := c.Bind(&req); err != nil {
		return s.badRequest(c, "invalid objects predict request", err)
	}

	winners, err := s.svc.PredictObj(c.Request().Context(), req.Samples, req.HowManyFeatures)
	if err != nil {
		return s.serviceError(err)
	}
	return c.JSON(http.StatusOK, ObjectsPredictResponse{
		Winner:  winners[len(winners)-1],
		Winners: winners,
	})
}

func (s *Server) handleObjectsValidate(c echo.Context) error {
	var req ValidateRequest
	if err := c.Bind(&req); err != nil {
		return s.badRequest(c, "invalid objects validate request", err)
	}

	labels, err := s.svc.ValidateObj(c.Request().Context(), req.SDR, howMany(req.HowMany))
	if err != nil {
		return s.serviceError(err)
	}
	return c.JSON(http.StatusOK, ValidateResponse{Labels: labels})
}

func (s *Server) handleTrace(c echo.Context) error {
	out, err := s.svc.Trace(c.Request().Context(), nil)
	if err != nil {
		return s.serviceError(err)
	}
	return c.String(http.StatusOK, out)
}

func (s *Server) handleReset(c echo.Context) error {
	s.svc.Reset(c.Request().Context())
	return c.JSON(http.StatusOK, ResetResponse{Status: "reset"})
}

func (s *Server) badRequest(c echo.Context, msg string, err error) error {
	s.logger.Warn(c.Request().Context(), msg, zap.Error(err))
	return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
}

// serviceError maps service errors onto HTTP statuses.
func (s *Server) serviceError(err error) error {
	switch {
	case errors.Is(err, service.ErrInvalidInput):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	case errors.Is(err, history.ErrUnknownLabel):
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error").SetInternal(err)
	}
}

func howMany(n *int) int {
	if n == nil {
		return 1
	}
	return *n
}

// Start starts the HTTP server. It returns http.ErrServerClosed after
// Shutdown.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
	s.logger.Info(context.Background(), "starting http server", zap.String("addr", addr))
	return s.echo.Start(addr)
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info(ctx, "shutting down http server")
	return s.echo.Shutdown(ctx)
}
