package service

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/sdrclassifier/internal/classifier"
	"github.com/fyrsmithlabs/sdrclassifier/internal/logging"
	"github.com/fyrsmithlabs/sdrclassifier/internal/sdr"
	"github.com/fyrsmithlabs/sdrclassifier/internal/spatial"
)

const instrumentationName = "github.com/fyrsmithlabs/sdrclassifier/internal/service"

// Status is a snapshot of the hosted classifier.
type Status struct {
	InstanceID          string   `json:"instance_id"`
	Labels              []string `json:"labels"`
	LabelCount          int      `json:"label_count"`
	TrainingPool        int      `json:"training_pool"`
	WholePool           int      `json:"whole_pool"`
	Winners             int      `json:"winners"`
	MaxRecordedElements int      `json:"max_recorded_elements"`
	MatchPolicy         string   `json:"match_policy"`
	FramePolicy         string   `json:"frame_policy"`
	UnknownLabel        string   `json:"unknown_label"`
}

// Option configures a Service.
type Option func(*options)

type options struct {
	logger     *logging.Logger
	tracer     trace.Tracer
	meter      metric.Meter
	registerer prometheus.Registerer
	id         string
}

// WithLogger sets the logger. Nil means no logging.
func WithLogger(l *logging.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithTracer sets the tracer for service and classifier spans.
func WithTracer(t trace.Tracer) Option {
	return func(o *options) { o.tracer = t }
}

// WithMeter sets the meter for classifier metrics.
func WithMeter(m metric.Meter) Option {
	return func(o *options) { o.meter = m }
}

// WithRegisterer sets where the state gauges are registered. Defaults to
// prometheus.DefaultRegisterer.
func WithRegisterer(r prometheus.Registerer) Option {
	return func(o *options) { o.registerer = r }
}

// WithInstanceID fixes the instance ID instead of generating one.
func WithInstanceID(id string) Option {
	return func(o *options) { o.id = id }
}

// Service serializes access to one classifier.
type Service struct {
	mu sync.Mutex

	id     string
	c      *classifier.Classifier[string]
	log    *logging.Logger
	tracer trace.Tracer
	gauges *gauges
}

// New builds a Service around a fresh classifier.
func New(cfg classifier.Config[string], opts ...Option) (*Service, error) {
	o := options{registerer: prometheus.DefaultRegisterer}
	for _, opt := range opts {
		opt(&o)
	}

	if o.id == "" {
		o.id = uuid.NewString()
	}
	if err := logging.ValidateID(o.id, "instance id"); err != nil {
		return nil, err
	}
	if o.logger == nil {
		o.logger = logging.NewNop()
	}
	if o.tracer == nil {
		o.tracer = otel.Tracer(instrumentationName)
	}

	log := o.logger.Named("service")

	// Classifier logs do not see the request context fields, so the
	// instance ID rides on the logger instead.
	c, err := classifier.New(cfg,
		classifier.WithLogger(log.With(zap.String("classifier.id", o.id)).Underlying()),
		classifier.WithTracer(o.tracer),
		classifier.WithMeter(o.meter),
	)
	if err != nil {
		return nil, err
	}

	g, err := newGauges(o.registerer, o.id)
	if err != nil {
		return nil, fmt.Errorf("registering gauges: %w", err)
	}

	s := &Service{
		id:     o.id,
		c:      c,
		log:    log,
		tracer: o.tracer,
		gauges: g,
	}
	g.set(s.status())
	return s, nil
}

// ID returns the instance ID.
func (s *Service) ID() string { return s.id }

// Learn records an SDR under label and returns how many SDRs the label
// now holds, read under the same lock as the write.
func (s *Service) Learn(ctx context.Context, label string, v sdr.SDR) (int, error) {
	ctx, span := s.start(ctx, "service.Learn")
	defer span.End()

	if label == "" {
		return 0, s.fail(ctx, span, "learn rejected", classify(ErrEmptyLabel))
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.c.Learn(ctx, label, v); err != nil {
		return 0, s.fail(ctx, span, "learn failed", classify(err))
	}
	hist, err := s.c.History(label)
	if err != nil {
		return 0, s.fail(ctx, span, "learn failed", err)
	}
	s.gauges.set(s.status())
	return len(hist), nil
}

// Predict ranks the labels that best match v.
func (s *Service) Predict(ctx context.Context, v sdr.SDR, howMany int) ([]classifier.Result[string], error) {
	ctx, span := s.start(ctx, "service.Predict")
	defer span.End()

	s.mu.Lock()
	defer s.mu.Unlock()

	results, err := s.c.GetPredictedInputValues(ctx, v, howMany)
	if err != nil {
		return nil, s.fail(ctx, span, "predict failed", classify(err))
	}
	return results, nil
}

// LearnObj adds samples to the spatial training pool. Samples without a
// source get a fresh UUID.
func (s *Service) LearnObj(ctx context.Context, samples []spatial.Sample[string]) error {
	ctx, span := s.start(ctx, "service.LearnObj")
	defer span.End()

	samples, err := prepare(samples)
	if err != nil {
		return s.fail(ctx, span, "object learn rejected", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.c.LearnObj(ctx, samples); err != nil {
		return s.fail(ctx, span, "object learn failed", classify(err))
	}
	s.gauges.set(s.status())
	return nil
}

// LearnWholeObj adds whole-object samples to the validation pool.
func (s *Service) LearnWholeObj(ctx context.Context, samples []spatial.Sample[string]) error {
	ctx, span := s.start(ctx, "service.LearnWholeObj")
	defer span.End()

	samples, err := prepare(samples)
	if err != nil {
		return s.fail(ctx, span, "whole object learn rejected", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.c.LearnWholeObj(ctx, samples); err != nil {
		return s.fail(ctx, span, "whole object learn failed", classify(err))
	}
	s.gauges.set(s.status())
	return nil
}

// PredictObj runs one voting round and returns every winner so far.
func (s *Service) PredictObj(ctx context.Context, samples []spatial.Sample[string], howManyFeatures int) ([]spatial.Sample[string], error) {
	ctx, span := s.start(ctx, "service.PredictObj")
	defer span.End()

	for i, sample := range samples {
		if err := sdr.Validate(sample.SDR); err != nil {
			return nil, s.fail(ctx, span, "object predict rejected", classify(fmt.Errorf("sample %d: %w", i, err)))
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	winners := s.c.PredictObj(ctx, samples, howManyFeatures)
	s.gauges.set(s.status())
	return winners, nil
}

// ValidateObj returns the labels of the whole-object samples that overlap
// v the most.
func (s *Service) ValidateObj(ctx context.Context, v sdr.SDR, howMany int) ([]string, error) {
	ctx, span := s.start(ctx, "service.ValidateObj")
	defer span.End()

	if err := sdr.Validate(v); err != nil {
		return nil, s.fail(ctx, span, "object validate rejected", classify(err))
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.c.ValidateObj(ctx, v, howMany), nil
}

// Trace renders the classifier's history, also writing it to w when w is
// not nil.
func (s *Service) Trace(ctx context.Context, w io.Writer) (string, error) {
	ctx, span := s.start(ctx, "service.Trace")
	defer span.End()

	s.mu.Lock()
	defer s.mu.Unlock()

	out, err := s.c.TraceState(w)
	if err != nil {
		return out, s.fail(ctx, span, "trace failed", err)
	}
	return out, nil
}

// Reset clears every pool and all history.
func (s *Service) Reset(ctx context.Context) {
	ctx, span := s.start(ctx, "service.Reset")
	defer span.End()

	s.mu.Lock()
	defer s.mu.Unlock()

	s.c.ClearState(ctx)
	s.gauges.set(s.status())
	s.log.Info(ctx, "classifier reset")
}

// History returns the SDRs recorded under label, oldest first.
func (s *Service) History(label string) ([]sdr.SDR, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.c.History(label)
}

// Status returns a snapshot of the classifier.
func (s *Service) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status()
}

func (s *Service) status() Status {
	cfg := s.c.Config()
	labels := s.c.Labels()
	return Status{
		InstanceID:          s.id,
		Labels:              labels,
		LabelCount:          len(labels),
		TrainingPool:        s.c.PoolSize(),
		WholePool:           s.c.WholePoolSize(),
		Winners:             len(s.c.Winners()),
		MaxRecordedElements: cfg.MaxRecordedElements,
		MatchPolicy:         string(cfg.MatchPolicy),
		FramePolicy:         string(cfg.FramePolicy),
		UnknownLabel:        cfg.Unknown,
	}
}

func (s *Service) start(ctx context.Context, name string) (context.Context, trace.Span) {
	if logging.ClassifierIDFromContext(ctx) == "" {
		ctx = logging.WithClassifierID(ctx, s.id)
	}
	return s.tracer.Start(ctx, name, trace.WithAttributes(attribute.String("classifier.id", s.id)))
}

func (s *Service) fail(ctx context.Context, span trace.Span, msg string, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	s.log.Warn(ctx, msg, zap.Error(err))
	return err
}

// prepare copies samples, rejecting empty labels and filling in missing
// sources.
func prepare(samples []spatial.Sample[string]) ([]spatial.Sample[string], error) {
	out := make([]spatial.Sample[string], len(samples))
	for i, sample := range samples {
		if sample.Label == "" {
			return nil, classify(fmt.Errorf("sample %d: %w", i, ErrEmptyLabel))
		}
		if sample.Source == "" {
			sample.Source = uuid.NewString()
		}
		out[i] = sample
	}
	return out, nil
}
