package classifier

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/sdrclassifier/internal/history"
	"github.com/fyrsmithlabs/sdrclassifier/internal/sdr"
	"github.com/fyrsmithlabs/sdrclassifier/internal/spatial"
)

// ExactSimilarity is the similarity reported for an exact match.
const ExactSimilarity = 100.0

// Result is one ranked prediction.
type Result[L comparable] struct {
	Label L `json:"label"`

	// NumOfSameBits is the overlap between the query and the label's best
	// stored SDR. For an exact match it is the query's distinct size.
	NumOfSameBits int `json:"num_of_same_bits"`

	// Similarity is a percentage rounded to two decimals.
	Similarity float64 `json:"similarity"`
}

// Option configures a Classifier.
type Option func(*options)

type options struct {
	logger *zap.Logger
	meter  metric.Meter
	tracer trace.Tracer
}

// WithLogger sets the zap logger. Nil means no logging.
func WithLogger(l *zap.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithMeter sets the meter used for classifier metrics. Nil means the
// global meter provider.
func WithMeter(m metric.Meter) Option {
	return func(o *options) { o.meter = m }
}

// WithTracer sets the tracer. Nil means the global tracer provider.
func WithTracer(t trace.Tracer) Option {
	return func(o *options) { o.tracer = t }
}

// Classifier is the label memory and matching engine.
type Classifier[L comparable] struct {
	cfg     Config[L]
	history *history.Bounded[L]
	voter   *spatial.Voter[L]
	whole   []spatial.Sample[L]

	log     *Logger
	metrics *Metrics
	tracer  trace.Tracer
}

// New creates an empty classifier.
func New[L comparable](cfg Config[L], opts ...Option) (*Classifier[L], error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	var o options
	for _, opt := range opts {
		opt(&o)
	}

	h, err := history.New[L](cfg.historyOptions()...)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}

	metrics, err := NewMetrics(o.meter)
	if err != nil {
		return nil, fmt.Errorf("creating classifier metrics: %w", err)
	}

	tracer := o.tracer
	if tracer == nil {
		tracer = Tracer()
	}

	return &Classifier[L]{
		cfg:     cfg,
		history: h,
		voter:   spatial.NewVoter(cfg.Unknown, cfg.voterOptions()...),
		log:     NewLogger(o.logger),
		metrics: metrics,
		tracer:  tracer,
	}, nil
}

// Config returns the configuration the classifier was built with.
func (c *Classifier[L]) Config() Config[L] { return c.cfg }

// Learn associates s with label. An SDR set-equal to one already stored
// under label is ignored. When the label's history grows past
// MaxRecordedElements its oldest SDR is evicted.
func (c *Classifier[L]) Learn(ctx context.Context, label L, s sdr.SDR) error {
	ctx, span := c.tracer.Start(ctx, "classifier.Learn",
		trace.WithAttributes(attribute.Int("sdr.size", len(s))))
	defer span.End()

	if err := sdr.Validate(s); err != nil {
		err = fmt.Errorf("learning %v: %w", label, err)
		recordError(span, err)
		return err
	}

	prev, prevErr := c.history.Last(label)

	out, err := c.history.Add(label, s)
	if err != nil {
		err = fmt.Errorf("learning %v: %w", label, err)
		recordError(span, err)
		c.log.Error(ctx, "learn failed", err, zap.String("label", fmt.Sprint(label)))
		return err
	}

	span.SetAttributes(
		attribute.Bool("classifier.inserted", out.Inserted),
		attribute.Bool("classifier.evicted", out.Evicted),
	)
	c.log.Learned(ctx, label, len(s), out, c.history.Len(label))
	if prevErr == nil && !sdr.Equal(prev, s) {
		c.log.Drift(ctx, label, len(prev), len(s), sdr.Overlap(prev, s))
	}
	c.metrics.RecordLearn(ctx, out)
	return nil
}

// GetPredictedInputValues ranks known labels against query.
//
// Every label holding an SDR set-equal to query is returned first, in the
// order labels were first learned, with similarity 100, regardless of
// howMany. The remaining labels are scored by their best-overlapping SDR and
// fill the list up to howMany, highest similarity first, ties in first-learned
// order. An empty query yields an empty result.
func (c *Classifier[L]) GetPredictedInputValues(ctx context.Context, query sdr.SDR, howMany int) ([]Result[L], error) {
	ctx, span := c.tracer.Start(ctx, "classifier.GetPredictedInputValues",
		trace.WithAttributes(
			attribute.Int("sdr.size", len(query)),
			attribute.Int("classifier.how_many", howMany),
		))
	defer span.End()

	results := []Result[L]{}
	if len(query) == 0 {
		return results, nil
	}
	if err := sdr.Validate(query); err != nil {
		err = fmt.Errorf("predicting: %w", err)
		recordError(span, err)
		return nil, err
	}

	start := time.Now()
	labels := c.history.Labels()
	querySize := sdr.Size(query)

	var candidates []Result[L]
	for i, label := range labels {
		entries, err := c.history.Entries(label)
		if err != nil {
			err = fmt.Errorf("predicting: reading history of %v: %w", label, err)
			recordError(span, err)
			return nil, err
		}

		if containsEqual(entries, query) {
			results = append(results, Result[L]{
				Label:         label,
				NumOfSameBits: querySize,
				Similarity:    ExactSimilarity,
			})
			c.log.Candidate(ctx, i, label, querySize, ExactSimilarity, true)
			continue
		}

		best, overlap := bestMatch(entries, query)
		similarity := sdr.RoundPercent(sdr.Similarity(best, query))
		candidates = append(candidates, Result[L]{
			Label:         label,
			NumOfSameBits: overlap,
			Similarity:    similarity,
		})
		c.log.Candidate(ctx, i, label, overlap, similarity, false)
	}

	exact := len(results)
	slices.SortStableFunc(candidates, func(a, b Result[L]) int {
		return cmp.Compare(b.Similarity, a.Similarity)
	})
	if remaining := howMany - exact; remaining > 0 {
		results = append(results, candidates[:min(remaining, len(candidates))]...)
	}

	elapsed := time.Since(start)
	span.SetAttributes(
		attribute.Int("classifier.exact_matches", exact),
		attribute.Int("classifier.results", len(results)),
	)
	c.log.Predicted(ctx, querySize, len(labels), exact, len(results), elapsed)
	c.metrics.RecordPrediction(ctx, exact, elapsed)
	return results, nil
}

// ClearState forgets every label, every positioned sample and every winner.
func (c *Classifier[L]) ClearState(ctx context.Context) {
	ctx, span := c.tracer.Start(ctx, "classifier.ClearState")
	defer span.End()

	c.log.Cleared(ctx, c.history.Count(), c.voter.PoolSize(), len(c.whole), len(c.voter.Winners()))
	c.history.Clear()
	c.voter.Clear()
	c.whole = nil
}

// Labels returns every known label in the order it was first learned.
func (c *Classifier[L]) Labels() []L { return c.history.Labels() }

// History returns the SDRs stored under label, oldest first.
func (c *Classifier[L]) History(label L) ([]sdr.SDR, error) {
	return c.history.Entries(label)
}

func containsEqual(entries []sdr.SDR, query sdr.SDR) bool {
	key := sdr.Key(query)
	for _, e := range entries {
		if sdr.Key(e) == key {
			return true
		}
	}
	return false
}

// bestMatch returns the first entry with the highest overlap against query.
func bestMatch(entries []sdr.SDR, query sdr.SDR) (sdr.SDR, int) {
	var best sdr.SDR
	bestOverlap := -1
	for _, e := range entries {
		if n := sdr.Overlap(e, query); n > bestOverlap {
			best, bestOverlap = e, n
		}
	}
	return best, max(bestOverlap, 0)
}
