package classifier

import (
	"cmp"
	"context"
	"fmt"
	"slices"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/fyrsmithlabs/sdrclassifier/internal/sdr"
	"github.com/fyrsmithlabs/sdrclassifier/internal/spatial"
)

// LearnObj adds positioned samples to the spatial training pool. Samples are
// kept as given, without deduplication or a cap.
func (c *Classifier[L]) LearnObj(ctx context.Context, samples []spatial.Sample[L]) error {
	ctx, span := c.tracer.Start(ctx, "classifier.LearnObj",
		trace.WithAttributes(attribute.Int("classifier.samples", len(samples))))
	defer span.End()

	if err := validateSamples(samples); err != nil {
		recordError(span, err)
		return err
	}
	c.voter.LearnObj(samples)
	c.metrics.RecordSamples(ctx, "training", len(samples))
	c.log.Debug(ctx, "object samples learned")
	return nil
}

// PredictObj runs one voting round over testSamples and returns every winner
// recorded since the last ClearState, this round's last.
func (c *Classifier[L]) PredictObj(ctx context.Context, testSamples []spatial.Sample[L], howManyFeatures int) []spatial.Sample[L] {
	ctx, span := c.tracer.Start(ctx, "classifier.PredictObj",
		trace.WithAttributes(
			attribute.Int("classifier.samples", len(testSamples)),
			attribute.Int("classifier.how_many_features", howManyFeatures),
		))
	defer span.End()

	round := c.voter.PredictRound(testSamples, howManyFeatures)

	span.SetAttributes(
		attribute.String("classifier.winner", fmt.Sprint(round.Winner.Label)),
		attribute.Int("classifier.score", round.Score),
		attribute.Int("classifier.candidates", round.Candidates),
	)
	c.log.Round(ctx, round.Winner.Label, round.Winner.Frame, round.Score, round.Candidates, round.Labels)
	c.metrics.RecordRound(ctx, round.Score > 0)
	return c.voter.Winners()
}

// Winners returns every spatial winner recorded since the last ClearState.
func (c *Classifier[L]) Winners() []spatial.Sample[L] { return c.voter.Winners() }

// PoolSize returns the number of samples in the spatial training pool.
func (c *Classifier[L]) PoolSize() int { return c.voter.PoolSize() }

// LearnWholeObj adds samples that each cover a whole object to the
// validation pool consulted by ValidateObj.
func (c *Classifier[L]) LearnWholeObj(ctx context.Context, samples []spatial.Sample[L]) error {
	ctx, span := c.tracer.Start(ctx, "classifier.LearnWholeObj",
		trace.WithAttributes(attribute.Int("classifier.samples", len(samples))))
	defer span.End()

	if err := validateSamples(samples); err != nil {
		recordError(span, err)
		return err
	}
	for _, s := range samples {
		s.SDR = sdr.Clone(s.SDR)
		c.whole = append(c.whole, s)
	}
	c.metrics.RecordSamples(ctx, "whole", len(samples))
	return nil
}

// WholePoolSize returns the number of samples in the validation pool.
func (c *Classifier[L]) WholePoolSize() int { return len(c.whole) }

// ValidateObj returns the labels of the howMany whole-object samples that
// overlap query the most, best first, ties in learning order. A label may
// appear more than once.
func (c *Classifier[L]) ValidateObj(ctx context.Context, query sdr.SDR, howMany int) []L {
	ctx, span := c.tracer.Start(ctx, "classifier.ValidateObj",
		trace.WithAttributes(
			attribute.Int("sdr.size", len(query)),
			attribute.Int("classifier.how_many", howMany),
		))
	defer span.End()

	if howMany <= 0 || len(query) == 0 || len(c.whole) == 0 {
		return []L{}
	}

	type scored struct {
		label   L
		overlap int
	}
	ranked := make([]scored, len(c.whole))
	for i, s := range c.whole {
		ranked[i] = scored{label: s.Label, overlap: sdr.Overlap(s.SDR, query)}
	}
	slices.SortStableFunc(ranked, func(a, b scored) int {
		return cmp.Compare(b.overlap, a.overlap)
	})

	n := min(howMany, len(ranked))
	out := make([]L, n)
	for i := range n {
		out[i] = ranked[i].label
	}
	c.log.Debug(ctx, "object validated")
	return out
}

func validateSamples[L comparable](samples []spatial.Sample[L]) error {
	for i, s := range samples {
		if err := sdr.Validate(s.SDR); err != nil {
			return fmt.Errorf("sample %d (%v): %w", i, s.Label, err)
		}
	}
	return nil
}
