package dataset

import (
	"context"
	"fmt"
	"slices"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/fyrsmithlabs/sdrclassifier/internal/classifier"
	"github.com/fyrsmithlabs/sdrclassifier/internal/config"
)

// Result summarizes one dataset replay.
type Result struct {
	Name     string        `json:"name"`
	Patterns int           `json:"patterns"`
	Labels   int           `json:"labels"`
	Duration time.Duration `json:"duration"`

	Queries Score `json:"queries"`
	Rounds  Score `json:"rounds"`
	Checks  Score `json:"validations"`

	Misses []Miss `json:"misses,omitempty"`

	// Trace is the classifier's state dump after learning.
	Trace string `json:"-"`
}

// Score counts expectations met.
type Score struct {
	Total int `json:"total"`
	Hits  int `json:"hits"`
}

// Accuracy is Hits/Total as a percentage, or 0 with no expectations.
func (s Score) Accuracy() float64 {
	if s.Total == 0 {
		return 0
	}
	return 100 * float64(s.Hits) / float64(s.Total)
}

func (s *Score) add(hit bool) {
	s.Total++
	if hit {
		s.Hits++
	}
}

// Miss records an expectation that was not met.
type Miss struct {
	Section string `json:"section"`
	Index   int    `json:"index"`
	Expect  string `json:"expect"`
	Got     string `json:"got"`
}

// Evaluate learns ds into a fresh classifier built from base plus the
// dataset's own settings, then checks every expectation. Entries without an
// expected label are run but not scored.
func Evaluate(ctx context.Context, ds *Dataset, base config.ClassifierConfig, opts ...classifier.Option) (*Result, error) {
	start := time.Now()

	settings := ds.Classifier.Apply(base).ClassifierSettings()
	c, err := classifier.New(settings, opts...)
	if err != nil {
		return nil, fmt.Errorf("dataset %s: %w", ds.Name, err)
	}

	res := &Result{Name: ds.Name, Patterns: len(ds.Patterns)}

	for i, p := range ds.Patterns {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if err := c.Learn(ctx, p.Label, p.SDR); err != nil {
			return nil, fmt.Errorf("dataset %s: patterns[%d]: %w", ds.Name, i, err)
		}
	}
	res.Labels = len(c.Labels())

	if res.Trace, err = c.TraceState(nil); err != nil {
		return nil, fmt.Errorf("dataset %s: %w", ds.Name, err)
	}

	for i, q := range ds.Queries {
		results, err := c.GetPredictedInputValues(ctx, q.SDR, q.howMany())
		if err != nil {
			return nil, fmt.Errorf("dataset %s: queries[%d]: %w", ds.Name, i, err)
		}
		if q.Expect == "" {
			continue
		}
		got := settings.Unknown
		if len(results) > 0 {
			got = results[0].Label
		}
		res.score(&res.Queries, "queries", i, q.Expect, got)
	}

	if err := c.LearnObj(ctx, ds.Objects.Training); err != nil {
		return nil, fmt.Errorf("dataset %s: objects.training: %w", ds.Name, err)
	}
	if err := c.LearnWholeObj(ctx, ds.Objects.Whole); err != nil {
		return nil, fmt.Errorf("dataset %s: objects.whole: %w", ds.Name, err)
	}

	for i, r := range ds.Objects.Rounds {
		winners := c.PredictObj(ctx, r.Samples, r.HowManyFeatures)
		if r.Expect == "" {
			continue
		}
		res.score(&res.Rounds, "objects.rounds", i, r.Expect, winners[len(winners)-1].Label)
	}

	for i, q := range ds.Objects.Validate {
		labels := c.ValidateObj(ctx, q.SDR, q.howMany())
		if q.Expect == "" {
			continue
		}
		got := settings.Unknown
		if slices.Contains(labels, q.Expect) {
			got = q.Expect
		} else if len(labels) > 0 {
			got = labels[0]
		}
		res.score(&res.Checks, "objects.validate", i, q.Expect, got)
	}

	res.Duration = time.Since(start)
	return res, nil
}

func (r *Result) score(s *Score, section string, index int, expect, got string) {
	hit := expect == got
	s.add(hit)
	if !hit {
		r.Misses = append(r.Misses, Miss{Section: section, Index: index, Expect: expect, Got: got})
	}
}

// EvaluateAll evaluates datasets concurrently, at most limit at a time
// (no limit when limit < 1). Results keep the input order. The first error
// cancels the remaining work.
func EvaluateAll(ctx context.Context, datasets []*Dataset, base config.ClassifierConfig, limit int, opts ...classifier.Option) ([]*Result, error) {
	results := make([]*Result, len(datasets))

	g, ctx := errgroup.WithContext(ctx)
	if limit > 0 {
		g.SetLimit(limit)
	}
	for i, ds := range datasets {
		g.Go(func() error {
			res, err := Evaluate(ctx, ds, base, opts...)
			if err != nil {
				return err
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
