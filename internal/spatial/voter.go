package spatial

import (
	"fmt"

	"github.com/fyrsmithlabs/sdrclassifier/internal/sdr"
)

// FramePolicy decides which frame a winning sample carries.
type FramePolicy string

const (
	// FrameZero leaves the winner's frame at its zero value.
	FrameZero FramePolicy = "zero"

	// FrameCentroid sets the winner's frame to the integer mean of every
	// frame that took part in one of the label's adjacent pairs.
	FrameCentroid FramePolicy = "centroid"
)

// ParseFramePolicy converts a config string into a FramePolicy. Empty means
// FrameZero.
func ParseFramePolicy(s string) (FramePolicy, error) {
	switch FramePolicy(s) {
	case "", FrameZero:
		return FrameZero, nil
	case FrameCentroid:
		return FrameCentroid, nil
	default:
		return "", fmt.Errorf("unknown frame policy %q (want %q or %q)", s, FrameZero, FrameCentroid)
	}
}

// VoterOption configures a Voter.
type VoterOption func(*voterOptions)

type voterOptions struct {
	match MatchPolicy
	frame FramePolicy
}

// WithMatchPolicy sets the candidate filter used by PredictObj.
func WithMatchPolicy(p MatchPolicy) VoterOption {
	return func(o *voterOptions) { o.match = p }
}

// WithFramePolicy sets how the winner's frame is chosen.
func WithFramePolicy(p FramePolicy) VoterOption {
	return func(o *voterOptions) { o.frame = p }
}

// Round summarizes one PredictObj call.
type Round[L comparable] struct {
	Winner     Sample[L]
	Score      int // adjacent pairs backing the winner, 0 when unknown
	Candidates int // distinct candidate votes before grouping
	Labels     int // distinct labels among the candidates
}

// Voter picks a single label and location from positioned samples by
// counting adjacent candidate frames per label.
//
// The training pool is unbounded and only emptied by Clear. The selection
// pool lives for the duration of one PredictObj call. A Voter is not safe for
// concurrent use.
type Voter[L comparable] struct {
	unknown L
	match   MatchPolicy
	frame   FramePolicy

	pool      []Sample[L]
	selection []Sample[L]
	winners   []Sample[L]
}

// NewVoter creates a Voter that reports unknown when no consensus is found.
func NewVoter[L comparable](unknown L, opts ...VoterOption) *Voter[L] {
	o := voterOptions{match: MatchGreedy, frame: FrameZero}
	for _, opt := range opts {
		opt(&o)
	}
	return &Voter[L]{
		unknown: unknown,
		match:   o.match,
		frame:   o.frame,
	}
}

// LearnObj appends samples to the training pool. No deduplication or cap is
// applied.
func (v *Voter[L]) LearnObj(samples []Sample[L]) {
	for _, s := range samples {
		s.SDR = sdr.Clone(s.SDR)
		v.pool = append(v.pool, s)
	}
}

// AddSelectedSamples emits one candidate per training sample whose SDR is in
// matching, positioned at the query frame translated by the training frame,
// then drops candidates whose SDR repeats an earlier one.
func (v *Voter[L]) AddSelectedSamples(query Sample[L], matching []sdr.SDR) {
	if len(matching) == 0 {
		return
	}
	wanted := make(map[string]struct{}, len(matching))
	for _, m := range matching {
		wanted[sdr.Key(m)] = struct{}{}
	}

	for _, training := range v.pool {
		if _, ok := wanted[sdr.Key(training.SDR)]; !ok {
			continue
		}
		v.selection = append(v.selection, Sample[L]{
			Label:  training.Label,
			SDR:    training.SDR,
			Frame:  query.Frame.Add(training.Frame),
			Source: training.Source,
		})
	}

	v.selection = dedupBySDR(v.selection)
}

// PredictObj votes over testSamples and appends the round's winner to the
// cumulative winners list, which it returns.
func (v *Voter[L]) PredictObj(testSamples []Sample[L], howManyFeatures int) []Sample[L] {
	v.PredictRound(testSamples, howManyFeatures)
	return v.Winners()
}

// PredictRound is PredictObj returning the details of the round instead of
// the winners list.
func (v *Voter[L]) PredictRound(testSamples []Sample[L], howManyFeatures int) Round[L] {
	defer func() { v.selection = nil }()

	training := make([]sdr.SDR, len(v.pool))
	for i, s := range v.pool {
		training[i] = s.SDR
	}

	for _, test := range testSamples {
		matching := GetMatchingFeatures(training, test.SDR, howManyFeatures, v.match)
		v.AddSelectedSamples(test, matching)
	}

	round := Round[L]{
		Winner:     Sample[L]{Label: v.unknown},
		Candidates: len(v.selection),
	}

	groups := groupByLabel(v.selection)
	round.Labels = len(groups)

	for _, g := range groups {
		score, members := consensus(g.samples)
		if score <= round.Score {
			continue
		}
		round.Score = score
		round.Winner.Label = g.label
		if v.frame == FrameCentroid {
			round.Winner.Frame = centroid(g.samples, members)
		}
	}

	v.winners = append(v.winners, round.Winner)
	return round
}

// Winners returns a copy of every winner recorded so far.
func (v *Voter[L]) Winners() []Sample[L] {
	out := make([]Sample[L], len(v.winners))
	copy(out, v.winners)
	return out
}

// Pool returns a copy of the training pool.
func (v *Voter[L]) Pool() []Sample[L] {
	out := make([]Sample[L], len(v.pool))
	copy(out, v.pool)
	return out
}

// PoolSize returns the number of training samples.
func (v *Voter[L]) PoolSize() int { return len(v.pool) }

// SelectionSize returns the number of pending candidates. It is zero
// between PredictObj calls.
func (v *Voter[L]) SelectionSize() int { return len(v.selection) }

// Clear empties the training pool, the selection pool and the winners.
func (v *Voter[L]) Clear() {
	v.pool = nil
	v.selection = nil
	v.winners = nil
}

type labelGroup[L comparable] struct {
	label   L
	samples []Sample[L]
}

// groupByLabel groups samples by label in first-appearance order.
func groupByLabel[L comparable](samples []Sample[L]) []labelGroup[L] {
	index := make(map[L]int)
	var groups []labelGroup[L]
	for _, s := range samples {
		i, ok := index[s.Label]
		if !ok {
			i = len(groups)
			index[s.Label] = i
			groups = append(groups, labelGroup[L]{label: s.Label})
		}
		groups[i].samples = append(groups[i].samples, s)
	}
	return groups
}

// consensus counts unordered pairs of near frames and reports which samples
// took part in at least one of them.
func consensus[L comparable](samples []Sample[L]) (int, []bool) {
	members := make([]bool, len(samples))
	score := 0
	for i := 0; i < len(samples); i++ {
		for j := i + 1; j < len(samples); j++ {
			if samples[i].Frame.Near(samples[j].Frame) {
				score++
				members[i] = true
				members[j] = true
			}
		}
	}
	return score, members
}

func centroid[L comparable](samples []Sample[L], members []bool) Frame {
	var sum Frame
	n := 0
	for i, s := range samples {
		if !members[i] {
			continue
		}
		sum = sum.Add(s.Frame)
		n++
	}
	if n == 0 {
		return Frame{}
	}
	return Frame{
		TLX: sum.TLX / n,
		TLY: sum.TLY / n,
		BRX: sum.BRX / n,
		BRY: sum.BRY / n,
	}
}

func dedupBySDR[L comparable](samples []Sample[L]) []Sample[L] {
	seen := make(map[string]struct{}, len(samples))
	out := samples[:0]
	for _, s := range samples {
		key := sdr.Key(s.SDR)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, s)
	}
	return out
}
