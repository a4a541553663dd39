package logging

import (
	"sync"
	"time"

	"go.uber.org/zap/zapcore"
)

// maxSampleKeys bounds the per-message counters of a countingSampler.
const maxSampleKeys = 4096

// sampleCore splits core into one branch per level below Error. A level
// with a Rate gets its own sampler so a burst of Trace output cannot eat
// the budget of Warn.
func sampleCore(core zapcore.Core, cfg SamplingConfig) zapcore.Core {
	if !cfg.Enabled {
		return core
	}

	branches := []zapcore.Core{
		levelGate(core, func(l zapcore.Level) bool { return l >= zapcore.ErrorLevel }),
	}
	for _, lvl := range []zapcore.Level{TraceLevel, zapcore.DebugLevel, zapcore.InfoLevel, zapcore.WarnLevel} {
		want := lvl
		branch := levelGate(core, func(l zapcore.Level) bool { return l == want })
		if r, ok := cfg.Rates[lvl]; ok {
			branch = newSampler(branch, lvl, cfg.Tick, r)
		}
		branches = append(branches, branch)
	}
	return zapcore.NewTee(branches...)
}

// newSampler uses zap's sampler where it applies. zap ignores levels below
// Debug, so Trace gets a countingSampler instead.
func newSampler(core zapcore.Core, lvl zapcore.Level, tick time.Duration, r Rate) zapcore.Core {
	if lvl >= zapcore.DebugLevel {
		return zapcore.NewSamplerWithOptions(core, tick, r.First, r.Thereafter)
	}
	return &countingSampler{Core: core, state: &sampleState{
		tick:       tick,
		first:      r.First,
		thereafter: r.Thereafter,
		counts:     make(map[string]*sampleWindow),
	}}
}

// countingSampler keeps the first entries per message in each tick, then
// every thereafter-th. Cores derived through With share the counters.
type countingSampler struct {
	zapcore.Core
	state *sampleState
}

type sampleState struct {
	mu         sync.Mutex
	tick       time.Duration
	first      int
	thereafter int
	counts     map[string]*sampleWindow
}

type sampleWindow struct {
	until time.Time
	n     int
}

func (s *sampleState) keep(e zapcore.Entry) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	w, ok := s.counts[e.Message]
	if !ok || !e.Time.Before(w.until) {
		if !ok && len(s.counts) >= maxSampleKeys {
			clear(s.counts)
		}
		w = &sampleWindow{until: e.Time.Add(s.tick)}
		s.counts[e.Message] = w
	}
	w.n++
	if w.n <= s.first {
		return true
	}
	return s.thereafter > 0 && (w.n-s.first)%s.thereafter == 0
}

func (c *countingSampler) Check(e zapcore.Entry, ce *zapcore.CheckedEntry) *zapcore.CheckedEntry {
	if !c.Enabled(e.Level) || !c.state.keep(e) {
		return ce
	}
	return c.Core.Check(e, ce)
}

func (c *countingSampler) With(fields []zapcore.Field) zapcore.Core {
	return &countingSampler{Core: c.Core.With(fields), state: c.state}
}

type gatedCore struct {
	zapcore.Core
	pass func(zapcore.Level) bool
}

func levelGate(core zapcore.Core, pass func(zapcore.Level) bool) zapcore.Core {
	return &gatedCore{Core: core, pass: pass}
}

func (g *gatedCore) Enabled(l zapcore.Level) bool {
	return g.pass(l) && g.Core.Enabled(l)
}

func (g *gatedCore) Check(e zapcore.Entry, ce *zapcore.CheckedEntry) *zapcore.CheckedEntry {
	if !g.pass(e.Level) {
		return ce
	}
	return g.Core.Check(e, ce)
}

func (g *gatedCore) With(fields []zapcore.Field) zapcore.Core {
	return &gatedCore{Core: g.Core.With(fields), pass: g.pass}
}
