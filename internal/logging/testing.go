package logging

import (
	"reflect"
	"strings"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

// TestLogger records every entry, Trace included, for assertions.
type TestLogger struct {
	*Logger
	logs *observer.ObservedLogs
}

func NewTestLogger() *TestLogger {
	core, logs := observer.New(TraceLevel)
	return &TestLogger{Logger: &Logger{zap: zap.New(core)}, logs: logs}
}

func (t *TestLogger) All() []observer.LoggedEntry { return t.logs.All() }

func (t *TestLogger) FilterMessage(msg string) *observer.ObservedLogs {
	return t.logs.FilterMessage(msg)
}

// Reset drops everything recorded so far.
func (t *TestLogger) Reset() { t.logs.TakeAll() }

func (t *TestLogger) find(match func(observer.LoggedEntry) bool) bool {
	for _, e := range t.logs.All() {
		if match(e) {
			return true
		}
	}
	return false
}

func levelAndText(lvl zapcore.Level, sub string) func(observer.LoggedEntry) bool {
	return func(e observer.LoggedEntry) bool {
		return e.Level == lvl && strings.Contains(e.Message, sub)
	}
}

// AssertLogged fails tb unless an entry at lvl contains sub.
func (t *TestLogger) AssertLogged(tb testing.TB, lvl zapcore.Level, sub string) {
	tb.Helper()
	if !t.find(levelAndText(lvl, sub)) {
		tb.Errorf("no %s entry containing %q in %d entries", levelName(lvl), sub, t.logs.Len())
	}
}

// AssertNotLogged fails tb if an entry at lvl contains sub.
func (t *TestLogger) AssertNotLogged(tb testing.TB, lvl zapcore.Level, sub string) {
	tb.Helper()
	if t.find(levelAndText(lvl, sub)) {
		tb.Errorf("unexpected %s entry containing %q", levelName(lvl), sub)
	}
}

// AssertField fails tb unless an entry with message msg has key = want.
// Integers are recorded as int64.
func (t *TestLogger) AssertField(tb testing.TB, msg, key string, want any) {
	tb.Helper()
	ok := t.find(func(e observer.LoggedEntry) bool {
		got, present := e.ContextMap()[key]
		return e.Message == msg && present && reflect.DeepEqual(got, want)
	})
	if !ok {
		tb.Errorf("no %q entry with %s=%v", msg, key, want)
	}
}

// AssertTraceCorrelation fails tb unless an entry with message msg has a
// trace_id.
func (t *TestLogger) AssertTraceCorrelation(tb testing.TB, msg string) {
	tb.Helper()
	ok := t.find(func(e observer.LoggedEntry) bool {
		_, present := e.ContextMap()["trace_id"]
		return e.Message == msg && present
	})
	if !ok {
		tb.Errorf("%q logged without trace_id", msg)
	}
}
