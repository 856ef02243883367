package vra

import (
	"log"
	"os"
)

// Logger receives the pass's non-fatal diagnostics (§7): division by
// zero possible, uncomputable trip counts, and similar soft failures
// that degrade precision to Top() rather than abort the analysis.
//
// The teacher CLI writes plain human-readable progress straight to
// stderr rather than adopting a structured-logging dependency; this
// package follows the same register instead of reaching for one.
type Logger interface {
	Warnf(format string, args ...any)
}

// stdLogger adapts the standard library's log.Logger to Logger.
type stdLogger struct {
	l *log.Logger
}

// DefaultLogger writes warnings to stderr, prefixed "vra: ", matching
// the teacher's diagnostic style in cmd/alas-compile.
func DefaultLogger() Logger {
	return &stdLogger{l: log.New(os.Stderr, "vra: ", 0)}
}

func (s *stdLogger) Warnf(format string, args ...any) {
	s.l.Printf(format, args...)
}

// NopLogger discards all diagnostics; useful for tests that assert on
// computed ranges without caring about warning text.
func NopLogger() Logger { return nopLogger{} }

type nopLogger struct{}

func (nopLogger) Warnf(string, ...any) {}
