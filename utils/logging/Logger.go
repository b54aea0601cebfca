// Package logging implements the key-value loggers used by workers and
// the controller
package logging

import (
	"fmt"
	"log"
	"strings"
	"sync"
)

// Logger logs snake_case event names together with alternating
// key-value pairs
type Logger interface {
	Debug(msg string, keysAndValues ...any)
	Info(msg string, keysAndValues ...any)
	Warn(msg string, keysAndValues ...any)
	Error(msg string, keysAndValues ...any)
}

// Std implements Logger on top of a standard library log.Logger
type Std struct {
	out   *log.Logger
	debug bool
}

// NewStd returns a new Std logger writing to out. If out is nil, the
// standard library's default logger is used. Debug calls are dropped
// unless debug is true.
func NewStd(out *log.Logger, debug bool) *Std {
	if out == nil {
		out = log.Default()
	}
	return &Std{out: out, debug: debug}
}

// Debug logs at the debug level
func (s *Std) Debug(msg string, keysAndValues ...any) {
	if s.debug {
		s.print("DEBUG", msg, keysAndValues)
	}
}

// Info logs at the info level
func (s *Std) Info(msg string, keysAndValues ...any) {
	s.print("INFO", msg, keysAndValues)
}

// Warn logs at the warn level
func (s *Std) Warn(msg string, keysAndValues ...any) {
	s.print("WARN", msg, keysAndValues)
}

// Error logs at the error level
func (s *Std) Error(msg string, keysAndValues ...any) {
	s.print("ERROR", msg, keysAndValues)
}

func (s *Std) print(level, msg string, keysAndValues []any) {
	var b strings.Builder
	fmt.Fprintf(&b, "[%s] %s", level, msg)
	for i := 0; i < len(keysAndValues); i += 2 {
		if i+1 < len(keysAndValues) {
			fmt.Fprintf(&b, " %v=%v", keysAndValues[i], keysAndValues[i+1])
		} else {
			fmt.Fprintf(&b, " %v=?", keysAndValues[i])
		}
	}
	s.out.Print(b.String())
}

// Nop discards everything
type Nop struct{}

func (Nop) Debug(string, ...any) {}
func (Nop) Info(string, ...any)  {}
func (Nop) Warn(string, ...any)  {}
func (Nop) Error(string, ...any) {}

// Call is a single recorded log call
type Call struct {
	Level   string
	Message string
	Fields  map[string]any
}

// Recorder captures log calls so that tests can assert on them. It is
// safe for concurrent use.
type Recorder struct {
	mu    sync.Mutex
	calls []Call
}

func (r *Recorder) Debug(msg string, keysAndValues ...any) {
	r.record("DEBUG", msg, keysAndValues)
}

func (r *Recorder) Info(msg string, keysAndValues ...any) {
	r.record("INFO", msg, keysAndValues)
}

func (r *Recorder) Warn(msg string, keysAndValues ...any) {
	r.record("WARN", msg, keysAndValues)
}

func (r *Recorder) Error(msg string, keysAndValues ...any) {
	r.record("ERROR", msg, keysAndValues)
}

func (r *Recorder) record(level, msg string, keysAndValues []any) {
	fields := make(map[string]any, len(keysAndValues)/2)
	for i := 0; i < len(keysAndValues)-1; i += 2 {
		if key, ok := keysAndValues[i].(string); ok {
			fields[key] = keysAndValues[i+1]
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, Call{level, msg, fields})
}

// Calls returns a copy of all recorded calls in order
func (r *Recorder) Calls() []Call {
	r.mu.Lock()
	defer r.mu.Unlock()
	calls := make([]Call, len(r.calls))
	copy(calls, r.calls)
	return calls
}

// Has returns whether a call with the given level and message was
// recorded
func (r *Recorder) Has(level, msg string) bool {
	for _, c := range r.Calls() {
		if c.Level == level && c.Message == msg {
			return true
		}
	}
	return false
}
