// Package monitoring holds the process-wide diagnostic logger.
package monitoring

import (
	"log"
	"sync/atomic"
)

// Logf is the package-level diagnostic logger. It defaults to log.Printf but may
// be replaced by SetLogger. Tests or production code can redirect or mute it.
var Logf func(format string, v ...interface{}) = log.Printf

// SetLogger replaces the package logger. Passing nil will set a no-op logger.
func SetLogger(f func(format string, v ...interface{})) {
	if f == nil {
		Logf = func(string, ...interface{}) {}
		return
	}
	Logf = f
}

// Component returns a logger that prefixes every line with [name] and
// forwards to the current Logf.
func Component(name string) func(format string, v ...interface{}) {
	prefix := "[" + name + "] "
	return func(format string, v ...interface{}) {
		Logf(prefix+format, v...)
	}
}

// Throttled logs at most once per n calls, so per-frame failures do not
// flood the log. The first call always logs.
type Throttled struct {
	Every uint64
	Logf  func(format string, v ...interface{})
	n     atomic.Uint64
}

// Printf logs when the call count is a multiple of Every.
func (t *Throttled) Printf(format string, v ...interface{}) {
	n := t.n.Add(1) - 1
	every := t.Every
	if every == 0 {
		every = 1
	}
	if n%every != 0 {
		return
	}
	logf := t.Logf
	if logf == nil {
		logf = Logf
	}
	logf(format, v...)
}
