// Package logging routes engine diagnostics through glog and keeps
// counters that tests can observe.
//
// The counters exist so tests can assert that no bug fires on
// well-formed input, and that warnings (unrecognized escapes, expensive
// repetitions) are reported without aborting compilation.
package logging

import (
	"sync/atomic"

	"github.com/golang/glog"
)

var (
	warnings uint64
	bugs     uint64
)

// Debugf logs a debug message at the given glog verbosity.
func Debugf(verbosity int, format string, args ...interface{}) {
	glog.V(glog.Level(verbosity)).Infof(format, args...)
}

// Warnf logs a warning and bumps the warning counter.
// Warnings never abort compilation or execution.
func Warnf(format string, args ...interface{}) {
	atomic.AddUint64(&warnings, 1)
	glog.Warningf(format, args...)
}

// NYIf reports use of a recognized-but-unimplemented feature.
// Counted as a warning; whether the caller aborts is up to the caller.
func NYIf(format string, args ...interface{}) {
	atomic.AddUint64(&warnings, 1)
	glog.Warningf("NYI: "+format, args...)
}

// Bugf reports an internal invariant violation and bumps the bug counter.
func Bugf(format string, args ...interface{}) {
	atomic.AddUint64(&bugs, 1)
	glog.Errorf(format, args...)
}

// Warnings returns the number of warnings reported so far.
func Warnings() uint64 { return atomic.LoadUint64(&warnings) }

// Bugs returns the number of bugs reported so far.
func Bugs() uint64 { return atomic.LoadUint64(&bugs) }

// ResetCounters zeroes both counters. Intended for tests.
func ResetCounters() {
	atomic.StoreUint64(&warnings, 0)
	atomic.StoreUint64(&bugs, 0)
}
