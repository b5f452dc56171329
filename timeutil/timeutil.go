// Package timeutil contains small time helpers: timestamps, a stopwatch and
// a duration type that understands day units.
package timeutil

import (
	"log/slog"
	"time"
)

// DefaultLayout is the layout used by Format when none is given.
const DefaultLayout = time.DateTime

// Timestamp returns the current Unix time in milliseconds.
func Timestamp() int64 {
	return time.Now().UnixMilli()
}

// Format formats t in the local time zone. An empty layout means DefaultLayout.
func Format(t time.Time, layout string) string {
	if layout == "" {
		layout = DefaultLayout
	}

	return t.Local().Format(layout)
}

// Timer measures elapsed time on the monotonic clock.
type Timer struct {
	start time.Time
}

// NewTimer returns a started Timer.
func NewTimer() *Timer {
	return &Timer{start: time.Now()}
}

// Reset restarts the timer.
func (t *Timer) Reset() {
	t.start = time.Now()
}

// Elapsed returns the time since the timer was started or last reset.
func (t *Timer) Elapsed() time.Duration {
	return time.Since(t.start)
}

// ScopeTimer starts a timer and returns a func that logs the elapsed time
// under name. Typical use is
//
//	defer timeutil.ScopeTimer(logger, "rebuild")()
func ScopeTimer(logger *slog.Logger, name string) func() {
	t := NewTimer()

	return func() {
		logger.Info("scope finished",
			slog.String("scope", name),
			slog.Duration("took", t.Elapsed()))
	}
}
