package watcher

import (
	"sync"
	"time"
)

// DefaultDebounceDuration collapses bursts of filesystem events (editors and
// browsers write session files several times per save) into one notification.
const DefaultDebounceDuration = 100 * time.Millisecond

// Debouncer coalesces rapid triggers into a single callback after a quiet
// period. Safe for concurrent use.
type Debouncer struct {
	duration time.Duration

	mu    sync.Mutex
	timer *time.Timer
}

// NewDebouncer creates a debouncer with the given quiet period. A zero or
// negative duration uses DefaultDebounceDuration.
func NewDebouncer(duration time.Duration) *Debouncer {
	if duration <= 0 {
		duration = DefaultDebounceDuration
	}
	return &Debouncer{duration: duration}
}

// Duration returns the quiet period.
func (d *Debouncer) Duration() time.Duration {
	return d.duration
}

// Trigger schedules fn to run after the quiet period. A trigger arriving
// before the period elapses restarts the clock; only the latest fn runs.
func (d *Debouncer) Trigger(fn func()) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.duration, fn)
}

// Cancel drops any pending callback.
func (d *Debouncer) Cancel() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
}
