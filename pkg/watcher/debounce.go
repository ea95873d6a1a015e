package watcher

import (
	"sync"
	"time"
)

// DefaultDebounceDuration is the quiet period used when a Debouncer is
// created with a non-positive duration. The search input in the UI and
// the file watcher share this default.
const DefaultDebounceDuration = 250 * time.Millisecond

// Debouncer coalesces bursts of triggers into one callback after a
// quiet period. Each Trigger replaces the pending callback and restarts
// the timer, so only the last function runs.
type Debouncer struct {
	mu       sync.Mutex
	duration time.Duration
	timer    *time.Timer
}

// NewDebouncer creates a debouncer with the given quiet period.
func NewDebouncer(d time.Duration) *Debouncer {
	if d <= 0 {
		d = DefaultDebounceDuration
	}
	return &Debouncer{duration: d}
}

// Duration returns the configured quiet period.
func (d *Debouncer) Duration() time.Duration {
	return d.duration
}

// Trigger schedules fn to run once the quiet period elapses without
// another Trigger. A pending callback from an earlier Trigger is
// dropped, not queued.
func (d *Debouncer) Trigger(fn func()) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.duration, fn)
}

// Cancel drops any pending callback. Safe to call with nothing pending.
// Callers that need an immediate apply cancel first, then run the
// update synchronously, so the stale write cannot land afterwards.
func (d *Debouncer) Cancel() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
}
