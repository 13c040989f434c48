package query

import (
	"time"

	"sndctl/internal/clock"
)

// DebounceWindow is the quiet period a search edit must survive before it
// becomes part of the query key.
const DebounceWindow = 300 * time.Millisecond

// Debouncer gates a search-text edit behind a quiet period so rapid
// keystrokes collapse into one fetch using the final text. It is not
// safe for concurrent use; callers guard it with their own lock.
type Debouncer struct {
	clock    clock.Clock
	window   time.Duration
	pending  string
	deadline time.Time
	armed    bool
}

// NewDebouncer creates a Debouncer with the given quiet period. A zero
// window falls back to DebounceWindow.
func NewDebouncer(clk clock.Clock, window time.Duration) *Debouncer {
	if window <= 0 {
		window = DebounceWindow
	}
	return &Debouncer{clock: clk, window: window}
}

// Set records an edit and restarts the quiet period.
func (d *Debouncer) Set(text string) {
	d.pending = text
	d.deadline = d.clock.Now().Add(d.window)
	d.armed = true
}

// Ripe returns the pending text once the quiet period has elapsed,
// consuming it. The second return is false while no edit is ready.
func (d *Debouncer) Ripe() (string, bool) {
	if !d.armed || d.clock.Now().Before(d.deadline) {
		return "", false
	}
	d.armed = false
	return d.pending, true
}

// Flush returns any pending text immediately, consuming it.
func (d *Debouncer) Flush() (string, bool) {
	if !d.armed {
		return "", false
	}
	d.armed = false
	return d.pending, true
}

// Pending reports whether an edit is waiting out its quiet period.
func (d *Debouncer) Pending() bool { return d.armed }
