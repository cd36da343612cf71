// Package suggest produces search-as-you-type suggestions with a quiet-window
// debounce per user.
package suggest

import (
	"sync"
	"time"
)

// DefaultDelay is the quiet window after the last keystroke.
const DefaultDelay = 300 * time.Millisecond

// Debouncer calls fire with the most recent input once no new input has
// arrived for the delay. It owns a single timer.
type Debouncer struct {
	delay time.Duration
	fire  func(string)

	mu      sync.Mutex
	timer   *time.Timer
	gen     uint64
	stopped bool
}

// NewDebouncer creates a debouncer. fire runs on the timer goroutine.
func NewDebouncer(delay time.Duration, fire func(string)) *Debouncer {
	return &Debouncer{delay: delay, fire: fire}
}

// Trigger records input and restarts the quiet window.
func (d *Debouncer) Trigger(input string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.stopped {
		return
	}
	if d.timer != nil {
		d.timer.Stop()
	}
	d.gen++
	gen := d.gen
	d.timer = time.AfterFunc(d.delay, func() {
		d.mu.Lock()
		current := gen == d.gen && !d.stopped
		d.mu.Unlock()
		// A callback that lost the race with Stop or a newer Trigger is stale.
		if current {
			d.fire(input)
		}
	})
}

// Stop cancels a pending fire. A fire already running is not interrupted.
func (d *Debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.stopped = true
	d.gen++
	if d.timer != nil {
		d.timer.Stop()
	}
}
