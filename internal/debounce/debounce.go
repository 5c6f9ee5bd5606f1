// Package debounce coalesces bursts of calls into one trailing call.
package debounce

import (
	"sync"
	"time"
)

// DefaultWait is the quiet period used for persisting editor content.
const DefaultWait = 400 * time.Millisecond

// Debouncer delays fn until wait has passed without another Call, then runs
// it once with the most recent payload. Calls to fn never overlap.
type Debouncer[T any] struct {
	wait time.Duration
	fn   func(T)

	mu      sync.Mutex
	timer   *time.Timer
	gen     uint64
	pending bool
	payload T
	stopped bool

	run sync.Mutex
}

// New returns a Debouncer. A non-positive wait uses DefaultWait.
func New[T any](wait time.Duration, fn func(T)) *Debouncer[T] {
	if wait <= 0 {
		wait = DefaultWait
	}
	return &Debouncer[T]{wait: wait, fn: fn}
}

// Call records payload and restarts the quiet period. Calls after Stop are
// ignored.
func (d *Debouncer[T]) Call(payload T) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.stopped {
		return
	}
	d.payload = payload
	d.pending = true
	d.gen++
	gen := d.gen
	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.wait, func() { d.fire(gen) })
}

func (d *Debouncer[T]) fire(gen uint64) {
	d.mu.Lock()
	if !d.pending || gen != d.gen {
		d.mu.Unlock()
		return
	}
	payload := d.payload
	d.pending = false
	d.mu.Unlock()

	d.invoke(payload)
}

// Flush runs a pending call immediately on the calling goroutine. It reports
// whether there was one.
func (d *Debouncer[T]) Flush() bool {
	d.mu.Lock()
	if !d.pending {
		d.mu.Unlock()
		return false
	}
	if d.timer != nil {
		d.timer.Stop()
	}
	payload := d.payload
	d.pending = false
	d.gen++
	d.mu.Unlock()

	d.invoke(payload)
	return true
}

// Pending reports whether a call is waiting for its quiet period.
func (d *Debouncer[T]) Pending() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.pending
}

// Cancel drops a pending call and keeps the debouncer usable. It reports
// whether there was one.
func (d *Debouncer[T]) Cancel() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.timer != nil {
		d.timer.Stop()
	}
	was := d.pending
	var zero T
	d.payload = zero
	d.pending = false
	d.gen++
	return was
}

// Stop drops any pending call and disables the debouncer. Whatever was
// pending is lost; call Flush first to keep it.
func (d *Debouncer[T]) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.timer != nil {
		d.timer.Stop()
	}
	var zero T
	d.payload = zero
	d.pending = false
	d.stopped = true
	d.gen++
}

func (d *Debouncer[T]) invoke(payload T) {
	d.run.Lock()
	defer d.run.Unlock()
	d.fn(payload)
}
