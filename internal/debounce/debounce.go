// Package debounce delays a rapidly changing value until it has been stable for a
// fixed interval.
package debounce

import (
	"sync"
	"time"
)

// Timer is the handle of a scheduled callback.
type Timer interface {
	Stop() bool
}

// AfterFunc schedules f to run once after d.
type AfterFunc func(d time.Duration, f func()) Timer

func stdAfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

type Option func(*options)

type options struct {
	afterFunc AfterFunc
}

// WithAfterFunc replaces time.AfterFunc as the timer source.
func WithAfterFunc(af AfterFunc) Option {
	return func(o *options) {
		if af != nil {
			o.afterFunc = af
		}
	}
}

// Debouncer emits the latest value passed to Set once no new value has arrived for the
// configured delay. Every Set restarts the window and replaces the pending value, so
// intermediate values are never emitted and each settled window emits at most once.
//
// emit runs on the timer goroutine. It must not call Stop on the same Debouncer.
type Debouncer[T any] struct {
	delay     time.Duration
	emit      func(T)
	afterFunc AfterFunc

	// emitMu is held for the whole check-and-emit of a firing timer so that Stop
	// can wait for an emission that is already running.
	emitMu sync.Mutex

	mu      sync.Mutex
	timer   Timer
	seq     uint64
	value   T
	pending bool
	stopped bool
}

// New creates a Debouncer calling emit with settled values.
func New[T any](delay time.Duration, emit func(T), opts ...Option) *Debouncer[T] {
	o := options{afterFunc: stdAfterFunc}
	for _, opt := range opts {
		opt(&o)
	}
	return &Debouncer[T]{
		delay:     delay,
		emit:      emit,
		afterFunc: o.afterFunc,
	}
}

// Set records v as the latest value and restarts the delay window.
// It is a no-op after Stop.
func (d *Debouncer[T]) Set(v T) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.stopped {
		return
	}
	if d.timer != nil {
		d.timer.Stop()
	}
	d.seq++
	d.value = v
	d.pending = true
	seq := d.seq
	d.timer = d.afterFunc(d.delay, func() { d.fire(seq) })
}

// Pending reports whether a value is waiting for its window to settle.
func (d *Debouncer[T]) Pending() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.pending
}

// Stop discards any pending value and disables the Debouncer. When Stop returns no
// emission is running and none will start.
func (d *Debouncer[T]) Stop() {
	d.emitMu.Lock()
	defer d.emitMu.Unlock()

	d.mu.Lock()
	defer d.mu.Unlock()
	d.stopped = true
	d.pending = false
	d.seq++
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
}

// fire runs when the timer scheduled for seq expires. Callbacks of superseded
// timers that could not be stopped in time are inert.
func (d *Debouncer[T]) fire(seq uint64) {
	d.emitMu.Lock()
	defer d.emitMu.Unlock()

	d.mu.Lock()
	if d.stopped || !d.pending || seq != d.seq {
		d.mu.Unlock()
		return
	}
	v := d.value
	d.pending = false
	d.timer = nil
	d.mu.Unlock()

	d.emit(v)
}
