package sched

import (
	"sync"
	"sync/atomic"
	"time"
)

// Token identifies a scheduled callback. The zero Token is never issued
// and cancelling it is a no-op.
type Token uint64

// Scheduler schedules callbacks after a delay and cancels them by token.
type Scheduler interface {
	// Schedule arranges for fn to run once after delay.
	Schedule(delay time.Duration, fn func()) Token

	// Cancel prevents a scheduled callback from running.
	// Cancelling a fired, cancelled or unknown token is a no-op.
	Cancel(tok Token)

	// Now returns the scheduler's notion of the current time.
	Now() time.Time
}

// Dispatcher runs functions on an event loop.
type Dispatcher interface {
	Dispatch(fn func()) bool
}

// Real is a Scheduler backed by time.AfterFunc. Fired callbacks are
// dispatched onto a Dispatcher instead of running on the timer goroutine.
type Real struct {
	loop Dispatcher

	mu      sync.Mutex
	next    uint64
	timers  map[Token]*realTimer
	stopped bool
}

type realTimer struct {
	timer *time.Timer
	done  atomic.Bool
}

// NewReal creates a Real scheduler dispatching onto loop.
func NewReal(loop Dispatcher) *Real {
	return &Real{
		loop:   loop,
		timers: make(map[Token]*realTimer),
	}
}

// Schedule implements Scheduler.
func (r *Real) Schedule(delay time.Duration, fn func()) Token {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.next++
	tok := Token(r.next)
	if r.stopped {
		return tok
	}

	rt := &realTimer{}
	r.timers[tok] = rt
	rt.timer = time.AfterFunc(delay, func() {
		if rt.done.Load() {
			return
		}
		r.loop.Dispatch(func() {
			// Checked on the loop: Cancel may have run after the timer
			// fired but before this callback was dequeued.
			if !rt.done.CompareAndSwap(false, true) {
				return
			}
			r.forget(tok)
			fn()
		})
	})
	return tok
}

// Cancel implements Scheduler.
func (r *Real) Cancel(tok Token) {
	if tok == 0 {
		return
	}
	r.mu.Lock()
	rt, ok := r.timers[tok]
	delete(r.timers, tok)
	r.mu.Unlock()

	if !ok {
		return
	}
	rt.done.Store(true)
	if rt.timer != nil {
		rt.timer.Stop()
	}
}

// Now implements Scheduler.
func (r *Real) Now() time.Time {
	return time.Now()
}

// Pending returns the number of timers that have not fired or been cancelled.
func (r *Real) Pending() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.timers)
}

// Stop cancels every outstanding timer. Later calls to Schedule return
// tokens that never fire.
func (r *Real) Stop() {
	r.mu.Lock()
	timers := r.timers
	r.timers = make(map[Token]*realTimer)
	r.stopped = true
	r.mu.Unlock()

	for _, rt := range timers {
		rt.done.Store(true)
		if rt.timer != nil {
			rt.timer.Stop()
		}
	}
}

func (r *Real) forget(tok Token) {
	r.mu.Lock()
	delete(r.timers, tok)
	r.mu.Unlock()
}
