package sched

import (
	"sync"
	"time"
)

// Manual is a Scheduler whose clock only moves when Advance is called.
// Callbacks run synchronously inside Advance, on the caller's goroutine.
type Manual struct {
	mu     sync.Mutex
	now    time.Time
	seq    uint64
	timers map[Token]*manualTimer
}

type manualTimer struct {
	seq uint64
	due time.Time
	fn  func()
}

// NewManual creates a Manual scheduler starting at start. A zero start
// uses the Unix epoch so tests are reproducible.
func NewManual(start time.Time) *Manual {
	if start.IsZero() {
		start = time.Unix(0, 0).UTC()
	}
	return &Manual{
		now:    start,
		timers: make(map[Token]*manualTimer),
	}
}

// Schedule implements Scheduler.
func (m *Manual) Schedule(delay time.Duration, fn func()) Token {
	m.mu.Lock()
	defer m.mu.Unlock()

	if delay < 0 {
		delay = 0
	}
	m.seq++
	tok := Token(m.seq)
	m.timers[tok] = &manualTimer{seq: m.seq, due: m.now.Add(delay), fn: fn}
	return tok
}

// Cancel implements Scheduler.
func (m *Manual) Cancel(tok Token) {
	m.mu.Lock()
	delete(m.timers, tok)
	m.mu.Unlock()
}

// Now implements Scheduler.
func (m *Manual) Now() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.now
}

// Pending returns the number of callbacks that have not run or been cancelled.
func (m *Manual) Pending() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.timers)
}

// Advance moves the clock forward by d, running every callback that falls
// due in order of due time, then schedule order. Callbacks scheduled while
// advancing also run if they fall due before the new time.
func (m *Manual) Advance(d time.Duration) {
	m.mu.Lock()
	target := m.now.Add(d)
	for {
		tok, t := m.nextDue(target)
		if t == nil {
			break
		}
		delete(m.timers, tok)
		m.now = t.due
		m.mu.Unlock()
		t.fn()
		m.mu.Lock()
	}
	m.now = target
	m.mu.Unlock()
}

// AdvanceTo moves the clock to t. Times in the past are ignored.
func (m *Manual) AdvanceTo(t time.Time) {
	d := t.Sub(m.Now())
	if d < 0 {
		return
	}
	m.Advance(d)
}

func (m *Manual) nextDue(target time.Time) (Token, *manualTimer) {
	var (
		bestTok Token
		best    *manualTimer
	)
	for tok, t := range m.timers {
		if t.due.After(target) {
			continue
		}
		if best == nil || t.due.Before(best.due) || (t.due.Equal(best.due) && t.seq < best.seq) {
			bestTok, best = tok, t
		}
	}
	return bestTok, best
}
