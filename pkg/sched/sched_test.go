package sched

import (
	"context"
	"testing"
	"time"
)

func TestManualAdvanceRunsInDueOrder(t *testing.T) {
	m := NewManual(time.Time{})
	var order []string

	m.Schedule(300*time.Millisecond, func() { order = append(order, "c") })
	m.Schedule(100*time.Millisecond, func() { order = append(order, "a") })
	m.Schedule(100*time.Millisecond, func() { order = append(order, "b") })

	m.Advance(99 * time.Millisecond)
	if len(order) != 0 {
		t.Fatalf("expected nothing to fire yet, got %v", order)
	}

	m.Advance(time.Second)
	want := []string{"a", "b", "c"}
	if len(order) != len(want) {
		t.Fatalf("got %v, want %v", order, want)
	}
	for i := range want {
		if order[i] != want[i] {
			t.Errorf("order[%d]: got %q, want %q", i, order[i], want[i])
		}
	}
	if m.Pending() != 0 {
		t.Errorf("Pending: got %d, want 0", m.Pending())
	}
}

func TestManualCancel(t *testing.T) {
	m := NewManual(time.Time{})
	fired := false
	tok := m.Schedule(time.Second, func() { fired = true })

	m.Cancel(tok)
	m.Cancel(tok)
	m.Cancel(0)
	m.Advance(2 * time.Second)

	if fired {
		t.Error("cancelled callback fired")
	}
}

func TestManualNestedSchedule(t *testing.T) {
	m := NewManual(time.Time{})
	var times []time.Duration
	start := m.Now()

	m.Schedule(100*time.Millisecond, func() {
		times = append(times, m.Now().Sub(start))
		m.Schedule(100*time.Millisecond, func() {
			times = append(times, m.Now().Sub(start))
		})
	})

	m.Advance(500 * time.Millisecond)

	if len(times) != 2 {
		t.Fatalf("expected 2 callbacks, got %d", len(times))
	}
	if times[0] != 100*time.Millisecond || times[1] != 200*time.Millisecond {
		t.Errorf("callback times: got %v", times)
	}
	if got := m.Now().Sub(start); got != 500*time.Millisecond {
		t.Errorf("clock: got %v, want 500ms", got)
	}
}

func TestManualAdvanceTo(t *testing.T) {
	m := NewManual(time.Time{})
	fired := 0
	m.Schedule(time.Second, func() { fired++ })

	m.AdvanceTo(m.Now().Add(-time.Second))
	if fired != 0 {
		t.Fatal("AdvanceTo into the past must not fire")
	}
	m.AdvanceTo(m.Now().Add(time.Second))
	if fired != 1 {
		t.Errorf("fired: got %d, want 1", fired)
	}
}

func TestLoopRunsSerially(t *testing.T) {
	loop := NewLoop(16, nil)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go loop.Run(ctx)

	var got []int
	for i := 0; i < 10; i++ {
		i := i
		if !loop.Dispatch(func() { got = append(got, i) }) {
			t.Fatalf("dispatch %d rejected", i)
		}
	}
	if err := loop.Do(ctx, func() {}); err != nil {
		t.Fatalf("Do: %v", err)
	}
	for i := range got {
		if got[i] != i {
			t.Fatalf("out of order: %v", got)
		}
	}
}

func TestLoopRecoversPanics(t *testing.T) {
	loop := NewLoop(4, nil)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go loop.Run(ctx)

	if err := loop.Do(ctx, func() { panic("boom") }); err != nil {
		t.Fatalf("Do after panic: %v", err)
	}
	ran := false
	if err := loop.Do(ctx, func() { ran = true }); err != nil {
		t.Fatalf("Do: %v", err)
	}
	if !ran {
		t.Error("loop stopped after a panic")
	}
}

func TestLoopClosed(t *testing.T) {
	loop := NewLoop(4, nil)
	loop.Close()

	if loop.Dispatch(func() {}) {
		t.Error("Dispatch on closed loop should report false")
	}
	if err := loop.Do(context.Background(), func() {}); err != ErrLoopClosed {
		t.Errorf("Do: got %v, want ErrLoopClosed", err)
	}
}

func TestRealFiresOnLoop(t *testing.T) {
	loop := NewLoop(16, nil)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go loop.Run(ctx)

	r := NewReal(loop)
	fired := make(chan struct{})
	r.Schedule(5*time.Millisecond, func() { close(fired) })

	select {
	case <-fired:
	case <-time.After(2 * time.Second):
		t.Fatal("timer did not fire")
	}
	if err := loop.Do(ctx, func() {}); err != nil {
		t.Fatal(err)
	}
	if r.Pending() != 0 {
		t.Errorf("Pending: got %d, want 0", r.Pending())
	}
}

func TestRealCancelAfterFireBeforeRun(t *testing.T) {
	// The loop is not running yet, so the fired callback waits in the queue.
	loop := NewLoop(16, nil)
	r := NewReal(loop)

	ran := false
	tok := r.Schedule(time.Millisecond, func() { ran = true })

	deadline := time.Now().Add(2 * time.Second)
	for len(loop.queue) == 0 && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	if len(loop.queue) == 0 {
		t.Fatal("timer never queued its callback")
	}

	r.Cancel(tok)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go loop.Run(ctx)
	if err := loop.Do(ctx, func() {}); err != nil {
		t.Fatal(err)
	}
	if ran {
		t.Error("cancelled callback ran after its timer fired")
	}
}

func TestRealStop(t *testing.T) {
	loop := NewLoop(16, nil)
	r := NewReal(loop)
	r.Schedule(time.Hour, func() {})
	r.Schedule(time.Hour, func() {})

	r.Stop()
	if r.Pending() != 0 {
		t.Errorf("Pending after Stop: got %d, want 0", r.Pending())
	}
	r.Schedule(time.Millisecond, func() { t.Error("scheduled after Stop fired") })
	time.Sleep(20 * time.Millisecond)
	if len(loop.queue) != 0 {
		t.Error("stopped scheduler queued a callback")
	}
}
