// Package sched provides the timer and event-loop primitives that the
// feedback components run on.
//
// Everything that touches the page model runs on a single Loop, one
// callback at a time, to completion. Timers never run their callbacks
// directly: a Scheduler posts fired callbacks back onto the loop, so a
// timer callback is just another queued event.
//
// Two schedulers are provided:
//
//   - Real arms time.AfterFunc timers and dispatches onto a Loop.
//   - Manual keeps its own clock and only fires when Advance is called,
//     which makes timing behavior deterministic in tests.
//
// # Cancellation
//
// Cancel is idempotent. A cancelled token never runs its callback, even
// when the underlying timer already fired and the callback is sitting in
// the loop's queue:
//
//	tok := s.Schedule(30*time.Second, release)
//	// ...
//	s.Cancel(tok) // release will not run
package sched
