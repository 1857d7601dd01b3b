// Package busy locks interactive controls while an action is in flight.
//
// Arm puts a control into the busy state (class "loading", attribute
// "disabled") and schedules an automatic release after a ceiling, so a
// control whose response never arrives does not stay locked. Release
// clears the state early. Each target has at most one pending automatic
// release: re-arming cancels the previous one before scheduling anew.
//
// A Controller is not safe for concurrent use; drive it from the event
// loop its Scheduler dispatches onto.
package busy

import (
	"log/slog"
	"time"

	"github.com/vango-dev/metalens/pkg/dom"
	"github.com/vango-dev/metalens/pkg/sched"
)

// DefaultCeiling is the automatic release delay.
const DefaultCeiling = 30 * time.Second

const (
	// BusyClass is added to a control while it is busy.
	BusyClass = "loading"

	// DisabledAttr is set on a control while it is busy.
	DisabledAttr = "disabled"
)

type toggle struct {
	armedAt time.Time
	tok     sched.Token
}

// Controller tracks the busy state of controls on a surface.
type Controller struct {
	surface       dom.Surface
	scheduler     sched.Scheduler
	ceiling       time.Duration
	logger        *slog.Logger
	onAutoRelease func(target string, heldFor time.Duration)

	armed map[string]*toggle
}

// Option configures a Controller.
type Option func(*Controller)

// WithCeiling sets the automatic release delay. Non-positive values keep the default.
func WithCeiling(d time.Duration) Option {
	return func(c *Controller) {
		if d > 0 {
			c.ceiling = d
		}
	}
}

// WithLogger sets the controller's logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Controller) {
		if l != nil {
			c.logger = l
		}
	}
}

// OnAutoRelease registers a callback run after the ceiling forces a release.
func OnAutoRelease(fn func(target string, heldFor time.Duration)) Option {
	return func(c *Controller) { c.onAutoRelease = fn }
}

// New creates a Controller.
func New(surface dom.Surface, scheduler sched.Scheduler, opts ...Option) *Controller {
	c := &Controller{
		surface:   surface,
		scheduler: scheduler,
		ceiling:   DefaultCeiling,
		logger:    slog.Default(),
		armed:     make(map[string]*toggle),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = c.logger.With("component", "busy")
	return c
}

// Arm marks target busy and schedules its automatic release. Arming an
// already busy target restarts the ceiling.
func (c *Controller) Arm(target string) {
	if prev, ok := c.armed[target]; ok {
		c.scheduler.Cancel(prev.tok)
	}

	t := &toggle{armedAt: c.scheduler.Now()}
	c.armed[target] = t
	c.apply(target, true)

	t.tok = c.scheduler.Schedule(c.ceiling, func() {
		// A newer Arm replaces the toggle; only the current one may release.
		if c.armed[target] != t {
			return
		}
		held := c.scheduler.Now().Sub(t.armedAt)
		c.logger.Warn("auto-releasing busy control", "target", target, "held_for", held)
		c.release(target)
		if c.onAutoRelease != nil {
			c.onAutoRelease(target, held)
		}
	})
}

// Release clears target's busy state and cancels its automatic release.
// Releasing an idle target is a no-op.
func (c *Controller) Release(target string) {
	t, ok := c.armed[target]
	if !ok {
		return
	}
	c.scheduler.Cancel(t.tok)
	c.release(target)
}

// ReleaseAll releases every busy target.
func (c *Controller) ReleaseAll() {
	for target := range c.armed {
		c.Release(target)
	}
}

// IsBusy reports whether target is busy.
func (c *Controller) IsBusy(target string) bool {
	_, ok := c.armed[target]
	return ok
}

// Pending returns the number of scheduled automatic releases.
func (c *Controller) Pending() int {
	return len(c.armed)
}

func (c *Controller) release(target string) {
	delete(c.armed, target)
	c.apply(target, false)
}

// apply mirrors the state onto the surface. A missing element does not
// stop state tracking.
func (c *Controller) apply(target string, busy bool) {
	var err error
	if busy {
		if err = c.surface.AddClass(target, BusyClass); err == nil {
			err = c.surface.SetAttr(target, DisabledAttr, "")
		}
	} else {
		if err = c.surface.RemoveClass(target, BusyClass); err == nil {
			err = c.surface.RemoveAttr(target, DisabledAttr)
		}
	}
	if err != nil {
		c.logger.Debug("busy state not rendered", "target", target, "busy", busy, "error", err)
	}
}
