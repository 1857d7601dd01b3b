package toast

import (
	"errors"
	"log/slog"
	"slices"
	"time"

	"github.com/google/uuid"

	"github.com/vango-dev/metalens/pkg/dom"
	"github.com/vango-dev/metalens/pkg/sched"
)

const (
	// ContainerID is the ID of the element that hosts the notification stack.
	ContainerID = "toast-container"

	// DismissAttr marks a close button with the handle it dismisses.
	DismissAttr = "data-dismiss-toast"

	containerClass = "toast-container position-fixed top-0 end-0 p-3"
)

// Handle identifies a notification for early dismissal.
type Handle string

// Notification is an immutable record of a shown message.
type Notification struct {
	ID        Handle
	Message   string
	Severity  Severity
	CreatedAt time.Time
}

// ElementID returns the surface ID of the notification's element.
func (n Notification) ElementID() string {
	return "toast-" + string(n.ID)
}

type entry struct {
	n   Notification
	tok sched.Token
}

// Notifier renders transient notifications onto a surface.
type Notifier struct {
	surface   dom.Surface
	scheduler sched.Scheduler
	policy    Policy
	logger    *slog.Logger
	newID     func() string
	onShow    func(Notification)

	active []*entry
	byID   map[Handle]*entry
}

// Option configures a Notifier.
type Option func(*Notifier)

// WithPolicy sets the dismiss delays.
func WithPolicy(p Policy) Option {
	return func(n *Notifier) { n.policy = p }
}

// WithLogger sets the logger used for swallowed render failures.
func WithLogger(l *slog.Logger) Option {
	return func(n *Notifier) {
		if l != nil {
			n.logger = l
		}
	}
}

// WithIDFunc overrides handle generation.
func WithIDFunc(fn func() string) Option {
	return func(n *Notifier) { n.newID = fn }
}

// OnShow registers a callback invoked for every new notification.
func OnShow(fn func(Notification)) Option {
	return func(n *Notifier) { n.onShow = fn }
}

// New creates a Notifier drawing on surface with timers from scheduler.
func New(surface dom.Surface, scheduler sched.Scheduler, opts ...Option) *Notifier {
	n := &Notifier{
		surface:   surface,
		scheduler: scheduler,
		policy:    DefaultPolicy(),
		logger:    slog.Default(),
		newID:     uuid.NewString,
		byID:      make(map[Handle]*entry),
	}
	for _, opt := range opts {
		opt(n)
	}
	n.logger = n.logger.With("component", "toast")
	return n
}

// Notify appends a notification to the stack and schedules its dismissal.
// Unknown severities are shown as info.
func (n *Notifier) Notify(message string, severity Severity) Handle {
	if !severity.Valid() {
		severity = SeverityInfo
	}
	e := &entry{n: Notification{
		ID:        Handle(n.newID()),
		Message:   message,
		Severity:  severity,
		CreatedAt: n.scheduler.Now(),
	}}
	n.active = append(n.active, e)
	n.byID[e.n.ID] = e

	if err := n.render(e.n); err != nil {
		n.logger.Warn("toast render failed",
			"id", e.n.ID,
			"severity", severity,
			"error", err)
	}

	h := e.n.ID
	e.tok = n.scheduler.Schedule(n.policy.Delay(severity), func() {
		n.Dismiss(h)
	})

	if n.onShow != nil {
		n.onShow(e.n)
	}
	return h
}

// Dismiss removes a notification and cancels its timer.
// Dismissing an unknown or already dismissed handle is a no-op.
func (n *Notifier) Dismiss(h Handle) {
	e, ok := n.byID[h]
	if !ok {
		return
	}
	delete(n.byID, h)
	n.active = slices.DeleteFunc(n.active, func(x *entry) bool { return x == e })
	n.scheduler.Cancel(e.tok)

	if err := n.surface.Remove(e.n.ElementID()); err != nil && !errors.Is(err, dom.ErrNotFound) {
		n.logger.Warn("toast remove failed", "id", h, "error", err)
	}
}

// DismissAll dismisses every visible notification.
func (n *Notifier) DismissAll() {
	for _, e := range slices.Clone(n.active) {
		n.Dismiss(e.n.ID)
	}
}

// Active returns the visible notifications in render order.
func (n *Notifier) Active() []Notification {
	out := make([]Notification, len(n.active))
	for i, e := range n.active {
		out[i] = e.n
	}
	return out
}

// Len returns the number of visible notifications.
func (n *Notifier) Len() int { return len(n.active) }

// Info shows an info notification.
func (n *Notifier) Info(message string) Handle { return n.Notify(message, SeverityInfo) }

// Success shows a success notification.
//
//	s.toasts.Success("Copied to clipboard!")
func (n *Notifier) Success(message string) Handle { return n.Notify(message, SeveritySuccess) }

// Warning shows a warning notification.
func (n *Notifier) Warning(message string) Handle { return n.Notify(message, SeverityWarning) }

// Error shows an error notification.
//
//	s.toasts.Error("Failed to copy to clipboard")
func (n *Notifier) Error(message string) Handle { return n.Notify(message, SeverityError) }

func (n *Notifier) render(note Notification) error {
	if err := n.ensureContainer(); err != nil {
		return err
	}

	body := n.surface.Create("div", "").AddClass("toast-body").SetText(note.Message)
	closeBtn := n.surface.Create("button", "").
		AddClass("btn-close btn-close-white me-2 m-auto").
		SetAttr("type", "button").
		SetAttr("aria-label", "Close").
		SetAttr(DismissAttr, string(note.ID))

	el := n.surface.Create("div", note.ElementID()).
		AddClass("toast show align-items-center", "text-bg-"+note.Severity.Variant()).
		SetAttr("role", "alert").
		SetAttr("aria-live", "assertive").
		SetAttr("aria-atomic", "true").
		AppendChild(n.surface.Create("div", "").AddClass("d-flex").AppendChild(body, closeBtn))

	return n.surface.Append(ContainerID, el)
}

func (n *Notifier) ensureContainer() error {
	if _, ok := n.surface.Lookup(ContainerID); ok {
		return nil
	}
	c := n.surface.Create("div", ContainerID).
		AddClass(containerClass).
		SetAttr("style", "z-index: 1055")
	return n.surface.Append(dom.BodyID, c)
}
