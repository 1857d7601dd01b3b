package server

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"github.com/vango-dev/metalens/internal/errors"
	"github.com/vango-dev/metalens/pkg/busy"
	"github.com/vango-dev/metalens/pkg/dom"
	"github.com/vango-dev/metalens/pkg/pref"
	"github.com/vango-dev/metalens/pkg/sched"
	"github.com/vango-dev/metalens/pkg/seo"
	"github.com/vango-dev/metalens/pkg/toast"
)

// highlightDuration is how long the URL input stays highlighted after an
// example is picked.
const highlightDuration = 200 * time.Millisecond

// Session is one live page connection. Everything except the socket
// plumbing runs on the session loop.
type Session struct {
	ID    string
	owner string

	server *Server
	conn   *websocket.Conn
	loop   sched.Dispatcher
	clock  sched.Scheduler
	logger *slog.Logger

	// spawn runs blocking work off the loop.
	spawn func(func())

	// send delivers a message to the client.
	send func(ServerMessage) error

	doc    *dom.Document
	toasts *toast.Notifier
	busy   *busy.Controller
	theme  *pref.Pref[pref.Theme]

	highlight sched.Token

	// submitSeq identifies the latest submit. Loop-owned.
	submitSeq uint64

	ctx    context.Context
	cancel context.CancelFunc

	mu     sync.Mutex // serializes socket writes
	done   chan struct{}
	closed atomic.Bool

	eventCount atomic.Int64
	patchCount atomic.Int64
	bytesSent  atomic.Int64
	bytesRecv  atomic.Int64
}

func newSession(srv *Server, id, owner string, loop sched.Dispatcher) *Session {
	ctx, cancel := context.WithCancel(context.Background())
	s := &Session{
		ID:     id,
		owner:  owner,
		server: srv,
		loop:   loop,
		logger: srv.logger.With("session_id", id),
		spawn:  func(fn func()) { go fn() },
		ctx:    ctx,
		cancel: cancel,
		done:   make(chan struct{}),
	}
	s.send = s.writeMessage
	return s
}

// setup builds the page model and its feedback controllers on clock.
func (s *Session) setup(clock sched.Scheduler) {
	s.clock = clock
	s.doc = newPage(pref.ThemeLight)

	metrics := s.server.metrics
	s.toasts = toast.New(s.doc, clock,
		toast.WithPolicy(s.server.feedbackPolicy()),
		toast.WithLogger(s.logger),
		toast.OnShow(func(n toast.Notification) {
			metrics.RecordToast(string(n.Severity))
		}),
	)
	s.busy = busy.New(s.doc, clock,
		busy.WithCeiling(s.server.config.Feedback.BusyCeiling),
		busy.WithLogger(s.logger),
		busy.OnAutoRelease(func(target string, heldFor time.Duration) {
			metrics.RecordAutoRelease()
			s.logger.Warn("busy state auto-released", "target", target, "held_for", heldFor)
			s.toasts.Warning("The analysis is taking longer than expected. You can try again.")
		}),
	)

	s.theme = pref.NewTheme(pref.WithLogger(s.logger))
	s.theme.OnChange(func(t pref.Theme) {
		if err := pref.ApplyTheme(s.doc, t); err != nil {
			s.logger.Warn("apply theme failed", "theme", t, "error", err)
		}
	})
	if s.server.store != nil {
		if err := s.theme.Bind(s.ctx, s.server.store, s.owner); err != nil {
			s.logger.Warn("load theme failed", "owner", s.owner, "error", err)
		}
	}
}

// Dispatch runs fn on the session loop and flushes the patches it
// produced. It implements sched.Dispatcher, so fired timers flush too.
func (s *Session) Dispatch(fn func()) bool {
	return s.loop.Dispatch(func() {
		fn()
		s.flush()
	})
}

// handleEvent applies one client event. Runs on the loop.
func (s *Session) handleEvent(ev ClientEvent) error {
	s.eventCount.Add(1)

	var err error
	label := ev.Type
	switch ev.Type {
	case EventSubmit:
		s.submit(ev.URL)
	case EventExample:
		err = s.fillExample(ev.URL)
	case EventDismiss:
		s.toasts.Dismiss(toast.Handle(ev.ID))
	case EventTheme:
		s.theme.Set(s.theme.Get().Toggle())
	case EventClear:
		err = s.clearInput()
	case EventCopied:
		if ev.OK {
			s.toasts.Success("Copied to clipboard!")
		} else {
			s.toasts.Error("Failed to copy to clipboard")
		}
	default:
		label = "unknown"
		err = fmt.Errorf("unknown event type %q", ev.Type)
	}
	s.server.metrics.RecordSessionEvent(label, err)
	return err
}

func (s *Session) submit(raw string) {
	target := strings.TrimSpace(raw)
	if target == "" {
		markInvalid(s.doc)
		s.toasts.Error(errors.UserMessage(errors.New(errors.CodeEmptyURL)))
		return
	}
	if s.busy.IsBusy(buttonID) {
		return
	}

	clearValidation(s.doc)
	s.busy.Arm(buttonID)
	s.submitSeq++
	seq := s.submitSeq
	s.spawn(func() {
		res, err := s.server.analyze(s.ctx, target)
		if !s.Dispatch(func() { s.finish(seq, res, err) }) && !s.closed.Load() {
			s.logger.Warn("analysis result dropped", "url", target)
		}
	})
}

// finish shows the outcome of the analysis started by submit seq. A
// result overtaken by a newer submit is dropped, leaving the newer busy
// state alone. Runs on the loop.
func (s *Session) finish(seq uint64, res *seo.Result, err error) {
	if seq != s.submitSeq {
		s.logger.Info("stale analysis result dropped", "seq", seq, "latest", s.submitSeq)
		return
	}
	s.busy.Release(buttonID)
	if err != nil {
		switch errors.CodeOf(err) {
		case errors.CodeInvalidURL, errors.CodeEmptyURL:
			markInvalid(s.doc)
		}
		s.toasts.Error(errors.UserMessage(err))
		return
	}

	if err := renderResult(s.doc, res); err != nil {
		s.logger.Warn("render result failed", "id", res.ID, "error", err)
		return
	}
	_ = s.doc.AddClass(inputID, validClass)
	s.toasts.Success(fmt.Sprintf("Analysis complete: %d/100", res.Score()))
}

// fillExample puts u in the URL input and highlights it briefly. A new
// pick cancels the pending un-highlight before scheduling its own.
func (s *Session) fillExample(u string) error {
	if err := s.doc.SetAttr(inputID, "value", u); err != nil {
		return err
	}
	clearValidation(s.doc)

	s.clock.Cancel(s.highlight)
	if err := s.doc.AddClass(inputID, highlightClass); err != nil {
		return err
	}
	s.highlight = s.clock.Schedule(highlightDuration, func() {
		s.highlight = 0
		_ = s.doc.RemoveClass(inputID, highlightClass)
	})
	return nil
}

// clearInput empties the URL input, keeping the server copy of its value
// in step with the browser.
func (s *Session) clearInput() error {
	if err := s.doc.SetAttr(inputID, "value", ""); err != nil {
		return err
	}
	clearValidation(s.doc)
	return nil
}

func markInvalid(doc dom.Surface) {
	_ = doc.RemoveClass(inputID, validClass)
	_ = doc.AddClass(inputID, invalidClass)
}

func clearValidation(doc dom.Surface) {
	_ = doc.RemoveClass(inputID, invalidClass, validClass)
}

// render sends the whole page, discarding pending patches.
func (s *Session) render() error {
	s.doc.Flush()
	return s.send(ServerMessage{Type: MessageRender, HTML: s.doc.HTML()})
}

// flush sends pending patches, if any.
func (s *Session) flush() {
	patches := s.doc.Flush()
	if len(patches) == 0 {
		return
	}
	if err := s.send(ServerMessage{Type: MessagePatch, Patches: patches}); err != nil {
		s.logger.Warn("send patches failed", "count", len(patches), "error", err)
		return
	}
	s.patchCount.Add(int64(len(patches)))
	s.server.metrics.RecordPatches(len(patches))
}

func (s *Session) writeMessage(msg ServerMessage) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed.Load() {
		return ErrSessionClosed
	}
	if s.conn == nil {
		return ErrNoConnection
	}

	_ = s.conn.SetWriteDeadline(time.Now().Add(s.server.config.Server.WriteTimeout))
	if err := s.conn.WriteMessage(websocket.TextMessage, data); err != nil {
		s.server.metrics.RecordWebSocketError("write")
		return err
	}
	s.bytesSent.Add(int64(len(data)))
	return nil
}

// ReadLoop reads client events until the connection closes, then closes
// the session.
func (s *Session) ReadLoop() {
	defer s.Close()

	readTimeout := s.server.config.Server.ReadTimeout
	s.conn.SetReadLimit(s.server.config.Server.MaxMessageSize)
	s.conn.SetPongHandler(func(string) error {
		return s.conn.SetReadDeadline(time.Now().Add(readTimeout))
	})

	for {
		_ = s.conn.SetReadDeadline(time.Now().Add(readTimeout))

		_, msg, err := s.conn.ReadMessage()
		if err != nil {
			if stderrors.Is(err, websocket.ErrReadLimit) {
				s.logger.Warn("client message too large", "limit", s.server.config.Server.MaxMessageSize)
				s.server.metrics.RecordWebSocketError("read_limit")
				return
			}
			if websocket.IsUnexpectedCloseError(err,
				websocket.CloseGoingAway,
				websocket.CloseAbnormalClosure,
				websocket.CloseNormalClosure) {
				s.logger.Error("read error", "error", err)
				s.server.metrics.RecordWebSocketError("read")
			}
			return
		}
		s.bytesRecv.Add(int64(len(msg)))

		var ev ClientEvent
		if err := json.Unmarshal(msg, &ev); err != nil {
			s.logger.Warn("event decode error", "error", err)
			s.server.metrics.RecordWebSocketError("decode")
			continue
		}

		if !s.Dispatch(func() {
			if err := s.handleEvent(ev); err != nil {
				s.logger.Warn("event failed", "type", ev.Type, "error", err)
			}
		}) {
			s.logger.Warn("event dropped", "type", ev.Type)
		}
	}
}

// heartbeat pings the client until the session closes.
func (s *Session) heartbeat(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-s.done:
			return
		case <-ticker.C:
			if err := s.sendPing(); err != nil {
				return
			}
		}
	}
}

func (s *Session) sendPing() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed.Load() {
		return ErrSessionClosed
	}
	if s.conn == nil {
		return ErrNoConnection
	}

	deadline := time.Now().Add(s.server.config.Server.WriteTimeout)
	if err := s.conn.WriteControl(websocket.PingMessage, nil, deadline); err != nil {
		s.logger.Error("ping error", "error", err)
		return err
	}
	return nil
}

// Done is closed when the session closes.
func (s *Session) Done() <-chan struct{} { return s.done }

// Close stops the session: in-flight analyses are cancelled, pending
// timers are stopped and the socket is closed.
func (s *Session) Close() {
	if s.closed.Swap(true) {
		return
	}

	s.cancel()
	if st, ok := s.clock.(interface{ Stop() }); ok {
		st.Stop()
	}
	if c, ok := s.loop.(interface{ Close() }); ok {
		c.Close()
	}
	close(s.done)

	s.mu.Lock()
	if s.conn != nil {
		_ = s.conn.WriteControl(
			websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(time.Second),
		)
		_ = s.conn.Close()
	}
	s.mu.Unlock()

	s.server.sessions.Remove(s.ID)
	s.logger.Info("session closed",
		"events", s.eventCount.Load(),
		"patches", s.patchCount.Load(),
		"bytes_sent", s.bytesSent.Load(),
		"bytes_recv", s.bytesRecv.Load())
}
