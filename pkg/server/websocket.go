package server

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/vango-dev/metalens/pkg/sched"
)

// HandleWebSocket upgrades the request and runs a live session until the
// client goes away.
func (s *Server) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	if max := s.config.Server.MaxSessions; max > 0 && s.sessions.Count() >= max {
		http.Error(w, "Too many sessions", http.StatusServiceUnavailable)
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already written the error response.
		s.logger.Warn("websocket upgrade failed", "error", err)
		s.metrics.RecordWebSocketError("upgrade")
		return
	}

	id := uuid.NewString()
	owner := clientID(r)
	if owner == "" {
		owner = id
	}

	loop := sched.NewLoop(s.config.Server.MaxEventQueue, s.logger)
	sess := newSession(s, id, owner, loop)
	sess.conn = conn
	sess.setup(sched.NewReal(sess))

	if err := s.sessions.Add(sess); err != nil {
		s.logger.Warn("session rejected", "error", err)
		sess.Close()
		return
	}
	s.metrics.RecordSessionOpen()
	defer s.metrics.RecordSessionClose()

	go loop.Run(sess.ctx)
	if interval := s.config.Server.ReadTimeout / 2; interval > 0 {
		go sess.heartbeat(interval)
	}

	sess.logger.Info("session opened", "owner", owner, "remote", r.RemoteAddr)

	var renderErr error
	if err := loop.Do(sess.ctx, func() { renderErr = sess.render() }); err != nil || renderErr != nil {
		sess.logger.Warn("initial render failed", "error", err, "render_error", renderErr)
		sess.Close()
		return
	}

	sess.ReadLoop()
}
