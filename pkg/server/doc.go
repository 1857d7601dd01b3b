// Package server serves the metalens page, its live sessions and the JSON
// API.
//
// Every browser tab holds one WebSocket session. The session owns the
// server-side page model (a dom.Document), a transient notifier and a
// busy-state controller, all driven from a single event loop:
//
//	browser event ──► ReadLoop ──► Loop.Dispatch ──► handler ──► Flush ──► patches
//	timer fires   ──► sched.Real ─┘
//
// Handlers never touch the socket directly. After each handler (and each
// fired timer) the document's pending patches are flushed to the client
// as one message.
//
// The page is also rendered on plain HTTP requests, so GET / and the
// POST /analyze form fallback work without JavaScript.
package server
