package server

import "github.com/vango-dev/metalens/pkg/dom"

// Client event types.
const (
	EventSubmit  = "submit"
	EventExample = "example"
	EventDismiss = "dismiss"
	EventTheme   = "theme"
	EventCopied  = "copied"
	EventClear   = "clear"
)

// Server message types.
const (
	MessageRender = "render"
	MessagePatch  = "patch"
	MessageError  = "error"
)

// ClientEvent is a browser event sent over the socket.
type ClientEvent struct {
	Type string `json:"type"`
	URL  string `json:"url,omitempty"`
	ID   string `json:"id,omitempty"`
	OK   bool   `json:"ok,omitempty"`
}

// ServerMessage is a message pushed to the browser. A render message
// carries the whole body; a patch message carries the changes since the
// previous message.
type ServerMessage struct {
	Type    string      `json:"type"`
	HTML    string      `json:"html,omitempty"`
	Patches []dom.Patch `json:"patches,omitempty"`
	Message string      `json:"message,omitempty"`
}
