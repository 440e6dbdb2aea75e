package websocket

import "github.com/codepractice/codepractice-backend/internal/model"

// ─── Actions (Client → Server) ──────────────────────────────────────

type Action string

const (
	ActionPing Action = "ping"
)

// RequestEnvelope is the only client message shape on the change feed.
type RequestEnvelope struct {
	Action Action `json:"action"`
}

// ─── Events (Server → Client) ───────────────────────────────────────

type Event string

const (
	EventReady   Event = "ready"
	EventChanged Event = "problems.changed"
	EventError   Event = "error"
	EventPong    Event = "pong"
)

// ReadyResponse is sent once after the subscription is open.
type ReadyResponse struct {
	Event Event `json:"event"`
}

// ChangedResponse tells the client to reload its problem list.
type ChangedResponse struct {
	Event  Event              `json:"event"`
	Change model.ProblemEvent `json:"change"`
}

type ErrorResponse struct {
	Event Event  `json:"event"`
	Error string `json:"error"`
}

type PongResponse struct {
	Event Event `json:"event"`
}
