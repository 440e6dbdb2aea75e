package model

import "time"

// ProblemEventType names a change-feed event.
type ProblemEventType string

const (
	ProblemEventChanged ProblemEventType = "problems.changed"
)

// ProblemEvent is published after the problem collection changes structurally.
type ProblemEvent struct {
	Type   ProblemEventType `json:"type"`
	Reason string           `json:"reason"`
	DocID  string           `json:"doc_id,omitempty"`
	Count  int              `json:"count"`
	Writes int              `json:"writes"`
	At     time.Time        `json:"at"`
}
