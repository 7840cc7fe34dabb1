package domain

import (
	"context"
	"time"
)

// EventType defines the category of the event.
type EventType string

const (
	EventStateChange EventType = "state_change"
	EventCascade     EventType = "cascade"
	EventTurnStart   EventType = "turn_start"
	EventTurnEnd     EventType = "turn_end"
	EventTimeout     EventType = "timeout"
)

// EventBase contains common fields for all events.
type EventBase struct {
	Timestamp time.Time `json:"timestamp"`
	Type      EventType `json:"type"`
	Dialogue  string    `json:"dialogue"`
}

// StateEvent records a state assignment on a resource.
type StateEvent struct {
	EventBase
	Resource string        `json:"resource"`
	From     ResourceState `json:"from"`
	To       ResourceState `json:"to"`
}

// CascadeEvent records ancestors forced back to unfulfilled by a downgrade.
type CascadeEvent struct {
	EventBase
	Origin    string   `json:"origin"`
	Ancestors []string `json:"ancestors"`
}

// TurnEvent describes one processed utterance.
type TurnEvent struct {
	EventBase
	ClientID   string        `json:"client_id"`
	Focus      string        `json:"focus,omitempty"`
	Understood bool          `json:"understood"`
	Finished   bool          `json:"finished,omitempty"`
	Duration   time.Duration `json:"duration,omitempty"`
	Err        error         `json:"-"`
}

// Outcome summarizes the turn for metrics labels.
func (e *TurnEvent) Outcome() string {
	switch {
	case e.Err != nil:
		return "error"
	case e.Finished:
		return "finished"
	case !e.Understood:
		return "not_understood"
	default:
		return "answered"
	}
}

// LifecycleHooks defines callbacks for dialogue observability.
// State and cascade hooks fire synchronously inside a turn and must not block.
type LifecycleHooks struct {
	OnStateChange func(*StateEvent)
	OnCascade     func(*CascadeEvent)
	OnTurnStart   func(context.Context, *TurnEvent)
	OnTurnEnd     func(context.Context, *TurnEvent)
	OnTimeout     func(context.Context, *TurnEvent)
}
