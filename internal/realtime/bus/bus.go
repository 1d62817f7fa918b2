// Package bus carries engine events (turn processed, fallback served, depth
// limit reached) to any interested observer: metrics, debugging UIs, or the
// rendering layer. Explicit publication replaces any notion of a global
// tracking hook; no state is ever attached to shared globals.
package bus

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Event types published by the orchestrator.
const (
	EventTurnProcessed     = "turn_processed"
	EventFallbackServed    = "fallback_served"
	EventDepthLimitReached = "depth_limit_reached"
	EventStageAdvanced     = "stage_advanced"
)

// Event is one engine occurrence, scoped to a session.
type Event struct {
	Type      string    `json:"type"`
	SessionID uuid.UUID `json:"session_id"`
	Stage     string    `json:"stage"`
	Slot      string    `json:"slot"`
	Intent    string    `json:"intent,omitempty"`
	Detail    string    `json:"detail,omitempty"`
	At        time.Time `json:"at"`
}

// Bus publishes engine events and forwards them to a consumer.
type Bus interface {
	Publish(ctx context.Context, ev Event) error
	StartForwarder(ctx context.Context, onEvent func(ev Event)) error
	Close() error
}
