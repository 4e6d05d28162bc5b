// Package events publishes session telemetry to NATS JetStream.
// Publishing is optional and strictly one-way: nothing consumed from
// the bus feeds back into the turn pipeline.
package events

import (
	"time"

	"github.com/google/uuid"
)

// Stream and subject constants.
const (
	StreamEvents = "VOXLINK_EVENTS"

	SubjectSessionEvent = "voxlink.events.session"
	SubjectTurnEvent    = "voxlink.events.turn"
	SubjectSynergyEvent = "voxlink.events.synergy"
)

// SessionEvent marks a session starting or ending.
type SessionEvent struct {
	SessionID uuid.UUID `json:"session_id"`
	EventType string    `json:"event_type"` // "session_started", "session_ended"
	Timestamp time.Time `json:"timestamp"`
}

// TurnEvent is published when a conversation turn reaches a terminal state.
type TurnEvent struct {
	SessionID   uuid.UUID `json:"session_id"`
	UtteranceID uuid.UUID `json:"utterance_id"`
	Outcome     string    `json:"outcome"` // "success", "fallback"
	VoiceInput  bool      `json:"voice_input"`
	AudioOutput bool      `json:"audio_output"`
	Duration    float64   `json:"duration_seconds"`
	Timestamp   time.Time `json:"timestamp"`
}

// SynergyEvent is published when the extractor detects a synergy opportunity.
type SynergyEvent struct {
	SessionID      uuid.UUID `json:"session_id"`
	SynergyID      uuid.UUID `json:"synergy_id"`
	Title          string    `json:"title"`
	EstimatedValue float64   `json:"estimated_value"`
	Confidence     float64   `json:"confidence"`
	Timestamp      time.Time `json:"timestamp"`
}
