package events

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/nats-io/nats.go/jetstream"
)

// Publisher provides typed methods for publishing session telemetry.
// A nil Publisher is valid and drops every event, so callers never
// need to branch on whether the bus is configured.
type Publisher struct {
	js jetstream.JetStream
}

// NewPublisher creates a Publisher, or nil when client is nil.
func NewPublisher(client *Client) *Publisher {
	if client == nil {
		return nil
	}
	return &Publisher{js: client.JetStream()}
}

// SessionStarted publishes a session lifecycle event.
func (p *Publisher) SessionStarted(ctx context.Context, ev SessionEvent) {
	ev.EventType = "session_started"
	p.publish(ctx, SubjectSessionEvent, ev)
}

// SessionEnded publishes a session lifecycle event.
func (p *Publisher) SessionEnded(ctx context.Context, ev SessionEvent) {
	ev.EventType = "session_ended"
	p.publish(ctx, SubjectSessionEvent, ev)
}

// TurnCompleted publishes a terminal turn event.
func (p *Publisher) TurnCompleted(ctx context.Context, ev TurnEvent) {
	p.publish(ctx, SubjectTurnEvent, ev)
}

// SynergyDetected publishes a synergy detection event.
func (p *Publisher) SynergyDetected(ctx context.Context, ev SynergyEvent) {
	p.publish(ctx, SubjectSynergyEvent, ev)
}

func (p *Publisher) publish(ctx context.Context, subject string, payload any) {
	if p == nil {
		return
	}
	data, err := json.Marshal(payload)
	if err != nil {
		slog.Error("marshaling event", "subject", subject, "error", err)
		return
	}
	if _, err := p.js.Publish(ctx, subject, data); err != nil {
		// Telemetry only; a bus outage must never fail a turn.
		slog.Warn("publishing event", "subject", subject, "error", err)
		return
	}
	slog.Debug("published event", "subject", subject, "bytes", len(data))
}
