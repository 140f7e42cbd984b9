package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/noah-isme/ielts-prep-api/internal/models"
)

// EvaluationEvent is published after every evaluation attempt, successful or not.
type EvaluationEvent struct {
	SessionID     uint      `json:"session_id"`
	UserID        uint      `json:"user_id"`
	PromptID      uint      `json:"prompt_id"`
	Module        string    `json:"module"`
	Status        string    `json:"status"`
	OverallBand   *float64  `json:"overall_band,omitempty"`
	Provider      string    `json:"provider,omitempty"`
	CorrelationID string    `json:"correlation_id,omitempty"`
	OccurredAt    time.Time `json:"occurred_at"`
}

// EventPublisher fans evaluation events out to other services.
type EventPublisher interface {
	PublishEvaluation(ctx context.Context, event EvaluationEvent) error
}

type natsPublisher struct {
	conn    *nats.Conn
	subject string
}

// NewNATSPublisher publishes to "<base>.evaluation.completed" or
// "<base>.evaluation.failed". A nil connection yields a publisher that drops
// every event.
func NewNATSPublisher(conn *nats.Conn, subjectBase string) EventPublisher {
	if conn == nil {
		return noopPublisher{}
	}
	subjectBase = strings.Trim(strings.ReplaceAll(subjectBase, ":", "."), ".")
	if subjectBase == "" {
		subjectBase = "ielts"
	}
	return &natsPublisher{conn: conn, subject: subjectBase + ".evaluation"}
}

func (p *natsPublisher) PublishEvaluation(_ context.Context, event EvaluationEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal evaluation event: %w", err)
	}
	if err := p.conn.Publish(p.subject+"."+eventSuffix(event.Status), payload); err != nil {
		return fmt.Errorf("publish evaluation event: %w", err)
	}
	return nil
}

func eventSuffix(status string) string {
	if status == models.SessionStatusFailed {
		return "failed"
	}
	return "completed"
}

type noopPublisher struct{}

func (noopPublisher) PublishEvaluation(context.Context, EvaluationEvent) error {
	return nil
}
