package events

import (
	"context"
	"time"

	"github.com/google/uuid"
)

const (
	EventSource  = "prep-service"
	EventVersion = "1.0"
)

// Event types
const (
	EventSessionCompleted  = "session.completed"
	EventSessionAbandoned  = "session.abandoned"
	EventAttemptRecorded   = "attempt.recorded"
	EventPredictionUpdated = "prediction.updated"
)

// Event is the envelope of everything published by this service
type Event struct {
	ID        string    `json:"id"`
	Type      string    `json:"type"`
	Source    string    `json:"source"`
	Version   string    `json:"version"`
	Timestamp time.Time `json:"timestamp"`
	UserID    string    `json:"user_id"`
	Data      any       `json:"data"`
}

// NewEvent stamps a payload with a fresh id and the current time
func NewEvent(eventType, userID string, data any) *Event {
	return &Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		Source:    EventSource,
		Version:   EventVersion,
		Timestamp: time.Now().UTC(),
		UserID:    userID,
		Data:      data,
	}
}

// EventPublisher publishes domain events. Publishing is fire-and-forget for
// callers: a failure is reported but never rolls back the operation.
type EventPublisher interface {
	Publish(ctx context.Context, event *Event) error
	Close() error
}

// ===== PAYLOADS =====

type SessionCompletedEvent struct {
	SessionID        string   `json:"session_id"`
	Mode             string   `json:"mode"`
	Answered         int      `json:"answered"`
	Correct          int      `json:"correct"`
	ScorePercent     float64  `json:"score_percent"`
	TimeSpentSeconds int      `json:"time_spent_seconds"`
	Topics           []string `json:"topics"`
}

type SessionAbandonedEvent struct {
	SessionID string `json:"session_id"`
	Answered  int    `json:"answered"`
}

type AttemptRecordedEvent struct {
	AttemptID      uint   `json:"attempt_id"`
	Source         string `json:"source"`
	SessionID      string `json:"session_id,omitempty"`
	TotalQuestions int    `json:"total_questions"`
	CorrectAnswers int    `json:"correct_answers"`
}

type PredictionUpdatedEvent struct {
	SnapshotDate        string  `json:"snapshot_date"`
	PredictedStep1Score int     `json:"predicted_step1_score"`
	PredictedStep2Score int     `json:"predicted_step2_score"`
	PassProbability     float64 `json:"pass_probability_step1"`
	Percentile          int     `json:"percentile"`
	Trend               string  `json:"trend,omitempty"`
}
