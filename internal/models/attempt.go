package models

import (
	"time"

	"gorm.io/datatypes"

	"github.com/SAP-F-2025/prep-service/internal/scoring"
)

type AttemptSource string

const (
	AttemptSourcePractice   AttemptSource = "practice_session"
	AttemptSourceAssessment AttemptSource = "assessment"
)

type TopicScore = scoring.TopicScore

type TopicPerformance map[string]TopicScore

// AttemptRecord is an immutable summary of a completed practice session or
// assessment. It is created once and only read afterwards.
type AttemptRecord struct {
	ID     uint          `json:"id" gorm:"primaryKey"`
	UserID string        `json:"user_id" gorm:"not null;size:255;index:idx_attempt_user_created,priority:1"`
	Source AttemptSource `json:"source" gorm:"not null;size:30"`

	// At most one record per practice session
	SessionID *string `json:"session_id,omitempty" gorm:"uniqueIndex;size:36"`

	TotalQuestions   int                                  `json:"total_questions" gorm:"not null"`
	CorrectAnswers   int                                  `json:"correct_answers" gorm:"not null"`
	TimeTakenSeconds int                                  `json:"time_taken_seconds"`
	TopicPerformance datatypes.JSONType[TopicPerformance] `json:"topic_performance" gorm:"type:jsonb"`

	CreatedAt time.Time `json:"created_at" gorm:"index:idx_attempt_user_created,priority:2"`
}

func (AttemptRecord) TableName() string {
	return "attempt_records"
}

// Accuracy is the percent of questions answered correctly, 0 when empty
func (a *AttemptRecord) Accuracy() float64 {
	if a.TotalQuestions <= 0 {
		return 0
	}
	return 100 * float64(a.CorrectAnswers) / float64(a.TotalQuestions)
}

// ToScoring converts the record into the aggregator input
func (a *AttemptRecord) ToScoring() scoring.Attempt {
	return scoring.Attempt{
		TotalQuestions:   a.TotalQuestions,
		CorrectAnswers:   a.CorrectAnswers,
		TimeTakenSeconds: a.TimeTakenSeconds,
		TopicPerformance: a.TopicPerformance.Data(),
		CreatedAt:        a.CreatedAt,
	}
}
