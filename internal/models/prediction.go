package models

import (
	"time"

	"gorm.io/datatypes"

	"github.com/SAP-F-2025/prep-service/internal/scoring"
)

// SnapshotDateLayout is the calendar-day key of a prediction snapshot
const SnapshotDateLayout = "2006-01-02"

// PredictionSnapshot keeps one prediction per user per calendar day.
// Later predictions on the same day overwrite the earlier one.
type PredictionSnapshot struct {
	ID     uint   `json:"id" gorm:"primaryKey"`
	UserID string `json:"user_id" gorm:"not null;size:255;uniqueIndex:idx_prediction_user_date"`
	// YYYY-MM-DD, compared lexically
	SnapshotDate string `json:"snapshot_date" gorm:"not null;size:10;uniqueIndex:idx_prediction_user_date"`

	PredictedStep1Score  int     `json:"predicted_step1_score"`
	PredictedStep2Score  int     `json:"predicted_step2_score"`
	PassProbabilityStep1 float64 `json:"pass_probability_step1"`
	PassProbabilityStep2 float64 `json:"pass_probability_step2"`
	MatchProbability     float64 `json:"match_probability"`
	ConfidenceLow        int     `json:"confidence_low"`
	ConfidenceHigh       int     `json:"confidence_high"`
	Percentile           int     `json:"percentile"`

	ContributingFactors datatypes.JSONType[scoring.Factors] `json:"contributing_factors" gorm:"type:jsonb"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (PredictionSnapshot) TableName() string {
	return "prediction_snapshots"
}

// NewPredictionSnapshot builds the snapshot row for userID on day
func NewPredictionSnapshot(userID string, day time.Time, p scoring.Prediction) *PredictionSnapshot {
	return &PredictionSnapshot{
		UserID:               userID,
		SnapshotDate:         day.Format(SnapshotDateLayout),
		PredictedStep1Score:  p.PredictedStep1Score,
		PredictedStep2Score:  p.PredictedStep2Score,
		PassProbabilityStep1: p.PassProbabilityStep1,
		PassProbabilityStep2: p.PassProbabilityStep2,
		MatchProbability:     p.MatchProbability,
		ConfidenceLow:        p.ConfidenceInterval.Low,
		ConfidenceHigh:       p.ConfidenceInterval.High,
		Percentile:           p.Percentile,
		ContributingFactors:  datatypes.NewJSONType(p.ContributingFactors),
	}
}

func (s *PredictionSnapshot) ToPrediction() scoring.Prediction {
	return scoring.Prediction{
		PredictedStep1Score:  s.PredictedStep1Score,
		PredictedStep2Score:  s.PredictedStep2Score,
		PassProbabilityStep1: s.PassProbabilityStep1,
		PassProbabilityStep2: s.PassProbabilityStep2,
		MatchProbability:     s.MatchProbability,
		ConfidenceInterval:   scoring.ConfidenceInterval{Low: s.ConfidenceLow, High: s.ConfidenceHigh},
		Percentile:           s.Percentile,
		ContributingFactors:  s.ContributingFactors.Data(),
	}
}

// ModuleProgress is a user's completion percent for one study module.
// The mean over a user's modules is their knowledge coverage.
type ModuleProgress struct {
	ID                uint      `json:"id" gorm:"primaryKey"`
	UserID            string    `json:"user_id" gorm:"not null;size:255;uniqueIndex:idx_module_progress_user_module"`
	ModuleID          string    `json:"module_id" gorm:"not null;size:100;uniqueIndex:idx_module_progress_user_module"`
	CompletionPercent float64   `json:"completion_percent" gorm:"not null"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

func (ModuleProgress) TableName() string {
	return "module_progress"
}
