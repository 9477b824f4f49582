package models

import (
	"time"

	"gorm.io/datatypes"
)

type DifficultyLevel string

const (
	DifficultyEasy   DifficultyLevel = "easy"
	DifficultyMedium DifficultyLevel = "medium"
	DifficultyHard   DifficultyLevel = "hard"
)

// Question is a single-best-answer item in the practice pool
type Question struct {
	ID uint `json:"id" gorm:"primaryKey"`

	// Categorization
	Subject     string          `json:"subject" gorm:"not null;index;size:100"`
	System      string          `json:"system" gorm:"not null;index;size:100"`
	Topic       string          `json:"topic" gorm:"not null;index;size:100"`
	Difficulty  DifficultyLevel `json:"difficulty" gorm:"default:medium;index;size:20"`
	SpecialtyID *string         `json:"specialty_id" gorm:"index;size:100"`

	// Content
	Stem               string                      `json:"stem" gorm:"type:text;not null"`
	Options            datatypes.JSONSlice[string] `json:"options" gorm:"type:jsonb"`
	CorrectAnswerIndex int                         `json:"correct_answer_index"`
	Explanation        *string                     `json:"explanation" gorm:"type:text"`

	// No gorm default: a false value must be written, not replaced
	IsActive bool `json:"is_active" gorm:"not null;index"`

	CreatedBy string    `json:"created_by" gorm:"index;size:255"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Question) TableName() string {
	return "questions"
}

// ValidOption reports whether i indexes one of the options
func (q *Question) ValidOption(i int) bool {
	return i >= 0 && i < len(q.Options)
}

// Masked returns a copy with the answer key and explanation removed
func (q *Question) Masked() *Question {
	masked := *q
	masked.CorrectAnswerIndex = -1
	masked.Explanation = nil
	return &masked
}
