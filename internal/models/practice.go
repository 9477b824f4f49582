package models

import (
	"time"

	"gorm.io/datatypes"
)

type SessionMode string

const (
	ModeTutor SessionMode = "tutor"
	ModeTimed SessionMode = "timed"
)

type SessionStatus string

const (
	SessionInProgress SessionStatus = "in_progress"
	SessionCompleted  SessionStatus = "completed"
	SessionAbandoned  SessionStatus = "abandoned"
)

// IsTerminal reports whether no further transitions are allowed
func (s SessionStatus) IsTerminal() bool {
	return s == SessionCompleted || s == SessionAbandoned
}

// SessionFilters records how the question order was drawn
type SessionFilters struct {
	Subjects     []string          `json:"subjects,omitempty"`
	Systems      []string          `json:"systems,omitempty"`
	Difficulties []DifficultyLevel `json:"difficulties,omitempty"`
	SpecialtyIDs []string          `json:"specialty_ids,omitempty"`
}

type PracticeSession struct {
	ID     string        `json:"id" gorm:"primaryKey;size:36"`
	UserID string        `json:"user_id" gorm:"not null;index;size:255"`
	Mode   SessionMode   `json:"mode" gorm:"not null;size:20"`
	Status SessionStatus `json:"status" gorm:"default:in_progress;index;size:20"`

	// Fixed at creation
	QuestionOrder datatypes.JSONSlice[uint]           `json:"question_order" gorm:"type:jsonb"`
	Filters       datatypes.JSONType[SessionFilters] `json:"filters" gorm:"type:jsonb"`

	TimeLimitMinutes     *int     `json:"time_limit_minutes"`
	ScorePercent         *float64 `json:"score_percent"`
	CurrentQuestionIndex int      `json:"current_question_index" gorm:"default:0"`

	StartedAt   time.Time  `json:"started_at"`
	CompletedAt *time.Time `json:"completed_at"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

func (PracticeSession) TableName() string {
	return "practice_sessions"
}

// Deadline is the moment a time-limited session expires
func (s *PracticeSession) Deadline() (time.Time, bool) {
	if s.TimeLimitMinutes == nil || *s.TimeLimitMinutes <= 0 {
		return time.Time{}, false
	}
	return s.StartedAt.Add(time.Duration(*s.TimeLimitMinutes) * time.Minute), true
}

type Highlight struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// SessionQuestionState is one user's interaction with one question of a session.
// (user_id, session_id, question_id) is unique.
type SessionQuestionState struct {
	ID         uint   `json:"id" gorm:"primaryKey"`
	UserID     string `json:"user_id" gorm:"not null;size:255;uniqueIndex:idx_session_question_state"`
	SessionID  string `json:"session_id" gorm:"not null;size:36;uniqueIndex:idx_session_question_state"`
	QuestionID uint   `json:"question_id" gorm:"not null;uniqueIndex:idx_session_question_state"`

	SelectedAnswer   *int       `json:"selected_answer"`
	IsCorrect        *bool      `json:"is_correct"` // set on submission, or at completion for a pending selection
	SubmittedAt      *time.Time `json:"submitted_at"`
	TimeSpentSeconds int        `json:"time_spent_seconds"`

	// Annotations
	IsFlagged      bool                           `json:"is_flagged"`
	Strikethroughs datatypes.JSONSlice[int]       `json:"strikethroughs" gorm:"type:jsonb"`
	Highlights     datatypes.JSONSlice[Highlight] `json:"highlights" gorm:"type:jsonb"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (SessionQuestionState) TableName() string {
	return "session_question_states"
}

// Submitted reports whether the answer has been graded
func (s *SessionQuestionState) Submitted() bool {
	return s.IsCorrect != nil
}
