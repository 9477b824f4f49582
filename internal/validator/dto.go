package validator

import (
	"time"

	"github.com/SAP-F-2025/prep-service/internal/models"
)

// ===== SESSIONS =====

type SessionCreateRequest struct {
	Mode             models.SessionMode       `json:"mode" validate:"required,session_mode"`
	QuestionCount    int                      `json:"question_count" validate:"gt=0,max=400"`
	TimeLimitMinutes *int                     `json:"time_limit_minutes" validate:"omitempty,gt=0,max=480"`
	Subjects         []string                 `json:"subjects" validate:"omitempty,max=50,dive,required,max=100"`
	Systems          []string                 `json:"systems" validate:"omitempty,max=50,dive,required,max=100"`
	Difficulties     []models.DifficultyLevel `json:"difficulties" validate:"omitempty,max=3,dive,difficulty_level"`
	SpecialtyIDs     []string                 `json:"specialty_ids" validate:"omitempty,max=50,dive,required,max=100"`
}

// Filters is the pool filter recorded on the session
func (r *SessionCreateRequest) Filters() models.SessionFilters {
	return models.SessionFilters{
		Subjects:     r.Subjects,
		Systems:      r.Systems,
		Difficulties: r.Difficulties,
		SpecialtyIDs: r.SpecialtyIDs,
	}
}

// AnswerRequest records a selection and, unless Submit is false, grades it.
// Without SelectedAnswer the stored selection is submitted.
type AnswerRequest struct {
	SelectedAnswer *int  `json:"selected_answer" validate:"omitempty,min=0"`
	Submit         *bool `json:"submit"`
}

// ShouldSubmit defaults to true
func (r *AnswerRequest) ShouldSubmit() bool {
	return r.Submit == nil || *r.Submit
}

type NavigateRequest struct {
	Index *int `json:"index" validate:"required,min=0"`
}

type StrikethroughRequest struct {
	Option *int `json:"option" validate:"required,min=0"`
}

type HighlightRequest struct {
	Start int `json:"start" validate:"min=0"`
	End   int `json:"end" validate:"gtfield=Start"`
}

type AddTimeRequest struct {
	Seconds int `json:"seconds" validate:"min=0,max=86400"`
}

type SessionListQuery struct {
	Status models.SessionStatus `form:"status" validate:"omitempty,oneof=in_progress completed abandoned"`
	Mode   models.SessionMode   `form:"mode" validate:"omitempty,session_mode"`
	Limit  int                  `form:"limit" validate:"omitempty,min=1,max=100"`
	Offset int                  `form:"offset" validate:"omitempty,min=0"`
}

// ===== ATTEMPTS & PROGRESS =====

type TopicScoreRequest struct {
	Correct int `json:"correct" validate:"min=0,ltefield=Total"`
	Total   int `json:"total" validate:"min=0"`
}

// AttemptRecordRequest records an assessment completed outside this service
type AttemptRecordRequest struct {
	TotalQuestions   int                          `json:"total_questions" validate:"min=0,max=10000"`
	CorrectAnswers   int                          `json:"correct_answers" validate:"min=0,ltefield=TotalQuestions"`
	TimeTakenSeconds int                          `json:"time_taken_seconds" validate:"min=0"`
	TopicPerformance map[string]TopicScoreRequest `json:"topic_performance" validate:"omitempty,max=200,dive,keys,required,max=100,endkeys"`
	CompletedAt      *time.Time                   `json:"completed_at"`
}

type AttemptListQuery struct {
	Source models.AttemptSource `form:"source" validate:"omitempty,oneof=practice_session assessment"`
	Limit  int                  `form:"limit" validate:"omitempty,min=1,max=100"`
	Offset int                  `form:"offset" validate:"omitempty,min=0"`
}

type ModuleProgressRequest struct {
	CompletionPercent *float64 `json:"completion_percent" validate:"required,percent"`
}

type HistoryQuery struct {
	Days int `form:"days" validate:"omitempty,min=1,max=365"`
}

// ===== QUESTION POOL =====

type QuestionCreateRequest struct {
	Subject            string                 `json:"subject" validate:"required,max=100"`
	System             string                 `json:"system" validate:"required,max=100"`
	Topic              string                 `json:"topic" validate:"required,max=100"`
	Difficulty         models.DifficultyLevel `json:"difficulty" validate:"omitempty,difficulty_level"`
	SpecialtyID        *string                `json:"specialty_id" validate:"omitempty,max=100"`
	Stem               string                 `json:"stem" validate:"required,max=5000"`
	Options            []string               `json:"options" validate:"required,min=2,max=10,dive,required,max=1000"`
	CorrectAnswerIndex *int                   `json:"correct_answer_index" validate:"required,min=0"`
	Explanation        *string                `json:"explanation" validate:"omitempty,max=5000"`
	IsActive           *bool                  `json:"is_active"`
}

type QuestionBatchCreateRequest struct {
	Questions []QuestionCreateRequest `json:"questions" validate:"required,min=1,max=500,dive"`
}

type QuestionActiveRequest struct {
	IsActive *bool `json:"is_active" validate:"required"`
}

type QuestionListQuery struct {
	Subjects     []string                 `form:"subject" validate:"omitempty,dive,max=100"`
	Systems      []string                 `form:"system" validate:"omitempty,dive,max=100"`
	Difficulties []models.DifficultyLevel `form:"difficulty" validate:"omitempty,dive,difficulty_level"`
	SpecialtyIDs []string                 `form:"specialty_id" validate:"omitempty,dive,max=100"`
	Topic        string                   `form:"topic" validate:"omitempty,max=100"`
	Limit        int                      `form:"limit" validate:"omitempty,min=1,max=100"`
	Offset       int                      `form:"offset" validate:"omitempty,min=0"`
	SortBy       string                   `form:"sort_by" validate:"omitempty,oneof=id subject system topic difficulty created_at"`
	SortOrder    string                   `form:"sort_order" validate:"omitempty,oneof=asc desc"`
}

// SessionFilters is the pool dimension subset of the query
func (q *QuestionListQuery) SessionFilters() models.SessionFilters {
	return models.SessionFilters{
		Subjects:     q.Subjects,
		Systems:      q.Systems,
		Difficulties: q.Difficulties,
		SpecialtyIDs: q.SpecialtyIDs,
	}
}
