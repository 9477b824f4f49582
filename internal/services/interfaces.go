package services

import (
	"context"
	"io"
	"time"

	"github.com/SAP-F-2025/prep-service/internal/models"
	"github.com/SAP-F-2025/prep-service/internal/practice"
	"github.com/SAP-F-2025/prep-service/internal/scoring"
	"github.com/SAP-F-2025/prep-service/internal/validator"
)

// ===== REQUEST DTOs =====

// Use validator request types
type CreateSessionRequest = validator.SessionCreateRequest
type AnswerRequest = validator.AnswerRequest
type NavigateRequest = validator.NavigateRequest
type StrikethroughRequest = validator.StrikethroughRequest
type HighlightRequest = validator.HighlightRequest
type AddTimeRequest = validator.AddTimeRequest
type SessionListQuery = validator.SessionListQuery

type RecordAttemptRequest = validator.AttemptRecordRequest
type AttemptListQuery = validator.AttemptListQuery
type ModuleProgressRequest = validator.ModuleProgressRequest
type HistoryQuery = validator.HistoryQuery

type CreateQuestionRequest = validator.QuestionCreateRequest
type CreateQuestionBatchRequest = validator.QuestionBatchCreateRequest
type QuestionListQuery = validator.QuestionListQuery
type SetQuestionActiveRequest = validator.QuestionActiveRequest

// ===== SESSION RESPONSES =====

// SessionQuestionView is one question of a session as the user may see it.
// Until Revealed the answer key and explanation are stripped, and in timed
// mode the state's correctness is hidden too.
type SessionQuestionView struct {
	Index    int                          `json:"index"`
	Question *models.Question             `json:"question"`
	State    *models.SessionQuestionState `json:"state"`
	Revealed bool                         `json:"revealed"`
}

type SessionResponse struct {
	*models.PracticeSession
	Questions        []*SessionQuestionView `json:"questions"`
	Answered         int                    `json:"answered"`
	ExpiresAt        *time.Time             `json:"expires_at,omitempty"`
	RemainingSeconds *int                   `json:"remaining_seconds,omitempty"`
}

// SessionCreateResponse is unavailable, not an error, when no active
// question matches the filters
type SessionCreateResponse struct {
	Available bool             `json:"available"`
	Message   string           `json:"message,omitempty"`
	Session   *SessionResponse `json:"session,omitempty"`
}

type SessionListResponse struct {
	Sessions []*models.PracticeSession `json:"sessions"`
	Total    int64                     `json:"total"`
	Limit    int                       `json:"limit"`
	Offset   int                       `json:"offset"`
}

// AnswerResponse reports a selection and, if requested, its grading.
// IsCorrect, CorrectAnswerIndex and Explanation are set only once revealed.
type AnswerResponse struct {
	QuestionID         uint                         `json:"question_id"`
	Submitted          bool                         `json:"submitted"`
	Outcome            practice.Outcome             `json:"outcome,omitempty"`
	SelectedAnswer     *int                         `json:"selected_answer"`
	IsCorrect          *bool                        `json:"is_correct,omitempty"`
	CorrectAnswerIndex *int                         `json:"correct_answer_index,omitempty"`
	Explanation        *string                      `json:"explanation,omitempty"`
	State              *models.SessionQuestionState `json:"state"`
}

type SessionSummaryResponse struct {
	Session   *models.PracticeSession `json:"session"`
	Summary   practice.Summary        `json:"summary"`
	AttemptID uint                    `json:"attempt_id"`
}

// ===== PREDICTION RESPONSES =====

type PredictionResponse struct {
	scoring.Prediction
	SnapshotDate       string         `json:"snapshot_date"`
	Trend              *scoring.Trend `json:"trend,omitempty"`
	AttemptsConsidered int            `json:"attempts_considered"`
	CoverageAvailable  bool           `json:"coverage_available"`
}

type PredictionHistoryResponse struct {
	Days      int                          `json:"days"`
	Snapshots []*models.PredictionSnapshot `json:"snapshots"`
}

// ===== HISTORY RESPONSES =====

type AttemptListResponse struct {
	Attempts []*models.AttemptRecord `json:"attempts"`
	Total    int64                   `json:"total"`
	Limit    int                     `json:"limit"`
	Offset   int                     `json:"offset"`
}

type ProgressResponse struct {
	Modules         []*models.ModuleProgress `json:"modules"`
	AverageCoverage *float64                 `json:"average_coverage"`
}

// ===== POOL RESPONSES =====

type QuestionListResponse struct {
	Questions []*models.Question `json:"questions"`
	Total     int64              `json:"total"`
	Limit     int                `json:"limit"`
	Offset    int                `json:"offset"`
}

type AvailabilityResponse struct {
	Available int64 `json:"available"`
}

type ImportRowError struct {
	Row     int    `json:"row"`
	Message string `json:"message"`
}

// ImportResult is all-or-nothing: Created is zero whenever Errors is non-empty
type ImportResult struct {
	Created int              `json:"created"`
	Errors  []ImportRowError `json:"errors,omitempty"`
}

// ===== SERVICE INTERFACES =====

type SessionService interface {
	Create(ctx context.Context, req *CreateSessionRequest, userID string) (*SessionCreateResponse, error)
	Get(ctx context.Context, sessionID, userID string) (*SessionResponse, error)
	List(ctx context.Context, query *SessionListQuery, userID string) (*SessionListResponse, error)

	// Question interaction
	GoTo(ctx context.Context, sessionID, userID string, req *NavigateRequest) (*SessionQuestionView, error)
	Answer(ctx context.Context, sessionID string, questionID uint, userID string, req *AnswerRequest) (*AnswerResponse, error)
	ToggleFlag(ctx context.Context, sessionID string, questionID uint, userID string) (*models.SessionQuestionState, error)
	ToggleStrikethrough(ctx context.Context, sessionID string, questionID uint, userID string, req *StrikethroughRequest) (*models.SessionQuestionState, error)
	AddHighlight(ctx context.Context, sessionID string, questionID uint, userID string, req *HighlightRequest) (*models.SessionQuestionState, error)
	AddTime(ctx context.Context, sessionID string, questionID uint, userID string, req *AddTimeRequest) (*models.SessionQuestionState, error)

	// Terminal transitions
	Complete(ctx context.Context, sessionID, userID string) (*SessionSummaryResponse, error)
	Abandon(ctx context.Context, sessionID, userID string) (*models.PracticeSession, error)
}

type PredictionService interface {
	// Current aggregates, projects and stores today's snapshot. Cached per user and day.
	Current(ctx context.Context, userID string) (*PredictionResponse, error)
	History(ctx context.Context, userID string, query *HistoryQuery) (*PredictionHistoryResponse, error)
}

type AttemptService interface {
	List(ctx context.Context, userID string, query *AttemptListQuery) (*AttemptListResponse, error)
	// Record stores an assessment completed outside the practice sessions
	Record(ctx context.Context, userID string, req *RecordAttemptRequest) (*models.AttemptRecord, error)
}

type ProgressService interface {
	UpsertModule(ctx context.Context, userID, moduleID string, req *ModuleProgressRequest) (*models.ModuleProgress, error)
	List(ctx context.Context, userID string) (*ProgressResponse, error)
}

type QuestionService interface {
	List(ctx context.Context, query *QuestionListQuery) (*QuestionListResponse, error)
	CountAvailable(ctx context.Context, query *QuestionListQuery) (*AvailabilityResponse, error)
	CreateBatch(ctx context.Context, req *CreateQuestionBatchRequest, creatorID string) ([]*models.Question, error)
	Import(ctx context.Context, r io.Reader, creatorID string) (*ImportResult, error)
	// SetActive adds an item to or removes it from session sampling
	SetActive(ctx context.Context, id uint, req *SetQuestionActiveRequest) (*models.Question, error)
}

type ReportService interface {
	// ExportHistory writes an xlsx workbook of prediction snapshots and attempts
	ExportHistory(ctx context.Context, userID string, query *HistoryQuery, w io.Writer) error
}

// ===== SERVICE MANAGER =====

type ServiceManager interface {
	// Core service getters
	Session() SessionService
	Prediction() PredictionService
	Attempt() AttemptService
	Progress() ProgressService
	Question() QuestionService
	Report() ReportService

	// Health and lifecycle
	Initialize(ctx context.Context) error
	HealthCheck(ctx context.Context) error
	Shutdown(ctx context.Context) error
}
