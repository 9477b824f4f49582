package repositories

import (
	"context"

	"gorm.io/gorm"

	"github.com/SAP-F-2025/prep-service/internal/models"
)

// QuestionRepository interface for question pool operations
type QuestionRepository interface {
	// Basic CRUD operations
	GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Question, error)
	SetActive(ctx context.Context, tx *gorm.DB, id uint, active bool) error

	// Bulk operations
	CreateBatch(ctx context.Context, tx *gorm.DB, questions []*models.Question) error
	GetByIDs(ctx context.Context, tx *gorm.DB, ids []uint) ([]*models.Question, error)

	// Query operations
	List(ctx context.Context, tx *gorm.DB, filters QuestionFilters) ([]*models.Question, int64, error)
	ListIDs(ctx context.Context, tx *gorm.DB, filters QuestionFilters) ([]uint, error)
	Count(ctx context.Context, tx *gorm.DB, filters QuestionFilters) (int64, error)
}

// SessionRepository interface for practice sessions and their question states
type SessionRepository interface {
	Create(ctx context.Context, tx *gorm.DB, session *models.PracticeSession) error
	GetByID(ctx context.Context, tx *gorm.DB, id string) (*models.PracticeSession, error)
	Update(ctx context.Context, tx *gorm.DB, session *models.PracticeSession) error
	ListByUser(ctx context.Context, tx *gorm.DB, userID string, filters SessionFilters) ([]*models.PracticeSession, int64, error)

	// Question state, unique per (user, session, question)
	GetStates(ctx context.Context, tx *gorm.DB, sessionID string) ([]*models.SessionQuestionState, error)
	UpsertState(ctx context.Context, tx *gorm.DB, state *models.SessionQuestionState) error
}

// AttemptRepository interface for attempt history
type AttemptRepository interface {
	Create(ctx context.Context, tx *gorm.DB, attempt *models.AttemptRecord) error
	GetBySession(ctx context.Context, tx *gorm.DB, sessionID string) (*models.AttemptRecord, error)
	ListByUser(ctx context.Context, tx *gorm.DB, userID string, filters AttemptFilters) ([]*models.AttemptRecord, int64, error)
}

// PredictionRepository interface for daily prediction snapshots
type PredictionRepository interface {
	// UpsertDaily overwrites the snapshot for (user, date) if one exists
	UpsertDaily(ctx context.Context, tx *gorm.DB, snapshot *models.PredictionSnapshot) error
	GetByDate(ctx context.Context, tx *gorm.DB, userID, date string) (*models.PredictionSnapshot, error)
	// ListHistory returns snapshots oldest first
	ListHistory(ctx context.Context, tx *gorm.DB, userID string, filters PredictionFilters) ([]*models.PredictionSnapshot, error)
}

// ProgressRepository interface for module completion
type ProgressRepository interface {
	Upsert(ctx context.Context, tx *gorm.DB, progress *models.ModuleProgress) error
	ListByUser(ctx context.Context, tx *gorm.DB, userID string) ([]*models.ModuleProgress, error)
	// AverageCompletion is nil when the user has no module progress
	AverageCompletion(ctx context.Context, tx *gorm.DB, userID string) (*float64, error)
}
