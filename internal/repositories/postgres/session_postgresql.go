package postgres

import (
	"context"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/SAP-F-2025/prep-service/internal/models"
	"github.com/SAP-F-2025/prep-service/internal/repositories"
)

type SessionPostgreSQL struct {
	db      *gorm.DB
	helpers *SharedHelpers
}

func NewSessionPostgreSQL(db *gorm.DB) repositories.SessionRepository {
	return &SessionPostgreSQL{
		db:      db,
		helpers: NewSharedHelpers(db),
	}
}

func (s *SessionPostgreSQL) Create(ctx context.Context, tx *gorm.DB, session *models.PracticeSession) error {
	db := s.getDB(tx)
	if err := db.WithContext(ctx).Create(session).Error; err != nil {
		return fmt.Errorf("failed to create session: %w", err)
	}
	return nil
}

func (s *SessionPostgreSQL) GetByID(ctx context.Context, tx *gorm.DB, id string) (*models.PracticeSession, error) {
	db := s.getDB(tx)
	var session models.PracticeSession
	if err := db.WithContext(ctx).Where("id = ?", id).First(&session).Error; err != nil {
		return nil, fmt.Errorf("failed to get session: %w", err)
	}
	return &session, nil
}

// Update writes the mutable columns; order and filters never change
func (s *SessionPostgreSQL) Update(ctx context.Context, tx *gorm.DB, session *models.PracticeSession) error {
	db := s.getDB(tx)
	result := db.WithContext(ctx).Model(session).
		Select("status", "score_percent", "current_question_index", "completed_at").
		Updates(session)
	if result.Error != nil {
		return fmt.Errorf("failed to update session: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (s *SessionPostgreSQL) ListByUser(ctx context.Context, tx *gorm.DB, userID string, filters repositories.SessionFilters) ([]*models.PracticeSession, int64, error) {
	db := s.getDB(tx)
	var sessions []*models.PracticeSession
	var total int64

	query := db.WithContext(ctx).Model(&models.PracticeSession{}).Where("user_id = ?", userID)
	if filters.Status != nil {
		query = query.Where("status = ?", *filters.Status)
	}
	if filters.Mode != nil {
		query = query.Where("mode = ?", *filters.Mode)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count sessions: %w", err)
	}

	query = s.helpers.ApplyPaginationAndSort(query, "created_at", filters.SortOrder, nil, "created_at", filters.Limit, filters.Offset)
	if err := query.Find(&sessions).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list sessions: %w", err)
	}

	return sessions, total, nil
}

func (s *SessionPostgreSQL) GetStates(ctx context.Context, tx *gorm.DB, sessionID string) ([]*models.SessionQuestionState, error) {
	db := s.getDB(tx)
	var states []*models.SessionQuestionState
	if err := db.WithContext(ctx).Where("session_id = ?", sessionID).Order("question_id ASC").Find(&states).Error; err != nil {
		return nil, fmt.Errorf("failed to get question states: %w", err)
	}
	return states, nil
}

// UpsertState inserts or overwrites the state row keyed by (user, session, question)
func (s *SessionPostgreSQL) UpsertState(ctx context.Context, tx *gorm.DB, state *models.SessionQuestionState) error {
	db := s.getDB(tx)
	err := db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "user_id"}, {Name: "session_id"}, {Name: "question_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"selected_answer", "is_correct", "submitted_at", "time_spent_seconds",
			"is_flagged", "strikethroughs", "highlights", "updated_at",
		}),
	}).Create(state).Error
	if err != nil {
		return fmt.Errorf("failed to save question state: %w", err)
	}
	return nil
}

func (s *SessionPostgreSQL) getDB(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return s.db
}
