package postgres

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/SAP-F-2025/prep-service/internal/models"
	"github.com/SAP-F-2025/prep-service/internal/repositories"
)

type AttemptPostgreSQL struct {
	db      *gorm.DB
	helpers *SharedHelpers
}

func NewAttemptPostgreSQL(db *gorm.DB) repositories.AttemptRepository {
	return &AttemptPostgreSQL{
		db:      db,
		helpers: NewSharedHelpers(db),
	}
}

// Create inserts a record. A second record for the same session fails with
// gorm.ErrDuplicatedKey when the connection translates errors.
func (a *AttemptPostgreSQL) Create(ctx context.Context, tx *gorm.DB, attempt *models.AttemptRecord) error {
	db := a.getDB(tx)
	if err := db.WithContext(ctx).Create(attempt).Error; err != nil {
		return fmt.Errorf("failed to create attempt record: %w", err)
	}
	return nil
}

func (a *AttemptPostgreSQL) GetBySession(ctx context.Context, tx *gorm.DB, sessionID string) (*models.AttemptRecord, error) {
	db := a.getDB(tx)
	var attempt models.AttemptRecord
	if err := db.WithContext(ctx).Where("session_id = ?", sessionID).First(&attempt).Error; err != nil {
		return nil, fmt.Errorf("failed to get attempt record: %w", err)
	}
	return &attempt, nil
}

// ListByUser returns the user's records, newest first unless asked otherwise
func (a *AttemptPostgreSQL) ListByUser(ctx context.Context, tx *gorm.DB, userID string, filters repositories.AttemptFilters) ([]*models.AttemptRecord, int64, error) {
	db := a.getDB(tx)
	var attempts []*models.AttemptRecord
	var total int64

	query := db.WithContext(ctx).Model(&models.AttemptRecord{}).Where("user_id = ?", userID)
	if filters.Source != nil {
		query = query.Where("source = ?", *filters.Source)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count attempt records: %w", err)
	}

	query = a.helpers.ApplyPaginationAndSort(query, "created_at", filters.SortOrder, nil, "created_at", filters.Limit, filters.Offset)
	if err := query.Find(&attempts).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list attempt records: %w", err)
	}

	return attempts, total, nil
}

func (a *AttemptPostgreSQL) getDB(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return a.db
}
