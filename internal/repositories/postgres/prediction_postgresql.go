package postgres

import (
	"context"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/SAP-F-2025/prep-service/internal/models"
	"github.com/SAP-F-2025/prep-service/internal/repositories"
)

type PredictionPostgreSQL struct {
	db *gorm.DB
}

func NewPredictionPostgreSQL(db *gorm.DB) repositories.PredictionRepository {
	return &PredictionPostgreSQL{db: db}
}

func (p *PredictionPostgreSQL) UpsertDaily(ctx context.Context, tx *gorm.DB, snapshot *models.PredictionSnapshot) error {
	db := p.getDB(tx)
	err := db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "user_id"}, {Name: "snapshot_date"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"predicted_step1_score", "predicted_step2_score",
			"pass_probability_step1", "pass_probability_step2",
			"match_probability", "confidence_low", "confidence_high",
			"percentile", "contributing_factors", "updated_at",
		}),
	}).Create(snapshot).Error
	if err != nil {
		return fmt.Errorf("failed to save prediction snapshot: %w", err)
	}
	return nil
}

func (p *PredictionPostgreSQL) GetByDate(ctx context.Context, tx *gorm.DB, userID, date string) (*models.PredictionSnapshot, error) {
	db := p.getDB(tx)
	var snapshot models.PredictionSnapshot
	if err := db.WithContext(ctx).Where("user_id = ? AND snapshot_date = ?", userID, date).First(&snapshot).Error; err != nil {
		return nil, fmt.Errorf("failed to get prediction snapshot: %w", err)
	}
	return &snapshot, nil
}

// ListHistory returns snapshots oldest first. With a limit, the most recent
// snapshots are kept.
func (p *PredictionPostgreSQL) ListHistory(ctx context.Context, tx *gorm.DB, userID string, filters repositories.PredictionFilters) ([]*models.PredictionSnapshot, error) {
	db := p.getDB(tx)
	var snapshots []*models.PredictionSnapshot

	query := db.WithContext(ctx).Where("user_id = ?", userID)
	if filters.DateFrom != nil {
		query = query.Where("snapshot_date >= ?", *filters.DateFrom)
	}
	if filters.DateTo != nil {
		query = query.Where("snapshot_date <= ?", *filters.DateTo)
	}
	query = query.Order("snapshot_date DESC")
	if filters.Limit > 0 {
		query = query.Limit(filters.Limit)
	}

	if err := query.Find(&snapshots).Error; err != nil {
		return nil, fmt.Errorf("failed to list prediction history: %w", err)
	}

	for i, j := 0, len(snapshots)-1; i < j; i, j = i+1, j-1 {
		snapshots[i], snapshots[j] = snapshots[j], snapshots[i]
	}
	return snapshots, nil
}

func (p *PredictionPostgreSQL) getDB(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return p.db
}
