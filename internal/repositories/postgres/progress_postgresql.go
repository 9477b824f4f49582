package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/SAP-F-2025/prep-service/internal/models"
	"github.com/SAP-F-2025/prep-service/internal/repositories"
)

type ProgressPostgreSQL struct {
	db *gorm.DB
}

func NewProgressPostgreSQL(db *gorm.DB) repositories.ProgressRepository {
	return &ProgressPostgreSQL{db: db}
}

func (p *ProgressPostgreSQL) Upsert(ctx context.Context, tx *gorm.DB, progress *models.ModuleProgress) error {
	db := p.getDB(tx)
	err := db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "module_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"completion_percent", "updated_at"}),
	}).Create(progress).Error
	if err != nil {
		return fmt.Errorf("failed to save module progress: %w", err)
	}
	return nil
}

func (p *ProgressPostgreSQL) ListByUser(ctx context.Context, tx *gorm.DB, userID string) ([]*models.ModuleProgress, error) {
	db := p.getDB(tx)
	var progress []*models.ModuleProgress
	if err := db.WithContext(ctx).Where("user_id = ?", userID).Order("module_id ASC").Find(&progress).Error; err != nil {
		return nil, fmt.Errorf("failed to list module progress: %w", err)
	}
	return progress, nil
}

func (p *ProgressPostgreSQL) AverageCompletion(ctx context.Context, tx *gorm.DB, userID string) (*float64, error) {
	db := p.getDB(tx)
	var avg sql.NullFloat64
	err := db.WithContext(ctx).Model(&models.ModuleProgress{}).
		Select("AVG(completion_percent)").
		Where("user_id = ?", userID).
		Scan(&avg).Error
	if err != nil {
		return nil, fmt.Errorf("failed to average module progress: %w", err)
	}
	if !avg.Valid {
		return nil, nil
	}
	return &avg.Float64, nil
}

func (p *ProgressPostgreSQL) getDB(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return p.db
}
