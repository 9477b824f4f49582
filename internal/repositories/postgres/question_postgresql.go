package postgres

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/SAP-F-2025/prep-service/internal/cache"
	"github.com/SAP-F-2025/prep-service/internal/models"
	"github.com/SAP-F-2025/prep-service/internal/repositories"
)

var questionSortColumns = map[string]bool{
	"id":         true,
	"subject":    true,
	"system":     true,
	"topic":      true,
	"difficulty": true,
	"created_at": true,
}

type QuestionPostgreSQL struct {
	db           *gorm.DB
	helpers      *SharedHelpers
	cacheManager *cache.CacheManager
}

func NewQuestionPostgreSQL(db *gorm.DB, redisClient *redis.Client) repositories.QuestionRepository {
	return &QuestionPostgreSQL{
		db:           db,
		helpers:      NewSharedHelpers(db),
		cacheManager: cache.NewCacheManager(redisClient),
	}
}

// CreateBatch and SetActive leave the cache alone; tx may not have committed
// yet, so callers invalidate once it has.
func (q *QuestionPostgreSQL) CreateBatch(ctx context.Context, tx *gorm.DB, questions []*models.Question) error {
	if len(questions) == 0 {
		return nil
	}
	db := q.getDB(tx)
	if err := db.WithContext(ctx).CreateInBatches(questions, 100).Error; err != nil {
		return fmt.Errorf("failed to create questions: %w", err)
	}
	return nil
}

// GetByID is cached; pool items are read on every answer submission
func (q *QuestionPostgreSQL) GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Question, error) {
	db := q.getDB(tx)
	return cache.GetOrLoad(ctx, q.cacheManager.Question, cache.QuestionKey(id), cache.QuestionCacheConfig.TTL, func() (*models.Question, error) {
		var question models.Question
		if err := db.WithContext(ctx).First(&question, id).Error; err != nil {
			return nil, fmt.Errorf("failed to get question: %w", err)
		}
		return &question, nil
	})
}

func (q *QuestionPostgreSQL) GetByIDs(ctx context.Context, tx *gorm.DB, ids []uint) ([]*models.Question, error) {
	if len(ids) == 0 {
		return []*models.Question{}, nil
	}
	db := q.getDB(tx)
	var questions []*models.Question
	if err := db.WithContext(ctx).Where("id IN ?", ids).Find(&questions).Error; err != nil {
		return nil, fmt.Errorf("failed to get questions: %w", err)
	}
	return questions, nil
}

func (q *QuestionPostgreSQL) SetActive(ctx context.Context, tx *gorm.DB, id uint, active bool) error {
	db := q.getDB(tx)
	result := db.WithContext(ctx).Model(&models.Question{}).Where("id = ?", id).Update("is_active", active)
	if result.Error != nil {
		return fmt.Errorf("failed to update question: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (q *QuestionPostgreSQL) List(ctx context.Context, tx *gorm.DB, filters repositories.QuestionFilters) ([]*models.Question, int64, error) {
	db := q.getDB(tx)
	var questions []*models.Question
	var total int64

	query := db.WithContext(ctx).Model(&models.Question{})
	query = q.helpers.ApplyQuestionFilters(query, filters)

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count questions: %w", err)
	}

	query = q.helpers.ApplyPaginationAndSort(query, filters.SortBy, filters.SortOrder, questionSortColumns, "id", filters.Limit, filters.Offset)
	if err := query.Find(&questions).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list questions: %w", err)
	}

	return questions, total, nil
}

// ListIDs returns matching ids in ascending order; callers shuffle
func (q *QuestionPostgreSQL) ListIDs(ctx context.Context, tx *gorm.DB, filters repositories.QuestionFilters) ([]uint, error) {
	db := q.getDB(tx)
	var ids []uint

	query := db.WithContext(ctx).Model(&models.Question{})
	query = q.helpers.ApplyQuestionFilters(query, filters)
	if err := query.Order("id ASC").Pluck("id", &ids).Error; err != nil {
		return nil, fmt.Errorf("failed to list question ids: %w", err)
	}
	return ids, nil
}

func (q *QuestionPostgreSQL) Count(ctx context.Context, tx *gorm.DB, filters repositories.QuestionFilters) (int64, error) {
	db := q.getDB(tx)
	var total int64

	query := db.WithContext(ctx).Model(&models.Question{})
	query = q.helpers.ApplyQuestionFilters(query, filters)
	if err := query.Count(&total).Error; err != nil {
		return 0, fmt.Errorf("failed to count questions: %w", err)
	}
	return total, nil
}

func (q *QuestionPostgreSQL) getDB(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return q.db
}
