package services

import (
	"context"
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/SAP-F-2025/prep-service/internal/cache"
	"github.com/SAP-F-2025/prep-service/internal/models"
	"github.com/SAP-F-2025/prep-service/internal/repositories"
	"github.com/SAP-F-2025/prep-service/internal/validator"
)

type questionService struct {
	serviceDeps
}

func NewQuestionService(deps serviceDeps) QuestionService {
	return &questionService{serviceDeps: deps}
}

// List pages through active pool items
func (s *questionService) List(ctx context.Context, query *QuestionListQuery) (*QuestionListResponse, error) {
	if err := s.validate(query); err != nil {
		return nil, err
	}

	filters := poolFilters(query)
	filters.Limit = s.pageSize(query.Limit)
	filters.Offset = query.Offset
	filters.SortBy = query.SortBy
	filters.SortOrder = query.SortOrder

	questions, total, err := s.repo.Question().List(ctx, nil, filters)
	if err != nil {
		return nil, fmt.Errorf("failed to list questions: %w", err)
	}

	return &QuestionListResponse{
		Questions: questions,
		Total:     total,
		Limit:     filters.Limit,
		Offset:    filters.Offset,
	}, nil
}

// CountAvailable counts active items matching the filter. Counts are cached
// until the pool changes.
func (s *questionService) CountAvailable(ctx context.Context, query *QuestionListQuery) (*AvailabilityResponse, error) {
	if err := s.validate(query); err != nil {
		return nil, err
	}

	filters := poolFilters(query)
	key, err := poolCountKey(filters)
	if err != nil {
		return nil, err
	}

	count, err := cache.GetOrLoad(ctx, s.cache.Stats, key, cache.StatsCacheConfig.TTL, func() (int64, error) {
		n, err := s.repo.Question().Count(ctx, nil, filters)
		if err != nil {
			return 0, fmt.Errorf("failed to count questions: %w", err)
		}
		return n, nil
	})
	if err != nil {
		return nil, err
	}
	return &AvailabilityResponse{Available: count}, nil
}

// CreateBatch validates every item first and stores all of them or none
func (s *questionService) CreateBatch(ctx context.Context, req *CreateQuestionBatchRequest, creatorID string) ([]*models.Question, error) {
	s.logger.Info("Creating questions", "count", len(req.Questions), "creator_id", creatorID)

	if err := s.validate(req); err != nil {
		return nil, err
	}

	var errs validator.ValidationErrors
	for i := range req.Questions {
		for _, e := range s.validator.ValidateQuestionCreate(&req.Questions[i]) {
			e.Field = fmt.Sprintf("questions[%d].%s", i, e.Field)
			errs = append(errs, e)
		}
	}
	if len(errs) > 0 {
		return nil, fmt.Errorf("%w: %w", ErrValidationFailed, errs)
	}

	questions := make([]*models.Question, 0, len(req.Questions))
	for i := range req.Questions {
		questions = append(questions, newQuestion(&req.Questions[i], creatorID))
	}

	err := s.repo.WithTransaction(ctx, func(tx *gorm.DB) error {
		return s.repo.Question().CreateBatch(ctx, tx, questions)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create questions: %w", err)
	}
	cache.InvalidateQuestionCache(ctx, s.cache)

	s.logger.Info("Questions created", "count", len(questions), "creator_id", creatorID)
	return questions, nil
}

func (s *questionService) SetActive(ctx context.Context, id uint, req *SetQuestionActiveRequest) (*models.Question, error) {
	if err := s.validate(req); err != nil {
		return nil, err
	}

	err := s.repo.WithTransaction(ctx, func(tx *gorm.DB) error {
		return s.repo.Question().SetActive(ctx, tx, id, *req.IsActive)
	})
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrQuestionNotFound
		}
		return nil, fmt.Errorf("failed to update question: %w", err)
	}
	cache.InvalidateQuestionCache(ctx, s.cache, id)

	question, err := s.repo.Question().GetByID(ctx, nil, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get question: %w", err)
	}

	s.logger.Info("Question availability changed", "question_id", id, "is_active", question.IsActive)
	return question, nil
}

func newQuestion(req *CreateQuestionRequest, creatorID string) *models.Question {
	difficulty := req.Difficulty
	if difficulty == "" {
		difficulty = models.DifficultyMedium
	}
	active := true
	if req.IsActive != nil {
		active = *req.IsActive
	}

	options := make([]string, len(req.Options))
	for i, o := range req.Options {
		options[i] = strings.TrimSpace(o)
	}

	return &models.Question{
		Subject:            strings.TrimSpace(req.Subject),
		System:             strings.TrimSpace(req.System),
		Topic:              strings.TrimSpace(req.Topic),
		Difficulty:         difficulty,
		SpecialtyID:        req.SpecialtyID,
		Stem:               req.Stem,
		Options:            options,
		CorrectAnswerIndex: *req.CorrectAnswerIndex,
		Explanation:        req.Explanation,
		IsActive:           active,
		CreatedBy:          creatorID,
	}
}

func poolFilters(query *QuestionListQuery) repositories.QuestionFilters {
	filters := repositories.ActivePool(query.SessionFilters())
	if query.Topic != "" {
		topic := query.Topic
		filters.Topic = &topic
	}
	return filters
}

// poolCountKey must start with "pool:" so pool changes invalidate it
func poolCountKey(filters repositories.QuestionFilters) (string, error) {
	raw, err := json.Marshal(filters)
	if err != nil {
		return "", fmt.Errorf("failed to build cache key: %w", err)
	}
	return fmt.Sprintf("pool:%x", sha256.Sum256(raw)), nil
}
