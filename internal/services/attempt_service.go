package services

import (
	"context"
	"fmt"

	"gorm.io/datatypes"

	"github.com/SAP-F-2025/prep-service/internal/cache"
	"github.com/SAP-F-2025/prep-service/internal/events"
	"github.com/SAP-F-2025/prep-service/internal/models"
	"github.com/SAP-F-2025/prep-service/internal/repositories"
)

type attemptService struct {
	serviceDeps
}

func NewAttemptService(deps serviceDeps) AttemptService {
	return &attemptService{serviceDeps: deps}
}

// List returns the user's attempt history, newest first
func (s *attemptService) List(ctx context.Context, userID string, query *AttemptListQuery) (*AttemptListResponse, error) {
	if err := s.validate(query); err != nil {
		return nil, err
	}

	filters := repositories.AttemptFilters{
		Limit:     s.pageSize(query.Limit),
		Offset:    query.Offset,
		SortOrder: "desc",
	}
	if query.Source != "" {
		source := query.Source
		filters.Source = &source
	}

	attempts, total, err := s.repo.Attempt().ListByUser(ctx, nil, userID, filters)
	if err != nil {
		return nil, fmt.Errorf("failed to list attempts: %w", err)
	}

	return &AttemptListResponse{
		Attempts: attempts,
		Total:    total,
		Limit:    filters.Limit,
		Offset:   filters.Offset,
	}, nil
}

func (s *attemptService) Record(ctx context.Context, userID string, req *RecordAttemptRequest) (*models.AttemptRecord, error) {
	s.logger.Info("Recording assessment attempt",
		"user_id", userID,
		"total_questions", req.TotalQuestions)

	if err := s.validate(req); err != nil {
		return nil, err
	}

	topics := make(models.TopicPerformance, len(req.TopicPerformance))
	for topic, score := range req.TopicPerformance {
		topics[topic] = models.TopicScore{Correct: score.Correct, Total: score.Total}
	}

	attempt := &models.AttemptRecord{
		UserID:           userID,
		Source:           models.AttemptSourceAssessment,
		TotalQuestions:   req.TotalQuestions,
		CorrectAnswers:   req.CorrectAnswers,
		TimeTakenSeconds: req.TimeTakenSeconds,
		TopicPerformance: datatypes.NewJSONType(topics),
		CreatedAt:        s.now().UTC(),
	}
	if req.CompletedAt != nil {
		attempt.CreatedAt = req.CompletedAt.UTC()
	}

	if err := s.repo.Attempt().Create(ctx, nil, attempt); err != nil {
		return nil, fmt.Errorf("failed to record attempt: %w", err)
	}

	cache.InvalidatePredictionCache(ctx, s.cache, userID)
	s.publish(ctx, events.EventAttemptRecorded, userID, events.AttemptRecordedEvent{
		AttemptID:      attempt.ID,
		Source:         string(attempt.Source),
		TotalQuestions: attempt.TotalQuestions,
		CorrectAnswers: attempt.CorrectAnswers,
	})

	return attempt, nil
}
