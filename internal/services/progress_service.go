package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/SAP-F-2025/prep-service/internal/cache"
	"github.com/SAP-F-2025/prep-service/internal/models"
)

type progressService struct {
	serviceDeps
}

func NewProgressService(deps serviceDeps) ProgressService {
	return &progressService{serviceDeps: deps}
}

// UpsertModule sets the completion percent of one module. Module progress is
// the knowledge coverage input, so the cached prediction is dropped.
func (s *progressService) UpsertModule(ctx context.Context, userID, moduleID string, req *ModuleProgressRequest) (*models.ModuleProgress, error) {
	if err := s.validate(req); err != nil {
		return nil, err
	}
	moduleID = strings.TrimSpace(moduleID)
	if moduleID == "" || len(moduleID) > 100 {
		return nil, fmt.Errorf("%w: module id must be 1-100 characters", ErrValidationFailed)
	}

	progress := &models.ModuleProgress{
		UserID:            userID,
		ModuleID:          moduleID,
		CompletionPercent: *req.CompletionPercent,
	}
	if err := s.repo.Progress().Upsert(ctx, nil, progress); err != nil {
		return nil, fmt.Errorf("failed to save module progress: %w", err)
	}

	cache.InvalidatePredictionCache(ctx, s.cache, userID)

	s.logger.Info("Module progress updated",
		"user_id", userID,
		"module_id", moduleID,
		"completion_percent", progress.CompletionPercent)
	return progress, nil
}

func (s *progressService) List(ctx context.Context, userID string) (*ProgressResponse, error) {
	modules, err := s.repo.Progress().ListByUser(ctx, nil, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list module progress: %w", err)
	}
	avg, err := s.repo.Progress().AverageCompletion(ctx, nil, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to compute coverage: %w", err)
	}
	return &ProgressResponse{Modules: modules, AverageCoverage: avg}, nil
}
