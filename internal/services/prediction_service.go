package services

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"golang.org/x/sync/errgroup"

	"github.com/SAP-F-2025/prep-service/internal/cache"
	"github.com/SAP-F-2025/prep-service/internal/events"
	"github.com/SAP-F-2025/prep-service/internal/models"
	"github.com/SAP-F-2025/prep-service/internal/observability"
	"github.com/SAP-F-2025/prep-service/internal/repositories"
	"github.com/SAP-F-2025/prep-service/internal/scoring"
)

type predictionService struct {
	serviceDeps
	engine *scoring.Engine
}

func NewPredictionService(deps serviceDeps, engine *scoring.Engine) PredictionService {
	return &predictionService{
		serviceDeps: deps,
		engine:      engine,
	}
}

func (s *predictionService) Current(ctx context.Context, userID string) (*PredictionResponse, error) {
	ctx, span := observability.Tracer().Start(ctx, "prediction.current")
	defer span.End()

	day := s.today()
	key := cache.PredictionKey(userID, day.Format(models.SnapshotDateLayout))

	resp, err := cache.GetOrLoad(ctx, s.cache.Prediction, key, s.config.PredictionCacheTTL, func() (*PredictionResponse, error) {
		return s.compute(ctx, userID, day)
	})
	if err != nil {
		span.SetStatus(codes.Error, "prediction failed")
		span.RecordError(err)
		return nil, err
	}

	span.SetAttributes(
		attribute.Int("prediction.step1", resp.PredictedStep1Score),
		attribute.Int("prediction.attempts", resp.AttemptsConsidered))
	return resp, nil
}

// compute runs the full pipeline and stores the day's snapshot
func (s *predictionService) compute(ctx context.Context, userID string, day time.Time) (*PredictionResponse, error) {
	cfg := s.engine.Config()

	var (
		records  []*models.AttemptRecord
		coverage *float64
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		list, _, err := s.repo.Attempt().ListByUser(gctx, nil, userID, repositories.AttemptFilters{
			Limit:     cfg.AttemptLimit,
			SortOrder: "desc",
		})
		if err != nil {
			return fmt.Errorf("failed to fetch attempts: %w", err)
		}
		records = list
		return nil
	})
	g.Go(func() error {
		avg, err := s.repo.Progress().AverageCompletion(gctx, nil, userID)
		if err != nil {
			return fmt.Errorf("failed to fetch module coverage: %w", err)
		}
		coverage = avg
		return nil
	})
	if err := g.Wait(); err != nil {
		s.logger.Error("Failed to load performance history", "user_id", userID, "error", err)
		return nil, err
	}

	attempts := make([]scoring.Attempt, 0, len(records))
	for _, r := range records {
		attempts = append(attempts, r.ToScoring())
	}

	factors := scoring.Aggregate(attempts, coverage, cfg)
	prediction := s.engine.Project(factors)

	snapshot := models.NewPredictionSnapshot(userID, day, prediction)
	if err := s.repo.Prediction().UpsertDaily(ctx, nil, snapshot); err != nil {
		s.logger.Error("Failed to store prediction snapshot", "user_id", userID, "error", err)
		return nil, err
	}

	resp := &PredictionResponse{
		Prediction:         prediction,
		SnapshotDate:       snapshot.SnapshotDate,
		AttemptsConsidered: len(records),
		CoverageAvailable:  coverage != nil && *coverage > 0,
	}

	// today's row is already stored, so the last two are yesterday and today
	history, err := s.repo.Prediction().ListHistory(ctx, nil, userID, repositories.PredictionFilters{Limit: 2})
	if err != nil {
		s.logger.Warn("Failed to load prediction history for trend", "user_id", userID, "error", err)
	} else {
		scores := make([]int, 0, len(history))
		for _, h := range history {
			scores = append(scores, h.PredictedStep1Score)
		}
		if trend, ok := s.engine.TrendDirection(scores); ok {
			resp.Trend = &trend
		}
	}

	event := events.PredictionUpdatedEvent{
		SnapshotDate:        resp.SnapshotDate,
		PredictedStep1Score: prediction.PredictedStep1Score,
		PredictedStep2Score: prediction.PredictedStep2Score,
		PassProbability:     prediction.PassProbabilityStep1,
		Percentile:          prediction.Percentile,
	}
	if resp.Trend != nil {
		event.Trend = string(*resp.Trend)
	}
	s.publish(ctx, events.EventPredictionUpdated, userID, event)

	s.logger.Info("Prediction computed",
		"user_id", userID,
		"snapshot_date", resp.SnapshotDate,
		"step1", prediction.PredictedStep1Score,
		"attempts", len(records))

	return resp, nil
}

// History returns the last query.Days daily snapshots, oldest first
func (s *predictionService) History(ctx context.Context, userID string, query *HistoryQuery) (*PredictionHistoryResponse, error) {
	if err := s.validate(query); err != nil {
		return nil, err
	}

	days := query.Days
	if days <= 0 {
		days = s.config.DefaultHistoryDays
	}

	today := s.today()
	from := today.AddDate(0, 0, -(days - 1)).Format(models.SnapshotDateLayout)
	to := today.Format(models.SnapshotDateLayout)

	snapshots, err := s.repo.Prediction().ListHistory(ctx, nil, userID, repositories.PredictionFilters{
		DateFrom: &from,
		DateTo:   &to,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get prediction history: %w", err)
	}

	return &PredictionHistoryResponse{Days: days, Snapshots: snapshots}, nil
}
