package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"gorm.io/gorm"

	"github.com/SAP-F-2025/prep-service/internal/cache"
	"github.com/SAP-F-2025/prep-service/internal/events"
	"github.com/SAP-F-2025/prep-service/internal/repositories"
	"github.com/SAP-F-2025/prep-service/internal/validator"
)

// serviceDeps is what every service is built from
type serviceDeps struct {
	repo      repositories.Repository
	db        *gorm.DB
	logger    *slog.Logger
	validator *validator.Validator
	publisher events.EventPublisher
	cache     *cache.CacheManager
	config    ServiceManagerConfig
	now       func() time.Time
}

// validate runs struct validation and tags failures with ErrValidationFailed
func (d serviceDeps) validate(req any) error {
	if err := d.validator.Validate(req); err != nil {
		return fmt.Errorf("%w: %w", ErrValidationFailed, err)
	}
	return nil
}

// publish sends an event after the owning transaction committed. Failures
// are logged and never undo the operation.
func (d serviceDeps) publish(ctx context.Context, eventType, userID string, data any) {
	event := events.NewEvent(eventType, userID, data)
	if err := d.publisher.Publish(ctx, event); err != nil {
		d.logger.Warn("Failed to publish event",
			"event_type", eventType,
			"event_id", event.ID,
			"user_id", userID,
			"error", err)
	}
}

// pageSize applies the default page size to a zero limit
func (d serviceDeps) pageSize(limit int) int {
	if limit > 0 {
		return limit
	}
	return d.config.DefaultPageSize
}

// today is the UTC calendar day used for snapshot keys
func (d serviceDeps) today() time.Time {
	now := d.now().UTC()
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
}
