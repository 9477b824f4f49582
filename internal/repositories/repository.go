package repositories

import (
	"context"

	"gorm.io/gorm"
)

// Repository groups every repository the service uses
type Repository interface {
	// Question pool
	Question() QuestionRepository

	// Practice sessions and per-question state
	Session() SessionRepository

	// Completed attempt history
	Attempt() AttemptRepository

	// Daily prediction snapshots
	Prediction() PredictionRepository

	// Module completion, the source of knowledge coverage
	Progress() ProgressRepository

	// User domain (read-only, owned by the identity provider)
	User() UserRepository

	// Transaction support
	WithTransaction(ctx context.Context, fn func(tx *gorm.DB) error) error

	// Health check
	Ping(ctx context.Context) error

	// Close connections
	Close() error
}

// RepositoryManager interface for managing repository lifecycle
type RepositoryManager interface {
	// Initialize repositories with database connections
	Initialize() error

	// Get repository instance
	GetRepository() Repository

	// Health check for all repositories
	HealthCheck(ctx context.Context) error

	// Graceful shutdown
	Shutdown(ctx context.Context) error
}
