package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/SAP-F-2025/prep-service/internal/cache"
	"github.com/SAP-F-2025/prep-service/internal/models"
	"github.com/SAP-F-2025/prep-service/internal/repositories"
	"github.com/SAP-F-2025/prep-service/internal/repositories/casdoor"
)

// PostgreSQLRepository implements the main Repository interface
type PostgreSQLRepository struct {
	db           *gorm.DB
	redisClient  *redis.Client
	cacheManager *cache.CacheManager

	// Repository instances
	question   repositories.QuestionRepository
	session    repositories.SessionRepository
	attempt    repositories.AttemptRepository
	prediction repositories.PredictionRepository
	progress   repositories.ProgressRepository
	user       repositories.UserRepository
}

// RepositoryConfig holds configuration for repository initialization
type RepositoryConfig struct {
	DB            *gorm.DB
	RedisClient   *redis.Client
	CasdoorConfig casdoor.CasdoorConfig

	// UserRepository overrides the Casdoor-backed user lookup when set
	UserRepository repositories.UserRepository
}

// Models lists every table owned by this service, in migration order
func Models() []any {
	return []any{
		&models.Question{},
		&models.PracticeSession{},
		&models.SessionQuestionState{},
		&models.AttemptRecord{},
		&models.PredictionSnapshot{},
		&models.ModuleProgress{},
	}
}

// NewPostgreSQLRepository creates a new repository with all sub-repositories
func NewPostgreSQLRepository(config RepositoryConfig) repositories.Repository {
	repo := &PostgreSQLRepository{
		db:           config.DB,
		redisClient:  config.RedisClient,
		cacheManager: cache.NewCacheManager(config.RedisClient),
	}

	repo.question = NewQuestionPostgreSQL(config.DB, config.RedisClient)
	repo.session = NewSessionPostgreSQL(config.DB)
	repo.attempt = NewAttemptPostgreSQL(config.DB)
	repo.prediction = NewPredictionPostgreSQL(config.DB)
	repo.progress = NewProgressPostgreSQL(config.DB)

	// User repository uses Casdoor
	if config.UserRepository != nil {
		repo.user = config.UserRepository
	} else {
		repo.user = casdoor.NewUserCasdoor(config.CasdoorConfig, config.RedisClient)
	}

	return repo
}

func (r *PostgreSQLRepository) Question() repositories.QuestionRepository {
	return r.question
}

func (r *PostgreSQLRepository) Session() repositories.SessionRepository {
	return r.session
}

func (r *PostgreSQLRepository) Attempt() repositories.AttemptRepository {
	return r.attempt
}

func (r *PostgreSQLRepository) Prediction() repositories.PredictionRepository {
	return r.prediction
}

func (r *PostgreSQLRepository) Progress() repositories.ProgressRepository {
	return r.progress
}

// User returns the user repository
func (r *PostgreSQLRepository) User() repositories.UserRepository {
	return r.user
}

// WithTransaction runs fn in a database transaction. Sub-repositories take the
// transaction through their tx argument.
func (r *PostgreSQLRepository) WithTransaction(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return r.db.WithContext(ctx).Transaction(fn)
}

// Ping checks the health of database and cache connections
func (r *PostgreSQLRepository) Ping(ctx context.Context) error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return fmt.Errorf("failed to get database instance: %w", err)
	}

	if err := sqlDB.PingContext(ctx); err != nil {
		return fmt.Errorf("database ping failed: %w", err)
	}

	if r.redisClient != nil {
		if err := r.cacheManager.HealthCheck(ctx); err != nil {
			return fmt.Errorf("cache ping failed: %w", err)
		}
	}

	return nil
}

// Close closes all connections
func (r *PostgreSQLRepository) Close() error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return fmt.Errorf("failed to get database instance: %w", err)
	}

	if err := sqlDB.Close(); err != nil {
		return fmt.Errorf("failed to close database: %w", err)
	}

	if r.redisClient != nil {
		if err := r.redisClient.Close(); err != nil {
			return fmt.Errorf("failed to close Redis: %w", err)
		}
	}

	return nil
}

// RepositoryManager implements the RepositoryManager interface
type RepositoryManager struct {
	config RepositoryConfig
	repo   repositories.Repository
}

// NewRepositoryManager creates a new repository manager
func NewRepositoryManager(config RepositoryConfig) repositories.RepositoryManager {
	return &RepositoryManager{
		config: config,
	}
}

// Initialize checks connections and builds the repository
func (rm *RepositoryManager) Initialize() error {
	if rm.config.DB == nil {
		return fmt.Errorf("database connection is required")
	}

	sqlDB, err := rm.config.DB.DB()
	if err != nil {
		return fmt.Errorf("failed to get database instance: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := sqlDB.PingContext(ctx); err != nil {
		return fmt.Errorf("database connection failed: %w", err)
	}

	if rm.config.RedisClient != nil {
		if _, err := rm.config.RedisClient.Ping(ctx).Result(); err != nil {
			return fmt.Errorf("redis connection failed: %w", err)
		}
	}

	rm.repo = NewPostgreSQLRepository(rm.config)

	return nil
}

// GetRepository returns the repository instance
func (rm *RepositoryManager) GetRepository() repositories.Repository {
	return rm.repo
}

// HealthCheck checks the health of all repository connections
func (rm *RepositoryManager) HealthCheck(ctx context.Context) error {
	if rm.repo == nil {
		return fmt.Errorf("repository not initialized")
	}

	return rm.repo.Ping(ctx)
}

// Shutdown gracefully shuts down all repository connections
func (rm *RepositoryManager) Shutdown(ctx context.Context) error {
	if rm.repo == nil {
		return nil
	}

	return rm.repo.Close()
}
