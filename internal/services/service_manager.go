package services

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/SAP-F-2025/prep-service/internal/cache"
	"github.com/SAP-F-2025/prep-service/internal/events"
	"github.com/SAP-F-2025/prep-service/internal/practice"
	"github.com/SAP-F-2025/prep-service/internal/repositories"
	"github.com/SAP-F-2025/prep-service/internal/scoring"
	"github.com/SAP-F-2025/prep-service/internal/validator"
)

// ServiceManagerConfig holds configuration for the service manager
type ServiceManagerConfig struct {
	// Prediction
	PredictionCacheTTL time.Duration
	DefaultHistoryDays int

	// Listing defaults
	DefaultPageSize int

	// Question import
	MaxImportRows int
}

// DefaultServiceManagerConfig returns production settings
func DefaultServiceManagerConfig() ServiceManagerConfig {
	return ServiceManagerConfig{
		PredictionCacheTTL: cache.PredictionCacheConfig.TTL,
		DefaultHistoryDays: 30,
		DefaultPageSize:    20,
		MaxImportRows:      2000,
	}
}

// Option customizes a service manager before Initialize
type Option func(*serviceManager)

// WithConfig replaces the default configuration
func WithConfig(config ServiceManagerConfig) Option {
	return func(sm *serviceManager) { sm.config = config }
}

// WithEventPublisher sets where domain events go. Without it events are dropped.
func WithEventPublisher(publisher events.EventPublisher) Option {
	return func(sm *serviceManager) { sm.publisher = publisher }
}

// WithScoringEngine sets the projection engine
func WithScoringEngine(engine *scoring.Engine) Option {
	return func(sm *serviceManager) { sm.engine = engine }
}

// WithRedis enables the prediction cache
func WithRedis(client *redis.Client) Option {
	return func(sm *serviceManager) { sm.cacheManager = cache.NewCacheManager(client) }
}

// WithShuffler sets the random source of question selection
func WithShuffler(shuffler practice.Shuffler) Option {
	return func(sm *serviceManager) { sm.shuffler = shuffler }
}

// WithClock overrides time.Now
func WithClock(now func() time.Time) Option {
	return func(sm *serviceManager) { sm.now = now }
}

// serviceManager implements ServiceManager interface
type serviceManager struct {
	// Dependencies
	db           *gorm.DB
	repo         repositories.Repository
	logger       *slog.Logger
	validator    *validator.Validator
	config       ServiceManagerConfig
	publisher    events.EventPublisher
	engine       *scoring.Engine
	cacheManager *cache.CacheManager
	shuffler     practice.Shuffler
	now          func() time.Time

	// Service instances
	sessionService    SessionService
	predictionService PredictionService
	attemptService    AttemptService
	progressService   ProgressService
	questionService   QuestionService
	reportService     ReportService

	// Lifecycle management
	initialized bool
	shutdown    bool
	mu          sync.RWMutex
}

// NewServiceManager creates a new service manager with all dependencies
func NewServiceManager(db *gorm.DB, repo repositories.Repository, logger *slog.Logger, validator *validator.Validator, opts ...Option) ServiceManager {
	sm := &serviceManager{
		db:        db,
		repo:      repo,
		logger:    logger,
		validator: validator,
		config:    DefaultServiceManagerConfig(),
	}
	for _, opt := range opts {
		opt(sm)
	}

	if sm.publisher == nil {
		sm.publisher = events.NopEventPublisher{}
	}
	if sm.engine == nil {
		sm.engine = scoring.NewEngine(scoring.DefaultConfig(), nil)
	}
	if sm.cacheManager == nil {
		sm.cacheManager = cache.NewCacheManager(nil)
	}
	if sm.shuffler == nil {
		sm.shuffler = practice.DefaultShuffler()
	}
	if sm.now == nil {
		sm.now = time.Now
	}
	return sm
}

// NewDefaultServiceManager creates a service manager with default configuration
func NewDefaultServiceManager(db *gorm.DB, repo repositories.Repository, logger *slog.Logger, validator *validator.Validator, opts ...Option) ServiceManager {
	return NewServiceManager(db, repo, logger, validator, opts...)
}

// Initialize sets up all services and their dependencies
func (sm *serviceManager) Initialize(ctx context.Context) error {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	if sm.initialized {
		return nil
	}

	sm.logger.Info("Initializing service manager")

	if err := sm.engine.Config().Validate(); err != nil {
		return fmt.Errorf("invalid scoring configuration: %w", err)
	}

	d := sm.deps()
	sm.sessionService = NewSessionService(d, sm.shuffler)
	sm.predictionService = NewPredictionService(d, sm.engine)
	sm.attemptService = NewAttemptService(d)
	sm.progressService = NewProgressService(d)
	sm.questionService = NewQuestionService(d)
	sm.reportService = NewReportService(d)

	sm.initialized = true
	sm.logger.Info("Service manager initialized successfully",
		"prediction_cache", sm.cacheManager.Enabled())

	return nil
}

func (sm *serviceManager) deps() serviceDeps {
	return serviceDeps{
		repo:      sm.repo,
		db:        sm.db,
		logger:    sm.logger,
		validator: sm.validator,
		publisher: sm.publisher,
		cache:     sm.cacheManager,
		config:    sm.config,
		now:       sm.now,
	}
}

// Service getters
func (sm *serviceManager) Session() SessionService {
	sm.mustBeInitialized()
	return sm.sessionService
}

func (sm *serviceManager) Prediction() PredictionService {
	sm.mustBeInitialized()
	return sm.predictionService
}

func (sm *serviceManager) Attempt() AttemptService {
	sm.mustBeInitialized()
	return sm.attemptService
}

func (sm *serviceManager) Progress() ProgressService {
	sm.mustBeInitialized()
	return sm.progressService
}

func (sm *serviceManager) Question() QuestionService {
	sm.mustBeInitialized()
	return sm.questionService
}

func (sm *serviceManager) Report() ReportService {
	sm.mustBeInitialized()
	return sm.reportService
}

func (sm *serviceManager) mustBeInitialized() {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	if !sm.initialized {
		panic("service manager not initialized")
	}
}

// Health and lifecycle
func (sm *serviceManager) HealthCheck(ctx context.Context) error {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	if !sm.initialized {
		return fmt.Errorf("service manager not initialized")
	}

	if sm.shutdown {
		return fmt.Errorf("service manager is shut down")
	}

	if err := sm.repo.Ping(ctx); err != nil {
		return fmt.Errorf("repository health check failed: %w", err)
	}

	if sm.cacheManager.Enabled() {
		if err := sm.cacheManager.HealthCheck(ctx); err != nil {
			return fmt.Errorf("cache health check failed: %w", err)
		}
	}

	return nil
}

func (sm *serviceManager) Shutdown(ctx context.Context) error {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	if sm.shutdown {
		return nil
	}

	sm.logger.Info("Shutting down service manager")

	if err := sm.publisher.Close(); err != nil {
		sm.logger.Error("Failed to close event publisher", "error", err)
	}

	sm.shutdown = true
	sm.logger.Info("Service manager shut down completed")

	return nil
}
