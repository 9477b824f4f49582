package testutil

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/SAP-F-2025/prep-service/internal/models"
	"github.com/SAP-F-2025/prep-service/internal/repositories"
	"github.com/SAP-F-2025/prep-service/internal/repositories/postgres"
)

// NewTestDB opens a migrated SQLite database in the test's temp dir
func NewTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?_busy_timeout=5000&_journal_mode=WAL", filepath.Join(t.TempDir(), "test.db"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}

	if err := db.AutoMigrate(postgres.Models()...); err != nil {
		t.Fatalf("migrate test db: %v", err)
	}

	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return db
}

// NewTestRedis starts an in-memory redis and returns a client for it
func NewTestRedis(t *testing.T) (*redis.Client, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return client, mr
}

// NewTestLogger discards everything
func NewTestLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

// NewQuestion returns an active question with four options, the first correct
func NewQuestion(subject, system, topic string, difficulty models.DifficultyLevel) *models.Question {
	explanation := "Because " + topic
	return &models.Question{
		Subject:            subject,
		System:             system,
		Topic:              topic,
		Difficulty:         difficulty,
		Stem:               "Which finding is most consistent with " + topic + "?",
		Options:            []string{"A", "B", "C", "D"},
		CorrectAnswerIndex: 0,
		Explanation:        &explanation,
		IsActive:           true,
		CreatedBy:          "author-1",
	}
}

func Ptr[T any](v T) *T {
	return &v
}

// NewTestRepository wires the gorm repositories over db. client may be nil.
func NewTestRepository(db *gorm.DB, client *redis.Client) repositories.Repository {
	return postgres.NewPostgreSQLRepository(postgres.RepositoryConfig{
		DB:             db,
		RedisClient:    client,
		UserRepository: StaticUsers{},
	})
}

// SeedQuestions inserts questions and fails the test on error
func SeedQuestions(t *testing.T, db *gorm.DB, questions ...*models.Question) []*models.Question {
	t.Helper()
	for _, q := range questions {
		if err := db.WithContext(context.Background()).Create(q).Error; err != nil {
			t.Fatalf("seed question: %v", err)
		}
	}
	return questions
}

// StaticUsers resolves every id to a student
type StaticUsers struct{}

func (StaticUsers) GetByID(_ context.Context, id string) (*models.User, error) {
	return &models.User{ID: id, Role: models.RoleStudent}, nil
}

// Clock is a settable time source
type Clock struct {
	mu  sync.Mutex
	now time.Time
}

func NewClock(now time.Time) *Clock {
	return &Clock{now: now}
}

func (c *Clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *Clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}
