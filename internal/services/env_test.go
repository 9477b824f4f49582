package services

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/SAP-F-2025/prep-service/internal/events"
	"github.com/SAP-F-2025/prep-service/internal/models"
	"github.com/SAP-F-2025/prep-service/internal/repositories"
	"github.com/SAP-F-2025/prep-service/internal/scoring"
	"github.com/SAP-F-2025/prep-service/internal/testutil"
	"github.com/SAP-F-2025/prep-service/internal/validator"
)

var testStart = time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)

// reverseShuffler reverses the pool so selections are predictable
type reverseShuffler struct{}

func (reverseShuffler) Shuffle(n int, swap func(i, j int)) {
	for i, j := 0, n-1; i < j; i, j = i+1, j-1 {
		swap(i, j)
	}
}

type fixedSource float64

func (f fixedSource) Float64() float64 { return float64(f) }

type testEnv struct {
	db        *gorm.DB
	repo      repositories.Repository
	redis     *miniredis.Miniredis
	publisher *events.MockEventPublisher
	clock     *testutil.Clock
	engine    *scoring.Engine
	manager   ServiceManager
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db := testutil.NewTestDB(t)
	client, mr := testutil.NewTestRedis(t)
	logger := testutil.NewTestLogger()
	publisher := events.NewMockEventPublisher(logger)
	clock := testutil.NewClock(testStart)
	engine := scoring.NewEngine(scoring.DefaultConfig(), fixedSource(0.5))
	repo := testutil.NewTestRepository(db, client)

	manager := NewDefaultServiceManager(db, repo, logger, validator.New(),
		WithEventPublisher(publisher),
		WithRedis(client),
		WithScoringEngine(engine),
		WithShuffler(reverseShuffler{}),
		WithClock(clock.Now))
	require.NoError(t, manager.Initialize(context.Background()))

	return &testEnv{
		db:        db,
		repo:      repo,
		redis:     mr,
		publisher: publisher,
		clock:     clock,
		engine:    engine,
		manager:   manager,
	}
}

// seedPool stores three active cardiology questions and one inactive one.
// Ids are 1-4 in insertion order; the correct answer is always option 0.
func (e *testEnv) seedPool(t *testing.T) []*models.Question {
	t.Helper()
	inactive := testutil.NewQuestion("Pathology", "Cardiovascular", "Valvular disease", models.DifficultyEasy)
	inactive.IsActive = false
	return testutil.SeedQuestions(t, e.db,
		testutil.NewQuestion("Pathology", "Cardiovascular", "Heart failure", models.DifficultyMedium),
		testutil.NewQuestion("Pathology", "Cardiovascular", "Arrhythmia", models.DifficultyHard),
		testutil.NewQuestion("Pharmacology", "Cardiovascular", "Heart failure", models.DifficultyMedium),
		inactive,
	)
}
