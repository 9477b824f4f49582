package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type payload struct {
	Score int    `json:"score"`
	User  string `json:"user"`
}

func newTestManager(t *testing.T) (*CacheManager, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewCacheManager(client), mr
}

func TestCacheHelper_SetGetDelete(t *testing.T) {
	cm, mr := newTestManager(t)
	ctx := context.Background()

	require.NoError(t, cm.Prediction.Set(ctx, "k", payload{Score: 250, User: "u"}, time.Minute))
	assert.True(t, mr.Exists("prediction:k"))

	var got payload
	require.NoError(t, cm.Prediction.Get(ctx, "k", &got))
	assert.Equal(t, payload{Score: 250, User: "u"}, got)

	require.NoError(t, cm.Prediction.Delete(ctx, "k"))
	assert.ErrorIs(t, cm.Prediction.Get(ctx, "k", &got), ErrCacheNotFound)
}

func TestCacheHelper_TTL(t *testing.T) {
	cm, mr := newTestManager(t)
	ctx := context.Background()

	require.NoError(t, cm.Fast.Set(ctx, "ttl", 1, time.Minute))
	mr.FastForward(2 * time.Minute)

	var v int
	assert.ErrorIs(t, cm.Fast.Get(ctx, "ttl", &v), ErrCacheNotFound)
}

func TestCacheHelper_NilClientDegrades(t *testing.T) {
	cm := NewCacheManager(nil)
	ctx := context.Background()

	assert.False(t, cm.Enabled())
	assert.NoError(t, cm.Question.Set(ctx, "k", 1, time.Minute))
	var v int
	assert.ErrorIs(t, cm.Question.Get(ctx, "k", &v), ErrCacheNotAvailable)
	assert.NoError(t, cm.Question.InvalidatePattern(ctx, "*"))
	assert.ErrorIs(t, cm.HealthCheck(ctx), ErrCacheNotAvailable)

	calls := 0
	got, err := GetOrLoad(ctx, cm.Question, "k", time.Minute, func() (int, error) {
		calls++
		return 7, nil
	})
	require.NoError(t, err)
	assert.Equal(t, 7, got)
	assert.Equal(t, 1, calls)
}

func TestGetOrLoad(t *testing.T) {
	cm, _ := newTestManager(t)
	ctx := context.Background()

	calls := 0
	load := func() (payload, error) {
		calls++
		return payload{Score: 240, User: "u-1"}, nil
	}

	first, err := GetOrLoad(ctx, cm.Prediction, "current:u-1:2026-03-14", time.Hour, load)
	require.NoError(t, err)
	second, err := GetOrLoad(ctx, cm.Prediction, "current:u-1:2026-03-14", time.Hour, load)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, 1, calls)
}

func TestGetOrLoad_LoadErrorIsNotCached(t *testing.T) {
	cm, mr := newTestManager(t)
	ctx := context.Background()
	boom := errors.New("boom")

	_, err := GetOrLoad(ctx, cm.Question, QuestionKey(3), time.Hour, func() (int, error) { return 0, boom })
	assert.ErrorIs(t, err, boom)
	assert.False(t, mr.Exists("question:id:3"))
}

func TestInvalidatePredictionCache(t *testing.T) {
	cm, mr := newTestManager(t)
	ctx := context.Background()

	require.NoError(t, cm.Prediction.Set(ctx, PredictionKey("u-1", "2026-03-13"), 1, time.Hour))
	require.NoError(t, cm.Prediction.Set(ctx, PredictionKey("u-1", "2026-03-14"), 2, time.Hour))
	require.NoError(t, cm.Prediction.Set(ctx, PredictionKey("u-2", "2026-03-14"), 3, time.Hour))

	InvalidatePredictionCache(ctx, cm, "u-1")

	assert.False(t, mr.Exists("prediction:current:u-1:2026-03-13"))
	assert.False(t, mr.Exists("prediction:current:u-1:2026-03-14"))
	assert.True(t, mr.Exists("prediction:current:u-2:2026-03-14"))
}

func TestInvalidateQuestionCache(t *testing.T) {
	cm, mr := newTestManager(t)
	ctx := context.Background()

	require.NoError(t, cm.Question.Set(ctx, QuestionKey(1), "a", time.Hour))
	require.NoError(t, cm.Question.Set(ctx, QuestionKey(2), "b", time.Hour))
	require.NoError(t, cm.Stats.Set(ctx, "pool:abc", 10, time.Hour))

	InvalidateQuestionCache(ctx, cm, 1)

	assert.False(t, mr.Exists("question:id:1"))
	assert.True(t, mr.Exists("question:id:2"))
	assert.False(t, mr.Exists("stats:pool:abc"))
}

func TestCacheManager_HealthCheck(t *testing.T) {
	cm, mr := newTestManager(t)

	assert.NoError(t, cm.HealthCheck(context.Background()))
	mr.Close()
	assert.Error(t, cm.HealthCheck(context.Background()))
}
