package services

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SAP-F-2025/prep-service/internal/cache"
	"github.com/SAP-F-2025/prep-service/internal/testutil"
)

func TestProgressService_UpsertAndList(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()
	svc := e.manager.Progress()

	empty, err := svc.List(ctx, "u-1")
	require.NoError(t, err)
	assert.Empty(t, empty.Modules)
	assert.Nil(t, empty.AverageCoverage)

	_, err = svc.UpsertModule(ctx, "u-1", "cardiology", &ModuleProgressRequest{CompletionPercent: testutil.Ptr(40.0)})
	require.NoError(t, err)
	_, err = svc.UpsertModule(ctx, "u-1", " renal ", &ModuleProgressRequest{CompletionPercent: testutil.Ptr(100.0)})
	require.NoError(t, err)

	key := cache.PredictionCacheConfig.Prefix + cache.PredictionKey("u-1", "2026-03-14")
	require.NoError(t, e.redis.Set(key, "{}"))

	// second write to the same module replaces the first
	updated, err := svc.UpsertModule(ctx, "u-1", "cardiology", &ModuleProgressRequest{CompletionPercent: testutil.Ptr(60.0)})
	require.NoError(t, err)
	assert.Equal(t, "cardiology", updated.ModuleID)
	assert.False(t, e.redis.Exists(key))

	list, err := svc.List(ctx, "u-1")
	require.NoError(t, err)
	require.Len(t, list.Modules, 2)
	assert.Equal(t, "cardiology", list.Modules[0].ModuleID)
	assert.InDelta(t, 60.0, list.Modules[0].CompletionPercent, 1e-9)
	assert.Equal(t, "renal", list.Modules[1].ModuleID)
	require.NotNil(t, list.AverageCoverage)
	assert.InDelta(t, 80.0, *list.AverageCoverage, 1e-9)

	other, err := svc.List(ctx, "u-2")
	require.NoError(t, err)
	assert.Empty(t, other.Modules)
}

func TestProgressService_UpsertRejectsInvalid(t *testing.T) {
	e := newTestEnv(t)
	svc := e.manager.Progress()

	tests := []struct {
		name     string
		moduleID string
		req      *ModuleProgressRequest
	}{
		{"missing percent", "cardiology", &ModuleProgressRequest{}},
		{"over 100", "cardiology", &ModuleProgressRequest{CompletionPercent: testutil.Ptr(100.5)}},
		{"negative", "cardiology", &ModuleProgressRequest{CompletionPercent: testutil.Ptr(-1.0)}},
		{"blank module", "   ", &ModuleProgressRequest{CompletionPercent: testutil.Ptr(10.0)}},
		{"long module", strings.Repeat("m", 101), &ModuleProgressRequest{CompletionPercent: testutil.Ptr(10.0)}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.UpsertModule(context.Background(), "u-1", tt.moduleID, tt.req)
			assert.ErrorIs(t, err, ErrValidationFailed)
		})
	}
}
