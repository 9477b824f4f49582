package cache

import (
	"context"
	"fmt"
	"log/slog"
)

// SafeInvalidatePattern safely invalidates cache pattern with logging
func SafeInvalidatePattern(ctx context.Context, helper *CacheHelper, pattern string) {
	if err := helper.InvalidatePattern(ctx, pattern); err != nil {
		slog.ErrorContext(ctx, "Failed to invalidate cache pattern",
			"error", err,
			"pattern", pattern)
	}
}

// SafeDelete safely deletes cache keys with logging
func SafeDelete(ctx context.Context, helper *CacheHelper, keys ...string) {
	if err := helper.Delete(ctx, keys...); err != nil {
		slog.ErrorContext(ctx, "Failed to delete cache keys",
			"error", err,
			"keys", keys)
	}
}

// PredictionKey is the cache key of a user's prediction for one day
func PredictionKey(userID, date string) string {
	return fmt.Sprintf("current:%s:%s", userID, date)
}

// QuestionKey is the cache key of one pool item
func QuestionKey(id uint) string {
	return fmt.Sprintf("id:%d", id)
}

// InvalidatePredictionCache drops every cached prediction of a user
func InvalidatePredictionCache(ctx context.Context, cm *CacheManager, userID string) {
	SafeInvalidatePattern(ctx, cm.Prediction, fmt.Sprintf("current:%s:*", userID))
}

// InvalidateQuestionCache invalidates the given questions and all pool counts
func InvalidateQuestionCache(ctx context.Context, cm *CacheManager, questionIDs ...uint) {
	if len(questionIDs) > 0 {
		keys := make([]string, 0, len(questionIDs))
		for _, id := range questionIDs {
			keys = append(keys, QuestionKey(id))
		}
		SafeDelete(ctx, cm.Question, keys...)
	}
	SafeInvalidatePattern(ctx, cm.Stats, "pool:*")
}
