package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// QuotaResult is the outcome of a daily quota check.
type QuotaResult struct {
	Allowed bool
	Used    int64
	Limit   int64
}

// QuotaTracker tracks daily AI request counts per user via Redis. Every
// provider call costs money, so heavy users are capped per UTC day.
type QuotaTracker struct {
	rdb *redis.Client
}

// NewQuotaTracker creates a quota tracker. If rdb is nil, all checks pass.
func NewQuotaTracker(rdb *redis.Client) *QuotaTracker {
	return &QuotaTracker{rdb: rdb}
}

func dailyQuotaKey(userID string) string {
	day := time.Now().UTC().Format("2006-01-02")
	return fmt.Sprintf("studypal:quota:daily:%s:%s", userID, day)
}

// CheckDaily checks if the user is under their daily AI request quota.
func (q *QuotaTracker) CheckDaily(ctx context.Context, userID string, limit int64) (QuotaResult, error) {
	if q.rdb == nil {
		return QuotaResult{Allowed: true, Limit: limit}, nil
	}

	key := dailyQuotaKey(userID)
	used, err := q.rdb.Get(ctx, key).Int64()
	if err != nil && err != redis.Nil {
		// Fail open on Redis errors
		return QuotaResult{Allowed: true, Limit: limit}, nil
	}

	return QuotaResult{
		Allowed: used < limit,
		Used:    used,
		Limit:   limit,
	}, nil
}

// Record adds one request to the user's daily counter.
func (q *QuotaTracker) Record(ctx context.Context, userID string) error {
	if q.rdb == nil {
		return nil
	}

	key := dailyQuotaKey(userID)
	pipe := q.rdb.Pipeline()
	pipe.Incr(ctx, key)
	// Expire at end of day UTC + 1 hour buffer
	now := time.Now().UTC()
	endOfDay := time.Date(now.Year(), now.Month(), now.Day()+1, 0, 0, 0, 0, time.UTC)
	ttl := endOfDay.Sub(now) + time.Hour
	pipe.Expire(ctx, key, ttl)
	_, err := pipe.Exec(ctx)
	return err
}
