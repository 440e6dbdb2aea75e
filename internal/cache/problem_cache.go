// Package cache holds the Redis-backed helpers around the problem collection:
// the decoded snapshot cache, the change feed publisher and the lock that
// serializes structural writes.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/codepractice/codepractice-backend/internal/config"
	"github.com/codepractice/codepractice-backend/internal/model"
	"github.com/redis/go-redis/v9"
)

// ProblemCache caches the decoded collection so list and editor views do not
// rescan the store on every request.
type ProblemCache struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewProblemCache creates a ProblemCache. A zero ttl disables caching.
func NewProblemCache(rdb *redis.Client, ttl time.Duration) *ProblemCache {
	return &ProblemCache{rdb: rdb, ttl: ttl}
}

// Get returns the cached snapshot; ok is false on a miss.
func (c *ProblemCache) Get(ctx context.Context) ([]model.Problem, bool, error) {
	if c.ttl <= 0 {
		return nil, false, nil
	}

	raw, err := c.rdb.Get(ctx, config.CacheKey.ProblemSnapshotKey()).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("get problem snapshot: %w", err)
	}

	var problems []model.Problem
	if err := json.Unmarshal(raw, &problems); err != nil {
		return nil, false, fmt.Errorf("decode problem snapshot: %w", err)
	}
	return problems, true, nil
}

// setSnapshotScript stores the snapshot only while the generation it was
// read under is still current.
var setSnapshotScript = redis.NewScript(`
local gen = tonumber(redis.call("GET", KEYS[1]) or "0")
if gen ~= tonumber(ARGV[1]) then
	return 0
end
redis.call("SET", KEYS[2], ARGV[2], "PX", ARGV[3])
return 1
`)

// Generation returns the snapshot generation. Every Invalidate bumps it.
func (c *ProblemCache) Generation(ctx context.Context) (int64, error) {
	gen, err := c.rdb.Get(ctx, config.CacheKey.ProblemGenerationKey()).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("get problem snapshot generation: %w", err)
	}
	return gen, nil
}

// Set stores the snapshot read under generation gen. It is dropped when an
// Invalidate ran since gen was read.
func (c *ProblemCache) Set(ctx context.Context, gen int64, problems []model.Problem) error {
	if c.ttl <= 0 {
		return nil
	}

	raw, err := json.Marshal(problems)
	if err != nil {
		return fmt.Errorf("encode problem snapshot: %w", err)
	}
	keys := []string{config.CacheKey.ProblemGenerationKey(), config.CacheKey.ProblemSnapshotKey()}
	return setSnapshotScript.Run(ctx, c.rdb, keys, gen, raw, c.ttl.Milliseconds()).Err()
}

// Invalidate bumps the generation and drops the snapshot.
func (c *ProblemCache) Invalidate(ctx context.Context) error {
	if err := c.rdb.Incr(ctx, config.CacheKey.ProblemGenerationKey()).Err(); err != nil {
		return fmt.Errorf("bump problem snapshot generation: %w", err)
	}
	return c.rdb.Del(ctx, config.CacheKey.ProblemSnapshotKey()).Err()
}

// EventPublisher publishes problem change events on Redis PubSub.
type EventPublisher struct {
	rdb *redis.Client
}

// NewEventPublisher creates an EventPublisher.
func NewEventPublisher(rdb *redis.Client) *EventPublisher {
	return &EventPublisher{rdb: rdb}
}

// Publish sends ev to every change-feed subscriber.
func (p *EventPublisher) Publish(ctx context.Context, ev model.ProblemEvent) error {
	raw, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	return p.rdb.Publish(ctx, config.CacheKey.ProblemEventsChannel(), raw).Err()
}

// Subscribe opens a subscription to the change feed. The caller closes it.
func (p *EventPublisher) Subscribe(ctx context.Context) *redis.PubSub {
	return p.rdb.Subscribe(ctx, config.CacheKey.ProblemEventsChannel())
}
