package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/assemble-interior/assemble-go/internal/projects/domain"
)

const statsTTL = 60 * time.Second

// StatsCache keeps per-user dashboard aggregates in Redis for a short window
// so list-heavy dashboard loads do not hammer the counts query.
type StatsCache struct {
	rdb *redis.Client
}

func NewStatsCache(rdb *redis.Client) *StatsCache {
	return &StatsCache{rdb: rdb}
}

func statsKey(userID string) string {
	return fmt.Sprintf("assemble:stats:%s", userID)
}

// Get returns the cached stats, or nil on a miss. Redis being down is treated
// as a miss.
func (c *StatsCache) Get(ctx context.Context, userID string) (*domain.Stats, error) {
	raw, err := c.rdb.Get(ctx, statsKey(userID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var s domain.Stats
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, nil
	}
	return &s, nil
}

func (c *StatsCache) Set(ctx context.Context, userID string, s *domain.Stats) error {
	raw, err := json.Marshal(s)
	if err != nil {
		return err
	}
	return c.rdb.Set(ctx, statsKey(userID), raw, statsTTL).Err()
}

// Invalidate drops the cached entry after any write that changes the counts.
func (c *StatsCache) Invalidate(ctx context.Context, userID string) error {
	return c.rdb.Del(ctx, statsKey(userID)).Err()
}
