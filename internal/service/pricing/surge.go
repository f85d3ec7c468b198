package pricing

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// SurgeSource provides the current demand multiplier
type SurgeSource interface {
	SurgeMultiplier(ctx context.Context) (float64, error)
}

// SurgePolicy scales another policy's price by a bounded surge multiplier
type SurgePolicy struct {
	next Policy
	src  SurgeSource
	min  float64
	max  float64
}

// NewSurgePolicy wraps next
func NewSurgePolicy(next Policy, src SurgeSource, min, max float64) *SurgePolicy {
	return &SurgePolicy{next: next, src: src, min: min, max: max}
}

// Quote implements Policy. A failing source means no surge.
func (s *SurgePolicy) Quote(ctx context.Context, trip Trip) (Quote, error) {
	q, err := s.next.Quote(ctx, trip)
	if err != nil {
		return q, err
	}
	m, err := s.src.SurgeMultiplier(ctx)
	if err != nil {
		return q, nil
	}
	q.Price = roundMoney(q.Price * s.clamp(m))
	return q, nil
}

func (s *SurgePolicy) clamp(m float64) float64 {
	if m > s.max {
		return s.max
	}
	if m < s.min {
		return s.min
	}
	return m
}

// Getter is the part of the Redis client RedisSurge reads with
type Getter interface {
	Get(ctx context.Context, key string) *redis.StringCmd
}

// RedisSurge reads the multiplier an operator stores under surge:<region>
type RedisSurge struct {
	client Getter
	key    string
}

// NewRedisSurge creates a Redis-backed surge source for a region
func NewRedisSurge(client Getter, region string) *RedisSurge {
	return &RedisSurge{client: client, key: SurgeKey(region)}
}

// SurgeKey is the Redis key holding a region's multiplier
func SurgeKey(region string) string {
	return fmt.Sprintf("surge:%s", region)
}

// SurgeMultiplier implements SurgeSource. An unset key means no surge (1.0).
func (r *RedisSurge) SurgeMultiplier(ctx context.Context) (float64, error) {
	m, err := r.client.Get(ctx, r.key).Float64()
	if errors.Is(err, redis.Nil) {
		return 1.0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to read surge multiplier: %w", err)
	}
	return m, nil
}
