// Package ratelimit throttles the unauthenticated endpoints per client IP
// with a sliding window, kept in memory or in Redis.
package ratelimit

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Result describes one admission decision.
type Result struct {
	Allowed    bool
	Limit      int
	Remaining  int
	ResetAt    time.Time
	RetryAfter int
}

// Store admits requests for key under limit within window.
type Store interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration) (*Result, error)
}

// sweepInterval bounds how often InMemory scans for idle keys.
const sweepInterval = time.Minute

type slidingWindow struct {
	stamps []time.Time
	window time.Duration
}

// InMemory keeps one sliding window per key. It is not shared between replicas.
// Keys whose windows have fully expired are dropped on a periodic sweep.
type InMemory struct {
	mu        sync.Mutex
	windows   map[string]*slidingWindow
	now       func() time.Time
	lastSweep time.Time
}

func NewInMemory() *InMemory {
	return &InMemory{windows: make(map[string]*slidingWindow), now: time.Now}
}

func (s *InMemory) Allow(_ context.Context, key string, limit int, window time.Duration) (*Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	s.sweepLocked(now)

	w, ok := s.windows[key]
	if !ok {
		w = &slidingWindow{}
		s.windows[key] = w
	}
	w.window = window
	w.stamps = prune(w.stamps, now.Add(-window))
	if len(w.stamps) >= limit {
		resetAt := now.Add(window)
		if len(w.stamps) > 0 {
			resetAt = w.stamps[0].Add(window)
		}
		return denied(limit, now, resetAt), nil
	}
	w.stamps = append(w.stamps, now)
	return &Result{
		Allowed:   true,
		Limit:     limit,
		Remaining: limit - len(w.stamps),
		ResetAt:   w.stamps[0].Add(window),
	}, nil
}

// Len reports how many keys are tracked.
func (s *InMemory) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.windows)
}

func (s *InMemory) sweepLocked(now time.Time) {
	if now.Sub(s.lastSweep) < sweepInterval {
		return
	}
	s.lastSweep = now
	for key, w := range s.windows {
		w.stamps = prune(w.stamps, now.Add(-w.window))
		if len(w.stamps) == 0 {
			delete(s.windows, key)
		}
	}
}

// prune drops timestamps at or before cutoff. stamps is sorted.
func prune(stamps []time.Time, cutoff time.Time) []time.Time {
	i := 0
	for ; i < len(stamps); i++ {
		if stamps[i].After(cutoff) {
			break
		}
	}
	return stamps[i:]
}

// Redis keeps each window in a sorted set scored by arrival time in
// microseconds, so every replica sees the same counts.
type Redis struct {
	client redis.UniversalClient
	prefix string
	now    func() time.Time
}

func NewRedis(client redis.UniversalClient) *Redis {
	return &Redis{client: client, prefix: "ratelimit:", now: time.Now}
}

func (s *Redis) Allow(ctx context.Context, key string, limit int, window time.Duration) (*Result, error) {
	now := s.now()
	k := s.prefix + key
	member := fmt.Sprintf("%d-%s", now.UnixMicro(), uuid.NewString())
	cutoff := now.Add(-window).UnixMicro()

	var card *redis.IntCmd
	var oldest *redis.ZSliceCmd
	_, err := s.client.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.ZRemRangeByScore(ctx, k, "-inf", fmt.Sprint(cutoff))
		p.ZAdd(ctx, k, redis.Z{Score: float64(now.UnixMicro()), Member: member})
		card = p.ZCard(ctx, k)
		oldest = p.ZRangeWithScores(ctx, k, 0, 0)
		p.PExpire(ctx, k, window)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("rate limit window %s: %w", key, err)
	}

	resetAt := now.Add(window)
	if zs := oldest.Val(); len(zs) > 0 {
		resetAt = time.UnixMicro(int64(zs[0].Score)).Add(window)
	}
	count := int(card.Val())
	if count > limit {
		if err := s.client.ZRem(ctx, k, member).Err(); err != nil {
			return nil, fmt.Errorf("rate limit window %s: %w", key, err)
		}
		return denied(limit, now, resetAt), nil
	}
	return &Result{Allowed: true, Limit: limit, Remaining: limit - count, ResetAt: resetAt}, nil
}

func denied(limit int, now, resetAt time.Time) *Result {
	retry := int(resetAt.Sub(now).Round(time.Second) / time.Second)
	if retry < 1 {
		retry = 1
	}
	return &Result{Limit: limit, ResetAt: resetAt, RetryAfter: retry}
}
