// Package ratelimit throttles requests per key with a sliding window. It sits
// in front of the token endpoint where client secrets and codes can be
// guessed.
package ratelimit

import (
	"context"
	"sync"
	"time"
)

// Result is the outcome of one Allow call.
type Result struct {
	Allowed   bool
	Limit     int
	Remaining int
	ResetAt   time.Time
}

// RetryAfter is how long the caller should wait before the next attempt.
func (r Result) RetryAfter(now time.Time) time.Duration {
	if r.Allowed || !r.ResetAt.After(now) {
		return 0
	}
	return r.ResetAt.Sub(now)
}

// Limiter decides whether the request identified by key may proceed.
type Limiter interface {
	Allow(ctx context.Context, key string) (Result, error)
}

// SlidingWindow allows at most limit requests per key in any window-long
// interval. State is per process.
type SlidingWindow struct {
	limit  int
	window time.Duration
	now    func() time.Time

	mu      sync.Mutex
	buckets map[string][]time.Time
}

type Option func(*SlidingWindow)

func WithClock(now func() time.Time) Option {
	return func(s *SlidingWindow) { s.now = now }
}

func NewSlidingWindow(limit int, window time.Duration, opts ...Option) *SlidingWindow {
	s := &SlidingWindow{
		limit:   limit,
		window:  window,
		now:     time.Now,
		buckets: make(map[string][]time.Time),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *SlidingWindow) Allow(_ context.Context, key string) (Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	hits := prune(s.buckets[key], now.Add(-s.window))
	if len(hits) >= s.limit {
		s.buckets[key] = hits
		return Result{Limit: s.limit, ResetAt: hits[0].Add(s.window)}, nil
	}
	hits = append(hits, now)
	s.buckets[key] = hits
	return Result{
		Allowed:   true,
		Limit:     s.limit,
		Remaining: s.limit - len(hits),
		ResetAt:   hits[0].Add(s.window),
	}, nil
}

// Sweep drops keys with no hit inside the window. Run it periodically so
// one-off callers do not accumulate.
func (s *SlidingWindow) Sweep() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	cutoff := s.now().Add(-s.window)
	removed := 0
	for key, hits := range s.buckets {
		if hits = prune(hits, cutoff); len(hits) == 0 {
			delete(s.buckets, key)
			removed++
			continue
		}
		s.buckets[key] = hits
	}
	return removed
}

// prune drops timestamps at or before cutoff. hits is ordered.
func prune(hits []time.Time, cutoff time.Time) []time.Time {
	i := 0
	for ; i < len(hits); i++ {
		if hits[i].After(cutoff) {
			break
		}
	}
	return hits[i:]
}
