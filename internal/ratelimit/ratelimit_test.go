package ratelimit

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestKeyedRateLimiter_Allow(t *testing.T) {
	tests := []struct {
		name     string
		rps      float64
		burst    int
		calls    int
		wantPass int
	}{
		{name: "burst allows initial requests", rps: 1, burst: 3, calls: 3, wantPass: 3},
		{name: "exceeding burst blocks", rps: 1, burst: 2, calls: 5, wantPass: 2},
		{name: "single token", rps: 1, burst: 1, calls: 1, wantPass: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rl := New(tt.rps, tt.burst)
			defer rl.Stop()

			passed := 0
			for range tt.calls {
				if rl.Allow("192.0.2.1") {
					passed++
				}
			}
			assert.Equal(t, tt.wantPass, passed)
		})
	}
}

func TestKeyedRateLimiter_IndependentKeys(t *testing.T) {
	rl := New(1, 1)
	defer rl.Stop()

	assert.True(t, rl.Allow("192.0.2.1"))
	assert.False(t, rl.Allow("192.0.2.1"))
	assert.True(t, rl.Allow("192.0.2.2"))
	assert.Equal(t, 2, rl.Len())
}

func TestKeyedRateLimiter_Wait(t *testing.T) {
	rl := New(10, 1)
	defer rl.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	start := time.Now()
	require.NoError(t, rl.Wait(ctx, "books.example.test"))
	assert.Less(t, time.Since(start), 50*time.Millisecond)

	start = time.Now()
	require.NoError(t, rl.Wait(ctx, "books.example.test"))
	assert.GreaterOrEqual(t, time.Since(start), 80*time.Millisecond)
}

func TestKeyedRateLimiter_WaitContextCanceled(t *testing.T) {
	rl := New(0.1, 1)
	defer rl.Stop()

	rl.Allow("books.example.test")

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	assert.Error(t, rl.Wait(ctx, "books.example.test"))
}

func TestKeyedRateLimiter_EvictIdle(t *testing.T) {
	rl := NewWithIdleTTL(1, 1, time.Hour)
	defer rl.Stop()

	var mu sync.Mutex
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	rl.now = func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		return now
	}
	advance := func(d time.Duration) {
		mu.Lock()
		now = now.Add(d)
		mu.Unlock()
	}

	rl.Allow("old")
	advance(45 * time.Minute)
	rl.Allow("recent")
	advance(30 * time.Minute)

	rl.evictIdle()

	assert.Equal(t, 1, rl.Len())
	rl.mu.Lock()
	_, kept := rl.limiters["recent"]
	rl.mu.Unlock()
	assert.True(t, kept)
}

func TestKeyedRateLimiter_StopReleasesGoroutine(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	rl := New(1, 1)
	rl.Allow("x")
	rl.Stop()
	rl.Stop()
}
