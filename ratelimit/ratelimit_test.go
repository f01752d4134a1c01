package ratelimit

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryLimiter_BlocksAfterLimit(t *testing.T) {
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	l := NewMemoryLimiter(10, time.Minute).WithClock(func() time.Time { return now })
	ctx := context.Background()

	for i := 0; i < 10; i++ {
		res, err := l.Allow(ctx, "10.0.0.1")
		require.NoError(t, err)
		assert.True(t, res.Allowed, "attempt %d", i+1)
		assert.Equal(t, 9-i, res.Remaining)
	}

	res, err := l.Allow(ctx, "10.0.0.1")
	require.NoError(t, err)
	assert.False(t, res.Allowed)
	assert.Equal(t, time.Minute, res.RetryAfter)

	// Other clients have their own budget.
	res, err = l.Allow(ctx, "10.0.0.2")
	require.NoError(t, err)
	assert.True(t, res.Allowed)
}

func TestMemoryLimiter_WindowResets(t *testing.T) {
	now := time.Date(2024, 3, 1, 12, 0, 30, 0, time.UTC)
	l := NewMemoryLimiter(1, time.Minute).WithClock(func() time.Time { return now })
	ctx := context.Background()

	res, _ := l.Allow(ctx, "k")
	assert.True(t, res.Allowed)
	res, _ = l.Allow(ctx, "k")
	assert.False(t, res.Allowed)
	assert.Equal(t, 30*time.Second, res.RetryAfter)

	now = now.Add(30 * time.Second)
	res, _ = l.Allow(ctx, "k")
	assert.True(t, res.Allowed)
}

type failingLimiter struct{}

func (failingLimiter) Allow(ctx context.Context, key string) (Result, error) {
	return Result{}, errors.New("connection refused")
}

func TestFallback(t *testing.T) {
	secondary := NewMemoryLimiter(1, time.Minute)
	f := NewFallback(failingLimiter{}, secondary, nil)
	ctx := context.Background()

	res, err := f.Allow(ctx, "k")
	require.NoError(t, err)
	assert.True(t, res.Allowed)

	res, err = f.Allow(ctx, "k")
	require.NoError(t, err)
	assert.False(t, res.Allowed)
}

func TestRedisLimiter(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping redis test in short mode")
	}
	redisURL := os.Getenv("TEST_REDIS_URL")
	if redisURL == "" {
		t.Skip("TEST_REDIS_URL not set")
	}

	ctx := context.Background()
	client, err := Connect(ctx, redisURL)
	require.NoError(t, err)
	defer client.Close()

	l := NewRedisLimiter(client, "bugtrack:test:"+uuid.NewString()+":", 3, time.Minute)
	now := time.Now()
	l.now = func() time.Time { return now }

	for i := 0; i < 3; i++ {
		res, err := l.Allow(ctx, "client")
		require.NoError(t, err)
		assert.True(t, res.Allowed)
	}
	res, err := l.Allow(ctx, "client")
	require.NoError(t, err)
	assert.False(t, res.Allowed)
	assert.Greater(t, res.RetryAfter, time.Duration(0))
}
