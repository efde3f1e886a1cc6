package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalRateLimiterBlocksWithinCooldown(t *testing.T) {
	l := NewLocalRateLimiter()
	ctx := context.Background()

	ok, err := l.CheckAndSet(ctx, "channel1:incident1", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = l.CheckAndSet(ctx, "channel1:incident1", time.Minute)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestLocalRateLimiterAllowsAfterCooldownExpires(t *testing.T) {
	l := NewLocalRateLimiter()
	ctx := context.Background()

	ok, err := l.CheckAndSet(ctx, "k", 10*time.Millisecond)
	require.NoError(t, err)
	assert.True(t, ok)

	time.Sleep(20 * time.Millisecond)

	ok, err = l.CheckAndSet(ctx, "k", 10*time.Millisecond)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestLocalRateLimiterKeysAreIndependent(t *testing.T) {
	l := NewLocalRateLimiter()
	ctx := context.Background()

	ok1, _ := l.CheckAndSet(ctx, "a", time.Minute)
	ok2, _ := l.CheckAndSet(ctx, "b", time.Minute)
	assert.True(t, ok1)
	assert.True(t, ok2)
}
