package ratelimit_test

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	redis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/tradethiopiainstructor01-web/tradethiopia-sub003/internal/ratelimit"
)

func TestAllowWithinWindow(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	limiter := ratelimit.Limiter{Client: client, Prefix: "rl:"}
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		allowed, _, _, err := limiter.Allow(ctx, "1.2.3.4", time.Minute, 3)
		require.NoError(t, err)
		require.True(t, allowed, "request %d should be admitted", i+1)
	}
	allowed, remaining, _, err := limiter.Allow(ctx, "1.2.3.4", time.Minute, 3)
	require.NoError(t, err)
	require.False(t, allowed)
	require.Zero(t, remaining)

	// A different key is unaffected.
	allowed, _, _, err = limiter.Allow(ctx, "5.6.7.8", time.Minute, 3)
	require.NoError(t, err)
	require.True(t, allowed)
}

func TestAllowNoopWithoutClient(t *testing.T) {
	limiter := ratelimit.Limiter{}
	allowed, _, _, err := limiter.Allow(context.Background(), "k", time.Minute, 1)
	require.NoError(t, err)
	require.True(t, allowed)
}
