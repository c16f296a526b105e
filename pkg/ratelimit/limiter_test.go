package ratelimit_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/wikinews-agent/pkg/ratelimit"
)

func TestWaitUnknownLimiter(t *testing.T) {
	m := ratelimit.NewMultiLimiter()
	err := m.Wait(context.Background(), "missing")
	require.Error(t, err)
	require.False(t, m.Allow("missing"))
}

func TestDefaultLimiterHasServiceBuckets(t *testing.T) {
	m := ratelimit.NewDefaultLimiter()
	for _, name := range []string{ratelimit.LimiterConfluence, ratelimit.LimiterAnthropic, ratelimit.LimiterRSS} {
		require.True(t, m.Allow(name), name)
	}
}

func TestUnlimitedNeverBlocks(t *testing.T) {
	m := ratelimit.Unlimited()
	for i := 0; i < 100; i++ {
		require.NoError(t, m.Wait(context.Background(), ratelimit.LimiterConfluence))
	}
}

func TestNewHonoursBurst(t *testing.T) {
	m := ratelimit.New(ratelimit.Limits{ConfluenceRequestsPerMinute: 1})
	allowed := 0
	for i := 0; i < 10; i++ {
		if m.Allow(ratelimit.LimiterConfluence) {
			allowed++
		}
	}
	require.Equal(t, 5, allowed)
}
