package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoginLimiter_AllowsBurstThenBlocks(t *testing.T) {
	rl := NewLoginLimiter(RateLimitConfig{
		AttemptsPerWindow: 3,
		Window:            time.Hour,
		Burst:             3,
	})

	for i := 0; i < 3; i++ {
		require.True(t, rl.Allow("alice"))
	}
	require.False(t, rl.Allow("alice"), "bucket exhausted within the window")
}

func TestLoginLimiter_KeysAreIndependent(t *testing.T) {
	rl := NewLoginLimiter(RateLimitConfig{
		AttemptsPerWindow: 1,
		Window:            time.Hour,
		Burst:             1,
	})

	require.True(t, rl.Allow("alice"))
	require.False(t, rl.Allow("alice"))
	require.True(t, rl.Allow("bob"), "each username gets its own bucket")
}

func TestParseRateLimitFromEnv(t *testing.T) {
	defaults := RateLimitConfig{AttemptsPerWindow: 5, Window: time.Minute, Burst: 5}

	t.Run("unset keeps defaults", func(t *testing.T) {
		t.Setenv("RATELIMIT_TEST_ATTEMPTS", "")
		require.Equal(t, defaults, ParseRateLimitFromEnv("TEST", defaults))
	})

	t.Run("overrides apply", func(t *testing.T) {
		t.Setenv("RATELIMIT_TEST_ATTEMPTS", "10")
		t.Setenv("RATELIMIT_TEST_WINDOW_SEC", "30")
		t.Setenv("RATELIMIT_TEST_BURST", "2")

		got := ParseRateLimitFromEnv("TEST", defaults)
		require.Equal(t, 10, got.AttemptsPerWindow)
		require.Equal(t, 30*time.Second, got.Window)
		require.Equal(t, 2, got.Burst)
	})

	t.Run("garbage is ignored", func(t *testing.T) {
		t.Setenv("RATELIMIT_TEST_ATTEMPTS", "not-a-number")
		t.Setenv("RATELIMIT_TEST_WINDOW_SEC", "-5")
		require.Equal(t, defaults, ParseRateLimitFromEnv("TEST", defaults))
	})
}
