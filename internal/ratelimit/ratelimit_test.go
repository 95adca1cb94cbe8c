// internal/ratelimit/ratelimit_test.go
package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryLimiter_Check(t *testing.T) {
	ctx := context.Background()

	t.Run("allows up to the ceiling and denies the next request", func(t *testing.T) {
		l := NewMemoryLimiter(3)

		for i := 0; i < 3; i++ {
			res, err := l.Check(ctx, "user-a")
			require.NoError(t, err)
			assert.True(t, res.Allowed, "request %d should be allowed", i+1)
		}

		res, err := l.Check(ctx, "user-a")
		require.NoError(t, err)
		assert.False(t, res.Allowed)
		assert.Equal(t, 60, res.RetryAfter)
	})

	t.Run("identities are counted independently", func(t *testing.T) {
		l := NewMemoryLimiter(1)

		res, err := l.Check(ctx, "user-a")
		require.NoError(t, err)
		assert.True(t, res.Allowed)

		res, err = l.Check(ctx, "user-b")
		require.NoError(t, err)
		assert.True(t, res.Allowed)

		res, err = l.Check(ctx, "user-a")
		require.NoError(t, err)
		assert.False(t, res.Allowed)
	})

	t.Run("window restarts unconditionally after it elapses", func(t *testing.T) {
		now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
		l := NewMemoryLimiter(2)
		l.now = func() time.Time { return now }

		for i := 0; i < 3; i++ {
			_, err := l.Check(ctx, "user-a")
			require.NoError(t, err)
		}

		// Advance past the 60s boundary; the counter must reset even though
		// the previous window was over its ceiling.
		now = now.Add(61 * time.Second)

		res, err := l.Check(ctx, "user-a")
		require.NoError(t, err)
		assert.True(t, res.Allowed)

		res, err = l.Check(ctx, "user-a")
		require.NoError(t, err)
		assert.True(t, res.Allowed)

		res, err = l.Check(ctx, "user-a")
		require.NoError(t, err)
		assert.False(t, res.Allowed)
	})

	t.Run("reports seconds remaining until reset", func(t *testing.T) {
		now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
		l := NewMemoryLimiter(1)
		l.now = func() time.Time { return now }

		_, err := l.Check(ctx, "user-a")
		require.NoError(t, err)

		now = now.Add(45 * time.Second)

		res, err := l.Check(ctx, "user-a")
		require.NoError(t, err)
		assert.False(t, res.Allowed)
		assert.Equal(t, 15, res.RetryAfter)
	})
}
