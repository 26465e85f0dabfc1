package middleware

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func hit(t *testing.T, app *fiber.App, path string) int {
	t.Helper()
	resp, err := app.Test(httptest.NewRequest(http.MethodPost, path, nil))
	require.NoError(t, err)
	_ = resp.Body.Close()
	return resp.StatusCode
}

func TestCheckRateLimit(t *testing.T) {
	t.Run("bypassed outside production", func(t *testing.T) {
		for _, env := range []string{"test", "development", ""} {
			t.Setenv("APP_ENV", env)
			allowed, err := CheckRateLimit(context.Background(), nil, "friends", "1", 1, time.Minute)
			assert.NoError(t, err)
			assert.True(t, allowed)
		}
	})

	t.Run("nil redis errors in production", func(t *testing.T) {
		t.Setenv("APP_ENV", "production")
		allowed, err := CheckRateLimit(context.Background(), nil, "friends", "1", 1, time.Minute)
		assert.ErrorIs(t, err, errNoRedis)
		assert.False(t, allowed)
	})

	t.Run("counts in a window", func(t *testing.T) {
		t.Setenv("APP_ENV", "production")
		mr := miniredis.RunT(t)
		rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
		ctx := context.Background()

		for i := 0; i < 2; i++ {
			allowed, err := CheckRateLimit(ctx, rdb, "friends", "user:1", 2, time.Minute)
			require.NoError(t, err)
			assert.True(t, allowed)
		}
		allowed, err := CheckRateLimit(ctx, rdb, "friends", "user:1", 2, time.Minute)
		require.NoError(t, err)
		assert.False(t, allowed)

		allowed, err = CheckRateLimit(ctx, rdb, "friends", "user:2", 2, time.Minute)
		require.NoError(t, err)
		assert.True(t, allowed, "limits are per caller")

		assert.Greater(t, mr.TTL("rl:friends:user:1"), time.Duration(0))
		mr.FastForward(time.Minute + time.Second)
		allowed, err = CheckRateLimit(ctx, rdb, "friends", "user:1", 2, time.Minute)
		require.NoError(t, err)
		assert.True(t, allowed)
	})
}

func TestRateLimitMiddleware(t *testing.T) {
	ok := func(c *fiber.Ctx) error { return c.SendStatus(fiber.StatusOK) }

	t.Run("bypass in test mode", func(t *testing.T) {
		t.Setenv("APP_ENV", "test")
		app := fiber.New()
		app.Post("/friends", RateLimit(nil, 1, time.Minute), ok)

		assert.Equal(t, http.StatusOK, hit(t, app, "/friends"))
		assert.Equal(t, http.StatusOK, hit(t, app, "/friends"))
	})

	t.Run("redis limit", func(t *testing.T) {
		t.Setenv("APP_ENV", "production")
		mr := miniredis.RunT(t)
		app := fiber.New()
		app.Post("/friends", RateLimit(redis.NewClient(&redis.Options{Addr: mr.Addr()}), 1, time.Minute, "friends"), ok)

		assert.Equal(t, http.StatusOK, hit(t, app, "/friends"))
		assert.Equal(t, http.StatusTooManyRequests, hit(t, app, "/friends"))
	})

	t.Run("fail open falls back to local limiter", func(t *testing.T) {
		t.Setenv("APP_ENV", "production")
		app := fiber.New()
		app.Post("/friends", RateLimit(nil, 2, time.Hour), ok)

		assert.Equal(t, http.StatusOK, hit(t, app, "/friends"))
		assert.Equal(t, http.StatusOK, hit(t, app, "/friends"))
		assert.Equal(t, http.StatusTooManyRequests, hit(t, app, "/friends"))
	})

	t.Run("redis outage falls back", func(t *testing.T) {
		t.Setenv("APP_ENV", "production")
		mr := miniredis.RunT(t)
		rdb := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
		mr.Close()

		app := fiber.New()
		app.Post("/friends", RateLimit(rdb, 1, time.Hour), ok)
		assert.Equal(t, http.StatusOK, hit(t, app, "/friends"))
		assert.Equal(t, http.StatusTooManyRequests, hit(t, app, "/friends"))
	})

	t.Run("fail closed with nil redis", func(t *testing.T) {
		t.Setenv("APP_ENV", "production")
		app := fiber.New()
		app.Post("/friends", RateLimitWithPolicy(nil, 1, time.Minute, FailClosed), ok)

		assert.Equal(t, http.StatusServiceUnavailable, hit(t, app, "/friends"))
	})
}

func TestLocalLimiter_StaysBounded(t *testing.T) {
	clock := time.Unix(1_700_000_000, 0)
	l := newLocalLimiter(2, time.Minute)
	l.now = func() time.Time { return clock }

	t.Run("idle keys are swept after a window", func(t *testing.T) {
		for i := 0; i < 50; i++ {
			assert.True(t, l.allow(fmt.Sprintf("ip:10.0.0.%d", i)))
		}
		assert.Equal(t, 50, l.size())

		clock = clock.Add(time.Minute)
		assert.True(t, l.allow("user:1"))
		assert.Equal(t, 1, l.size())
	})

	t.Run("cap evicts the least recently used key", func(t *testing.T) {
		l.maxKeys = 3
		clock = clock.Add(time.Second)
		assert.True(t, l.allow("user:2"))
		clock = clock.Add(time.Second)
		assert.True(t, l.allow("user:3"))
		clock = clock.Add(time.Second)
		assert.True(t, l.allow("user:4"))

		assert.Equal(t, 3, l.size())
		l.mu.Lock()
		_, kept := l.limiters["user:1"]
		l.mu.Unlock()
		assert.False(t, kept, "oldest key is evicted")
	})

	t.Run("limit still applies to a tracked key", func(t *testing.T) {
		assert.True(t, l.allow("user:4"))
		assert.False(t, l.allow("user:4"))
	})
}
