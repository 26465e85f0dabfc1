package middleware

import (
	"bytes"
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"playrewards/internal/observability"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestContextMiddleware(t *testing.T) {
	app := fiber.New()
	app.Use(requestid.New())
	app.Use(ContextMiddleware())

	var gotRequestID, gotCorrelation string
	app.Get("/", func(c *fiber.Ctx) error {
		gotRequestID, _ = c.UserContext().Value(RequestIDKey).(string)
		gotCorrelation = observability.ExtractCorrelationID(c.UserContext())
		return c.SendStatus(fiber.StatusOK)
	})

	t.Run("generates a correlation id", func(t *testing.T) {
		resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/", nil))
		require.NoError(t, err)
		_ = resp.Body.Close()

		assert.NotEmpty(t, gotRequestID)
		assert.NotEmpty(t, gotCorrelation)
		assert.Equal(t, gotCorrelation, resp.Header.Get(HeaderCorrelationID))
	})

	t.Run("keeps the caller's correlation id", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set(HeaderCorrelationID, "abc-123")
		resp, err := app.Test(req)
		require.NoError(t, err)
		_ = resp.Body.Close()

		assert.Equal(t, "abc-123", gotCorrelation)
		assert.Equal(t, "abc-123", resp.Header.Get(HeaderCorrelationID))
	})
}

func TestCtxHandlerAddsContextAttrs(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(&ctxHandler{slog.NewTextHandler(&buf, nil)}).With("component", "test")

	ctx := context.WithValue(context.Background(), RequestIDKey, "req-1")
	ctx = context.WithValue(ctx, UserIDKey, uint(9))
	ctx = observability.WithCorrelationID(ctx, "corr-1")
	logger.InfoContext(ctx, "hello")

	out := buf.String()
	assert.Contains(t, out, "request_id=req-1")
	assert.Contains(t, out, "user_id=9")
	assert.Contains(t, out, "correlation_id=corr-1")
	assert.Contains(t, out, "component=test")
}

func TestLevelFromEnv(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, levelFromEnv("DEBUG"))
	assert.Equal(t, slog.LevelWarn, levelFromEnv("warning"))
	assert.Equal(t, slog.LevelError, levelFromEnv("error"))
	assert.Equal(t, slog.LevelInfo, levelFromEnv(""))
}
