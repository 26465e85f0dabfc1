package server

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"playrewards/internal/config"
	"playrewards/internal/middleware"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// corsApp mounts stand-ins for the friend routes behind the real middleware stack.
func corsApp(allowedOrigins string) *fiber.App {
	srv := &Server{config: &config.Config{AllowedOrigins: allowedOrigins}}
	app := fiber.New()
	srv.SetupMiddleware(app)
	ok := func(c *fiber.Ctx) error { return c.JSON(fiber.Map{"success": true}) }
	app.Get("/api/friends", ok)
	app.Post("/api/friends/approve", ok)
	return app
}

func friendsRequest(method, path, origin string) *http.Request {
	req := httptest.NewRequest(method, path, nil)
	req.Header.Set("Origin", origin)
	return req
}

func TestSetupMiddleware_AllowedOrigins(t *testing.T) {
	tests := []struct {
		name       string
		configured string
		origin     string
		allowed    bool
	}{
		{"default web client", "", "http://localhost:5173", true},
		{"default alternate port", "", "http://localhost:3000", true},
		{"default loopback", "", "http://127.0.0.1:5173", true},
		{"unknown origin with defaults", "", "https://evil.example", false},
		{"configured origin", "https://play.example.com", "https://play.example.com", true},
		{"defaults replaced by config", "https://play.example.com", "http://localhost:5173", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := corsApp(tt.configured).Test(friendsRequest(http.MethodGet, "/api/friends", tt.origin), -1)
			require.NoError(t, err)
			defer func() { _ = resp.Body.Close() }()

			assert.Equal(t, fiber.StatusOK, resp.StatusCode)
			if tt.allowed {
				assert.Equal(t, tt.origin, resp.Header.Get("Access-Control-Allow-Origin"))
				assert.Equal(t, "true", resp.Header.Get("Access-Control-Allow-Credentials"))
				assert.Contains(t, resp.Header.Get("Access-Control-Expose-Headers"), middleware.HeaderCorrelationID)
			} else {
				assert.Empty(t, resp.Header.Get("Access-Control-Allow-Origin"))
			}
		})
	}
}

func TestSetupMiddleware_RateLimitedFriendMutationKeepsCORS(t *testing.T) {
	const origin = "https://play.example.com"
	app := corsApp(origin)

	for i := 0; i < 100; i++ {
		resp, err := app.Test(friendsRequest(http.MethodPost, "/api/friends/approve", origin), -1)
		require.NoError(t, err)
		require.Equal(t, fiber.StatusOK, resp.StatusCode, "request %d", i)
		_ = resp.Body.Close()
	}

	resp, err := app.Test(friendsRequest(http.MethodPost, "/api/friends/approve", origin), -1)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	assert.Equal(t, fiber.StatusTooManyRequests, resp.StatusCode)
	assert.Equal(t, origin, resp.Header.Get("Access-Control-Allow-Origin"))
}

func TestSetupMiddleware_FriendPreflightBypassesLimiter(t *testing.T) {
	const origin = "http://localhost:5173"
	app := corsApp("")

	for i := 0; i < 101; i++ {
		resp, err := app.Test(friendsRequest(http.MethodPost, "/api/friends/approve", origin), -1)
		require.NoError(t, err)
		_ = resp.Body.Close()
	}

	req := friendsRequest(http.MethodOptions, "/api/friends/approve", origin)
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	req.Header.Set("Access-Control-Request-Headers", "authorization,content-type,"+strings.ToLower(middleware.HeaderCorrelationID))
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	assert.Equal(t, fiber.StatusNoContent, resp.StatusCode)
	assert.Equal(t, origin, resp.Header.Get("Access-Control-Allow-Origin"))
	assert.Contains(t, resp.Header.Get("Access-Control-Allow-Methods"), http.MethodPost)
	assert.Contains(t, strings.ToLower(resp.Header.Get("Access-Control-Allow-Headers")), strings.ToLower(middleware.HeaderCorrelationID))
}
