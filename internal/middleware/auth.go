// Package middleware provides the Fiber middleware shared by all routes:
// authentication, request context, logging, tracing and rate limiting.
package middleware

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"playrewards/internal/config"
	"playrewards/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
)

// LocalUserID is the Fiber locals key holding the authenticated user id.
const LocalUserID = "userID"

var cfg *config.Config

// InitMiddleware initializes authentication middleware with the given config.
func InitMiddleware(c *config.Config) {
	cfg = c
}

var (
	errMissingHeader = errors.New("authorization header required")
	errHeaderFormat  = errors.New("invalid authorization header format")
	errInvalidToken  = errors.New("invalid or expired token")
	errSubject       = errors.New("invalid token subject")
)

// AuthRequired is a middleware that enforces authentication for protected routes.
// The JWT "sub" claim becomes the acting user id.
func AuthRequired(c *fiber.Ctx) error {
	tokenString, err := bearerToken(c.Get(fiber.HeaderAuthorization))
	if err != nil {
		return unauthorized(c, err)
	}

	userID, err := ParseToken(tokenString)
	if err != nil {
		return unauthorized(c, err)
	}

	c.Locals(LocalUserID, userID)
	c.SetUserContext(context.WithValue(c.UserContext(), UserIDKey, userID))
	return c.Next()
}

// UserIDFromLocals returns the id stored by AuthRequired.
func UserIDFromLocals(c *fiber.Ctx) (uint, bool) {
	id, ok := c.Locals(LocalUserID).(uint)
	return id, ok && id != 0
}

// ParseToken validates an HS256 token against the configured secret, issuer
// and audience, and returns its subject as a user id.
func ParseToken(tokenString string) (uint, error) {
	opts := []jwt.ParserOption{jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()})}
	if cfg.JWTIssuer != "" {
		opts = append(opts, jwt.WithIssuer(cfg.JWTIssuer))
	}
	if cfg.JWTAudience != "" {
		opts = append(opts, jwt.WithAudience(cfg.JWTAudience))
	}

	token, err := jwt.Parse(tokenString, func(*jwt.Token) (interface{}, error) {
		return []byte(cfg.JWTSecret), nil
	}, opts...)
	if err != nil || !token.Valid {
		return 0, errInvalidToken
	}

	sub, err := token.Claims.GetSubject()
	if err != nil || sub == "" {
		return 0, errSubject
	}
	id, err := strconv.ParseUint(sub, 10, 32)
	if err != nil || id == 0 {
		return 0, errSubject
	}
	return uint(id), nil
}

// GenerateToken signs a token for userID valid for ttl. Token issuance belongs
// to the account service; this is used by local tooling and tests.
func GenerateToken(userID uint, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   strconv.FormatUint(uint64(userID), 10),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		Issuer:    cfg.JWTIssuer,
	}
	if cfg.JWTAudience != "" {
		claims.Audience = jwt.ClaimStrings{cfg.JWTAudience}
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(cfg.JWTSecret))
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

func bearerToken(header string) (string, error) {
	if header == "" {
		return "", errMissingHeader
	}
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || scheme != "Bearer" || token == "" || strings.Contains(token, " ") {
		return "", errHeaderFormat
	}
	return token, nil
}

func unauthorized(c *fiber.Ctx, err error) error {
	msg := err.Error()
	return models.RespondWithError(c, fiber.StatusUnauthorized,
		models.NewUnauthorizedError(strings.ToUpper(msg[:1])+msg[1:]))
}
