// Package bootstrap connects the runtime dependencies shared by the commands.
package bootstrap

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"playrewards/internal/cache"
	"playrewards/internal/config"
	"playrewards/internal/database"
	"playrewards/internal/middleware"
	"playrewards/internal/observability"
	"playrewards/internal/seed"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Options control runtime initialization behavior.
type Options struct {
	// SeedDemo seeds a small demo graph in development when the users table is empty.
	SeedDemo bool
}

// InitRuntime connects to DB and Redis and optionally seeds demo data.
func InitRuntime(ctx context.Context, cfg *config.Config, opts Options) (*gorm.DB, *redis.Client, error) {
	db, err := database.Connect(cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("database connection failed: %w", err)
	}

	// Init Redis (may result in nil client if unreachable)
	r := cache.InitRedis(cfg.RedisURL)

	if opts.SeedDemo {
		if err := ensureDevDemo(ctx, cfg, db); err != nil {
			return nil, nil, fmt.Errorf("failed to seed development demo data: %w", err)
		}
	}

	return db, r, nil
}

// InitTracing configures the global tracer from cfg.
func InitTracing(cfg *config.Config, serviceName string) (func(context.Context) error, error) {
	return observability.InitTracing(observability.TracingConfig{
		ServiceName:    serviceName,
		ServiceVersion: "1.0.0",
		Environment:    cfg.Env,
		Enabled:        cfg.TracingEnabled,
		Exporter:       cfg.TracingExporter,
		OTLPEndpoint:   cfg.OTLPEndpoint,
		SamplerRatio:   cfg.TracingSamplerRatio,
	})
}

func ensureDevDemo(ctx context.Context, cfg *config.Config, db *gorm.DB) error {
	if cfg == nil || db == nil || !strings.EqualFold(cfg.Env, "development") {
		return nil
	}

	var count int64
	if err := db.WithContext(ctx).Table("users").Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	summary, err := seed.Seed(ctx, db, seed.Options{
		NumUsers:        len(seed.DemoUsers) + 7,
		FriendsPerUser:  2,
		InvitesPerUser:  1,
		ActivityPerUser: 3,
	})
	if err != nil {
		return err
	}
	middleware.Logger.Info("development demo data seeded", slog.Int("users", summary.Users))
	return nil
}
