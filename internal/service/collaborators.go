package service

import (
	"context"

	"playrewards/internal/models"
	"playrewards/internal/repository"
)

// IdentityResolver loads the acting user. A missing user is a NotFound AppError.
type IdentityResolver interface {
	GetByID(ctx context.Context, id uint) (*models.User, error)
}

// UserDirectory lists users for discovery.
type UserDirectory interface {
	GetUsersExcept(ctx context.Context, excluded []uint, q repository.DirectoryQuery) ([]models.User, error)
}

// ActivityReader reads a user's recent activity, newest first.
type ActivityReader interface {
	GetLatestActivity(ctx context.Context, userID uint, limit int) ([]models.ActivityRecord, error)
}

// GameLookup resolves game metadata. It returns nil, nil for unknown games.
type GameLookup interface {
	GetGameByID(ctx context.Context, id uint) (*models.Game, error)
}
