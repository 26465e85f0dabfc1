package repository

import (
	"context"
	"errors"
	"time"

	"playrewards/internal/cache"
	"playrewards/internal/models"

	"gorm.io/gorm"
)

var errGameMissing = errors.New("game missing")

// GameRepository reads game catalog metadata.
type GameRepository interface {
	// GetGameByID returns nil, nil when the game does not exist.
	GetGameByID(ctx context.Context, id uint) (*models.Game, error)
	Create(ctx context.Context, game *models.Game) error
}

type gameRepository struct {
	db  *gorm.DB
	ttl time.Duration
}

// NewGameRepository creates a GameRepository whose lookups are cached for ttl.
// A non-positive ttl uses cache.GameTTL.
func NewGameRepository(db *gorm.DB, ttl time.Duration) GameRepository {
	if ttl <= 0 {
		ttl = cache.GameTTL
	}
	return &gameRepository{db: db, ttl: ttl}
}

func (r *gameRepository) GetGameByID(ctx context.Context, id uint) (*models.Game, error) {
	var game models.Game
	err := cache.Aside(ctx, cache.GameKey(id), &game, r.ttl, func() error {
		if err := readDB(r.db).WithContext(ctx).First(&game, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return errGameMissing
			}
			return models.NewInternalError(err)
		}
		return nil
	})
	if errors.Is(err, errGameMissing) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &game, nil
}

func (r *gameRepository) Create(ctx context.Context, game *models.Game) error {
	if err := r.db.WithContext(ctx).Create(game).Error; err != nil {
		if isDuplicateKey(err) {
			return models.NewValidationError("Game already exists")
		}
		return models.NewInternalError(err)
	}
	cache.InvalidateGame(ctx, game.ID)
	return nil
}
