package cache

import (
	"context"
	"fmt"
	"time"
)

const (
	UserKeyPrefix = "user:%d"
	GameKeyPrefix = "game:%d"
)

const (
	UserTTL = 5 * time.Minute
	GameTTL = 30 * time.Minute
)

func UserKey(userID uint) string {
	return fmt.Sprintf(UserKeyPrefix, userID)
}

func GameKey(gameID uint) string {
	return fmt.Sprintf(GameKeyPrefix, gameID)
}

func Invalidate(ctx context.Context, key string) {
	if client != nil {
		client.Del(ctx, key)
	}
}

func InvalidateUser(ctx context.Context, userID uint) {
	Invalidate(ctx, UserKey(userID))
}

func InvalidateGame(ctx context.Context, gameID uint) {
	Invalidate(ctx, GameKey(gameID))
}
