package seed

import (
	"fmt"

	"playrewards/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// BuiltInGame is a permanent catalog entry.
type BuiltInGame struct {
	Name string
	Slug string
}

// BuiltInGames defines the titles every environment starts with.
var BuiltInGames = []BuiltInGame{
	{Name: "Lucky Wheel", Slug: "lucky-wheel"},
	{Name: "Treasure Dig", Slug: "treasure-dig"},
	{Name: "Scratch & Win", Slug: "scratch-and-win"},
	{Name: "Daily Puzzle", Slug: "daily-puzzle"},
	{Name: "Coin Drop", Slug: "coin-drop"},
	{Name: "Trivia Rush", Slug: "trivia-rush"},
}

// Games upserts the built-in catalog by slug and returns the stored rows.
func Games(db *gorm.DB) ([]models.Game, error) {
	games := make([]models.Game, 0, len(BuiltInGames))
	for _, item := range BuiltInGames {
		game := models.Game{Name: item.Name, Slug: item.Slug}
		if err := db.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "slug"}},
			DoUpdates: clause.AssignmentColumns([]string{"name", "updated_at"}),
		}).Create(&game).Error; err != nil {
			return nil, fmt.Errorf("seed built-in game %s: %w", item.Slug, err)
		}
		if err := db.Where("slug = ?", item.Slug).First(&game).Error; err != nil {
			return nil, fmt.Errorf("reload built-in game %s: %w", item.Slug, err)
		}
		games = append(games, game)
	}
	return games, nil
}
