package models

import (
	"time"

	"gorm.io/gorm"
)

// Game is catalog metadata for a playable title. Read-only here.
type Game struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	Name      string         `gorm:"not null;size:128" json:"name"`
	Slug      string         `gorm:"uniqueIndex;not null;size:128" json:"slug"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// TableName specifies the table name for GORM
func (Game) TableName() string {
	return "games"
}
