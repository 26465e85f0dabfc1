package models

import "time"

// ActivityType distinguishes presence records from gameplay records.
type ActivityType string

const (
	// ActivityTypeActivity records what the user was doing.
	ActivityTypeActivity ActivityType = "activity"
	// ActivityTypeConnection records presence transitions ("online"/"offline").
	ActivityTypeConnection ActivityType = "connection"
)

// Presence values written in connection records.
const (
	PresenceOnline  = "online"
	PresenceOffline = "offline"
)

// LogableTypeGames marks an activity record that points at a game.
const LogableTypeGames = "games"

// ActivityRecord is a row in the activity log. This service only reads it.
type ActivityRecord struct {
	ID          uint         `gorm:"primaryKey" json:"id"`
	UserID      uint         `gorm:"not null;index:idx_activity_logs_user_created,priority:1" json:"user_id"`
	Type        ActivityType `gorm:"type:varchar(20);not null" json:"type"`
	Description string       `gorm:"type:text" json:"description"`
	LogableType string       `gorm:"size:64" json:"logable_type,omitempty"`
	LogableID   *uint        `json:"logable_id,omitempty"`
	CreatedAt   time.Time    `gorm:"index:idx_activity_logs_user_created,priority:2" json:"created_at"`
}

// TableName specifies the table name for GORM
func (ActivityRecord) TableName() string {
	return "activity_logs"
}
