package models

import (
	"time"

	"gorm.io/gorm"
)

// FriendStatus represents the status of a directed friend edge.
type FriendStatus string

const (
	// FriendStatusPending is an unanswered invite from owner to friended.
	FriendStatusPending FriendStatus = "pending"
	// FriendStatusApproved is one half of a mutual friendship.
	FriendStatusApproved FriendStatus = "approved"
)

// Valid reports whether s is a known status.
func (s FriendStatus) Valid() bool {
	return s == FriendStatusPending || s == FriendStatusApproved
}

// FriendEdge is a directed assertion "owner friended friended".
// A mutual friendship is two approved edges, one per direction. At most one
// live edge exists per ordered pair; soft-deleted rows are kept as history.
type FriendEdge struct {
	ID         uint           `gorm:"primaryKey" json:"id"`
	OwnerID    uint           `gorm:"not null;check:chk_friend_edges_not_self,owner_id <> friended_id;uniqueIndex:idx_friend_edges_live_pair,where:deleted_at IS NULL;index:idx_friend_edges_owner_status,priority:1" json:"owner_id"`
	FriendedID uint           `gorm:"not null;uniqueIndex:idx_friend_edges_live_pair,where:deleted_at IS NULL;index:idx_friend_edges_friended_status,priority:1" json:"friended_id"`
	Status     FriendStatus   `gorm:"type:varchar(20);not null;default:'pending';index:idx_friend_edges_owner_status,priority:2;index:idx_friend_edges_friended_status,priority:2" json:"status"`
	CreatedAt  time.Time      `json:"created_at"`
	UpdatedAt  time.Time      `json:"updated_at"`
	DeletedAt  gorm.DeletedAt `gorm:"index" json:"-"`

	Owner    User `gorm:"foreignKey:OwnerID" json:"owner,omitempty"`
	Friended User `gorm:"foreignKey:FriendedID" json:"friended,omitempty"`
}

// TableName specifies the table name for GORM
func (FriendEdge) TableName() string {
	return "friend_edges"
}

// Other returns the endpoint of the edge that is not userID.
func (e FriendEdge) Other(userID uint) User {
	if e.OwnerID == userID {
		return e.Friended
	}
	return e.Owner
}
