package domain

import "github.com/gramwave/gramwave/internal/entity"

// Follow links a follower to the user being followed. Unfollow is the usual
// soft delete.
type Follow struct {
	entity.Base

	FollowerID int64 `gorm:"column:follower_id;index:idx_follows_pair;not null" json:"-"`
	FollowedID int64 `gorm:"column:followed_id;index:idx_follows_pair;not null" json:"-"`
}

// TableName sets the database table name.
func (Follow) TableName() string { return "follows" }
