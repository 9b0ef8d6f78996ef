package domain

import (
	"time"

	"github.com/gramwave/gramwave/internal/entity"
)

// Story is a post that stops being served after ExpiresAt. Expiry is a read
// filter, not a deletion; the row keeps its normal lifecycle.
type Story struct {
	entity.Base

	Body      string    `gorm:"column:body;type:text" json:"body"`
	UserID    int64     `gorm:"column:user_id;index;not null" json:"-"`
	ExpiresAt time.Time `gorm:"column:expires_at;not null" json:"expires_at"`
}

// TableName sets the database table name.
func (Story) TableName() string { return "stories" }
