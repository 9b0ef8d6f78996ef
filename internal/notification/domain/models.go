package domain

import "github.com/gramwave/gramwave/internal/entity"

type Notification struct {
	entity.Base

	UserID  int64  `gorm:"column:user_id;index;not null" json:"-"`
	Kind    string `gorm:"column:kind;size:32;not null" json:"kind"`
	Message string `gorm:"column:message;size:256" json:"message"`
	Read    bool   `gorm:"column:read;not null;default:false" json:"read"`
}

// TableName sets the database table name.
func (Notification) TableName() string { return "notifications" }
