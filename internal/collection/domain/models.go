package domain

import "github.com/gramwave/gramwave/internal/entity"

type Collection struct {
	entity.Base

	Name        string `gorm:"column:name;size:64;not null" json:"name"`
	Description string `gorm:"column:description;size:128" json:"description,omitempty"`
	UserID      int64  `gorm:"column:user_id;index;not null" json:"-"`
}

// TableName sets the database table name.
func (Collection) TableName() string { return "collections" }
