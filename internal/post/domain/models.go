package domain

import "github.com/gramwave/gramwave/internal/entity"

type Post struct {
	entity.Base

	Body   string `gorm:"column:body;type:text" json:"body"`
	UserID int64  `gorm:"column:user_id;index;not null" json:"-"`
}

// TableName sets the database table name.
func (Post) TableName() string { return "posts" }
