package domain

import (
	"github.com/gramwave/gramwave/internal/entity"
)

// User is a member of the network and the principal most requests are
// attributed to. Tokens is the prepaid balance every billable request is
// debited from.
type User struct {
	entity.Base

	Username       string `gorm:"column:username;size:128;uniqueIndex;not null" json:"username"`
	Email          string `gorm:"column:email;size:128;index" json:"email"`
	PasswordHash   string `gorm:"column:password_hash;size:512;not null" json:"-"`
	Bio            string `gorm:"column:bio;size:140" json:"bio,omitempty"`
	Phone          string `gorm:"column:phone;size:20" json:"phone,omitempty"`
	EmailConfirmed bool   `gorm:"column:email_confirmed;not null;default:false" json:"email_confirmed"`
	PhoneConfirmed bool   `gorm:"column:phone_confirmed;not null;default:false" json:"phone_confirmed"`
	Tokens         int64  `gorm:"column:tokens;not null;default:0" json:"-"`

	PricingTierID  int64 `gorm:"column:pricing_tier_id" json:"-"`
	CreatedByAppID int64 `gorm:"column:created_by_app_id" json:"-"`
}

// TableName sets the database table name.
func (User) TableName() string { return "users" }

func (u *User) PrincipalID() int64    { return u.ID }
func (u *User) PrincipalUID() string  { return u.UID }
func (u *User) PrincipalKind() string { return "user" }
