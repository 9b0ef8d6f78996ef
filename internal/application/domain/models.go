package domain

import (
	"github.com/gramwave/gramwave/internal/entity"
	"github.com/lib/pq"
	"gorm.io/datatypes"
)

const (
	OwnershipProprietary = "proprietary"
	OwnershipThirdParty  = "third_party"
)

// Application is a registered API consumer. Third-party applications carry
// their own pricing tier, which users created through them inherit.
type Application struct {
	entity.Base

	Name             string            `gorm:"column:name;size:64;not null" json:"name"`
	Description      string            `gorm:"column:description;size:128" json:"description,omitempty"`
	APIKey           string            `gorm:"column:api_key;size:64;uniqueIndex;not null" json:"api_key"`
	Ownership        string            `gorm:"column:ownership;size:16;not null;default:third_party" json:"ownership"`
	URL              string            `gorm:"column:url;size:128" json:"url,omitempty"`
	WebhookURL       string            `gorm:"column:webhook_url;size:128" json:"webhook_url,omitempty"`
	PrivacyPolicyURL string            `gorm:"column:privacy_policy_url;size:256" json:"privacy_policy_url,omitempty"`
	Scopes           pq.StringArray    `gorm:"column:scopes;type:text[]" json:"scopes,omitempty"`
	Meta             datatypes.JSONMap `gorm:"column:meta;type:jsonb" json:"meta,omitempty"`

	PricingTierID int64 `gorm:"column:pricing_tier_id" json:"-"`
	OwnerUserID   int64 `gorm:"column:owner_user_id" json:"-"`
}

// TableName sets the database table name.
func (Application) TableName() string { return "apps" }

func (a *Application) PrincipalID() int64    { return a.ID }
func (a *Application) PrincipalUID() string  { return a.UID }
func (a *Application) PrincipalKind() string { return "application" }
