package domain

import (
	"github.com/gramwave/gramwave/internal/entity"
)

// PricingTier is a named cost/quota policy. Requests beyond the daily free
// quota cost RequestCost tokens each.
type PricingTier struct {
	entity.Base

	Name              string `gorm:"column:name;size:64;uniqueIndex;not null" json:"name"`
	RequestCost       int64  `gorm:"column:request_cost;not null;default:0" json:"request_cost"`
	FreeDailyRequests int64  `gorm:"column:free_daily_requests;not null;default:0" json:"free_daily_requests"`
}

// TableName sets the database table name.
func (PricingTier) TableName() string { return "pricing_tiers" }

// Policy is the resolved cost/quota pair applied to one request.
type Policy struct {
	RequestCost       int64
	FreeDailyRequests int64
}
