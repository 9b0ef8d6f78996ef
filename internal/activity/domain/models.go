// Package domain holds the per-request audit and billing trail.
package domain

import (
	"github.com/gramwave/gramwave/internal/entity"
	"gorm.io/datatypes"
)

// ActivityRecord is the ledger row written for every inbound request. It is
// opened before the handler runs and finalized when the request ends, and it
// is the authoritative metering record billing counts against.
type ActivityRecord struct {
	entity.Base

	APIRef         string            `gorm:"column:api_ref;size:64;uniqueIndex;not null" json:"api_ref"`
	Endpoint       string            `gorm:"column:endpoint;size:1024" json:"endpoint"`
	RequestHeaders datatypes.JSONMap `gorm:"column:request_headers;type:jsonb" json:"request_headers,omitempty"`
	RequestData    string            `gorm:"column:request_data;type:text" json:"request_data,omitempty"`
	ResponseData   string            `gorm:"column:response_data;type:text" json:"response_data,omitempty"`
	Cost           int64             `gorm:"column:cost;not null;default:0" json:"cost"`
	CreatedByID    *int64            `gorm:"column:created_by_id" json:"-"`
}

// TableName sets the database table name.
func (ActivityRecord) TableName() string { return "api_logs" }
