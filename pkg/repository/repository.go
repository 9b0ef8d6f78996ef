// Package repository implements the generic lookup and lifecycle operations
// shared by every persisted entity. All reads exclude soft-deleted rows;
// FindByID is the single sanctioned way to observe one.
package repository

import (
	"context"

	"github.com/gramwave/gramwave/internal/entity"
	"github.com/gramwave/gramwave/pkg/db/option"
	"gorm.io/gorm"
)

// Filter is an equality filter set applied column-by-column.
type Filter map[string]any

// Repository exposes the lifecycle and lookup family for one entity type.
// PT is the pointer form of T and must carry the entity.Record capabilities,
// which embedding entity.Base provides.
type Repository[T any, PT interface {
	*T
	entity.Record
}] interface {
	// WithTrx returns a view of the repository bound to an open transaction.
	WithTrx(tx *gorm.DB) Repository[T, PT]

	// Save assigns id, uid and default status if absent, stamps timestamps
	// and persists the record. A persistence failure rolls back and is
	// returned unchanged; the caller never observes a partial commit.
	Save(ctx context.Context, record PT) error

	// Update applies an arbitrary field set and stamps modified_at. No
	// field-level validation happens here; that is the caller's job.
	Update(ctx context.Context, record PT, fields map[string]any) error

	// Delete transitions the record's status to Deleted. The row stays in
	// the store; physical erasure belongs to an out-of-band purge job.
	Delete(ctx context.Context, record PT) error

	// Get returns the first match excluding Deleted rows, or nil.
	Get(ctx context.Context, filter Filter, opts ...option.QueryOption) (PT, error)

	// GetActive returns the first Active match, or nil.
	GetActive(ctx context.Context, filter Filter, opts ...option.QueryOption) (PT, error)

	// GetNotDeleted is an alias of Get kept for call sites that want the
	// intent spelled out.
	GetNotDeleted(ctx context.Context, filter Filter, opts ...option.QueryOption) (PT, error)

	// Find lists matches excluding Deleted rows.
	Find(ctx context.Context, filter Filter, opts ...option.QueryOption) ([]PT, error)

	// Scalar projects a single column of the non-deleted matches into dest,
	// newest-first, bounded by scalarLimit.
	Scalar(ctx context.Context, column string, dest any, filter Filter, opts ...option.QueryOption) error

	// FindByID fetches by primary key without the lifecycle filter. Reserved
	// for the purge path and for verifying soft-delete behavior; handlers
	// read through Get and friends.
	FindByID(ctx context.Context, id int64) (PT, error)

	// Count counts non-deleted matches.
	Count(ctx context.Context, filter Filter) (int64, error)
}
