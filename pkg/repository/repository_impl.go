package repository

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gramwave/gramwave/internal/entity"
	"github.com/gramwave/gramwave/pkg/db/option"
	"gorm.io/gorm"
)

// scalarLimit bounds every scalar projection so nested lookups cannot drag
// in unbounded result sets.
const scalarLimit = 100

type store[T any, PT interface {
	*T
	entity.Record
}] struct {
	db    *gorm.DB
	genID *snowflake.Node
}

func ProvideStore[T any, PT interface {
	*T
	entity.Record
}](db *gorm.DB, genID *snowflake.Node) Repository[T, PT] {
	return &store[T, PT]{db: db, genID: genID}
}

func (r *store[T, PT]) WithTrx(tx *gorm.DB) Repository[T, PT] {
	return &store[T, PT]{db: tx, genID: r.genID}
}

func (r *store[T, PT]) Save(ctx context.Context, record PT) error {
	now := time.Now().UTC()
	if record.RecordID() == 0 {
		record.SetRecordID(r.genID.Generate().Int64())
	}
	if record.RecordUID() == "" {
		record.SetRecordUID(entity.NewUID())
	}
	if record.RecordStatus() == 0 {
		record.SetRecordStatus(entity.StatusActive)
	}
	record.StampCreated(now)
	record.StampModified(now)

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Create(record).Error
	})
}

func (r *store[T, PT]) Update(ctx context.Context, record PT, fields map[string]any) error {
	updates := make(map[string]any, len(fields)+1)
	for k, v := range fields {
		updates[k] = v
	}
	updates["modified_at"] = time.Now().UTC()

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Model(record).Where("id = ?", record.RecordID()).Updates(updates).Error
	})
}

func (r *store[T, PT]) Delete(ctx context.Context, record PT) error {
	if err := r.Update(ctx, record, map[string]any{
		"status_id": entity.StatusDeleted,
	}); err != nil {
		return err
	}
	record.SetRecordStatus(entity.StatusDeleted)
	return nil
}

func (r *store[T, PT]) Get(ctx context.Context, filter Filter, opts ...option.QueryOption) (PT, error) {
	return r.first(ctx, filter, "status_id <> ?", entity.StatusDeleted, opts...)
}

func (r *store[T, PT]) GetActive(ctx context.Context, filter Filter, opts ...option.QueryOption) (PT, error) {
	return r.first(ctx, filter, "status_id = ?", entity.StatusActive, opts...)
}

func (r *store[T, PT]) GetNotDeleted(ctx context.Context, filter Filter, opts ...option.QueryOption) (PT, error) {
	return r.Get(ctx, filter, opts...)
}

func (r *store[T, PT]) Find(ctx context.Context, filter Filter, opts ...option.QueryOption) ([]PT, error) {
	var result []PT
	stmt := r.buildQuery(ctx, filter, "status_id <> ?", entity.StatusDeleted, opts...)
	err := stmt.Find(&result).Error
	return result, err
}

func (r *store[T, PT]) Scalar(ctx context.Context, column string, dest any, filter Filter, opts ...option.QueryOption) error {
	stmt := r.buildQuery(ctx, filter, "status_id <> ?", entity.StatusDeleted, opts...)
	return stmt.Order("id desc").Limit(scalarLimit).Pluck(column, dest).Error
}

func (r *store[T, PT]) FindByID(ctx context.Context, id int64) (PT, error) {
	var none PT
	var result T
	err := r.db.WithContext(ctx).Model(PT(new(T))).Where("id = ?", id).First(&result).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return none, nil
		}
		return none, err
	}
	return PT(&result), nil
}

func (r *store[T, PT]) Count(ctx context.Context, filter Filter) (int64, error) {
	var count int64
	stmt := r.buildQuery(ctx, filter, "status_id <> ?", entity.StatusDeleted)
	err := stmt.Count(&count).Error
	return count, err
}

func (r *store[T, PT]) first(ctx context.Context, filter Filter, statusCond string, status entity.Status, opts ...option.QueryOption) (PT, error) {
	var none PT
	var result T
	stmt := r.buildQuery(ctx, filter, statusCond, status, opts...)
	err := stmt.First(&result).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return none, nil
		}
		return none, err
	}
	return PT(&result), nil
}

func (r *store[T, PT]) buildQuery(ctx context.Context, filter Filter, statusCond string, status entity.Status, opts ...option.QueryOption) *gorm.DB {
	stmt := r.db.WithContext(ctx).Model(PT(new(T))).Where(statusCond, status)
	if len(filter) > 0 {
		stmt = stmt.Where(map[string]any(filter))
	}
	for _, opt := range opts {
		stmt = opt.Apply(stmt)
	}
	return stmt
}
