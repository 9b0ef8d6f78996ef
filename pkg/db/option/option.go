// Package option provides functional query modifiers applied on top of a
// base gorm statement.
package option

import "gorm.io/gorm"

type QueryOption interface {
	Apply(*gorm.DB) *gorm.DB
}

type queryOptionFunc func(*gorm.DB) *gorm.DB

func (f queryOptionFunc) Apply(db *gorm.DB) *gorm.DB { return f(db) }

// OrderByRecency orders results newest-first. Ids are monotonic, so id desc
// is recency desc.
func OrderByRecency() QueryOption {
	return queryOptionFunc(func(db *gorm.DB) *gorm.DB {
		return db.Order("id desc")
	})
}

// Where adds an arbitrary condition for the cases Filter's equality-only
// shape cannot express.
func Where(query string, args ...any) QueryOption {
	return queryOptionFunc(func(db *gorm.DB) *gorm.DB {
		return db.Where(query, args...)
	})
}

func WithLimit(n int) QueryOption {
	return queryOptionFunc(func(db *gorm.DB) *gorm.DB {
		if n <= 0 {
			return db
		}
		return db.Limit(n)
	})
}
