// Package entity defines the base persistence shape shared by every stored
// record: a numeric id, a public uid reference, a status lifecycle and the
// created/modified timestamps. Deletion is always a status transition;
// rows are never physically removed by the application.
package entity

import (
	"crypto/rand"
	"time"

	"github.com/oklog/ulid/v2"
)

// Base is embedded by every persisted model.
//
// ID and UID are assigned once at creation and never change afterwards.
// StatusID defaults to StatusActive unless the caller set one explicitly
// before saving. StatusDeleted is terminal: nothing in the application
// transitions a record out of it.
type Base struct {
	ID         int64     `gorm:"column:id;primaryKey" json:"-"`
	UID        string    `gorm:"column:uid;size:64;uniqueIndex;not null" json:"uid"`
	StatusID   Status    `gorm:"column:status_id;type:smallint;not null;default:1" json:"-"`
	CreatedAt  time.Time `gorm:"column:created_at;not null" json:"created_at"`
	ModifiedAt time.Time `gorm:"column:modified_at;not null" json:"modified_at"`
}

// Record is the capability surface the generic repository needs from a
// persisted model. *Base satisfies it, so embedding Base is enough.
type Record interface {
	RecordID() int64
	SetRecordID(int64)
	RecordUID() string
	SetRecordUID(string)
	RecordStatus() Status
	SetRecordStatus(Status)
	StampCreated(time.Time)
	StampModified(time.Time)
}

func (b *Base) RecordID() int64            { return b.ID }
func (b *Base) SetRecordID(id int64)       { b.ID = id }
func (b *Base) RecordUID() string          { return b.UID }
func (b *Base) SetRecordUID(uid string)    { b.UID = uid }
func (b *Base) RecordStatus() Status       { return b.StatusID }
func (b *Base) SetRecordStatus(s Status)   { b.StatusID = s }
func (b *Base) StampCreated(t time.Time)   { b.CreatedAt = t }
func (b *Base) StampModified(t time.Time)  { b.ModifiedAt = t }

func (b *Base) IsActive() bool  { return b.StatusID == StatusActive }
func (b *Base) IsDeleted() bool { return b.StatusID == StatusDeleted }

// NewUID returns the opaque public reference assigned to a record at
// creation.
func NewUID() string {
	return ulid.MustNew(ulid.Timestamp(time.Now().UTC()), rand.Reader).String()
}
