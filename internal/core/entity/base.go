// Package entity provides base types shared by all domain entities.
package entity

import (
	"context"
	"time"

	"supplytrack/internal/core/id"
)

// Validatable is implemented by entities that check their own
// invariants without database access.
type Validatable interface {
	// Validate returns nil or an AppError with details.
	Validate(ctx context.Context) error
}

// BaseEntity carries the identity, soft-delete, and optimistic-locking
// fields common to every stored entity.
type BaseEntity struct {
	// ID is the primary key (UUIDv7).
	ID id.ID `db:"id" json:"id"`

	// DeletionMark hides the entity without destroying history.
	DeletionMark bool `db:"deletion_mark" json:"deletionMark"`

	DeletedAt *time.Time `db:"deleted_at" json:"deletedAt,omitempty"`

	// Version is bumped on every update; a stale version means a
	// concurrent modification.
	Version int `db:"version" json:"version"`
}

// NewBaseEntity generates an ID and starts at version 1.
func NewBaseEntity() BaseEntity {
	return BaseEntity{
		ID:      id.New(),
		Version: 1,
	}
}

// Touch increments the version.
func (b *BaseEntity) Touch() {
	b.Version++
}

// MarkDeleted sets the deletion mark and its timestamp.
func (b *BaseEntity) MarkDeleted() {
	now := time.Now().UTC()
	b.DeletionMark = true
	b.DeletedAt = &now
}

// Undelete clears the deletion mark.
func (b *BaseEntity) Undelete() {
	b.DeletionMark = false
	b.DeletedAt = nil
}

// SetVersion overwrites the version after a repository sync.
func (b *BaseEntity) SetVersion(v int) {
	b.Version = v
}

// BaseDocument adds creation/update attribution on top of BaseEntity.
// Catalogs and documents both embed it; the audit trail fills the By
// fields from the request identity.
type BaseDocument struct {
	BaseEntity

	CreatedAt time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time `db:"updated_at" json:"updatedAt"`
	CreatedBy string    `db:"created_by" json:"createdBy,omitempty"`
	UpdatedBy string    `db:"updated_by" json:"updatedBy,omitempty"`
}

// NewBaseDocument generates an ID and stamps both timestamps.
func NewBaseDocument() BaseDocument {
	now := time.Now().UTC()
	return BaseDocument{
		BaseEntity: NewBaseEntity(),
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

// Touch refreshes UpdatedAt and bumps the version.
func (b *BaseDocument) Touch() {
	b.UpdatedAt = time.Now().UTC()
	b.BaseEntity.Touch()
}

// SetUpdatedAt overwrites UpdatedAt after a repository sync.
func (b *BaseDocument) SetUpdatedAt(t time.Time) {
	b.UpdatedAt = t
}

// BaseCatalog is BaseEntity for reference data that needs no
// attribution fields.
type BaseCatalog struct {
	BaseEntity
}

// NewBaseCatalog generates an ID.
func NewBaseCatalog() BaseCatalog {
	return BaseCatalog{BaseEntity: NewBaseEntity()}
}
