// Package audit provides the write-only audit trail.
package audit

import (
	"context"
	"time"

	"supplytrack/internal/core/id"
)

// Action represents the type of audited operation.
type Action string

const (
	ActionCreate  Action = "create"
	ActionUpdate  Action = "update"
	ActionDelete  Action = "delete"
	ActionApprove Action = "approve"
	ActionCancel  Action = "cancel"
	ActionLogin   Action = "login"
	ActionLogout  Action = "logout"
)

// Entry is a single audit trail record. UserID is empty for anonymous or
// system-initiated operations.
type Entry struct {
	ID          id.ID          `json:"id"`
	UserID      string         `json:"userId,omitempty"`
	UserEmail   string         `json:"userEmail,omitempty"`
	Action      Action         `json:"action"`
	EntityType  string         `json:"entityType"`
	EntityID    string         `json:"entityId"`
	ObjectRepr  string         `json:"objectRepr,omitempty"`
	Changes     map[string]any `json:"changes,omitempty"`
	Extra       map[string]any `json:"extra,omitempty"`
	IP          string         `json:"ip,omitempty"`
	RequestPath string         `json:"requestPath,omitempty"`
	CreatedAt   time.Time      `json:"createdAt"`
}

// Repository defines persistence for audit entries.
type Repository interface {
	// Insert stores one entry. Large change payloads may be compressed
	// by the implementation.
	Insert(ctx context.Context, entry Entry) error

	// ListByEntity returns entries for an entity, newest first.
	ListByEntity(ctx context.Context, entityType, entityID string, limit int) ([]Entry, error)
}

// Recorder is the write-side interface domain services depend on.
// Recording never fails from the caller's point of view.
type Recorder interface {
	Log(ctx context.Context, entry Entry)
}
