package audit

import (
	"context"
	"fmt"
	"time"

	"supplytrack/internal/core/appctx"
	"supplytrack/internal/core/id"
	"supplytrack/pkg/logger"
)

// Compile-time check that Service implements Recorder.
var _ Recorder = (*Service)(nil)

// Service writes audit entries. A failed write must never break the
// business operation being audited, so all errors are swallowed after
// logging.
type Service struct {
	repo Repository
}

// NewService creates a new audit service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Log records an audit entry, enriching it from request context.
func (s *Service) Log(ctx context.Context, entry Entry) {
	defer func() {
		if r := recover(); r != nil {
			logger.Warn(ctx, "audit log panic", "panic", r)
		}
	}()

	if id.IsNil(entry.ID) {
		entry.ID = id.New()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	if entry.UserID == "" {
		entry.UserID = appctx.GetUserID(ctx)
	}
	if entry.UserEmail == "" {
		entry.UserEmail = appctx.GetUserEmail(ctx)
	}
	if entry.IP == "" {
		entry.IP = appctx.GetClientIP(ctx)
	}
	if entry.RequestPath == "" {
		entry.RequestPath = appctx.GetRequestPath(ctx)
	}

	if err := s.repo.Insert(ctx, entry); err != nil {
		logger.Warn(ctx, "audit log failed",
			"entity_type", entry.EntityType,
			"entity_id", entry.EntityID,
			"action", entry.Action,
			"error", err,
		)
	}
}

// LogChange records an entity mutation with a field-level diff.
func (s *Service) LogChange(ctx context.Context, entityType, entityID string, action Action, oldState, newState map[string]any) {
	s.Log(ctx, Entry{
		Action:     action,
		EntityType: entityType,
		EntityID:   entityID,
		Changes:    Diff(oldState, newState),
	})
}

// History returns the audit trail for an entity, newest first.
func (s *Service) History(ctx context.Context, entityType, entityID string, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = 50
	}
	return s.repo.ListByEntity(ctx, entityType, entityID, limit)
}

// Diff calculates the difference between old and new entity states.
// Each changed field maps to {"old": ..., "new": ...}.
func Diff(oldState, newState map[string]any) map[string]any {
	changes := make(map[string]any)

	for key, newVal := range newState {
		oldVal, exists := oldState[key]
		if !exists {
			changes[key] = map[string]any{"old": nil, "new": newVal}
		} else if !equal(oldVal, newVal) {
			changes[key] = map[string]any{"old": oldVal, "new": newVal}
		}
	}

	for key, oldVal := range oldState {
		if _, exists := newState[key]; !exists {
			changes[key] = map[string]any{"old": oldVal, "new": nil}
		}
	}

	return changes
}

// equal compares two values for equality.
func equal(a, b any) bool {
	return fmt.Sprintf("%v", a) == fmt.Sprintf("%v", b)
}
