// Package domain provides shared types for domain repositories and services.
package domain

import (
	"supplytrack/internal/core/id"
)

// ListFilter carries the common list options shared by every catalog
// and document listing.
type ListFilter struct {
	// Search matches a substring against the repo's searchable columns.
	Search string

	// IDs restricts the result to specific entities.
	IDs []id.ID

	// IncludeDeleted also returns soft-deleted rows.
	IncludeDeleted bool

	// OrderBy names a column, optionally with DESC.
	OrderBy string

	Limit  int
	Offset int
}

// DefaultListFilter returns newest-first with a page of 50.
func DefaultListFilter() ListFilter {
	return ListFilter{
		Limit:   50,
		OrderBy: "created_at DESC",
	}
}

// ListResult is one page of items plus the unpaged total.
type ListResult[T any] struct {
	Items      []T   `json:"items"`
	TotalCount int64 `json:"totalCount"`
	Limit      int   `json:"limit"`
	Offset     int   `json:"offset"`
}
