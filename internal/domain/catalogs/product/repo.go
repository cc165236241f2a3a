package product

import (
	"context"

	"supplytrack/internal/core/id"
	"supplytrack/internal/domain"
)

// Repository defines persistence for products.
//
// Implementations must never change StockQuantity here; balance updates
// go through the stock ledger repository under row locks.
type Repository interface {
	Create(ctx context.Context, p *Product) error
	GetByID(ctx context.Context, productID id.ID) (*Product, error)
	GetBySKU(ctx context.Context, sku string) (*Product, error)

	// Update modifies catalog fields with optimistic locking.
	// StockQuantity is excluded from the update set.
	Update(ctx context.Context, p *Product) error

	SetDeletionMark(ctx context.Context, productID id.ID, marked bool) error

	List(ctx context.Context, filter domain.ListFilter) (domain.ListResult[*Product], error)

	// ListActive returns all active, non-deleted products.
	// Used by the reorder alert sweep.
	ListActive(ctx context.Context) ([]*Product, error)

	ExistsBySKU(ctx context.Context, sku string, excludeID id.ID) (bool, error)
}
