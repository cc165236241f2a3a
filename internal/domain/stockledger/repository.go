package stockledger

import (
	"context"

	"supplytrack/internal/core/id"
	"supplytrack/internal/domain"
)

// Repository defines persistence for the stock ledger.
type Repository interface {
	// LockProducts selects product balance rows FOR UPDATE.
	// Rows are locked in ascending ID order to keep concurrent
	// multi-product operations deadlock-free. Missing IDs are simply
	// absent from the result.
	LockProducts(ctx context.Context, productIDs []id.ID) ([]ProductStock, error)

	// GetStock reads a balance row without locking.
	GetStock(ctx context.Context, productID id.ID) (ProductStock, error)

	// SetStockQuantity writes a new cached balance.
	// Must be called only on rows locked in the current transaction.
	SetStockQuantity(ctx context.Context, productID id.ID, quantity int) error

	// CreateMovements batch inserts ledger records.
	CreateMovements(ctx context.Context, movements []Movement) error

	// ListMovements returns movement history, newest first.
	ListMovements(ctx context.Context, filter MovementFilter) (domain.ListResult[Movement], error)
}
