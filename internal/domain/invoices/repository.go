package invoices

import (
	"context"

	"supplytrack/internal/core/id"
	"supplytrack/internal/domain"
)

// ListFilter narrows invoice list queries.
type ListFilter struct {
	domain.ListFilter

	Status *Status
}

// Repository defines persistence for invoices.
type Repository interface {
	Create(ctx context.Context, inv *Invoice) error
	GetByID(ctx context.Context, invoiceID id.ID) (*Invoice, error)
	GetByNumber(ctx context.Context, number string) (*Invoice, error)

	// GetByOrderID returns the invoice billed against an order, if any.
	GetByOrderID(ctx context.Context, orderID id.ID) (*Invoice, error)

	Update(ctx context.Context, inv *Invoice) error
	List(ctx context.Context, filter ListFilter) (domain.ListResult[*Invoice], error)
	ExistsByNumber(ctx context.Context, number string) (bool, error)
}
