package orders

import (
	"context"

	"supplytrack/internal/core/id"
	"supplytrack/internal/domain"
)

// ListFilter narrows order list queries.
type ListFilter struct {
	domain.ListFilter

	Status        *Status
	PaymentStatus *PaymentStatus
	CustomerID    *id.ID
}

// Repository defines persistence for customer orders.
type Repository interface {
	Create(ctx context.Context, o *Order) error
	GetByID(ctx context.Context, orderID id.ID) (*Order, error)
	GetByNumber(ctx context.Context, number string) (*Order, error)

	// Update persists header fields with optimistic locking.
	// Items are immutable after creation.
	Update(ctx context.Context, o *Order) error

	SetDeletionMark(ctx context.Context, orderID id.ID, marked bool) error
	List(ctx context.Context, filter ListFilter) (domain.ListResult[*Order], error)
	ExistsByNumber(ctx context.Context, number string) (bool, error)
}

// ManualRepository defines persistence for manual orders.
type ManualRepository interface {
	Create(ctx context.Context, m *ManualOrder) error
	GetByID(ctx context.Context, orderID id.ID) (*ManualOrder, error)
	GetByNumber(ctx context.Context, number string) (*ManualOrder, error)
	Update(ctx context.Context, m *ManualOrder) error
	SetDeletionMark(ctx context.Context, orderID id.ID, marked bool) error
	List(ctx context.Context, filter ListFilter) (domain.ListResult[*ManualOrder], error)
	ExistsByNumber(ctx context.Context, number string) (bool, error)
}
