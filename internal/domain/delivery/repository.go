package delivery

import (
	"context"

	"supplytrack/internal/core/id"
	"supplytrack/internal/domain"
)

// ListFilter narrows delivery list queries.
type ListFilter struct {
	domain.ListFilter

	Status   *Status
	Archived *bool
}

// Repository defines persistence for deliveries.
type Repository interface {
	Create(ctx context.Context, d *Delivery) error
	GetByID(ctx context.Context, deliveryID id.ID) (*Delivery, error)

	// GetByOrderID returns the delivery attached to an order.
	// Deliveries are one-to-one with orders.
	GetByOrderID(ctx context.Context, orderID id.ID) (*Delivery, error)

	Update(ctx context.Context, d *Delivery) error
	List(ctx context.Context, filter ListFilter) (domain.ListResult[*Delivery], error)
}
