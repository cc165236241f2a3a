package customer

import (
	"context"

	"supplytrack/internal/core/id"
	"supplytrack/internal/domain"
)

// Repository defines persistence for customers.
type Repository interface {
	Create(ctx context.Context, c *Customer) error
	GetByID(ctx context.Context, customerID id.ID) (*Customer, error)
	Update(ctx context.Context, c *Customer) error
	SetDeletionMark(ctx context.Context, customerID id.ID, marked bool) error
	List(ctx context.Context, filter domain.ListFilter) (domain.ListResult[*Customer], error)
}
