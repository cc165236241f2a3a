package supplier

import (
	"context"

	"supplytrack/internal/core/id"
	"supplytrack/internal/domain"
)

// Repository defines persistence for suppliers.
type Repository interface {
	Create(ctx context.Context, s *Supplier) error
	GetByID(ctx context.Context, supplierID id.ID) (*Supplier, error)
	Update(ctx context.Context, s *Supplier) error
	SetDeletionMark(ctx context.Context, supplierID id.ID, marked bool) error
	List(ctx context.Context, filter domain.ListFilter) (domain.ListResult[*Supplier], error)
}
