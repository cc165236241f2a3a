package document_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"supplytrack/internal/core/apperror"
	"supplytrack/internal/core/id"
	"supplytrack/internal/domain"
	"supplytrack/internal/domain/delivery"
	"supplytrack/internal/infrastructure/storage/postgres"
)

const deliveriesTable = "deliveries"

// DeliveryRepo implements delivery.Repository.
type DeliveryRepo struct {
	*BaseDocumentRepo[*delivery.Delivery]
}

// NewDeliveryRepo creates a new delivery repository.
func NewDeliveryRepo(txm *postgres.TxManager) *DeliveryRepo {
	return &DeliveryRepo{
		BaseDocumentRepo: NewBaseDocumentRepo[*delivery.Delivery](
			txm,
			deliveriesTable,
			postgres.ExtractDBColumns[delivery.Delivery](),
			func() *delivery.Delivery { return &delivery.Delivery{} },
		),
	}
}

// Create inserts a delivery.
func (r *DeliveryRepo) Create(ctx context.Context, d *delivery.Delivery) error {
	return r.insertHeader(ctx, d)
}

// GetByID retrieves a delivery by ID.
func (r *DeliveryRepo) GetByID(ctx context.Context, deliveryID id.ID) (*delivery.Delivery, error) {
	return r.getHeaderByID(ctx, deliveryID)
}

// GetByOrderID retrieves the delivery attached to an order.
func (r *DeliveryRepo) GetByOrderID(ctx context.Context, orderID id.ID) (*delivery.Delivery, error) {
	d := &delivery.Delivery{}
	q := r.baseSelect().
		Where(squirrel.Eq{"order_id": orderID}).
		Where(squirrel.Eq{"deletion_mark": false}).
		Limit(1)

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	if err := pgxscan.Get(ctx, r.querier(ctx), d, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound("delivery", orderID.String())
		}
		return nil, fmt.Errorf("get delivery by order: %w", err)
	}
	return d, nil
}

// Update persists a delivery with optimistic locking.
func (r *DeliveryRepo) Update(ctx context.Context, d *delivery.Delivery) error {
	return r.updateHeader(ctx, d)
}

// List retrieves deliveries with filtering.
func (r *DeliveryRepo) List(ctx context.Context, filter delivery.ListFilter) (domain.ListResult[*delivery.Delivery], error) {
	q := r.baseSelect()

	if !filter.IncludeDeleted {
		q = q.Where(squirrel.Eq{"deletion_mark": false})
	}
	if filter.Status != nil {
		q = q.Where(squirrel.Eq{"status": *filter.Status})
	}
	if filter.Archived != nil {
		q = q.Where(squirrel.Eq{"is_archived": *filter.Archived})
	}

	return r.finishList(ctx, q, filter.ListFilter)
}

// Ensure interface compliance.
var _ delivery.Repository = (*DeliveryRepo)(nil)
