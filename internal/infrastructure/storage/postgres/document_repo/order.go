package document_repo

import (
	"context"

	"github.com/Masterminds/squirrel"

	"supplytrack/internal/core/id"
	"supplytrack/internal/domain"
	"supplytrack/internal/domain/orders"
	"supplytrack/internal/infrastructure/storage/postgres"
)

const (
	ordersTable     = "orders"
	orderItemsTable = "order_items"
)

// OrderRepo implements orders.Repository.
type OrderRepo struct {
	*BaseDocumentRepo[*orders.Order]
	items itemStore
}

// NewOrderRepo creates a new order repository.
func NewOrderRepo(txm *postgres.TxManager) *OrderRepo {
	return &OrderRepo{
		BaseDocumentRepo: NewBaseDocumentRepo[*orders.Order](
			txm,
			ordersTable,
			postgres.ExtractDBColumns[orders.Order](),
			func() *orders.Order { return &orders.Order{} },
		),
		items: itemStore{txm: txm, table: orderItemsTable},
	}
}

// Create inserts the order header and its lines.
func (r *OrderRepo) Create(ctx context.Context, o *orders.Order) error {
	if err := r.insertHeader(ctx, o); err != nil {
		return err
	}
	return r.items.insert(ctx, o.ID, o.Items)
}

// GetByID retrieves an order with its lines.
func (r *OrderRepo) GetByID(ctx context.Context, orderID id.ID) (*orders.Order, error) {
	o, err := r.getHeaderByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if o.Items, err = r.items.load(ctx, o.ID); err != nil {
		return nil, err
	}
	return o, nil
}

// GetByNumber retrieves an order by its reference number.
func (r *OrderRepo) GetByNumber(ctx context.Context, number string) (*orders.Order, error) {
	o, err := r.getHeaderByNumber(ctx, number)
	if err != nil {
		return nil, err
	}
	if o.Items, err = r.items.load(ctx, o.ID); err != nil {
		return nil, err
	}
	return o, nil
}

// Update persists header fields. Lines are immutable after creation.
func (r *OrderRepo) Update(ctx context.Context, o *orders.Order) error {
	return r.updateHeader(ctx, o)
}

// List retrieves orders with filtering, attaching lines in one pass.
func (r *OrderRepo) List(ctx context.Context, filter orders.ListFilter) (domain.ListResult[*orders.Order], error) {
	q := r.baseSelect()

	if !filter.IncludeDeleted {
		q = q.Where(squirrel.Eq{"deletion_mark": false})
	}
	if filter.Search != "" {
		q = q.Where(squirrel.ILike{"number": "%" + filter.Search + "%"})
	}
	if filter.Status != nil {
		q = q.Where(squirrel.Eq{"status": *filter.Status})
	}
	if filter.PaymentStatus != nil {
		q = q.Where(squirrel.Eq{"payment_status": *filter.PaymentStatus})
	}
	if filter.CustomerID != nil {
		q = q.Where(squirrel.Eq{"customer_id": *filter.CustomerID})
	}

	result, err := r.finishList(ctx, q, filter.ListFilter)
	if err != nil {
		return result, err
	}

	ids := make([]id.ID, 0, len(result.Items))
	for _, o := range result.Items {
		ids = append(ids, o.ID)
	}
	byOrder, err := r.items.loadFor(ctx, ids)
	if err != nil {
		return result, err
	}
	for _, o := range result.Items {
		o.Items = byOrder[o.ID]
	}
	return result, nil
}

// Ensure interface compliance.
var _ orders.Repository = (*OrderRepo)(nil)
