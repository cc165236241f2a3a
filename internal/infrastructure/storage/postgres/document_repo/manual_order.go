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
	manualOrdersTable     = "manual_orders"
	manualOrderItemsTable = "manual_order_items"
)

// ManualOrderRepo implements orders.ManualRepository.
type ManualOrderRepo struct {
	*BaseDocumentRepo[*orders.ManualOrder]
	items itemStore
}

// NewManualOrderRepo creates a new manual order repository.
func NewManualOrderRepo(txm *postgres.TxManager) *ManualOrderRepo {
	return &ManualOrderRepo{
		BaseDocumentRepo: NewBaseDocumentRepo[*orders.ManualOrder](
			txm,
			manualOrdersTable,
			postgres.ExtractDBColumns[orders.ManualOrder](),
			func() *orders.ManualOrder { return &orders.ManualOrder{} },
		),
		items: itemStore{txm: txm, table: manualOrderItemsTable},
	}
}

// Create inserts the order header and its lines.
func (r *ManualOrderRepo) Create(ctx context.Context, m *orders.ManualOrder) error {
	if err := r.insertHeader(ctx, m); err != nil {
		return err
	}
	return r.items.insert(ctx, m.ID, m.Items)
}

// GetByID retrieves a manual order with its lines.
func (r *ManualOrderRepo) GetByID(ctx context.Context, orderID id.ID) (*orders.ManualOrder, error) {
	m, err := r.getHeaderByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if m.Items, err = r.items.load(ctx, m.ID); err != nil {
		return nil, err
	}
	return m, nil
}

// GetByNumber retrieves a manual order by its reference number.
func (r *ManualOrderRepo) GetByNumber(ctx context.Context, number string) (*orders.ManualOrder, error) {
	m, err := r.getHeaderByNumber(ctx, number)
	if err != nil {
		return nil, err
	}
	if m.Items, err = r.items.load(ctx, m.ID); err != nil {
		return nil, err
	}
	return m, nil
}

// Update persists header fields. Lines are immutable after creation.
func (r *ManualOrderRepo) Update(ctx context.Context, m *orders.ManualOrder) error {
	return r.updateHeader(ctx, m)
}

// List retrieves manual orders with filtering, attaching lines in one pass.
func (r *ManualOrderRepo) List(ctx context.Context, filter orders.ListFilter) (domain.ListResult[*orders.ManualOrder], error) {
	q := r.baseSelect()

	if !filter.IncludeDeleted {
		q = q.Where(squirrel.Eq{"deletion_mark": false})
	}
	if filter.Search != "" {
		pattern := "%" + filter.Search + "%"
		q = q.Where(squirrel.Or{
			squirrel.ILike{"number": pattern},
			squirrel.ILike{"customer_name": pattern},
		})
	}
	if filter.Status != nil {
		q = q.Where(squirrel.Eq{"status": *filter.Status})
	}
	if filter.PaymentStatus != nil {
		q = q.Where(squirrel.Eq{"payment_status": *filter.PaymentStatus})
	}

	result, err := r.finishList(ctx, q, filter.ListFilter)
	if err != nil {
		return result, err
	}

	ids := make([]id.ID, 0, len(result.Items))
	for _, m := range result.Items {
		ids = append(ids, m.ID)
	}
	byOrder, err := r.items.loadFor(ctx, ids)
	if err != nil {
		return result, err
	}
	for _, m := range result.Items {
		m.Items = byOrder[m.ID]
	}
	return result, nil
}

// Ensure interface compliance.
var _ orders.ManualRepository = (*ManualOrderRepo)(nil)
