package document_repo

import (
	"context"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"supplytrack/internal/core/id"
	"supplytrack/internal/domain"
	"supplytrack/internal/domain/purchasing"
	"supplytrack/internal/infrastructure/storage/postgres"
)

const (
	purchaseOrdersTable     = "purchase_orders"
	purchaseOrderItemsTable = "purchase_order_items"
	poNotificationsTable    = "purchase_order_notifications"
)

// poItemRow carries the parent reference alongside the line columns.
type poItemRow struct {
	purchasing.Item
	PurchaseOrderID id.ID `db:"purchase_order_id"`
}

// PurchaseOrderRepo implements purchasing.Repository.
type PurchaseOrderRepo struct {
	*BaseDocumentRepo[*purchasing.PurchaseOrder]
}

// NewPurchaseOrderRepo creates a new purchase order repository.
func NewPurchaseOrderRepo(txm *postgres.TxManager) *PurchaseOrderRepo {
	return &PurchaseOrderRepo{
		BaseDocumentRepo: NewBaseDocumentRepo[*purchasing.PurchaseOrder](
			txm,
			purchaseOrdersTable,
			postgres.ExtractDBColumns[purchasing.PurchaseOrder](),
			func() *purchasing.PurchaseOrder { return &purchasing.PurchaseOrder{} },
		),
	}
}

// Create inserts the header and its lines.
func (r *PurchaseOrderRepo) Create(ctx context.Context, po *purchasing.PurchaseOrder) error {
	if err := r.insertHeader(ctx, po); err != nil {
		return err
	}
	return r.saveItems(ctx, po.ID, po.Items)
}

// GetByID retrieves a purchase order with its lines.
func (r *PurchaseOrderRepo) GetByID(ctx context.Context, poID id.ID) (*purchasing.PurchaseOrder, error) {
	po, err := r.getHeaderByID(ctx, poID)
	if err != nil {
		return nil, err
	}
	if po.Items, err = r.loadItems(ctx, po.ID); err != nil {
		return nil, err
	}
	return po, nil
}

// GetByNumber retrieves a purchase order by its reference number.
func (r *PurchaseOrderRepo) GetByNumber(ctx context.Context, number string) (*purchasing.PurchaseOrder, error) {
	po, err := r.getHeaderByNumber(ctx, number)
	if err != nil {
		return nil, err
	}
	if po.Items, err = r.loadItems(ctx, po.ID); err != nil {
		return nil, err
	}
	return po, nil
}

// Update persists the header and replaces item lines. Purchase order
// lines mutate through their lifecycle (pricing, receipts), so Update
// rewrites them wholesale.
func (r *PurchaseOrderRepo) Update(ctx context.Context, po *purchasing.PurchaseOrder) error {
	if err := r.updateHeader(ctx, po); err != nil {
		return err
	}

	deleteSQL := "DELETE FROM " + purchaseOrderItemsTable + " WHERE purchase_order_id = $1"
	if _, err := r.querier(ctx).Exec(ctx, deleteSQL, po.ID); err != nil {
		return fmt.Errorf("delete existing items: %w", err)
	}

	return r.saveItems(ctx, po.ID, po.Items)
}

func (r *PurchaseOrderRepo) saveItems(ctx context.Context, poID id.ID, items []purchasing.Item) error {
	if len(items) == 0 {
		return nil
	}

	q := r.Builder().
		Insert(purchaseOrderItemsTable).
		Columns("id", "purchase_order_id", "product_id", "description",
			"quantity_ordered", "quantity_received", "unit_cost")

	for _, it := range items {
		q = q.Values(it.ID, poID, it.ProductID, it.Description,
			it.QuantityOrdered, it.QuantityReceived, it.UnitCost)
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert items: %w", err)
	}

	if _, err := r.querier(ctx).Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert items: %w", err)
	}
	return nil
}

func (r *PurchaseOrderRepo) loadItems(ctx context.Context, poID id.ID) ([]purchasing.Item, error) {
	byPO, err := r.loadItemsFor(ctx, []id.ID{poID})
	if err != nil {
		return nil, err
	}
	return byPO[poID], nil
}

func (r *PurchaseOrderRepo) loadItemsFor(ctx context.Context, poIDs []id.ID) (map[id.ID][]purchasing.Item, error) {
	if len(poIDs) == 0 {
		return map[id.ID][]purchasing.Item{}, nil
	}

	q := r.Builder().
		Select("id", "purchase_order_id", "product_id", "description",
			"quantity_ordered", "quantity_received", "unit_cost").
		From(purchaseOrderItemsTable).
		Where(squirrel.Eq{"purchase_order_id": poIDs}).
		OrderBy("purchase_order_id", "id")

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var rows []poItemRow
	if err := pgxscan.Select(ctx, r.querier(ctx), &rows, sql, args...); err != nil {
		return nil, fmt.Errorf("select items: %w", err)
	}

	byPO := make(map[id.ID][]purchasing.Item, len(poIDs))
	for _, row := range rows {
		byPO[row.PurchaseOrderID] = append(byPO[row.PurchaseOrderID], row.Item)
	}
	return byPO, nil
}

// List retrieves purchase orders with filtering, attaching lines.
func (r *PurchaseOrderRepo) List(ctx context.Context, filter purchasing.ListFilter) (domain.ListResult[*purchasing.PurchaseOrder], error) {
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
	if filter.SupplierID != nil {
		q = q.Where(squirrel.Eq{"supplier_id": *filter.SupplierID})
	}

	result, err := r.finishList(ctx, q, filter.ListFilter)
	if err != nil {
		return result, err
	}

	ids := make([]id.ID, 0, len(result.Items))
	for _, po := range result.Items {
		ids = append(ids, po.ID)
	}
	byPO, err := r.loadItemsFor(ctx, ids)
	if err != nil {
		return result, err
	}
	for _, po := range result.Items {
		po.Items = byPO[po.ID]
	}
	return result, nil
}

// ListDueBetween returns unpaid or overdue orders whose payment due date
// falls inside [from, to], soonest first.
func (r *PurchaseOrderRepo) ListDueBetween(ctx context.Context, from, to time.Time) ([]*purchasing.PurchaseOrder, error) {
	q := r.baseSelect().
		Where(squirrel.Eq{"deletion_mark": false}).
		Where(squirrel.Eq{"payment_status": []purchasing.PaymentStatus{
			purchasing.PaymentUnpaid, purchasing.PaymentOverdue,
		}}).
		Where(squirrel.GtOrEq{"payment_due_date": from}).
		Where(squirrel.LtOrEq{"payment_due_date": to}).
		OrderBy("payment_due_date ASC")

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var items []*purchasing.PurchaseOrder
	if err := pgxscan.Select(ctx, r.querier(ctx), &items, sql, args...); err != nil {
		return nil, fmt.Errorf("list due purchase orders: %w", err)
	}

	ids := make([]id.ID, 0, len(items))
	for _, po := range items {
		ids = append(ids, po.ID)
	}
	byPO, err := r.loadItemsFor(ctx, ids)
	if err != nil {
		return nil, err
	}
	for _, po := range items {
		po.Items = byPO[po.ID]
	}
	return items, nil
}

// InsertNotification stores one supplier notification row.
func (r *PurchaseOrderRepo) InsertNotification(ctx context.Context, n purchasing.Notification) error {
	q := r.Builder().
		Insert(poNotificationsTable).
		Columns("id", "purchase_order_id", "supplier_name", "status",
			"message", "payment_due_date", "created_at").
		Values(n.ID, n.PurchaseOrderID, n.SupplierName, n.Status,
			n.Message, n.PaymentDueDate, n.CreatedAt)

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert notification: %w", err)
	}

	if _, err := r.querier(ctx).Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert notification: %w", err)
	}
	return nil
}

// ListNotifications returns notifications for a purchase order, newest first.
func (r *PurchaseOrderRepo) ListNotifications(ctx context.Context, poID id.ID) ([]purchasing.Notification, error) {
	q := r.Builder().
		Select("id", "purchase_order_id", "supplier_name", "status",
			"message", "payment_due_date", "created_at").
		From(poNotificationsTable).
		Where(squirrel.Eq{"purchase_order_id": poID}).
		OrderBy("created_at DESC")

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var items []purchasing.Notification
	if err := pgxscan.Select(ctx, r.querier(ctx), &items, sql, args...); err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}
	return items, nil
}

// Ensure interface compliance.
var _ purchasing.Repository = (*PurchaseOrderRepo)(nil)
