package document_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"supplytrack/internal/core/id"
	"supplytrack/internal/domain/orders"
	"supplytrack/internal/infrastructure/storage/postgres"
)

// orderItemRow carries the parent reference alongside the line columns.
type orderItemRow struct {
	orders.Item
	OrderID id.ID `db:"order_id"`
}

// itemStore reads and writes order line tables. Orders and manual orders
// share the same line shape, so both repos reuse it with their own table.
type itemStore struct {
	txm   *postgres.TxManager
	table string
}

func (s itemStore) builder() squirrel.StatementBuilderType {
	return squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
}

// insert writes lines for one order. Lines are immutable after creation.
func (s itemStore) insert(ctx context.Context, orderID id.ID, items []orders.Item) error {
	if len(items) == 0 {
		return nil
	}

	q := s.builder().
		Insert(s.table).
		Columns("id", "order_id", "product_id", "quantity", "price_at_order")

	for _, it := range items {
		q = q.Values(it.ID, orderID, it.ProductID, it.Quantity, it.PriceAtOrder)
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert items: %w", err)
	}

	if _, err := s.txm.GetQuerier(ctx).Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert items: %w", err)
	}
	return nil
}

// load returns lines for one order.
func (s itemStore) load(ctx context.Context, orderID id.ID) ([]orders.Item, error) {
	byOrder, err := s.loadFor(ctx, []id.ID{orderID})
	if err != nil {
		return nil, err
	}
	return byOrder[orderID], nil
}

// loadFor returns lines for a set of orders in one query.
func (s itemStore) loadFor(ctx context.Context, orderIDs []id.ID) (map[id.ID][]orders.Item, error) {
	if len(orderIDs) == 0 {
		return map[id.ID][]orders.Item{}, nil
	}

	q := s.builder().
		Select("id", "order_id", "product_id", "quantity", "price_at_order").
		From(s.table).
		Where(squirrel.Eq{"order_id": orderIDs}).
		OrderBy("order_id", "id")

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var rows []orderItemRow
	if err := pgxscan.Select(ctx, s.txm.GetQuerier(ctx), &rows, sql, args...); err != nil {
		return nil, fmt.Errorf("select items: %w", err)
	}

	byOrder := make(map[id.ID][]orders.Item, len(orderIDs))
	for _, row := range rows {
		byOrder[row.OrderID] = append(byOrder[row.OrderID], row.Item)
	}
	return byOrder, nil
}
