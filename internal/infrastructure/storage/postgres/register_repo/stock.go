// Package register_repo provides the PostgreSQL implementation of the
// stock movement ledger and the alert check log.
package register_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"supplytrack/internal/core/apperror"
	"supplytrack/internal/core/id"
	"supplytrack/internal/domain"
	"supplytrack/internal/domain/stockledger"
	"supplytrack/internal/infrastructure/storage/postgres"
)

const stockMovementsTable = "stock_movements"

// LedgerRepo implements stockledger.Repository. Balance rows live on the
// products table; movements are append-only.
type LedgerRepo struct {
	txm     *postgres.TxManager
	builder squirrel.StatementBuilderType
}

// NewLedgerRepo creates a new stock ledger repository.
func NewLedgerRepo(txm *postgres.TxManager) *LedgerRepo {
	return &LedgerRepo{
		txm:     txm,
		builder: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// LockProducts selects balance rows FOR UPDATE. Ascending ID order keeps
// concurrent multi-product operations deadlock-free.
func (r *LedgerRepo) LockProducts(ctx context.Context, productIDs []id.ID) ([]stockledger.ProductStock, error) {
	if len(productIDs) == 0 {
		return nil, nil
	}

	sql := `
		SELECT id, name, stock_quantity, reorder_level, is_active
		FROM products
		WHERE id = ANY($1) AND deletion_mark = false
		ORDER BY id
		FOR UPDATE
	`

	var rows []stockledger.ProductStock
	querier := r.txm.GetQuerier(ctx)
	if err := pgxscan.Select(ctx, querier, &rows, sql, productIDs); err != nil {
		return nil, fmt.Errorf("lock products: %w", err)
	}

	return rows, nil
}

// GetStock reads a balance row without locking.
func (r *LedgerRepo) GetStock(ctx context.Context, productID id.ID) (stockledger.ProductStock, error) {
	var row stockledger.ProductStock

	q := r.builder.Select("id", "name", "stock_quantity", "reorder_level", "is_active").
		From("products").
		Where(squirrel.Eq{"id": productID}).
		Limit(1)

	sql, args, err := q.ToSql()
	if err != nil {
		return row, fmt.Errorf("build query: %w", err)
	}

	querier := r.txm.GetQuerier(ctx)
	if err := pgxscan.Get(ctx, querier, &row, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return row, apperror.NewNotFound("product", productID.String())
		}
		return row, fmt.Errorf("get stock: %w", err)
	}

	return row, nil
}

// SetStockQuantity writes a new cached balance. Callers must hold the
// row lock from LockProducts in the current transaction.
func (r *LedgerRepo) SetStockQuantity(ctx context.Context, productID id.ID, quantity int) error {
	q := r.builder.Update("products").
		Set("stock_quantity", quantity).
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"id": productID})

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}

	result, err := r.txm.GetQuerier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("set stock quantity: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperror.NewNotFound("product", productID.String())
	}

	return nil
}

// CreateMovements batch inserts ledger records.
func (r *LedgerRepo) CreateMovements(ctx context.Context, movements []stockledger.Movement) error {
	if len(movements) == 0 {
		return nil
	}

	columns := []string{
		"id", "product_id", "movement_type", "quantity",
		"reference", "notes", "created_at",
	}

	// Fast path: COPY when inside a transaction.
	if tx := r.txm.GetTx(ctx); tx != nil {
		inserter := postgres.NewBatchInserter(r.txm)
		rows := make([][]any, 0, len(movements))
		for _, m := range movements {
			rows = append(rows, []any{
				m.ID, m.ProductID, m.MovementType, m.Quantity,
				m.Reference, m.Notes, m.CreatedAt,
			})
		}
		if _, err := inserter.CopyFromSlice(ctx, stockMovementsTable, columns, rows); err != nil {
			return fmt.Errorf("copy movements: %w", err)
		}
		return nil
	}

	// Fallback: plain insert outside a transaction.
	q := r.builder.Insert(stockMovementsTable).Columns(columns...)
	for _, m := range movements {
		q = q.Values(
			m.ID, m.ProductID, m.MovementType, m.Quantity,
			m.Reference, m.Notes, m.CreatedAt,
		)
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	if _, err = r.txm.GetQuerier(ctx).Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert movements: %w", err)
	}

	return nil
}

// ListMovements returns movement history, newest first.
func (r *LedgerRepo) ListMovements(ctx context.Context, filter stockledger.MovementFilter) (domain.ListResult[stockledger.Movement], error) {
	result := domain.ListResult[stockledger.Movement]{
		Limit:  filter.Limit,
		Offset: filter.Offset,
	}

	q := r.builder.Select(
		"id", "product_id", "movement_type", "quantity",
		"reference", "notes", "created_at",
	).From(stockMovementsTable)

	if filter.ProductID != nil {
		q = q.Where(squirrel.Eq{"product_id": *filter.ProductID})
	}
	if filter.Type != nil {
		q = q.Where(squirrel.Eq{"movement_type": *filter.Type})
	}
	if filter.Reference != "" {
		q = q.Where(squirrel.Eq{"reference": filter.Reference})
	}
	if filter.FromDate != nil {
		q = q.Where(squirrel.GtOrEq{"created_at": *filter.FromDate})
	}
	if filter.ToDate != nil {
		q = q.Where(squirrel.LtOrEq{"created_at": *filter.ToDate})
	}

	countQ := r.builder.Select("COUNT(*)").FromSelect(q, "sub")
	countSQL, countArgs, err := countQ.ToSql()
	if err != nil {
		return result, fmt.Errorf("build count: %w", err)
	}

	querier := r.txm.GetQuerier(ctx)
	if err := querier.QueryRow(ctx, countSQL, countArgs...).Scan(&result.TotalCount); err != nil {
		return result, fmt.Errorf("count movements: %w", err)
	}

	q = q.OrderBy("created_at DESC", "id DESC")
	if filter.Limit > 0 {
		q = q.Limit(uint64(filter.Limit))
	}
	if filter.Offset > 0 {
		q = q.Offset(uint64(filter.Offset))
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return result, fmt.Errorf("build query: %w", err)
	}

	if err := pgxscan.Select(ctx, querier, &result.Items, sql, args...); err != nil {
		return result, fmt.Errorf("select movements: %w", err)
	}

	return result, nil
}

// Ensure interface compliance.
var _ stockledger.Repository = (*LedgerRepo)(nil)
