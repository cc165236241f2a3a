package catalog_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5"

	"supplytrack/internal/core/id"
	"supplytrack/internal/domain/catalogs/product"
	"supplytrack/internal/infrastructure/storage/postgres"
)

const productsTable = "products"

// ProductRepo implements product.Repository.
//
// stock_quantity is excluded from Update: the cached balance only moves
// through the stock ledger repository under row locks.
type ProductRepo struct {
	*BaseCatalogRepo[*product.Product]
}

// NewProductRepo creates a new product repository.
func NewProductRepo(txm *postgres.TxManager) *ProductRepo {
	base := NewBaseCatalogRepo[*product.Product](
		txm,
		productsTable,
		postgres.ExtractDBColumns[product.Product](),
		[]string{"name", "sku"},
		func() *product.Product { return &product.Product{} },
	)
	base.SkipOnUpdate("stock_quantity")
	return &ProductRepo{BaseCatalogRepo: base}
}

// GetBySKU retrieves a product by SKU.
func (r *ProductRepo) GetBySKU(ctx context.Context, sku string) (*product.Product, error) {
	q := r.baseSelect().
		Where(squirrel.Eq{"sku": sku}).
		Where(squirrel.Eq{"deletion_mark": false}).
		Limit(1)
	return r.FindOne(ctx, q)
}

// ListActive returns all active, non-deleted products.
func (r *ProductRepo) ListActive(ctx context.Context) ([]*product.Product, error) {
	q := r.baseSelect().
		Where(squirrel.Eq{"is_active": true}).
		Where(squirrel.Eq{"deletion_mark": false}).
		OrderBy("name")

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var items []*product.Product
	if err := pgxscan.Select(ctx, r.querier(ctx), &items, sql, args...); err != nil {
		return nil, fmt.Errorf("list active products: %w", err)
	}
	return items, nil
}

// ExistsBySKU checks SKU uniqueness, ignoring the given product itself.
func (r *ProductRepo) ExistsBySKU(ctx context.Context, sku string, excludeID id.ID) (bool, error) {
	q := r.Builder().
		Select("1").
		From(productsTable).
		Where(squirrel.Eq{"sku": sku}).
		Where(squirrel.NotEq{"id": excludeID}).
		Where(squirrel.Eq{"deletion_mark": false}).
		Limit(1)

	sql, args, err := q.ToSql()
	if err != nil {
		return false, fmt.Errorf("build query: %w", err)
	}

	var exists int
	err = r.querier(ctx).QueryRow(ctx, sql, args...).Scan(&exists)
	if err == pgx.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("exists by sku: %w", err)
	}
	return true, nil
}

// Ensure interface compliance.
var _ product.Repository = (*ProductRepo)(nil)
