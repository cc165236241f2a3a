package catalog_repo

import (
	"context"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"supplytrack/internal/core/apperror"
	"supplytrack/internal/core/entity"
	"supplytrack/internal/core/id"
	"supplytrack/internal/domain"
	"supplytrack/internal/domain/catalogs/customer"
	"supplytrack/internal/infrastructure/storage/postgres"
)

const customersTable = "customers"

// customerRow flattens the nested Address into table columns.
type customerRow struct {
	ID           id.ID      `db:"id"`
	DeletionMark bool       `db:"deletion_mark"`
	DeletedAt    *time.Time `db:"deleted_at"`
	Version      int        `db:"version"`
	CreatedAt    time.Time  `db:"created_at"`
	UpdatedAt    time.Time  `db:"updated_at"`
	CreatedBy    string     `db:"created_by"`
	UpdatedBy    string     `db:"updated_by"`

	Name    string `db:"name"`
	Email   string `db:"email"`
	Phone   string `db:"phone"`
	Street  string `db:"street"`
	City    string `db:"city"`
	Prov    string `db:"province"`
	ZipCode string `db:"zip_code"`
}

var customerCols = postgres.ExtractDBColumns[customerRow]()

func (row customerRow) toDomain() *customer.Customer {
	return &customer.Customer{
		BaseDocument: entity.BaseDocument{
			BaseEntity: entity.BaseEntity{
				ID:           row.ID,
				DeletionMark: row.DeletionMark,
				DeletedAt:    row.DeletedAt,
				Version:      row.Version,
			},
			CreatedAt: row.CreatedAt,
			UpdatedAt: row.UpdatedAt,
			CreatedBy: row.CreatedBy,
			UpdatedBy: row.UpdatedBy,
		},
		Name:  row.Name,
		Email: row.Email,
		Phone: row.Phone,
		Address: customer.Address{
			Street:   row.Street,
			City:     row.City,
			Province: row.Prov,
			ZipCode:  row.ZipCode,
		},
	}
}

func customerToRow(c *customer.Customer) map[string]any {
	return map[string]any{
		"id":            c.ID,
		"deletion_mark": c.DeletionMark,
		"deleted_at":    c.DeletedAt,
		"version":       c.Version,
		"created_at":    c.CreatedAt,
		"updated_at":    c.UpdatedAt,
		"created_by":    c.CreatedBy,
		"updated_by":    c.UpdatedBy,
		"name":          c.Name,
		"email":         c.Email,
		"phone":         c.Phone,
		"street":        c.Address.Street,
		"city":          c.Address.City,
		"province":      c.Address.Province,
		"zip_code":      c.Address.ZipCode,
	}
}

// CustomerRepo implements customer.Repository.
type CustomerRepo struct {
	txm *postgres.TxManager
}

// NewCustomerRepo creates a new customer repository.
func NewCustomerRepo(txm *postgres.TxManager) *CustomerRepo {
	return &CustomerRepo{txm: txm}
}

func (r *CustomerRepo) builder() squirrel.StatementBuilderType {
	return squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
}

// Create inserts a customer.
func (r *CustomerRepo) Create(ctx context.Context, c *customer.Customer) error {
	q := r.builder().Insert(customersTable).SetMap(customerToRow(c))

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	if _, err := r.txm.GetQuerier(ctx).Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert customer: %w", err)
	}
	return nil
}

// GetByID retrieves a customer by ID.
func (r *CustomerRepo) GetByID(ctx context.Context, customerID id.ID) (*customer.Customer, error) {
	q := r.builder().
		Select(customerCols...).
		From(customersTable).
		Where(squirrel.Eq{"id": customerID}).
		Limit(1)

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var row customerRow
	if err := pgxscan.Get(ctx, r.txm.GetQuerier(ctx), &row, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound("customer", customerID.String())
		}
		return nil, fmt.Errorf("get customer: %w", err)
	}
	return row.toDomain(), nil
}

// Update modifies a customer with optimistic locking.
func (r *CustomerRepo) Update(ctx context.Context, c *customer.Customer) error {
	data := customerToRow(c)
	delete(data, "id")
	delete(data, "version")
	delete(data, "created_at")
	delete(data, "created_by")
	delete(data, "updated_at")

	q := r.builder().
		Update(customersTable).
		SetMap(data).
		Set("version", squirrel.Expr("version + 1")).
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"id": c.ID}).
		Where(squirrel.Eq{"version": c.Version})

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}

	result, err := r.txm.GetQuerier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("update customer: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperror.NewConcurrentModification("customer", c.ID)
	}
	return nil
}

// SetDeletionMark sets or clears the soft-delete mark.
func (r *CustomerRepo) SetDeletionMark(ctx context.Context, customerID id.ID, marked bool) error {
	q := r.builder().
		Update(customersTable).
		Set("deletion_mark", marked).
		Set("version", squirrel.Expr("version + 1")).
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"id": customerID})
	if marked {
		q = q.Set("deleted_at", squirrel.Expr("NOW()"))
	} else {
		q = q.Set("deleted_at", nil)
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build set deletion mark: %w", err)
	}

	result, err := r.txm.GetQuerier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("execute set deletion mark: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperror.NewNotFound("customer", customerID.String())
	}
	return nil
}

// List retrieves customers with filtering and pagination.
func (r *CustomerRepo) List(ctx context.Context, filter domain.ListFilter) (domain.ListResult[*customer.Customer], error) {
	result := domain.ListResult[*customer.Customer]{
		Limit:  filter.Limit,
		Offset: filter.Offset,
	}

	q := r.builder().
		Select(customerCols...).
		From(customersTable)

	if !filter.IncludeDeleted {
		q = q.Where(squirrel.Eq{"deletion_mark": false})
	}
	if filter.Search != "" {
		pattern := "%" + filter.Search + "%"
		q = q.Where(squirrel.Or{
			squirrel.ILike{"name": pattern},
			squirrel.ILike{"email": pattern},
			squirrel.ILike{"phone": pattern},
		})
	}
	if len(filter.IDs) > 0 {
		q = q.Where(squirrel.Eq{"id": filter.IDs})
	}

	countQ := r.builder().Select("COUNT(*)").FromSelect(q, "sub")
	countSQL, countArgs, err := countQ.ToSql()
	if err != nil {
		return result, fmt.Errorf("build count: %w", err)
	}

	querier := r.txm.GetQuerier(ctx)
	if err := querier.QueryRow(ctx, countSQL, countArgs...).Scan(&result.TotalCount); err != nil {
		return result, fmt.Errorf("count: %w", err)
	}

	q = q.OrderBy("name ASC")
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

	var rows []customerRow
	if err := pgxscan.Select(ctx, querier, &rows, sql, args...); err != nil {
		return result, fmt.Errorf("list customers: %w", err)
	}

	result.Items = make([]*customer.Customer, 0, len(rows))
	for _, row := range rows {
		result.Items = append(result.Items, row.toDomain())
	}
	return result, nil
}

// Ensure interface compliance.
var _ customer.Repository = (*CustomerRepo)(nil)
