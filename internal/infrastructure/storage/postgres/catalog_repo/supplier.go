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
	"supplytrack/internal/domain/catalogs/supplier"
	"supplytrack/internal/infrastructure/storage/postgres"
)

const suppliersTable = "suppliers"

type supplierRow struct {
	ID           id.ID      `db:"id"`
	DeletionMark bool       `db:"deletion_mark"`
	DeletedAt    *time.Time `db:"deleted_at"`
	Version      int        `db:"version"`
	CreatedAt    time.Time  `db:"created_at"`
	UpdatedAt    time.Time  `db:"updated_at"`
	CreatedBy    string     `db:"created_by"`
	UpdatedBy    string     `db:"updated_by"`

	CompanyName   string `db:"company_name"`
	ContactPerson string `db:"contact_person"`
	Email         string `db:"email"`
	Phone         string `db:"phone"`
	Street        string `db:"street"`
	City          string `db:"city"`
	Prov          string `db:"province"`
	ZipCode       string `db:"zip_code"`
	IsActive      bool   `db:"is_active"`
}

var supplierCols = postgres.ExtractDBColumns[supplierRow]()

func (row supplierRow) toDomain() *supplier.Supplier {
	return &supplier.Supplier{
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
		CompanyName:   row.CompanyName,
		ContactPerson: row.ContactPerson,
		Email:         row.Email,
		Phone:         row.Phone,
		Address: customer.Address{
			Street:   row.Street,
			City:     row.City,
			Province: row.Prov,
			ZipCode:  row.ZipCode,
		},
		IsActive: row.IsActive,
	}
}

func supplierToRow(s *supplier.Supplier) map[string]any {
	return map[string]any{
		"id":             s.ID,
		"deletion_mark":  s.DeletionMark,
		"deleted_at":     s.DeletedAt,
		"version":        s.Version,
		"created_at":     s.CreatedAt,
		"updated_at":     s.UpdatedAt,
		"created_by":     s.CreatedBy,
		"updated_by":     s.UpdatedBy,
		"company_name":   s.CompanyName,
		"contact_person": s.ContactPerson,
		"email":          s.Email,
		"phone":          s.Phone,
		"street":         s.Address.Street,
		"city":           s.Address.City,
		"province":       s.Address.Province,
		"zip_code":       s.Address.ZipCode,
		"is_active":      s.IsActive,
	}
}

// SupplierRepo implements supplier.Repository.
type SupplierRepo struct {
	txm *postgres.TxManager
}

// NewSupplierRepo creates a new supplier repository.
func NewSupplierRepo(txm *postgres.TxManager) *SupplierRepo {
	return &SupplierRepo{txm: txm}
}

func (r *SupplierRepo) builder() squirrel.StatementBuilderType {
	return squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
}

// Create inserts a supplier.
func (r *SupplierRepo) Create(ctx context.Context, s *supplier.Supplier) error {
	q := r.builder().Insert(suppliersTable).SetMap(supplierToRow(s))

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	if _, err := r.txm.GetQuerier(ctx).Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert supplier: %w", err)
	}
	return nil
}

// GetByID retrieves a supplier by ID.
func (r *SupplierRepo) GetByID(ctx context.Context, supplierID id.ID) (*supplier.Supplier, error) {
	q := r.builder().
		Select(supplierCols...).
		From(suppliersTable).
		Where(squirrel.Eq{"id": supplierID}).
		Limit(1)

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var row supplierRow
	if err := pgxscan.Get(ctx, r.txm.GetQuerier(ctx), &row, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound("supplier", supplierID.String())
		}
		return nil, fmt.Errorf("get supplier: %w", err)
	}
	return row.toDomain(), nil
}

// Update modifies a supplier with optimistic locking.
func (r *SupplierRepo) Update(ctx context.Context, s *supplier.Supplier) error {
	data := supplierToRow(s)
	delete(data, "id")
	delete(data, "version")
	delete(data, "created_at")
	delete(data, "created_by")
	delete(data, "updated_at")

	q := r.builder().
		Update(suppliersTable).
		SetMap(data).
		Set("version", squirrel.Expr("version + 1")).
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"id": s.ID}).
		Where(squirrel.Eq{"version": s.Version})

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}

	result, err := r.txm.GetQuerier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("update supplier: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperror.NewConcurrentModification("supplier", s.ID)
	}
	return nil
}

// SetDeletionMark sets or clears the soft-delete mark.
func (r *SupplierRepo) SetDeletionMark(ctx context.Context, supplierID id.ID, marked bool) error {
	q := r.builder().
		Update(suppliersTable).
		Set("deletion_mark", marked).
		Set("version", squirrel.Expr("version + 1")).
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"id": supplierID})
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
		return apperror.NewNotFound("supplier", supplierID.String())
	}
	return nil
}

// List retrieves suppliers with filtering and pagination.
func (r *SupplierRepo) List(ctx context.Context, filter domain.ListFilter) (domain.ListResult[*supplier.Supplier], error) {
	result := domain.ListResult[*supplier.Supplier]{
		Limit:  filter.Limit,
		Offset: filter.Offset,
	}

	q := r.builder().
		Select(supplierCols...).
		From(suppliersTable)

	if !filter.IncludeDeleted {
		q = q.Where(squirrel.Eq{"deletion_mark": false})
	}
	if filter.Search != "" {
		pattern := "%" + filter.Search + "%"
		q = q.Where(squirrel.Or{
			squirrel.ILike{"company_name": pattern},
			squirrel.ILike{"contact_person": pattern},
			squirrel.ILike{"email": pattern},
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

	q = q.OrderBy("company_name ASC")
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

	var rows []supplierRow
	if err := pgxscan.Select(ctx, querier, &rows, sql, args...); err != nil {
		return result, fmt.Errorf("list suppliers: %w", err)
	}

	result.Items = make([]*supplier.Supplier, 0, len(rows))
	for _, row := range rows {
		result.Items = append(result.Items, row.toDomain())
	}
	return result, nil
}

// Ensure interface compliance.
var _ supplier.Repository = (*SupplierRepo)(nil)
