package document_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"supplytrack/internal/core/apperror"
	"supplytrack/internal/core/id"
	"supplytrack/internal/domain"
	"supplytrack/internal/domain/invoices"
	"supplytrack/internal/infrastructure/storage/postgres"
)

const invoicesTable = "invoices"

// InvoiceRepo implements invoices.Repository.
type InvoiceRepo struct {
	*BaseDocumentRepo[*invoices.Invoice]
}

// NewInvoiceRepo creates a new invoice repository.
func NewInvoiceRepo(txm *postgres.TxManager) *InvoiceRepo {
	return &InvoiceRepo{
		BaseDocumentRepo: NewBaseDocumentRepo[*invoices.Invoice](
			txm,
			invoicesTable,
			postgres.ExtractDBColumns[invoices.Invoice](),
			func() *invoices.Invoice { return &invoices.Invoice{} },
		),
	}
}

// Create inserts an invoice.
func (r *InvoiceRepo) Create(ctx context.Context, inv *invoices.Invoice) error {
	return r.insertHeader(ctx, inv)
}

// GetByID retrieves an invoice by ID.
func (r *InvoiceRepo) GetByID(ctx context.Context, invoiceID id.ID) (*invoices.Invoice, error) {
	return r.getHeaderByID(ctx, invoiceID)
}

// GetByNumber retrieves an invoice by its reference number.
func (r *InvoiceRepo) GetByNumber(ctx context.Context, number string) (*invoices.Invoice, error) {
	return r.getHeaderByNumber(ctx, number)
}

// GetByOrderID returns the invoice billed against an order, if any.
func (r *InvoiceRepo) GetByOrderID(ctx context.Context, orderID id.ID) (*invoices.Invoice, error) {
	inv := &invoices.Invoice{}
	q := r.baseSelect().
		Where(squirrel.Eq{"order_id": orderID}).
		Where(squirrel.Eq{"deletion_mark": false}).
		Limit(1)

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	if err := pgxscan.Get(ctx, r.querier(ctx), inv, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound("invoice", orderID.String())
		}
		return nil, fmt.Errorf("get invoice by order: %w", err)
	}
	return inv, nil
}

// Update persists an invoice with optimistic locking.
func (r *InvoiceRepo) Update(ctx context.Context, inv *invoices.Invoice) error {
	return r.updateHeader(ctx, inv)
}

// List retrieves invoices with filtering.
func (r *InvoiceRepo) List(ctx context.Context, filter invoices.ListFilter) (domain.ListResult[*invoices.Invoice], error) {
	q := r.baseSelect()

	if !filter.IncludeDeleted {
		q = q.Where(squirrel.Eq{"deletion_mark": false})
	}
	if filter.Search != "" {
		pattern := "%" + filter.Search + "%"
		q = q.Where(squirrel.Or{
			squirrel.ILike{"number": pattern},
			squirrel.ILike{"billed_to": pattern},
		})
	}
	if filter.Status != nil {
		q = q.Where(squirrel.Eq{"status": *filter.Status})
	}

	return r.finishList(ctx, q, filter.ListFilter)
}

// Ensure interface compliance.
var _ invoices.Repository = (*InvoiceRepo)(nil)
