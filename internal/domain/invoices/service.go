package invoices

import (
	"context"

	"supplytrack/internal/core/apperror"
	"supplytrack/internal/core/id"
	"supplytrack/internal/core/tx"
	"supplytrack/internal/core/types"
	"supplytrack/internal/domain"
	"supplytrack/internal/domain/audit"
	"supplytrack/internal/domain/catalogs/customer"
	"supplytrack/internal/domain/orders"
	"supplytrack/pkg/refid"
)

// Service issues invoices against orders and manual orders. Amounts are
// frozen at creation; later order edits do not reprice an invoice.
type Service struct {
	repo         Repository
	orderRepo    orders.Repository
	manualRepo   orders.ManualRepository
	customerRepo customer.Repository
	txm          tx.Manager
	audit        audit.Recorder

	// taxRate applies to the order subtotal, e.g. 0.12 for VAT.
	taxRate types.Money
}

// NewService creates the invoice service.
func NewService(
	repo Repository,
	orderRepo orders.Repository,
	manualRepo orders.ManualRepository,
	customerRepo customer.Repository,
	txm tx.Manager,
	auditRec audit.Recorder,
	taxRate types.Money,
) *Service {
	return &Service{
		repo:         repo,
		orderRepo:    orderRepo,
		manualRepo:   manualRepo,
		customerRepo: customerRepo,
		txm:          txm,
		audit:        auditRec,
		taxRate:      taxRate,
	}
}

// CreateForOrder drafts an invoice from an order's frozen line prices.
// One invoice per order.
func (s *Service) CreateForOrder(ctx context.Context, orderID id.ID) (*Invoice, error) {
	var out *Invoice
	err := s.txm.RunInTransaction(ctx, func(ctx context.Context) error {
		o, err := s.orderRepo.GetByID(ctx, orderID)
		if err != nil {
			return err
		}
		if existing, err := s.repo.GetByOrderID(ctx, orderID); err == nil && existing != nil {
			return apperror.NewBusinessRule(apperror.CodeBusinessRule,
				"order already has invoice "+existing.Number)
		} else if err != nil && !apperror.IsNotFound(err) {
			return err
		}

		billedTo := ""
		if c, err := s.customerRepo.GetByID(ctx, o.CustomerID); err == nil {
			billedTo = c.Name
		}

		number, err := refid.NewUnique(ctx, refid.PrefixInvoice, s.repo.ExistsByNumber)
		if err != nil {
			return err
		}

		inv := New(number, o.Total(), s.taxRate, billedTo)
		oid := o.ID
		inv.OrderID = &oid
		if err := inv.Validate(ctx); err != nil {
			return err
		}

		audit.EnrichCreatedBy(ctx, &inv.CreatedBy, &inv.UpdatedBy)
		if err := s.repo.Create(ctx, inv); err != nil {
			return err
		}
		out = inv
		s.logAudit(ctx, audit.ActionCreate, inv)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// CreateForManualOrder drafts an invoice from a manual order.
func (s *Service) CreateForManualOrder(ctx context.Context, orderID id.ID) (*Invoice, error) {
	var out *Invoice
	err := s.txm.RunInTransaction(ctx, func(ctx context.Context) error {
		m, err := s.manualRepo.GetByID(ctx, orderID)
		if err != nil {
			return err
		}

		number, err := refid.NewUnique(ctx, refid.PrefixInvoice, s.repo.ExistsByNumber)
		if err != nil {
			return err
		}

		inv := New(number, m.Total(), s.taxRate, m.CustomerName)
		mid := m.ID
		inv.ManualOrderID = &mid
		if err := inv.Validate(ctx); err != nil {
			return err
		}

		audit.EnrichCreatedBy(ctx, &inv.CreatedBy, &inv.UpdatedBy)
		if err := s.repo.Create(ctx, inv); err != nil {
			return err
		}
		out = inv
		s.logAudit(ctx, audit.ActionCreate, inv)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Issue moves a draft invoice to issued.
func (s *Service) Issue(ctx context.Context, invoiceID id.ID) (*Invoice, error) {
	return s.mutate(ctx, invoiceID, func(inv *Invoice) error { return inv.Issue() })
}

// MarkPaid settles an issued invoice.
func (s *Service) MarkPaid(ctx context.Context, invoiceID id.ID) (*Invoice, error) {
	return s.mutate(ctx, invoiceID, func(inv *Invoice) error { return inv.MarkPaid() })
}

// Cancel voids an unpaid invoice.
func (s *Service) Cancel(ctx context.Context, invoiceID id.ID) (*Invoice, error) {
	return s.mutate(ctx, invoiceID, func(inv *Invoice) error { return inv.Cancel() })
}

// Get retrieves an invoice.
func (s *Service) Get(ctx context.Context, invoiceID id.ID) (*Invoice, error) {
	return s.repo.GetByID(ctx, invoiceID)
}

// List retrieves invoices.
func (s *Service) List(ctx context.Context, filter ListFilter) (domain.ListResult[*Invoice], error) {
	return s.repo.List(ctx, filter)
}

func (s *Service) mutate(ctx context.Context, invoiceID id.ID, fn func(inv *Invoice) error) (*Invoice, error) {
	var out *Invoice
	err := s.txm.RunInTransaction(ctx, func(ctx context.Context) error {
		inv, err := s.repo.GetByID(ctx, invoiceID)
		if err != nil {
			return err
		}
		if err := fn(inv); err != nil {
			return err
		}
		audit.EnrichUpdatedBy(ctx, &inv.UpdatedBy)
		inv.Touch()
		if err := s.repo.Update(ctx, inv); err != nil {
			return err
		}
		out = inv
		s.logAudit(ctx, audit.ActionUpdate, inv)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Service) logAudit(ctx context.Context, action audit.Action, inv *Invoice) {
	if s.audit == nil {
		return
	}
	s.audit.Log(ctx, audit.Entry{
		Action:     action,
		EntityType: "invoice",
		EntityID:   inv.ID.String(),
		ObjectRepr: inv.Number,
		Extra:      map[string]any{"status": inv.Status},
	})
}
