package purchasing

import (
	"context"
	"fmt"
	"time"

	"supplytrack/internal/core/apperror"
	"supplytrack/internal/core/id"
	"supplytrack/internal/core/tx"
	"supplytrack/internal/core/types"
	"supplytrack/internal/domain"
	"supplytrack/internal/domain/audit"
	"supplytrack/internal/domain/catalogs/supplier"
	"supplytrack/internal/domain/notify"
	"supplytrack/internal/domain/stockledger"
	"supplytrack/pkg/refid"
)

// Receipt is one delivered line reported against a purchase order item.
type Receipt struct {
	ItemID   id.ID `json:"itemId"`
	Quantity int   `json:"quantity"`
}

// ItemPricing carries supplier pricing for one line.
type ItemPricing struct {
	ItemID   id.ID       `json:"itemId"`
	UnitCost types.Money `json:"unitCost"`
}

// Service owns the purchase order lifecycle. Receipt, refund and
// cancellation push inventory corrections through the stock ledger
// inside the same transaction as the status change.
type Service struct {
	repo         Repository
	supplierRepo supplier.Repository
	ledger       *stockledger.Service
	txm          tx.Manager
	audit        audit.Recorder
	notifier     notify.Notifier
}

// NewService creates the purchasing service.
func NewService(
	repo Repository,
	supplierRepo supplier.Repository,
	ledger *stockledger.Service,
	txm tx.Manager,
	auditRec audit.Recorder,
	notifier notify.Notifier,
) *Service {
	return &Service{
		repo:         repo,
		supplierRepo: supplierRepo,
		ledger:       ledger,
		txm:          txm,
		audit:        auditRec,
		notifier:     notifier,
	}
}

// --- Draft lifecycle ---

// CreateDraft stores a new draft purchase order, generating its number.
func (s *Service) CreateDraft(ctx context.Context, po *PurchaseOrder) error {
	return s.txm.RunInTransaction(ctx, func(ctx context.Context) error {
		if po.Number == "" {
			number, err := refid.NewUnique(ctx, refid.PrefixPurchaseOrder, s.repo.ExistsByNumber)
			if err != nil {
				return err
			}
			po.Number = number
		}
		po.Status = StatusDraft
		po.RecomputeTotal()
		if err := po.Validate(ctx); err != nil {
			return err
		}
		if _, err := s.supplierRepo.GetByID(ctx, po.SupplierID); err != nil {
			return err
		}

		audit.EnrichCreatedBy(ctx, &po.CreatedBy, &po.UpdatedBy)
		if err := s.repo.Create(ctx, po); err != nil {
			return err
		}
		s.logAudit(ctx, audit.ActionCreate, po, nil)
		return nil
	})
}

// UpdateDraft edits header fields while the order is still a draft.
func (s *Service) UpdateDraft(ctx context.Context, po *PurchaseOrder) error {
	return s.txm.RunInTransaction(ctx, func(ctx context.Context) error {
		current, err := s.repo.GetByID(ctx, po.ID)
		if err != nil {
			return err
		}
		if current.Status != StatusDraft {
			return apperror.NewBusinessRule(apperror.CodeBusinessRule,
				"only draft purchase orders can be edited")
		}

		current.SupplierID = po.SupplierID
		current.PaymentMethod = po.PaymentMethod
		current.PaymentDueDate = po.PaymentDueDate
		current.ExpectedDeliveryDate = po.ExpectedDeliveryDate
		current.Notes = po.Notes
		current.RecomputeTotal()
		current.SyncPaymentStatus(time.Now().UTC())
		if err := current.Validate(ctx); err != nil {
			return err
		}

		audit.EnrichUpdatedBy(ctx, &current.UpdatedBy)
		current.Touch()
		if err := s.repo.Update(ctx, current); err != nil {
			return err
		}
		*po = *current
		s.logAudit(ctx, audit.ActionUpdate, current, nil)
		return nil
	})
}

// --- Item lifecycle ---

// AddItem appends a line and recomputes the cached total. Lines are
// editable until the supplier is asked for pricing.
func (s *Service) AddItem(ctx context.Context, poID id.ID, item Item) (*PurchaseOrder, error) {
	return s.mutateItems(ctx, poID, func(po *PurchaseOrder) error {
		if id.IsNil(item.ID) {
			item.ID = id.New()
		}
		po.Items = append(po.Items, item)
		return nil
	})
}

// UpdateItem replaces an existing line's editable fields.
func (s *Service) UpdateItem(ctx context.Context, poID id.ID, item Item) (*PurchaseOrder, error) {
	return s.mutateItems(ctx, poID, func(po *PurchaseOrder) error {
		existing := po.ItemByID(item.ID)
		if existing == nil {
			return apperror.NewNotFound("purchase order item", item.ID)
		}
		existing.ProductID = item.ProductID
		existing.Description = item.Description
		existing.QuantityOrdered = item.QuantityOrdered
		existing.UnitCost = item.UnitCost
		return nil
	})
}

// RemoveItem deletes a line. Receipt totals are re-derived afterwards,
// which can pull the order back to Confirmed when the removed line held
// the only received quantity.
func (s *Service) RemoveItem(ctx context.Context, poID id.ID, itemID id.ID) (*PurchaseOrder, error) {
	return s.mutateItems(ctx, poID, func(po *PurchaseOrder) error {
		for i := range po.Items {
			if po.Items[i].ID == itemID {
				po.Items = append(po.Items[:i], po.Items[i+1:]...)
				return nil
			}
		}
		return apperror.NewNotFound("purchase order item", itemID)
	})
}

// mutateItems runs an item mutation and the bookkeeping every item
// change requires: total recompute, receipt status derivation, payment
// derivation.
func (s *Service) mutateItems(ctx context.Context, poID id.ID, mutate func(po *PurchaseOrder) error) (*PurchaseOrder, error) {
	var out *PurchaseOrder
	err := s.txm.RunInTransaction(ctx, func(ctx context.Context) error {
		po, err := s.repo.GetByID(ctx, poID)
		if err != nil {
			return err
		}
		if IsTerminal(po.Status) || po.Status == StatusReceived {
			return apperror.NewBusinessRule(apperror.CodeBusinessRule,
				"purchase order items can no longer be changed")
		}
		if err := mutate(po); err != nil {
			return err
		}
		po.RecomputeTotal()
		po.DeriveReceiptStatus()
		po.SyncPaymentStatus(time.Now().UTC())
		if err := po.Validate(ctx); err != nil {
			return err
		}

		audit.EnrichUpdatedBy(ctx, &po.UpdatedBy)
		po.Touch()
		if err := s.repo.Update(ctx, po); err != nil {
			return err
		}
		out = po
		s.logAudit(ctx, audit.ActionUpdate, po, map[string]any{"items": len(po.Items)})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// --- Lifecycle verbs ---

// SubmitRequest sends a draft to the supplier for pricing. At least one
// item is required.
func (s *Service) SubmitRequest(ctx context.Context, poID id.ID) (*PurchaseOrder, error) {
	return s.transition(ctx, poID, StatusRequestPending, []Status{StatusDraft},
		func(po *PurchaseOrder) error {
			if len(po.Items) == 0 {
				return apperror.NewBusinessRule(apperror.CodeBusinessRule,
					"purchase order needs at least one item before submission")
			}
			return nil
		},
		"Pricing requested from supplier")
}

// SubmitPricing records the supplier's unit costs and moves the order
// to SupplierPriced.
func (s *Service) SubmitPricing(ctx context.Context, poID id.ID, pricing []ItemPricing) (*PurchaseOrder, error) {
	if len(pricing) == 0 {
		return nil, apperror.NewValidation("pricing for at least one item is required")
	}
	return s.transition(ctx, poID, StatusSupplierPriced, []Status{StatusRequestPending},
		func(po *PurchaseOrder) error {
			for _, p := range pricing {
				item := po.ItemByID(p.ItemID)
				if item == nil {
					return apperror.NewNotFound("purchase order item", p.ItemID)
				}
				if p.UnitCost.IsNegative() {
					return apperror.NewValidation("unit cost cannot be negative")
				}
				item.UnitCost = p.UnitCost
			}
			po.RecomputeTotal()
			return nil
		},
		"Supplier pricing received")
}

// Confirm finalizes payment terms on a priced order. net_30 without a
// due date defaults to thirty days after the order date.
func (s *Service) Confirm(ctx context.Context, poID id.ID, method PaymentMethod, dueDate *time.Time) (*PurchaseOrder, error) {
	if !ValidPaymentMethod(method) {
		return nil, apperror.NewValidation("unknown payment method")
	}
	return s.transition(ctx, poID, StatusConfirmed, []Status{StatusSupplierPriced},
		func(po *PurchaseOrder) error {
			po.PaymentMethod = method
			if dueDate != nil {
				po.PaymentDueDate = dueDate
			}
			if method == PaymentNet30 {
				po.ApplyNet30Terms()
			}
			return nil
		},
		"Purchase order confirmed")
}

// MarkInTransit records that the supplier shipped the order.
func (s *Service) MarkInTransit(ctx context.Context, poID id.ID) (*PurchaseOrder, error) {
	return s.transition(ctx, poID, StatusInTransit, []Status{StatusConfirmed}, nil,
		"Shipment in transit")
}

// ReceiveItems accumulates delivered quantities, pushes IN movements
// through the ledger and re-derives the lifecycle state. Partial
// receipts are expected; full receipt stamps the received date.
func (s *Service) ReceiveItems(ctx context.Context, poID id.ID, receipts []Receipt) (*PurchaseOrder, error) {
	if len(receipts) == 0 {
		return nil, apperror.NewValidation("at least one receipt line is required")
	}

	var out *PurchaseOrder
	err := s.txm.RunInTransaction(ctx, func(ctx context.Context) error {
		po, err := s.repo.GetByID(ctx, poID)
		if err != nil {
			return err
		}
		switch po.Status {
		case StatusConfirmed, StatusInTransit, StatusPartiallyReceived:
		default:
			return apperror.NewInvalidTransition("purchase order", string(po.Status), string(StatusReceived))
		}

		for _, r := range receipts {
			if r.Quantity <= 0 {
				return apperror.NewValidation("receipt quantity must be positive")
			}
			item := po.ItemByID(r.ItemID)
			if item == nil {
				return apperror.NewNotFound("purchase order item", r.ItemID)
			}
			if item.QuantityReceived+r.Quantity > item.QuantityOrdered {
				return apperror.NewBusinessRule(apperror.CodeBusinessRule,
					fmt.Sprintf("receiving %d would exceed the %d ordered", r.Quantity, item.QuantityOrdered))
			}
			item.QuantityReceived += r.Quantity
			if err := s.ledger.AdjustForReceipt(ctx, item.ProductID, r.Quantity, po.Number); err != nil {
				return err
			}
		}

		oldStatus := po.Status
		po.DeriveReceiptStatus()
		po.SyncPaymentStatus(time.Now().UTC())
		audit.EnrichUpdatedBy(ctx, &po.UpdatedBy)
		po.Touch()
		if err := s.repo.Update(ctx, po); err != nil {
			return err
		}
		out = po

		s.recordTransition(ctx, po, oldStatus, "Items received")
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// RequestRefund moves a received or partially received order to Refund.
// Delivered stock is reversed out of inventory, but quantity_received
// stays as the historical record of what actually arrived.
func (s *Service) RequestRefund(ctx context.Context, poID id.ID, reason string, amount types.Money) (*PurchaseOrder, error) {
	var out *PurchaseOrder
	err := s.txm.RunInTransaction(ctx, func(ctx context.Context) error {
		po, err := s.repo.GetByID(ctx, poID)
		if err != nil {
			return err
		}
		switch po.Status {
		case StatusReceived, StatusPartiallyReceived:
		default:
			return apperror.NewInvalidTransition("purchase order", string(po.Status), string(StatusRefund))
		}
		if err := po.SetRefund(reason, amount); err != nil {
			return err
		}

		if err := s.reverseReceivedStock(ctx, po, "refund reversal"); err != nil {
			return err
		}

		oldStatus := po.Status
		po.Status = StatusRefund
		po.SyncPaymentStatus(time.Now().UTC())
		audit.EnrichUpdatedBy(ctx, &po.UpdatedBy)
		po.Touch()
		if err := s.repo.Update(ctx, po); err != nil {
			return err
		}
		out = po

		s.recordTransition(ctx, po, oldStatus, "Refund requested: "+reason)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Cancel aborts any non-terminal order, received ones included. Unlike
// refund, cancellation also zeroes quantity_received: the receipt
// record is erased along with the order.
func (s *Service) Cancel(ctx context.Context, poID id.ID) (*PurchaseOrder, error) {
	var out *PurchaseOrder
	err := s.txm.RunInTransaction(ctx, func(ctx context.Context) error {
		po, err := s.repo.GetByID(ctx, poID)
		if err != nil {
			return err
		}
		if IsTerminal(po.Status) {
			return apperror.NewInvalidTransition("purchase order", string(po.Status), string(StatusCancelled))
		}

		if err := s.reverseReceivedStock(ctx, po, "cancellation reversal"); err != nil {
			return err
		}
		for i := range po.Items {
			po.Items[i].QuantityReceived = 0
		}

		oldStatus := po.Status
		po.Status = StatusCancelled
		po.ReceivedDate = nil
		po.SyncPaymentStatus(time.Now().UTC())
		audit.EnrichUpdatedBy(ctx, &po.UpdatedBy)
		po.Touch()
		if err := s.repo.Update(ctx, po); err != nil {
			return err
		}
		out = po

		s.recordTransition(ctx, po, oldStatus, "Purchase order cancelled")
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// reverseReceivedStock backs delivered quantities out of inventory.
// Balances floor at zero when stock was already sold on.
func (s *Service) reverseReceivedStock(ctx context.Context, po *PurchaseOrder, note string) error {
	for _, it := range po.Items {
		if it.QuantityReceived == 0 {
			continue
		}
		if err := s.ledger.AdjustForReceipt(ctx, it.ProductID, -it.QuantityReceived, po.Number); err != nil {
			return fmt.Errorf("%s for %s: %w", note, it.ProductID, err)
		}
	}
	return nil
}

// --- Payment ---

// SetPaymentProof attaches proof of payment and recomputes payment
// status, which settles net_30, pay-later and prepaid orders.
func (s *Service) SetPaymentProof(ctx context.Context, poID id.ID, proofImage string) (*PurchaseOrder, error) {
	if proofImage == "" {
		return nil, apperror.NewValidation("payment proof image is required")
	}

	var out *PurchaseOrder
	err := s.txm.RunInTransaction(ctx, func(ctx context.Context) error {
		po, err := s.repo.GetByID(ctx, poID)
		if err != nil {
			return err
		}
		po.PaymentProofImage = proofImage
		po.SyncPaymentStatus(time.Now().UTC())
		audit.EnrichUpdatedBy(ctx, &po.UpdatedBy)
		po.Touch()
		if err := s.repo.Update(ctx, po); err != nil {
			return err
		}
		out = po
		s.logAudit(ctx, audit.ActionUpdate, po, map[string]any{"payment_status": po.PaymentStatus})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// RecomputePaymentStatus re-derives payment status against the current
// time. Run periodically it flips past-due net_30 orders to overdue.
func (s *Service) RecomputePaymentStatus(ctx context.Context, poID id.ID) (*PurchaseOrder, error) {
	var out *PurchaseOrder
	err := s.txm.RunInTransaction(ctx, func(ctx context.Context) error {
		po, err := s.repo.GetByID(ctx, poID)
		if err != nil {
			return err
		}
		before := po.PaymentStatus
		po.SyncPaymentStatus(time.Now().UTC())
		if po.PaymentStatus == before {
			out = po
			return nil
		}
		po.Touch()
		if err := s.repo.Update(ctx, po); err != nil {
			return err
		}
		out = po

		if po.PaymentStatus == PaymentOverdue {
			s.notifySupplier(ctx, po, fmt.Sprintf("Payment for %s is overdue", po.Number))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// ListPaymentsDueSoon returns unpaid orders due within the next days.
func (s *Service) ListPaymentsDueSoon(ctx context.Context, days int) ([]*PurchaseOrder, error) {
	if days <= 0 {
		days = 7
	}
	now := time.Now().UTC()
	return s.repo.ListDueBetween(ctx, now, now.AddDate(0, 0, days))
}

// --- Reads and delete ---

// Get retrieves a purchase order with items.
func (s *Service) Get(ctx context.Context, poID id.ID) (*PurchaseOrder, error) {
	return s.repo.GetByID(ctx, poID)
}

// List retrieves purchase orders.
func (s *Service) List(ctx context.Context, filter ListFilter) (domain.ListResult[*PurchaseOrder], error) {
	return s.repo.List(ctx, filter)
}

// Notifications returns the notification rows for one purchase order.
func (s *Service) Notifications(ctx context.Context, poID id.ID) ([]Notification, error) {
	return s.repo.ListNotifications(ctx, poID)
}

// Delete soft-deletes a purchase order. Only drafts and cancelled
// orders can be deleted; anything else holds inventory or payment
// history.
func (s *Service) Delete(ctx context.Context, poID id.ID) error {
	return s.txm.RunInTransaction(ctx, func(ctx context.Context) error {
		po, err := s.repo.GetByID(ctx, poID)
		if err != nil {
			return err
		}
		if po.Status != StatusDraft && po.Status != StatusCancelled {
			return apperror.NewBusinessRule(apperror.CodeBusinessRule,
				"only draft or cancelled purchase orders can be deleted")
		}
		if err := s.repo.SetDeletionMark(ctx, poID, true); err != nil {
			return err
		}
		s.logAudit(ctx, audit.ActionDelete, po, nil)
		return nil
	})
}

// --- Helpers ---

// transition runs a lifecycle verb: verify the current state, apply the
// verb-specific mutation, derive payment, persist and record.
func (s *Service) transition(ctx context.Context, poID id.ID, to Status, from []Status,
	apply func(po *PurchaseOrder) error, message string) (*PurchaseOrder, error) {

	var out *PurchaseOrder
	err := s.txm.RunInTransaction(ctx, func(ctx context.Context) error {
		po, err := s.repo.GetByID(ctx, poID)
		if err != nil {
			return err
		}

		allowed := false
		for _, f := range from {
			if po.Status == f {
				allowed = true
				break
			}
		}
		if !allowed {
			return apperror.NewInvalidTransition("purchase order", string(po.Status), string(to))
		}

		if apply != nil {
			if err := apply(po); err != nil {
				return err
			}
		}

		oldStatus := po.Status
		po.Status = to
		po.SyncPaymentStatus(time.Now().UTC())
		audit.EnrichUpdatedBy(ctx, &po.UpdatedBy)
		po.Touch()
		if err := s.repo.Update(ctx, po); err != nil {
			return err
		}
		out = po

		s.recordTransition(ctx, po, oldStatus, message)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// recordTransition writes the notification row, the audit entry and the
// best-effort supplier message for a status change.
func (s *Service) recordTransition(ctx context.Context, po *PurchaseOrder, oldStatus Status, message string) {
	supplierName := ""
	supplierEmail := ""
	if sup, err := s.supplierRepo.GetByID(ctx, po.SupplierID); err == nil {
		supplierName = sup.CompanyName
		supplierEmail = sup.Email
	}

	if err := s.repo.InsertNotification(ctx, NewNotification(po, supplierName, message)); err != nil {
		// Notification rows are advisory; the transition stands.
		s.logAudit(ctx, audit.ActionUpdate, po, map[string]any{"notification_error": err.Error()})
	}

	s.logAudit(ctx, audit.ActionUpdate, po, map[string]any{
		"changes": audit.Diff(
			map[string]any{"status": string(oldStatus)},
			map[string]any{"status": string(po.Status)},
		),
	})

	if supplierEmail != "" {
		notify.BestEffort(ctx, s.notifier, notify.Message{
			Recipient: supplierEmail,
			Subject:   fmt.Sprintf("Purchase order %s: %s", po.Number, po.Status),
			Body:      message,
		})
	}
}

func (s *Service) notifySupplier(ctx context.Context, po *PurchaseOrder, message string) {
	sup, err := s.supplierRepo.GetByID(ctx, po.SupplierID)
	if err != nil || sup.Email == "" {
		return
	}
	notify.BestEffort(ctx, s.notifier, notify.Message{
		Recipient: sup.Email,
		Subject:   fmt.Sprintf("Purchase order %s", po.Number),
		Body:      message,
	})
}

func (s *Service) logAudit(ctx context.Context, action audit.Action, po *PurchaseOrder, extra map[string]any) {
	if s.audit == nil {
		return
	}
	s.audit.Log(ctx, audit.Entry{
		Action:     action,
		EntityType: "purchase_order",
		EntityID:   po.ID.String(),
		ObjectRepr: po.Number,
		Extra:      extra,
	})
}
