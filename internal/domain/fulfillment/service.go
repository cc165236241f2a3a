package fulfillment

import (
	"context"
	"fmt"

	"supplytrack/internal/core/apperror"
	"supplytrack/internal/core/id"
	"supplytrack/internal/core/tx"
	"supplytrack/internal/domain"
	"supplytrack/internal/domain/audit"
	"supplytrack/internal/domain/catalogs/customer"
	"supplytrack/internal/domain/delivery"
	"supplytrack/internal/domain/notify"
	"supplytrack/internal/domain/orders"
	"supplytrack/internal/domain/stockledger"
	"supplytrack/pkg/logger"
	"supplytrack/pkg/refid"
)

// Service owns every order and delivery state change. Orders and
// deliveries never mutate each other directly; all cross-entity
// propagation funnels through here, inside one transaction per public
// operation.
type Service struct {
	orderRepo    orders.Repository
	manualRepo   orders.ManualRepository
	deliveryRepo delivery.Repository
	customerRepo customer.Repository
	ledger       *stockledger.Service
	txm          tx.Manager
	audit        audit.Recorder
	notifier     notify.Notifier
}

// NewService creates the fulfillment service.
func NewService(
	orderRepo orders.Repository,
	manualRepo orders.ManualRepository,
	deliveryRepo delivery.Repository,
	customerRepo customer.Repository,
	ledger *stockledger.Service,
	txm tx.Manager,
	auditRec audit.Recorder,
	notifier notify.Notifier,
) *Service {
	return &Service{
		orderRepo:    orderRepo,
		manualRepo:   manualRepo,
		deliveryRepo: deliveryRepo,
		customerRepo: customerRepo,
		ledger:       ledger,
		txm:          txm,
		audit:        auditRec,
		notifier:     notifier,
	}
}

// --- Creation ---

// CreateOrder reserves stock, stores the order and opens its delivery,
// all in one transaction. A stock shortage aborts everything.
func (s *Service) CreateOrder(ctx context.Context, o *orders.Order) error {
	return s.txm.RunInTransaction(ctx, func(ctx context.Context) error {
		if o.Number == "" {
			number, err := refid.NewUnique(ctx, refid.PrefixOrder, s.orderRepo.ExistsByNumber)
			if err != nil {
				return err
			}
			o.Number = number
		}
		if err := o.Validate(ctx); err != nil {
			return err
		}

		if err := s.ledger.Reserve(ctx, o.LedgerLines(), o.Number, "Order checkout"); err != nil {
			return err
		}
		o.MarkStockDeducted()
		o.SyncPaymentStatus()

		audit.EnrichCreatedBy(ctx, &o.CreatedBy, &o.UpdatedBy)
		if err := s.orderRepo.Create(ctx, o); err != nil {
			return err
		}

		d := delivery.New(o.ID)
		if err := s.deliveryRepo.Create(ctx, d); err != nil {
			return err
		}

		s.logAudit(ctx, audit.ActionCreate, "order", o.ID.String(), o.Number, nil)
		s.notifyOrder(ctx, o, "Your order has been received")
		return nil
	})
}

// CreateManualOrder reserves stock and stores a staff-captured order.
// Manual orders have no delivery record.
func (s *Service) CreateManualOrder(ctx context.Context, m *orders.ManualOrder) error {
	return s.txm.RunInTransaction(ctx, func(ctx context.Context) error {
		if m.Number == "" {
			number, err := refid.NewUnique(ctx, refid.PrefixManualOrder, s.manualRepo.ExistsByNumber)
			if err != nil {
				return err
			}
			m.Number = number
		}
		m.NormalizeBilling()
		if err := m.Validate(ctx); err != nil {
			return err
		}

		if err := s.ledger.Reserve(ctx, m.LedgerLines(), m.Number, "Manual order entry"); err != nil {
			return err
		}
		m.MarkStockDeducted()
		m.SyncPaymentStatus()

		audit.EnrichCreatedBy(ctx, &m.CreatedBy, &m.UpdatedBy)
		if err := s.manualRepo.Create(ctx, m); err != nil {
			return err
		}

		s.logAudit(ctx, audit.ActionCreate, "manual_order", m.ID.String(), m.Number, nil)
		return nil
	})
}

// --- Order transitions ---

// TransitionOrderStatus moves an order to newStatus, restoring or
// re-reserving stock as required, recomputing payment status and
// propagating to the attached delivery. A shortage while reactivating
// a Canceled/Returned order aborts the whole transition.
func (s *Service) TransitionOrderStatus(ctx context.Context, orderID id.ID, newStatus orders.Status) (*orders.Order, error) {
	if !orders.ValidStatus(newStatus) {
		return nil, apperror.NewValidation("unknown order status")
	}

	var out *orders.Order
	err := s.txm.RunInTransaction(ctx, func(ctx context.Context) error {
		ctx, _ = withGuard(ctx)
		if err := s.applyOrderStatus(ctx, orderID, newStatus); err != nil {
			return err
		}
		o, err := s.orderRepo.GetByID(ctx, orderID)
		if err != nil {
			return err
		}
		out = o
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// applyOrderStatus performs the order-side transition. The guard makes
// it a no-op when this order was already touched by the current
// operation (reverse sync arriving back at its origin).
func (s *Service) applyOrderStatus(ctx context.Context, orderID id.ID, newStatus orders.Status) error {
	_, g := withGuard(ctx)
	if !g.enter("order:" + orderID.String()) {
		return nil
	}

	o, err := s.orderRepo.GetByID(ctx, orderID)
	if err != nil {
		return err
	}
	oldStatus := o.Status
	if oldStatus == newStatus {
		return nil
	}

	didRestore, didDeduct, err := s.moveStockForTransition(ctx, oldStatus, newStatus,
		o.StockDeducted, o.StockRestored, o.LedgerLines(), o.Number)
	if err != nil {
		return err
	}
	if didRestore {
		o.MarkStockRestored()
	}
	if didDeduct {
		o.MarkStockDeducted()
	}

	o.Status = newStatus
	o.SyncPaymentStatus()
	audit.EnrichUpdatedBy(ctx, &o.UpdatedBy)
	o.Touch()
	if err := s.orderRepo.Update(ctx, o); err != nil {
		return err
	}

	if err := s.syncDeliveryFromOrder(ctx, o, newStatus); err != nil {
		return err
	}

	s.logAudit(ctx, audit.ActionUpdate, "order", o.ID.String(), o.Number, map[string]any{
		"changes": audit.Diff(
			map[string]any{"status": string(oldStatus)},
			map[string]any{"status": string(newStatus)},
		),
	})
	s.notifyOrder(ctx, o, fmt.Sprintf("Order %s is now %s", o.Number, o.Status))
	return nil
}

// TransitionManualOrderStatus is the manual order counterpart. No
// delivery is attached, so there is no propagation step.
func (s *Service) TransitionManualOrderStatus(ctx context.Context, orderID id.ID, newStatus orders.Status) (*orders.ManualOrder, error) {
	if !orders.ValidStatus(newStatus) {
		return nil, apperror.NewValidation("unknown order status")
	}

	var out *orders.ManualOrder
	err := s.txm.RunInTransaction(ctx, func(ctx context.Context) error {
		m, err := s.manualRepo.GetByID(ctx, orderID)
		if err != nil {
			return err
		}
		oldStatus := m.Status
		if oldStatus == newStatus {
			out = m
			return nil
		}

		didRestore, didDeduct, err := s.moveStockForTransition(ctx, oldStatus, newStatus,
			m.StockDeducted, m.StockRestored, m.LedgerLines(), m.Number)
		if err != nil {
			return err
		}
		if didRestore {
			m.MarkStockRestored()
		}
		if didDeduct {
			m.MarkStockDeducted()
		}

		m.Status = newStatus
		m.SyncPaymentStatus()
		audit.EnrichUpdatedBy(ctx, &m.UpdatedBy)
		m.Touch()
		if err := s.manualRepo.Update(ctx, m); err != nil {
			return err
		}

		s.logAudit(ctx, audit.ActionUpdate, "manual_order", m.ID.String(), m.Number, map[string]any{
			"changes": audit.Diff(
				map[string]any{"status": string(oldStatus)},
				map[string]any{"status": string(newStatus)},
			),
		})
		out = m
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// moveStockForTransition applies the stock reactivation rules shared by
// orders and manual orders:
//
//   - entering Canceled/Returned with live deducted stock restores it;
//   - leaving Canceled/Returned with restored stock re-reserves it,
//     which can fail on shortage and then aborts the caller's
//     transaction with the shortage list.
func (s *Service) moveStockForTransition(ctx context.Context, oldStatus, newStatus orders.Status,
	deducted, restored bool, lines []stockledger.Line, reference string) (didRestore, didDeduct bool, err error) {

	intoTerminal := orders.IsTerminal(newStatus) && !orders.IsTerminal(oldStatus)
	outOfTerminal := orders.IsTerminal(oldStatus) && !orders.IsTerminal(newStatus)

	switch {
	case intoTerminal && deducted && !restored:
		if err := s.ledger.Restore(ctx, lines, reference, fmt.Sprintf("Order %s", newStatus)); err != nil {
			return false, false, err
		}
		return true, false, nil

	case outOfTerminal && restored:
		if err := s.ledger.Reserve(ctx, lines, reference, "Order reactivated"); err != nil {
			return false, false, err
		}
		return false, true, nil
	}
	return false, false, nil
}

// syncDeliveryFromOrder pushes an order status change onto its
// delivery. The reprocessing rule runs first: an order going back to
// Pending/Processing while its delivery sits failed resets the delivery
// for another attempt.
func (s *Service) syncDeliveryFromOrder(ctx context.Context, o *orders.Order, newStatus orders.Status) error {
	d, err := s.deliveryRepo.GetByOrderID(ctx, o.ID)
	if err != nil {
		if apperror.IsNotFound(err) {
			d = delivery.New(o.ID)
			if err := s.deliveryRepo.Create(ctx, d); err != nil {
				return err
			}
		} else {
			return err
		}
	}

	var target delivery.Status
	if (newStatus == orders.StatusPending || newStatus == orders.StatusProcessing) &&
		d.Status == delivery.StatusFailed {
		target = delivery.StatusPendingDispatch
	} else {
		mapped, ok := deliveryStatusForOrder(newStatus)
		if !ok {
			return nil
		}
		target = mapped
	}

	if target == d.Status {
		return nil
	}
	return s.applyDeliveryStatus(ctx, d, target)
}

// --- Delivery transitions ---

// UpdateDeliveryStatus moves a delivery to newStatus and propagates the
// implied order status. Canceled orders are never reopened by delivery
// updates, and delivered requires attached proof.
func (s *Service) UpdateDeliveryStatus(ctx context.Context, deliveryID id.ID, newStatus delivery.Status) (*delivery.Delivery, error) {
	if !delivery.ValidStatus(newStatus) {
		return nil, apperror.NewValidation("unknown delivery status")
	}

	var out *delivery.Delivery
	err := s.txm.RunInTransaction(ctx, func(ctx context.Context) error {
		ctx, _ = withGuard(ctx)
		d, err := s.deliveryRepo.GetByID(ctx, deliveryID)
		if err != nil {
			return err
		}
		if err := s.applyDeliveryStatus(ctx, d, newStatus); err != nil {
			return err
		}
		out = d
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// CompleteDelivery attaches proof of delivery and marks the delivery
// delivered, completing the order and (for COD) settling payment.
func (s *Service) CompleteDelivery(ctx context.Context, deliveryID id.ID, proofImage, note string) (*delivery.Delivery, error) {
	if proofImage == "" {
		return nil, apperror.NewValidation("proof of delivery image is required")
	}

	var out *delivery.Delivery
	err := s.txm.RunInTransaction(ctx, func(ctx context.Context) error {
		ctx, _ = withGuard(ctx)
		d, err := s.deliveryRepo.GetByID(ctx, deliveryID)
		if err != nil {
			return err
		}
		d.ProofOfDeliveryImage = proofImage
		if note != "" {
			d.DeliveryNote = note
		}
		if err := s.applyDeliveryStatus(ctx, d, delivery.StatusDelivered); err != nil {
			return err
		}
		out = d
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// FailDelivery records a failed attempt, returning the order for
// follow-up handling.
func (s *Service) FailDelivery(ctx context.Context, deliveryID id.ID, note string) (*delivery.Delivery, error) {
	var out *delivery.Delivery
	err := s.txm.RunInTransaction(ctx, func(ctx context.Context) error {
		ctx, _ = withGuard(ctx)
		d, err := s.deliveryRepo.GetByID(ctx, deliveryID)
		if err != nil {
			return err
		}
		if note != "" {
			d.DeliveryNote = note
		}
		if err := s.applyDeliveryStatus(ctx, d, delivery.StatusFailed); err != nil {
			return err
		}
		out = d
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// applyDeliveryStatus performs the delivery-side transition and the
// reverse sync onto the order. This is the only code path that sets a
// delivery to delivered, so the proof gate lives here.
func (s *Service) applyDeliveryStatus(ctx context.Context, d *delivery.Delivery, newStatus delivery.Status) error {
	_, g := withGuard(ctx)
	if !g.enter("delivery:" + d.ID.String()) {
		return nil
	}

	oldStatus := d.Status
	if oldStatus == newStatus {
		return nil
	}

	if newStatus == delivery.StatusDelivered {
		if err := d.CanMarkDelivered(); err != nil {
			return err
		}
	}

	d.Status = newStatus
	if newStatus == delivery.StatusDelivered {
		d.StampDelivered()
	}
	audit.EnrichUpdatedBy(ctx, &d.UpdatedBy)
	d.Touch()
	if err := s.deliveryRepo.Update(ctx, d); err != nil {
		return err
	}

	s.logAudit(ctx, audit.ActionUpdate, "delivery", d.ID.String(), string(newStatus), map[string]any{
		"changes": audit.Diff(
			map[string]any{"status": string(oldStatus)},
			map[string]any{"status": string(newStatus)},
		),
	})

	// Reverse sync. Canceled is sticky: delivery updates never reopen
	// a canceled order.
	target, ok := orderStatusForDelivery(newStatus)
	if !ok {
		return nil
	}
	o, err := s.orderRepo.GetByID(ctx, d.OrderID)
	if err != nil {
		return err
	}
	if o.Status == orders.StatusCanceled {
		logger.Info(ctx, "skipping delivery sync for canceled order",
			"order", o.Number, "delivery_status", newStatus)
		return nil
	}
	return s.applyOrderStatus(ctx, o.ID, target)
}

// --- Soft delete ---

// DeleteOrder soft-deletes an order, returning still-reserved stock to
// the shelf first.
func (s *Service) DeleteOrder(ctx context.Context, orderID id.ID) error {
	return s.txm.RunInTransaction(ctx, func(ctx context.Context) error {
		o, err := s.orderRepo.GetByID(ctx, orderID)
		if err != nil {
			return err
		}
		if o.StockDeducted && !o.StockRestored {
			if err := s.ledger.Restore(ctx, o.LedgerLines(), o.Number, "Order deleted"); err != nil {
				return err
			}
			o.MarkStockRestored()
			o.Touch()
			if err := s.orderRepo.Update(ctx, o); err != nil {
				return err
			}
		}
		if err := s.orderRepo.SetDeletionMark(ctx, orderID, true); err != nil {
			return err
		}
		s.logAudit(ctx, audit.ActionDelete, "order", o.ID.String(), o.Number, nil)
		return nil
	})
}

// DeleteManualOrder soft-deletes a manual order, returning
// still-reserved stock first.
func (s *Service) DeleteManualOrder(ctx context.Context, orderID id.ID) error {
	return s.txm.RunInTransaction(ctx, func(ctx context.Context) error {
		m, err := s.manualRepo.GetByID(ctx, orderID)
		if err != nil {
			return err
		}
		if m.StockDeducted && !m.StockRestored {
			if err := s.ledger.Restore(ctx, m.LedgerLines(), m.Number, "Manual order deleted"); err != nil {
				return err
			}
			m.MarkStockRestored()
			m.Touch()
			if err := s.manualRepo.Update(ctx, m); err != nil {
				return err
			}
		}
		if err := s.manualRepo.SetDeletionMark(ctx, orderID, true); err != nil {
			return err
		}
		s.logAudit(ctx, audit.ActionDelete, "manual_order", m.ID.String(), m.Number, nil)
		return nil
	})
}

// --- Reads ---

// GetOrder retrieves an order with items.
func (s *Service) GetOrder(ctx context.Context, orderID id.ID) (*orders.Order, error) {
	return s.orderRepo.GetByID(ctx, orderID)
}

// ListOrders retrieves orders with filtering and pagination.
func (s *Service) ListOrders(ctx context.Context, filter orders.ListFilter) (domain.ListResult[*orders.Order], error) {
	return s.orderRepo.List(ctx, filter)
}

// GetManualOrder retrieves a manual order with items.
func (s *Service) GetManualOrder(ctx context.Context, orderID id.ID) (*orders.ManualOrder, error) {
	return s.manualRepo.GetByID(ctx, orderID)
}

// ListManualOrders retrieves manual orders.
func (s *Service) ListManualOrders(ctx context.Context, filter orders.ListFilter) (domain.ListResult[*orders.ManualOrder], error) {
	return s.manualRepo.List(ctx, filter)
}

// GetDelivery retrieves a delivery.
func (s *Service) GetDelivery(ctx context.Context, deliveryID id.ID) (*delivery.Delivery, error) {
	return s.deliveryRepo.GetByID(ctx, deliveryID)
}

// GetDeliveryByOrder retrieves the delivery attached to an order.
func (s *Service) GetDeliveryByOrder(ctx context.Context, orderID id.ID) (*delivery.Delivery, error) {
	return s.deliveryRepo.GetByOrderID(ctx, orderID)
}

// ListDeliveries retrieves deliveries.
func (s *Service) ListDeliveries(ctx context.Context, filter delivery.ListFilter) (domain.ListResult[*delivery.Delivery], error) {
	return s.deliveryRepo.List(ctx, filter)
}

// --- Helpers ---

func (s *Service) logAudit(ctx context.Context, action audit.Action, entityType, entityID, repr string, extra map[string]any) {
	if s.audit == nil {
		return
	}
	s.audit.Log(ctx, audit.Entry{
		Action:     action,
		EntityType: entityType,
		EntityID:   entityID,
		ObjectRepr: repr,
		Extra:      extra,
	})
}

// notifyOrder emails the order's customer, best-effort.
func (s *Service) notifyOrder(ctx context.Context, o *orders.Order, subject string) {
	if s.notifier == nil || s.customerRepo == nil {
		return
	}
	c, err := s.customerRepo.GetByID(ctx, o.CustomerID)
	if err != nil || c.Email == "" {
		return
	}
	notify.BestEffort(ctx, s.notifier, notify.Message{
		Recipient: c.Email,
		Subject:   subject,
		Body:      fmt.Sprintf("Order %s status: %s", o.Number, o.Status),
	})
}
