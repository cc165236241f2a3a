// Package purchasing provides supplier purchase orders: a nine-state
// lifecycle from draft to receipt with refund and cancellation
// branches, and a payment status derived from terms and progress.
package purchasing

import (
	"context"
	"strings"
	"time"

	"supplytrack/internal/core/apperror"
	"supplytrack/internal/core/entity"
	"supplytrack/internal/core/id"
	"supplytrack/internal/core/types"
)

// Status is the purchase order lifecycle state.
type Status string

const (
	StatusDraft             Status = "draft"
	StatusRequestPending    Status = "request_pending"
	StatusSupplierPriced    Status = "supplier_priced"
	StatusConfirmed         Status = "confirmed"
	StatusInTransit         Status = "in_transit"
	StatusPartiallyReceived Status = "partially_received"
	StatusReceived          Status = "received"
	StatusRefund            Status = "refund"
	StatusCancelled         Status = "cancelled"
)

// ValidStatus reports whether s is a known purchase order status.
func ValidStatus(s Status) bool {
	switch s {
	case StatusDraft, StatusRequestPending, StatusSupplierPriced,
		StatusConfirmed, StatusInTransit, StatusPartiallyReceived,
		StatusReceived, StatusRefund, StatusCancelled:
		return true
	}
	return false
}

// IsTerminal reports whether no further lifecycle verbs apply.
// Received still accepts a refund request.
func IsTerminal(s Status) bool {
	return s == StatusCancelled || s == StatusRefund
}

// PaymentMethod is the agreed payment term with the supplier.
type PaymentMethod string

const (
	PaymentTBD     PaymentMethod = "tbd"
	PaymentCOD     PaymentMethod = "cod"
	PaymentNet30   PaymentMethod = "net_30"
	PaymentPrepaid PaymentMethod = "prepaid"
)

// ValidPaymentMethod reports whether m is a known payment method.
func ValidPaymentMethod(m PaymentMethod) bool {
	switch m {
	case PaymentTBD, PaymentCOD, PaymentNet30, PaymentPrepaid:
		return true
	}
	return false
}

// PaymentStatus is derived from payment terms, proof and lifecycle
// progress; it is never set directly by API callers.
type PaymentStatus string

const (
	PaymentUnpaid            PaymentStatus = "unpaid"
	PaymentPaid              PaymentStatus = "paid"
	PaymentOverdue           PaymentStatus = "overdue"
	PaymentRefunded          PaymentStatus = "refunded"
	PaymentPartiallyRefunded PaymentStatus = "partially_refunded"
)

// Item is one purchase order line. QuantityReceived accumulates across
// partial receipts and never resets, except on cancellation.
type Item struct {
	ID               id.ID       `db:"id" json:"id"`
	ProductID        id.ID       `db:"product_id" json:"productId"`
	Description      string      `db:"description" json:"description,omitempty"`
	QuantityOrdered  int         `db:"quantity_ordered" json:"quantityOrdered"`
	QuantityReceived int         `db:"quantity_received" json:"quantityReceived"`
	UnitCost         types.Money `db:"unit_cost" json:"unitCost"`
}

// LineTotal returns ordered quantity times unit cost.
func (i Item) LineTotal() types.Money {
	return i.UnitCost.Mul(types.NewMoneyFromInt(int64(i.QuantityOrdered)))
}

// PurchaseOrder is a supplier-facing order.
type PurchaseOrder struct {
	entity.BaseDocument

	Number     string `db:"number" json:"number"`
	SupplierID id.ID  `db:"supplier_id" json:"supplierId"`

	Status        Status        `db:"status" json:"status"`
	PaymentMethod PaymentMethod `db:"payment_method" json:"paymentMethod"`
	PaymentStatus PaymentStatus `db:"payment_status" json:"paymentStatus"`

	PaymentVerifiedAt *time.Time `db:"payment_verified_at" json:"paymentVerifiedAt,omitempty"`
	PaymentVerifiedBy string     `db:"payment_verified_by" json:"paymentVerifiedBy,omitempty"`

	PayLater          bool       `db:"pay_later" json:"payLater"`
	PaymentDueDate    *time.Time `db:"payment_due_date" json:"paymentDueDate,omitempty"`
	PaymentProofImage string     `db:"payment_proof_image" json:"paymentProofImage,omitempty"`

	RefundReason string      `db:"refund_reason" json:"refundReason,omitempty"`
	RefundAmount types.Money `db:"refund_amount" json:"refundAmount"`

	// TotalCost is cached from item lines; RecomputeTotal keeps it
	// current on every item mutation.
	TotalCost types.Money `db:"total_cost" json:"totalCost"`

	OrderDate            time.Time  `db:"order_date" json:"orderDate"`
	ExpectedDeliveryDate *time.Time `db:"expected_delivery_date" json:"expectedDeliveryDate,omitempty"`
	ReceivedDate         *time.Time `db:"received_date" json:"receivedDate,omitempty"`

	Notes string `db:"notes" json:"notes,omitempty"`

	Items []Item `json:"items"`
}

// New creates a draft purchase order.
func New(number string, supplierID id.ID) *PurchaseOrder {
	return &PurchaseOrder{
		BaseDocument:  entity.NewBaseDocument(),
		Number:        number,
		SupplierID:    supplierID,
		Status:        StatusDraft,
		PaymentMethod: PaymentTBD,
		PaymentStatus: PaymentUnpaid,
		RefundAmount:  types.Zero(),
		TotalCost:     types.Zero(),
		OrderDate:     time.Now().UTC(),
	}
}

// Validate checks purchase order invariants.
func (po *PurchaseOrder) Validate(_ context.Context) error {
	if id.IsNil(po.SupplierID) {
		return apperror.NewValidation("purchase order supplier_id is required")
	}
	if !ValidStatus(po.Status) {
		return apperror.NewValidation("unknown purchase order status")
	}
	if !ValidPaymentMethod(po.PaymentMethod) {
		return apperror.NewValidation("unknown payment method")
	}
	for _, it := range po.Items {
		if id.IsNil(it.ProductID) {
			return apperror.NewValidation("purchase order item product_id is required")
		}
		if it.QuantityOrdered <= 0 {
			return apperror.NewValidation("purchase order item quantity must be positive")
		}
		if it.QuantityReceived < 0 || it.QuantityReceived > it.QuantityOrdered {
			return apperror.NewValidation("quantity received must be between zero and quantity ordered")
		}
		if it.UnitCost.IsNegative() {
			return apperror.NewValidation("purchase order item unit cost cannot be negative")
		}
	}
	return nil
}

// ItemByID finds a line by its ID.
func (po *PurchaseOrder) ItemByID(itemID id.ID) *Item {
	for i := range po.Items {
		if po.Items[i].ID == itemID {
			return &po.Items[i]
		}
	}
	return nil
}

// RecomputeTotal recalculates the cached total from item lines.
func (po *PurchaseOrder) RecomputeTotal() {
	total := types.Zero()
	for _, it := range po.Items {
		total = total.Add(it.LineTotal())
	}
	po.TotalCost = total
}

// DeriveReceiptStatus re-derives the lifecycle state from receipt
// totals after items change:
//
//   - everything ordered arrived: Received, received date stamped;
//   - something arrived but not everything: PartiallyReceived;
//   - nothing received on an order past confirmation: back to
//     Confirmed with the received date cleared, correcting the state
//     after items are removed post-receipt. Draft, RequestPending,
//     Cancelled and Refund are never overridden by this branch.
func (po *PurchaseOrder) DeriveReceiptStatus() {
	var ordered, received int
	for _, it := range po.Items {
		ordered += it.QuantityOrdered
		received += it.QuantityReceived
	}

	switch {
	case ordered > 0 && received == ordered:
		po.Status = StatusReceived
		if po.ReceivedDate == nil {
			now := time.Now().UTC()
			po.ReceivedDate = &now
		}
	case received > 0 && received < ordered:
		po.Status = StatusPartiallyReceived
	case received == 0:
		switch po.Status {
		case StatusDraft, StatusRequestPending, StatusCancelled, StatusRefund:
		default:
			po.Status = StatusConfirmed
			po.ReceivedDate = nil
		}
	}
}

// pastConfirmed reports whether the order progressed beyond Confirmed.
func (po *PurchaseOrder) pastConfirmed() bool {
	switch po.Status {
	case StatusInTransit, StatusPartiallyReceived, StatusReceived:
		return true
	}
	return false
}

// earlyStage reports whether the order is before confirmation.
func (po *PurchaseOrder) earlyStage() bool {
	switch po.Status {
	case StatusDraft, StatusRequestPending, StatusSupplierPriced:
		return true
	}
	return false
}

// SyncPaymentStatus recomputes the payment status. Rules apply in
// priority order and the first match wins:
//
//  1. Refund: partially_refunded when the refund covers less than the
//     total, refunded otherwise.
//  2. Cancelled: paid or overdue resets to unpaid, verification fields
//     cleared.
//  3. net_30 or pay_later: paid once proof is attached, otherwise
//     overdue past the due date, otherwise unpaid.
//  4. prepaid: paid once proof is attached and the order progressed
//     past Confirmed.
//  5. cod: paid at Received.
//  6. tbd: paid at Received; early-stage orders fall back to unpaid
//     unless already paid or refunded.
func (po *PurchaseOrder) SyncPaymentStatus(now time.Time) {
	old := po.PaymentStatus
	next := old

	switch {
	case po.Status == StatusRefund:
		if po.RefundAmount.LessThan(po.TotalCost) {
			next = PaymentPartiallyRefunded
		} else {
			next = PaymentRefunded
		}

	case po.Status == StatusCancelled:
		if old == PaymentPaid || old == PaymentOverdue {
			next = PaymentUnpaid
			po.PaymentVerifiedAt = nil
			po.PaymentVerifiedBy = ""
		}

	case po.PaymentMethod == PaymentNet30 || po.PayLater:
		switch {
		case po.PaymentProofImage != "":
			next = PaymentPaid
		case po.PaymentDueDate != nil && now.After(*po.PaymentDueDate):
			next = PaymentOverdue
		default:
			next = PaymentUnpaid
		}

	case po.PaymentMethod == PaymentPrepaid:
		if po.PaymentProofImage != "" && po.pastConfirmed() {
			next = PaymentPaid
		} else {
			next = PaymentUnpaid
		}

	case po.PaymentMethod == PaymentCOD:
		if po.Status == StatusReceived {
			next = PaymentPaid
		} else {
			next = PaymentUnpaid
		}

	default: // tbd
		if po.Status == StatusReceived {
			next = PaymentPaid
		} else if po.earlyStage() &&
			old != PaymentPaid && old != PaymentRefunded && old != PaymentPartiallyRefunded {
			next = PaymentUnpaid
		}
	}

	po.PaymentStatus = next
	if next == PaymentPaid && po.PaymentVerifiedAt == nil {
		stamp := now
		po.PaymentVerifiedAt = &stamp
	}
}

// ApplyNet30Terms sets the payment method and, when no due date exists,
// defaults it to thirty days after the order date with the pay-later
// flag raised.
func (po *PurchaseOrder) ApplyNet30Terms() {
	po.PaymentMethod = PaymentNet30
	po.PayLater = true
	if po.PaymentDueDate == nil {
		due := po.OrderDate.AddDate(0, 0, 30)
		po.PaymentDueDate = &due
	}
}

// SetRefund records the refund request fields.
func (po *PurchaseOrder) SetRefund(reason string, amount types.Money) error {
	if strings.TrimSpace(reason) == "" {
		return apperror.NewValidation("refund reason is required")
	}
	if amount.IsNegative() {
		return apperror.NewValidation("refund amount cannot be negative")
	}
	po.RefundReason = reason
	po.RefundAmount = amount
	return nil
}

// Notification is a per-purchase-order notification row kept alongside
// the outbound supplier message.
type Notification struct {
	ID              id.ID      `db:"id" json:"id"`
	PurchaseOrderID id.ID      `db:"purchase_order_id" json:"purchaseOrderId"`
	SupplierName    string     `db:"supplier_name" json:"supplierName"`
	Status          Status     `db:"status" json:"status"`
	Message         string     `db:"message" json:"message"`
	PaymentDueDate  *time.Time `db:"payment_due_date" json:"paymentDueDate,omitempty"`
	CreatedAt       time.Time  `db:"created_at" json:"createdAt"`
}

// NewNotification creates a notification row for a lifecycle event.
func NewNotification(po *PurchaseOrder, supplierName, message string) Notification {
	return Notification{
		ID:              id.New(),
		PurchaseOrderID: po.ID,
		SupplierName:    supplierName,
		Status:          po.Status,
		Message:         message,
		PaymentDueDate:  po.PaymentDueDate,
		CreatedAt:       time.Now().UTC(),
	}
}
