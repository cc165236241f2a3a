// Package orders provides customer orders and manually captured orders.
package orders

import (
	"context"
	"strings"
	"time"

	"supplytrack/internal/core/apperror"
	"supplytrack/internal/core/entity"
	"supplytrack/internal/core/id"
	"supplytrack/internal/core/types"
	"supplytrack/internal/domain/stockledger"
)

// Status is the order lifecycle state.
type Status string

const (
	StatusPending    Status = "Pending"
	StatusProcessing Status = "Processing"
	StatusShipped    Status = "Shipped"
	StatusCompleted  Status = "Completed"
	StatusCanceled   Status = "Canceled"
	StatusReturned   Status = "Returned"
)

// ValidStatus reports whether s is a known order status.
func ValidStatus(s Status) bool {
	switch s {
	case StatusPending, StatusProcessing, StatusShipped, StatusCompleted, StatusCanceled, StatusReturned:
		return true
	}
	return false
}

// IsTerminal reports whether s releases reserved stock.
func IsTerminal(s Status) bool {
	return s == StatusCanceled || s == StatusReturned
}

// PaymentMethod is how the order is paid.
type PaymentMethod string

const (
	PaymentCOD   PaymentMethod = "COD"
	PaymentGcash PaymentMethod = "GCASH"
)

// PaymentStatus is derived from order status and payment method; it is
// never set directly by API callers.
type PaymentStatus string

const (
	PaymentUnpaid            PaymentStatus = "unpaid"
	PaymentPaid              PaymentStatus = "paid"
	PaymentRefunded          PaymentStatus = "refunded"
	PaymentPartiallyRefunded PaymentStatus = "partially_refunded"
)

// Source is where a manual order came from.
type Source string

const (
	SourceB2B    Source = "b2b"
	SourcePhone  Source = "phone"
	SourceEmail  Source = "email"
	SourceWalkIn Source = "walk_in"
)

// Item is one order line with the price frozen at order time.
type Item struct {
	ID           id.ID       `db:"id" json:"id"`
	ProductID    id.ID       `db:"product_id" json:"productId"`
	Quantity     int         `db:"quantity" json:"quantity"`
	PriceAtOrder types.Money `db:"price_at_order" json:"priceAtOrder"`
}

// Subtotal returns quantity times frozen price.
func (i Item) Subtotal() types.Money {
	return i.PriceAtOrder.Mul(types.NewMoneyFromInt(int64(i.Quantity)))
}

// Order is a customer order. Stock is deducted at creation; the
// StockDeducted/StockRestored flags drive the reactivation machine.
type Order struct {
	entity.BaseDocument

	Number     string `db:"number" json:"number"`
	CustomerID id.ID  `db:"customer_id" json:"customerId"`

	Status        Status        `db:"status" json:"status"`
	PaymentMethod PaymentMethod `db:"payment_method" json:"paymentMethod"`
	PaymentStatus PaymentStatus `db:"payment_status" json:"paymentStatus"`

	PaymentVerifiedAt   *time.Time `db:"payment_verified_at" json:"paymentVerifiedAt,omitempty"`
	PaymentVerifiedBy   string     `db:"payment_verified_by" json:"paymentVerifiedBy,omitempty"`
	GcashReferenceImage string     `db:"gcash_reference_image" json:"gcashReferenceImage,omitempty"`

	OrderDate            time.Time  `db:"order_date" json:"orderDate"`
	ExpectedDeliveryDate *time.Time `db:"expected_delivery_date" json:"expectedDeliveryDate,omitempty"`

	StockDeducted   bool       `db:"stock_deducted" json:"stockDeducted"`
	StockDeductedAt *time.Time `db:"stock_deducted_at" json:"stockDeductedAt,omitempty"`
	StockRestored   bool       `db:"stock_restored" json:"stockRestored"`
	StockRestoredAt *time.Time `db:"stock_restored_at" json:"stockRestoredAt,omitempty"`

	Items []Item `json:"items"`
}

// NewOrder creates a pending order.
func NewOrder(number string, customerID id.ID, method PaymentMethod) *Order {
	return &Order{
		BaseDocument:  entity.NewBaseDocument(),
		Number:        number,
		CustomerID:    customerID,
		Status:        StatusPending,
		PaymentMethod: method,
		PaymentStatus: PaymentUnpaid,
		OrderDate:     time.Now().UTC(),
	}
}

// Validate checks order invariants.
func (o *Order) Validate(_ context.Context) error {
	if id.IsNil(o.CustomerID) {
		return apperror.NewValidation("order customer_id is required")
	}
	if !ValidStatus(o.Status) {
		return apperror.NewValidation("unknown order status")
	}
	if o.PaymentMethod != PaymentCOD && o.PaymentMethod != PaymentGcash {
		return apperror.NewValidation("payment method must be COD or GCASH")
	}
	if len(o.Items) == 0 {
		return apperror.NewValidation("order needs at least one item")
	}
	for _, it := range o.Items {
		if id.IsNil(it.ProductID) {
			return apperror.NewValidation("order item product_id is required")
		}
		if it.Quantity <= 0 {
			return apperror.NewValidation("order item quantity must be positive")
		}
		if it.PriceAtOrder.IsNegative() {
			return apperror.NewValidation("order item price cannot be negative")
		}
	}
	return nil
}

// AddItem appends a line with the price frozen now.
func (o *Order) AddItem(productID id.ID, quantity int, price types.Money) {
	o.Items = append(o.Items, Item{
		ID:           id.New(),
		ProductID:    productID,
		Quantity:     quantity,
		PriceAtOrder: price,
	})
}

// Total returns the order total from frozen line prices.
func (o *Order) Total() types.Money {
	total := types.Zero()
	for _, it := range o.Items {
		total = total.Add(it.Subtotal())
	}
	return total
}

// LedgerLines maps items to stock ledger lines.
func (o *Order) LedgerLines() []stockledger.Line {
	lines := make([]stockledger.Line, 0, len(o.Items))
	for _, it := range o.Items {
		lines = append(lines, stockledger.Line{ProductID: it.ProductID, Quantity: it.Quantity})
	}
	return lines
}

// SyncPaymentStatus recomputes payment status from the current order
// status and payment method, stamping or clearing verification fields.
func (o *Order) SyncPaymentStatus() {
	applyPaymentPolicy(o.PaymentMethod, o.Status, false,
		&o.PaymentStatus, &o.PaymentVerifiedAt, &o.PaymentVerifiedBy)
}

// MarkStockDeducted records that ledger deduction happened.
func (o *Order) MarkStockDeducted() {
	now := time.Now().UTC()
	o.StockDeducted = true
	o.StockDeductedAt = &now
	o.StockRestored = false
}

// MarkStockRestored records that deducted stock went back to the shelf.
func (o *Order) MarkStockRestored() {
	now := time.Now().UTC()
	o.StockRestored = true
	o.StockRestoredAt = &now
}

// ManualOrder is an order captured by staff for buyers without accounts
// (B2B, phone, email, walk-in). Customer details are free text.
type ManualOrder struct {
	entity.BaseDocument

	Number string `db:"number" json:"number"`

	CustomerName  string `db:"customer_name" json:"customerName"`
	CustomerEmail string `db:"customer_email" json:"customerEmail,omitempty"`
	CustomerPhone string `db:"customer_phone" json:"customerPhone,omitempty"`
	OrderSource   Source `db:"order_source" json:"orderSource"`

	ShippingAddress string `db:"shipping_address" json:"shippingAddress,omitempty"`
	BillingAddress  string `db:"billing_address" json:"billingAddress,omitempty"`
	Notes           string `db:"notes" json:"notes,omitempty"`

	Status        Status        `db:"status" json:"status"`
	PaymentMethod PaymentMethod `db:"payment_method" json:"paymentMethod"`
	PaymentStatus PaymentStatus `db:"payment_status" json:"paymentStatus"`

	PaymentVerifiedAt *time.Time `db:"payment_verified_at" json:"paymentVerifiedAt,omitempty"`
	PaymentVerifiedBy string     `db:"payment_verified_by" json:"paymentVerifiedBy,omitempty"`

	OrderDate time.Time `db:"order_date" json:"orderDate"`

	StockDeducted   bool       `db:"stock_deducted" json:"stockDeducted"`
	StockDeductedAt *time.Time `db:"stock_deducted_at" json:"stockDeductedAt,omitempty"`
	StockRestored   bool       `db:"stock_restored" json:"stockRestored"`
	StockRestoredAt *time.Time `db:"stock_restored_at" json:"stockRestoredAt,omitempty"`

	Items []Item `json:"items"`
}

// NewManualOrder creates a pending manual order.
func NewManualOrder(number, customerName string, source Source, method PaymentMethod) *ManualOrder {
	return &ManualOrder{
		BaseDocument:  entity.NewBaseDocument(),
		Number:        number,
		CustomerName:  customerName,
		OrderSource:   source,
		Status:        StatusPending,
		PaymentMethod: method,
		PaymentStatus: PaymentUnpaid,
		OrderDate:     time.Now().UTC(),
	}
}

// Validate checks manual order invariants.
func (m *ManualOrder) Validate(_ context.Context) error {
	if strings.TrimSpace(m.CustomerName) == "" {
		return apperror.NewValidation("manual order customer name is required")
	}
	switch m.OrderSource {
	case SourceB2B, SourcePhone, SourceEmail, SourceWalkIn:
	default:
		return apperror.NewValidation("unknown order source")
	}
	if !ValidStatus(m.Status) {
		return apperror.NewValidation("unknown order status")
	}
	if m.PaymentMethod != PaymentCOD && m.PaymentMethod != PaymentGcash {
		return apperror.NewValidation("payment method must be COD or GCASH")
	}
	if len(m.Items) == 0 {
		return apperror.NewValidation("order needs at least one item")
	}
	for _, it := range m.Items {
		if id.IsNil(it.ProductID) {
			return apperror.NewValidation("order item product_id is required")
		}
		if it.Quantity <= 0 {
			return apperror.NewValidation("order item quantity must be positive")
		}
	}
	return nil
}

// AddItem appends a line with the price frozen now.
func (m *ManualOrder) AddItem(productID id.ID, quantity int, price types.Money) {
	m.Items = append(m.Items, Item{
		ID:           id.New(),
		ProductID:    productID,
		Quantity:     quantity,
		PriceAtOrder: price,
	})
}

// Total returns the order total from frozen line prices.
func (m *ManualOrder) Total() types.Money {
	total := types.Zero()
	for _, it := range m.Items {
		total = total.Add(it.Subtotal())
	}
	return total
}

// LedgerLines maps items to stock ledger lines.
func (m *ManualOrder) LedgerLines() []stockledger.Line {
	lines := make([]stockledger.Line, 0, len(m.Items))
	for _, it := range m.Items {
		lines = append(lines, stockledger.Line{ProductID: it.ProductID, Quantity: it.Quantity})
	}
	return lines
}

// NormalizeBilling defaults the billing address to shipping when blank.
func (m *ManualOrder) NormalizeBilling() {
	if strings.TrimSpace(m.BillingAddress) == "" {
		m.BillingAddress = m.ShippingAddress
	}
}

// SyncPaymentStatus recomputes payment status. Manual COD orders also
// revert paid back to unpaid when the order leaves Completed.
func (m *ManualOrder) SyncPaymentStatus() {
	applyPaymentPolicy(m.PaymentMethod, m.Status, true,
		&m.PaymentStatus, &m.PaymentVerifiedAt, &m.PaymentVerifiedBy)
}

// MarkStockDeducted records that ledger deduction happened.
func (m *ManualOrder) MarkStockDeducted() {
	now := time.Now().UTC()
	m.StockDeducted = true
	m.StockDeductedAt = &now
	m.StockRestored = false
}

// MarkStockRestored records that deducted stock went back to the shelf.
func (m *ManualOrder) MarkStockRestored() {
	now := time.Now().UTC()
	m.StockRestored = true
	m.StockRestoredAt = &now
}

// applyPaymentPolicy is the single place the payment state matrix lives.
//
// GCASH: payment clears as soon as the order is being worked
// (Processing/Shipped/Completed), falls back to unpaid on Pending,
// refunds on Canceled and partially refunds on Returned.
//
// COD: cash changes hands on completion. Returned or Canceled after
// payment moves to the refund states. revertCompletedCOD additionally
// drops paid back to unpaid when a COD order leaves Completed (manual
// orders, where completion is routinely corrected by staff).
func applyPaymentPolicy(method PaymentMethod, status Status, revertCompletedCOD bool,
	payment *PaymentStatus, verifiedAt **time.Time, verifiedBy *string) {

	old := *payment
	next := old

	switch method {
	case PaymentGcash:
		switch status {
		case StatusProcessing, StatusShipped, StatusCompleted:
			next = PaymentPaid
		case StatusPending:
			next = PaymentUnpaid
		case StatusCanceled:
			next = PaymentRefunded
		case StatusReturned:
			next = PaymentPartiallyRefunded
		}
	case PaymentCOD:
		switch status {
		case StatusCompleted:
			next = PaymentPaid
		case StatusReturned:
			if old == PaymentPaid {
				next = PaymentPartiallyRefunded
			}
		case StatusCanceled:
			if old == PaymentPaid {
				next = PaymentRefunded
			}
		default:
			if revertCompletedCOD && old == PaymentPaid {
				next = PaymentUnpaid
			}
		}
	}

	*payment = next

	if next == PaymentPaid && *verifiedAt == nil {
		now := time.Now().UTC()
		*verifiedAt = &now
	}
	// Leaving paid, whether back to unpaid or into a refund state,
	// invalidates the verification stamp.
	switch next {
	case PaymentRefunded, PaymentPartiallyRefunded:
		*verifiedAt = nil
		*verifiedBy = ""
	case PaymentUnpaid:
		if old == PaymentPaid {
			*verifiedAt = nil
			*verifiedBy = ""
		}
	}
}
