// Package invoices provides billing documents issued against customer
// orders and manual orders.
package invoices

import (
	"context"
	"time"

	"supplytrack/internal/core/apperror"
	"supplytrack/internal/core/entity"
	"supplytrack/internal/core/id"
	"supplytrack/internal/core/types"
)

// Status is the invoice lifecycle state.
type Status string

const (
	StatusDraft     Status = "draft"
	StatusIssued    Status = "issued"
	StatusPaid      Status = "paid"
	StatusCancelled Status = "cancelled"
)

// ValidStatus reports whether s is a known invoice status.
func ValidStatus(s Status) bool {
	switch s {
	case StatusDraft, StatusIssued, StatusPaid, StatusCancelled:
		return true
	}
	return false
}

// Invoice bills exactly one order or one manual order. Amounts are
// cached from the order's frozen line prices at creation time.
type Invoice struct {
	entity.BaseDocument

	Number string `db:"number" json:"number"`

	OrderID       *id.ID `db:"order_id" json:"orderId,omitempty"`
	ManualOrderID *id.ID `db:"manual_order_id" json:"manualOrderId,omitempty"`

	Status Status `db:"status" json:"status"`

	Subtotal types.Money `db:"subtotal" json:"subtotal"`
	Tax      types.Money `db:"tax" json:"tax"`
	Total    types.Money `db:"total" json:"total"`

	IssuedAt *time.Time `db:"issued_at" json:"issuedAt,omitempty"`
	DueDate  *time.Time `db:"due_date" json:"dueDate,omitempty"`

	BilledTo string `db:"billed_to" json:"billedTo"`
	Notes    string `db:"notes" json:"notes,omitempty"`
}

// New creates a draft invoice with amounts computed from subtotal and
// the given tax rate.
func New(number string, subtotal types.Money, taxRate types.Money, billedTo string) *Invoice {
	tax := subtotal.Mul(taxRate).Round(2)
	return &Invoice{
		BaseDocument: entity.NewBaseDocument(),
		Number:       number,
		Status:       StatusDraft,
		Subtotal:     subtotal,
		Tax:          tax,
		Total:        subtotal.Add(tax),
		BilledTo:     billedTo,
	}
}

// Validate checks invoice invariants.
func (inv *Invoice) Validate(_ context.Context) error {
	if !ValidStatus(inv.Status) {
		return apperror.NewValidation("unknown invoice status")
	}
	hasOrder := inv.OrderID != nil && !id.IsNil(*inv.OrderID)
	hasManual := inv.ManualOrderID != nil && !id.IsNil(*inv.ManualOrderID)
	if hasOrder == hasManual {
		return apperror.NewValidation("invoice must reference exactly one order or manual order")
	}
	if inv.Subtotal.IsNegative() || inv.Tax.IsNegative() {
		return apperror.NewValidation("invoice amounts cannot be negative")
	}
	return nil
}

// Issue moves a draft to issued and stamps the issue time.
func (inv *Invoice) Issue() error {
	if inv.Status != StatusDraft {
		return apperror.NewInvalidTransition("invoice", string(inv.Status), string(StatusIssued))
	}
	inv.Status = StatusIssued
	now := time.Now().UTC()
	inv.IssuedAt = &now
	return nil
}

// MarkPaid settles an issued invoice.
func (inv *Invoice) MarkPaid() error {
	if inv.Status != StatusIssued {
		return apperror.NewInvalidTransition("invoice", string(inv.Status), string(StatusPaid))
	}
	inv.Status = StatusPaid
	return nil
}

// Cancel voids an unpaid invoice.
func (inv *Invoice) Cancel() error {
	if inv.Status == StatusPaid || inv.Status == StatusCancelled {
		return apperror.NewInvalidTransition("invoice", string(inv.Status), string(StatusCancelled))
	}
	inv.Status = StatusCancelled
	return nil
}
