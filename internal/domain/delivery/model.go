// Package delivery provides the delivery record attached to each
// customer order.
package delivery

import (
	"context"
	"time"

	"supplytrack/internal/core/apperror"
	"supplytrack/internal/core/entity"
	"supplytrack/internal/core/id"
)

// Status is the delivery lifecycle state.
type Status string

const (
	StatusPendingDispatch Status = "pending_dispatch"
	StatusOutForDelivery  Status = "out_for_delivery"
	StatusDelivered       Status = "delivered"
	StatusFailed          Status = "failed"
)

// ValidStatus reports whether s is a known delivery status.
func ValidStatus(s Status) bool {
	switch s {
	case StatusPendingDispatch, StatusOutForDelivery, StatusDelivered, StatusFailed:
		return true
	}
	return false
}

// Delivery tracks the physical fulfillment of one order (one-to-one).
type Delivery struct {
	entity.BaseDocument

	OrderID id.ID  `db:"order_id" json:"orderId"`
	Status  Status `db:"status" json:"status"`

	DeliveredAt          *time.Time `db:"delivered_at" json:"deliveredAt,omitempty"`
	ProofOfDeliveryImage string     `db:"proof_of_delivery_image" json:"proofOfDeliveryImage,omitempty"`
	DeliveryNote         string     `db:"delivery_note" json:"deliveryNote,omitempty"`

	IsArchived bool `db:"is_archived" json:"isArchived"`
}

// New creates a delivery waiting for dispatch.
func New(orderID id.ID) *Delivery {
	return &Delivery{
		BaseDocument: entity.NewBaseDocument(),
		OrderID:      orderID,
		Status:       StatusPendingDispatch,
	}
}

// Validate checks delivery invariants.
func (d *Delivery) Validate(_ context.Context) error {
	if id.IsNil(d.OrderID) {
		return apperror.NewValidation("delivery order_id is required")
	}
	if !ValidStatus(d.Status) {
		return apperror.NewValidation("unknown delivery status")
	}
	return nil
}

// CanMarkDelivered is the single proof-of-delivery gate: a delivery may
// only become delivered once a proof image is attached.
func (d *Delivery) CanMarkDelivered() error {
	if d.ProofOfDeliveryImage == "" {
		return apperror.NewBusinessRule(apperror.CodeBusinessRule,
			"proof of delivery image is required before marking delivered")
	}
	return nil
}

// StampDelivered sets the delivered timestamp if not already set.
func (d *Delivery) StampDelivered() {
	if d.DeliveredAt == nil {
		now := time.Now().UTC()
		d.DeliveredAt = &now
	}
}
