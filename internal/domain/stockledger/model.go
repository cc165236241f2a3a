// Package stockledger provides the append-only stock movement ledger
// and the cached per-product balance it explains.
package stockledger

import (
	"context"
	"time"

	"supplytrack/internal/core/apperror"
	"supplytrack/internal/core/id"
)

// MovementType is the direction of a stock movement.
type MovementType string

const (
	MovementIn  MovementType = "IN"
	MovementOut MovementType = "OUT"
)

// Movement is one immutable ledger record. Quantity is always positive;
// direction is carried by MovementType. Movements are never updated or
// deleted; corrections are new movements.
type Movement struct {
	ID           id.ID        `db:"id" json:"id"`
	ProductID    id.ID        `db:"product_id" json:"productId"`
	MovementType MovementType `db:"movement_type" json:"movementType"`
	Quantity     int          `db:"quantity" json:"quantity"`
	Reference    string       `db:"reference" json:"reference,omitempty"`
	Notes        string       `db:"notes" json:"notes,omitempty"`
	CreatedAt    time.Time    `db:"created_at" json:"createdAt"`
}

// NewMovement creates a movement with generated ID and timestamp.
func NewMovement(productID id.ID, mt MovementType, quantity int, reference, notes string) Movement {
	return Movement{
		ID:           id.New(),
		ProductID:    productID,
		MovementType: mt,
		Quantity:     quantity,
		Reference:    reference,
		Notes:        notes,
		CreatedAt:    time.Now().UTC(),
	}
}

// Validate checks movement invariants.
func (m Movement) Validate(_ context.Context) error {
	if id.IsNil(m.ProductID) {
		return apperror.NewValidation("movement product_id is required")
	}
	if m.MovementType != MovementIn && m.MovementType != MovementOut {
		return apperror.NewValidation("movement type must be IN or OUT")
	}
	if m.Quantity <= 0 {
		return apperror.NewValidation("movement quantity must be positive")
	}
	return nil
}

// Line is one product/quantity pair in a reserve or restore request.
type Line struct {
	ProductID id.ID `json:"productId"`
	Quantity  int   `json:"quantity"`
}

// ProductStock is the locked balance row the ledger operates on.
type ProductStock struct {
	ID            id.ID  `db:"id"`
	Name          string `db:"name"`
	StockQuantity int    `db:"stock_quantity"`
	ReorderLevel  int    `db:"reorder_level"`
	IsActive      bool   `db:"is_active"`
}

// MovementFilter narrows movement history queries.
type MovementFilter struct {
	ProductID *id.ID
	Type      *MovementType
	Reference string
	FromDate  *time.Time
	ToDate    *time.Time
	Limit     int
	Offset    int
}
