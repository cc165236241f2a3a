// Package product provides the product catalog.
package product

import (
	"context"
	"strings"

	"supplytrack/internal/core/apperror"
	"supplytrack/internal/core/entity"
	"supplytrack/internal/core/id"
	"supplytrack/internal/core/types"
)

// Product is a sellable item with tracked stock.
//
// StockQuantity is a cached balance. It must only change through the
// stock ledger (movement-producing operations); direct writes bypass
// the movement history and are a defect.
type Product struct {
	entity.BaseDocument

	Name        string `db:"name" json:"name"`
	SKU         string `db:"sku" json:"sku"`
	Description string `db:"description" json:"description,omitempty"`

	SupplierID *id.ID `db:"supplier_id" json:"supplierId,omitempty"`

	Price             types.Money  `db:"price" json:"price"`
	CostPrice         types.Money  `db:"cost_price" json:"costPrice"`
	LastPurchasePrice *types.Money `db:"last_purchase_price" json:"lastPurchasePrice,omitempty"`

	Unit          string `db:"unit" json:"unit"`
	StockQuantity int    `db:"stock_quantity" json:"stockQuantity"`
	ReorderLevel  int    `db:"reorder_level" json:"reorderLevel"`

	IsActive bool `db:"is_active" json:"isActive"`
}

// New creates an active product with a generated ID.
func New(name, sku, unit string, price types.Money) *Product {
	return &Product{
		BaseDocument: entity.NewBaseDocument(),
		Name:         name,
		SKU:          sku,
		Unit:         unit,
		Price:        price,
		IsActive:     true,
	}
}

// Validate checks product invariants.
func (p *Product) Validate(_ context.Context) error {
	if strings.TrimSpace(p.Name) == "" {
		return apperror.NewValidation("product name is required")
	}
	if strings.TrimSpace(p.SKU) == "" {
		return apperror.NewValidation("product sku is required")
	}
	if strings.TrimSpace(p.Unit) == "" {
		return apperror.NewValidation("product unit is required")
	}
	if p.Price.IsNegative() {
		return apperror.NewValidation("product price cannot be negative")
	}
	if p.CostPrice.IsNegative() {
		return apperror.NewValidation("product cost price cannot be negative")
	}
	if p.StockQuantity < 0 {
		return apperror.NewValidation("stock quantity cannot be negative")
	}
	if p.ReorderLevel < 0 {
		return apperror.NewValidation("reorder level cannot be negative")
	}
	return nil
}

// NeedsReorder reports whether stock is at or below the reorder level.
func (p *Product) NeedsReorder() bool {
	return p.IsActive && p.StockQuantity <= p.ReorderLevel
}
