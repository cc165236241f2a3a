package dto

import (
	"supplytrack/internal/core/apperror"
	"supplytrack/internal/core/id"
	"supplytrack/internal/core/types"
	"supplytrack/internal/domain/catalogs/product"
)

// CreateProductRequest for creating products.
type CreateProductRequest struct {
	Name        string  `json:"name" binding:"required"`
	SKU         string  `json:"sku" binding:"required"`
	Description string  `json:"description"`
	SupplierID  *string `json:"supplierId"`

	Price     types.Money  `json:"price"`
	CostPrice types.Money  `json:"costPrice"`
	Unit      string       `json:"unit" binding:"required"`

	StockQuantity int `json:"stockQuantity" binding:"min=0"`
	ReorderLevel  int `json:"reorderLevel" binding:"min=0"`

	IsActive *bool `json:"isActive"`
}

// ToEntity maps the request to a new product.
func (r CreateProductRequest) ToEntity() (*product.Product, error) {
	p := product.New(r.Name, r.SKU, r.Unit, r.Price)
	p.Description = r.Description
	p.CostPrice = r.CostPrice
	p.StockQuantity = r.StockQuantity
	p.ReorderLevel = r.ReorderLevel
	if r.IsActive != nil {
		p.IsActive = *r.IsActive
	}
	if r.SupplierID != nil && *r.SupplierID != "" {
		supplierID, err := id.Parse(*r.SupplierID)
		if err != nil {
			return nil, apperror.NewValidation("invalid supplierId format")
		}
		p.SupplierID = &supplierID
	}
	return p, nil
}

// UpdateProductRequest for updating products. Nil fields stay unchanged.
// StockQuantity is absent on purpose: balances only change through the
// stock ledger.
type UpdateProductRequest struct {
	Name        *string `json:"name"`
	SKU         *string `json:"sku"`
	Description *string `json:"description"`
	SupplierID  *string `json:"supplierId"`

	Price     *types.Money `json:"price"`
	CostPrice *types.Money `json:"costPrice"`
	Unit      *string      `json:"unit"`

	ReorderLevel *int  `json:"reorderLevel"`
	IsActive     *bool `json:"isActive"`

	Version int `json:"version" binding:"required,min=1"`
}

// ApplyTo patches the existing product with the provided fields.
func (r UpdateProductRequest) ApplyTo(p *product.Product) error {
	if r.Name != nil {
		p.Name = *r.Name
	}
	if r.SKU != nil {
		p.SKU = *r.SKU
	}
	if r.Description != nil {
		p.Description = *r.Description
	}
	if r.SupplierID != nil {
		if *r.SupplierID == "" {
			p.SupplierID = nil
		} else {
			supplierID, err := id.Parse(*r.SupplierID)
			if err != nil {
				return apperror.NewValidation("invalid supplierId format")
			}
			p.SupplierID = &supplierID
		}
	}
	if r.Price != nil {
		p.Price = *r.Price
	}
	if r.CostPrice != nil {
		p.CostPrice = *r.CostPrice
	}
	if r.Unit != nil {
		p.Unit = *r.Unit
	}
	if r.ReorderLevel != nil {
		p.ReorderLevel = *r.ReorderLevel
	}
	if r.IsActive != nil {
		p.IsActive = *r.IsActive
	}
	p.Version = r.Version
	return nil
}
