// Package customer provides the customer catalog.
package customer

import (
	"context"
	"strings"

	"supplytrack/internal/core/apperror"
	"supplytrack/internal/core/entity"
)

// Address is a structured postal address. Formatting lives here so
// other packages never poke at individual fields.
type Address struct {
	Street   string `db:"street" json:"street,omitempty"`
	City     string `db:"city" json:"city,omitempty"`
	Province string `db:"province" json:"province,omitempty"`
	ZipCode  string `db:"zip_code" json:"zipCode,omitempty"`
}

// Format renders the address as a single shipping line.
// Empty components are skipped.
func (a Address) Format() string {
	parts := make([]string, 0, 4)
	for _, p := range []string{a.Street, a.City, a.Province, a.ZipCode} {
		if strings.TrimSpace(p) != "" {
			parts = append(parts, strings.TrimSpace(p))
		}
	}
	return strings.Join(parts, ", ")
}

// IsEmpty reports whether every component is blank.
func (a Address) IsEmpty() bool {
	return a.Format() == ""
}

// Customer is a registered buyer.
type Customer struct {
	entity.BaseDocument

	Name    string  `db:"name" json:"name"`
	Email   string  `db:"email" json:"email,omitempty"`
	Phone   string  `db:"phone" json:"phone,omitempty"`
	Address Address `json:"address"`
}

// New creates a customer with a generated ID.
func New(name string) *Customer {
	return &Customer{
		BaseDocument: entity.NewBaseDocument(),
		Name:         name,
	}
}

// Validate checks customer invariants.
func (c *Customer) Validate(_ context.Context) error {
	if strings.TrimSpace(c.Name) == "" {
		return apperror.NewValidation("customer name is required")
	}
	if c.Email != "" && !strings.Contains(c.Email, "@") {
		return apperror.NewValidation("customer email is malformed")
	}
	return nil
}

// ShippingLine returns the formatted address for delivery paperwork.
func (c *Customer) ShippingLine() string {
	return c.Address.Format()
}
