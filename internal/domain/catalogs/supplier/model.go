// Package supplier provides the supplier catalog.
package supplier

import (
	"context"
	"strings"

	"supplytrack/internal/core/apperror"
	"supplytrack/internal/core/entity"
	"supplytrack/internal/domain/catalogs/customer"
)

// Supplier is a company purchase orders are placed with.
type Supplier struct {
	entity.BaseDocument

	CompanyName   string           `db:"company_name" json:"companyName"`
	ContactPerson string           `db:"contact_person" json:"contactPerson,omitempty"`
	Email         string           `db:"email" json:"email,omitempty"`
	Phone         string           `db:"phone" json:"phone,omitempty"`
	Address       customer.Address `json:"address"`
	IsActive      bool             `db:"is_active" json:"isActive"`
}

// New creates an active supplier with a generated ID.
func New(companyName string) *Supplier {
	return &Supplier{
		BaseDocument: entity.NewBaseDocument(),
		CompanyName:  companyName,
		IsActive:     true,
	}
}

// Validate checks supplier invariants.
func (s *Supplier) Validate(_ context.Context) error {
	if strings.TrimSpace(s.CompanyName) == "" {
		return apperror.NewValidation("supplier company name is required")
	}
	if s.Email != "" && !strings.Contains(s.Email, "@") {
		return apperror.NewValidation("supplier email is malformed")
	}
	return nil
}
