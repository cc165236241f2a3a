package dto

import (
	"supplytrack/internal/domain/catalogs/supplier"
)

// CreateSupplierRequest for creating suppliers.
type CreateSupplierRequest struct {
	CompanyName   string          `json:"companyName" binding:"required"`
	ContactPerson string          `json:"contactPerson"`
	Email         string          `json:"email"`
	Phone         string          `json:"phone"`
	Address       *AddressPayload `json:"address"`
	IsActive      *bool           `json:"isActive"`
}

// ToEntity maps the request to a new supplier.
func (r CreateSupplierRequest) ToEntity() *supplier.Supplier {
	s := supplier.New(r.CompanyName)
	s.ContactPerson = r.ContactPerson
	s.Email = r.Email
	s.Phone = r.Phone
	if r.Address != nil {
		s.Address = r.Address.ToAddress()
	}
	if r.IsActive != nil {
		s.IsActive = *r.IsActive
	}
	return s
}

// UpdateSupplierRequest for updating suppliers. Nil fields stay unchanged.
type UpdateSupplierRequest struct {
	CompanyName   *string         `json:"companyName"`
	ContactPerson *string         `json:"contactPerson"`
	Email         *string         `json:"email"`
	Phone         *string         `json:"phone"`
	Address       *AddressPayload `json:"address"`
	IsActive      *bool           `json:"isActive"`

	Version int `json:"version" binding:"required,min=1"`
}

// ApplyTo patches the existing supplier with the provided fields.
func (r UpdateSupplierRequest) ApplyTo(s *supplier.Supplier) {
	if r.CompanyName != nil {
		s.CompanyName = *r.CompanyName
	}
	if r.ContactPerson != nil {
		s.ContactPerson = *r.ContactPerson
	}
	if r.Email != nil {
		s.Email = *r.Email
	}
	if r.Phone != nil {
		s.Phone = *r.Phone
	}
	if r.Address != nil {
		s.Address = r.Address.ToAddress()
	}
	if r.IsActive != nil {
		s.IsActive = *r.IsActive
	}
	s.Version = r.Version
}
