package dto

import (
	"supplytrack/internal/domain/catalogs/customer"
)

// AddressPayload is a structured postal address in requests.
type AddressPayload struct {
	Street   string `json:"street"`
	City     string `json:"city"`
	Province string `json:"province"`
	ZipCode  string `json:"zipCode"`
}

// ToAddress maps the payload to the domain address.
func (a AddressPayload) ToAddress() customer.Address {
	return customer.Address{
		Street:   a.Street,
		City:     a.City,
		Province: a.Province,
		ZipCode:  a.ZipCode,
	}
}

// CreateCustomerRequest for creating customers.
type CreateCustomerRequest struct {
	Name    string          `json:"name" binding:"required"`
	Email   string          `json:"email"`
	Phone   string          `json:"phone"`
	Address *AddressPayload `json:"address"`
}

// ToEntity maps the request to a new customer.
func (r CreateCustomerRequest) ToEntity() *customer.Customer {
	c := customer.New(r.Name)
	c.Email = r.Email
	c.Phone = r.Phone
	if r.Address != nil {
		c.Address = r.Address.ToAddress()
	}
	return c
}

// UpdateCustomerRequest for updating customers. Nil fields stay unchanged.
type UpdateCustomerRequest struct {
	Name    *string         `json:"name"`
	Email   *string         `json:"email"`
	Phone   *string         `json:"phone"`
	Address *AddressPayload `json:"address"`

	Version int `json:"version" binding:"required,min=1"`
}

// ApplyTo patches the existing customer with the provided fields.
func (r UpdateCustomerRequest) ApplyTo(c *customer.Customer) {
	if r.Name != nil {
		c.Name = *r.Name
	}
	if r.Email != nil {
		c.Email = *r.Email
	}
	if r.Phone != nil {
		c.Phone = *r.Phone
	}
	if r.Address != nil {
		c.Address = r.Address.ToAddress()
	}
	c.Version = r.Version
}
