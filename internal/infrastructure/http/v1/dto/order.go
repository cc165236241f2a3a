package dto

import (
	"time"

	"supplytrack/internal/core/apperror"
	"supplytrack/internal/core/id"
	"supplytrack/internal/core/types"
	"supplytrack/internal/domain/orders"
)

// OrderItemPayload is one requested order line. PriceAtOrder is
// optional; when absent the current catalog price is frozen in.
type OrderItemPayload struct {
	ProductID    string       `json:"productId" binding:"required"`
	Quantity     int          `json:"quantity" binding:"required,min=1"`
	PriceAtOrder *types.Money `json:"priceAtOrder"`
}

// ParseProductID validates and parses the product reference.
func (p OrderItemPayload) ParseProductID() (id.ID, error) {
	productID, err := id.Parse(p.ProductID)
	if err != nil {
		return productID, apperror.NewValidation("invalid productId format")
	}
	return productID, nil
}

// CreateOrderRequest for creating customer orders.
type CreateOrderRequest struct {
	CustomerID           string             `json:"customerId" binding:"required"`
	PaymentMethod        string             `json:"paymentMethod" binding:"required"`
	ExpectedDeliveryDate *time.Time         `json:"expectedDeliveryDate"`
	Items                []OrderItemPayload `json:"items" binding:"required,min=1,dive"`
}

// ToEntity maps the request to a new order without items; the handler
// freezes line prices from the catalog.
func (r CreateOrderRequest) ToEntity() (*orders.Order, error) {
	customerID, err := id.Parse(r.CustomerID)
	if err != nil {
		return nil, apperror.NewValidation("invalid customerId format")
	}
	o := orders.NewOrder("", customerID, orders.PaymentMethod(r.PaymentMethod))
	o.ExpectedDeliveryDate = r.ExpectedDeliveryDate
	return o, nil
}

// CreateManualOrderRequest for staff-captured orders.
type CreateManualOrderRequest struct {
	CustomerName  string `json:"customerName" binding:"required"`
	CustomerEmail string `json:"customerEmail"`
	CustomerPhone string `json:"customerPhone"`
	OrderSource   string `json:"orderSource" binding:"required"`

	ShippingAddress string `json:"shippingAddress"`
	BillingAddress  string `json:"billingAddress"`
	Notes           string `json:"notes"`

	PaymentMethod string             `json:"paymentMethod" binding:"required"`
	Items         []OrderItemPayload `json:"items" binding:"required,min=1,dive"`
}

// ToEntity maps the request to a new manual order without items.
func (r CreateManualOrderRequest) ToEntity() *orders.ManualOrder {
	m := orders.NewManualOrder("", r.CustomerName,
		orders.Source(r.OrderSource), orders.PaymentMethod(r.PaymentMethod))
	m.CustomerEmail = r.CustomerEmail
	m.CustomerPhone = r.CustomerPhone
	m.ShippingAddress = r.ShippingAddress
	m.BillingAddress = r.BillingAddress
	m.Notes = r.Notes
	return m
}

// TransitionOrderStatusRequest moves an order to a new lifecycle state.
type TransitionOrderStatusRequest struct {
	Status string `json:"status" binding:"required"`
}
