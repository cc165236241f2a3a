package dto

import (
	"time"

	"supplytrack/internal/core/apperror"
	"supplytrack/internal/core/id"
	"supplytrack/internal/core/types"
	"supplytrack/internal/domain/purchasing"
)

// PurchaseOrderItemPayload is one requested purchase order line.
type PurchaseOrderItemPayload struct {
	ProductID       string      `json:"productId" binding:"required"`
	Description     string      `json:"description"`
	QuantityOrdered int         `json:"quantityOrdered" binding:"required,min=1"`
	UnitCost        types.Money `json:"unitCost"`
}

// ToItem maps the payload to a purchase order line.
func (p PurchaseOrderItemPayload) ToItem() (purchasing.Item, error) {
	productID, err := id.Parse(p.ProductID)
	if err != nil {
		return purchasing.Item{}, apperror.NewValidation("invalid productId format")
	}
	return purchasing.Item{
		ID:              id.New(),
		ProductID:       productID,
		Description:     p.Description,
		QuantityOrdered: p.QuantityOrdered,
		UnitCost:        p.UnitCost,
	}, nil
}

// CreatePurchaseOrderRequest for creating draft purchase orders.
type CreatePurchaseOrderRequest struct {
	SupplierID           string                     `json:"supplierId" binding:"required"`
	PaymentMethod        string                     `json:"paymentMethod"`
	PaymentDueDate       *time.Time                 `json:"paymentDueDate"`
	ExpectedDeliveryDate *time.Time                 `json:"expectedDeliveryDate"`
	Notes                string                     `json:"notes"`
	Items                []PurchaseOrderItemPayload `json:"items" binding:"dive"`
}

// ToEntity maps the request to a new draft purchase order.
func (r CreatePurchaseOrderRequest) ToEntity() (*purchasing.PurchaseOrder, error) {
	supplierID, err := id.Parse(r.SupplierID)
	if err != nil {
		return nil, apperror.NewValidation("invalid supplierId format")
	}

	po := purchasing.New("", supplierID)
	if r.PaymentMethod != "" {
		po.PaymentMethod = purchasing.PaymentMethod(r.PaymentMethod)
	}
	po.PaymentDueDate = r.PaymentDueDate
	po.ExpectedDeliveryDate = r.ExpectedDeliveryDate
	po.Notes = r.Notes

	for _, payload := range r.Items {
		item, err := payload.ToItem()
		if err != nil {
			return nil, err
		}
		po.Items = append(po.Items, item)
	}
	po.RecomputeTotal()
	return po, nil
}

// UpdatePurchaseOrderRequest edits draft header fields.
type UpdatePurchaseOrderRequest struct {
	SupplierID           string     `json:"supplierId" binding:"required"`
	PaymentMethod        string     `json:"paymentMethod"`
	PaymentDueDate       *time.Time `json:"paymentDueDate"`
	ExpectedDeliveryDate *time.Time `json:"expectedDeliveryDate"`
	Notes                string     `json:"notes"`
}

// ApplyTo patches the draft header.
func (r UpdatePurchaseOrderRequest) ApplyTo(po *purchasing.PurchaseOrder) error {
	supplierID, err := id.Parse(r.SupplierID)
	if err != nil {
		return apperror.NewValidation("invalid supplierId format")
	}
	po.SupplierID = supplierID
	if r.PaymentMethod != "" {
		po.PaymentMethod = purchasing.PaymentMethod(r.PaymentMethod)
	}
	po.PaymentDueDate = r.PaymentDueDate
	po.ExpectedDeliveryDate = r.ExpectedDeliveryDate
	po.Notes = r.Notes
	return nil
}

// UpdatePurchaseOrderItemRequest replaces one line's editable fields.
type UpdatePurchaseOrderItemRequest struct {
	ProductID       string      `json:"productId" binding:"required"`
	Description     string      `json:"description"`
	QuantityOrdered int         `json:"quantityOrdered" binding:"required,min=1"`
	UnitCost        types.Money `json:"unitCost"`
}

// ToItem maps the request to a line carrying the target item ID.
func (r UpdatePurchaseOrderItemRequest) ToItem(itemID id.ID) (purchasing.Item, error) {
	productID, err := id.Parse(r.ProductID)
	if err != nil {
		return purchasing.Item{}, apperror.NewValidation("invalid productId format")
	}
	return purchasing.Item{
		ID:              itemID,
		ProductID:       productID,
		Description:     r.Description,
		QuantityOrdered: r.QuantityOrdered,
		UnitCost:        r.UnitCost,
	}, nil
}

// ItemPricingPayload carries supplier pricing for one line.
type ItemPricingPayload struct {
	ItemID   string      `json:"itemId" binding:"required"`
	UnitCost types.Money `json:"unitCost" binding:"required"`
}

// SubmitPricingRequest records supplier quotes per line.
type SubmitPricingRequest struct {
	Items []ItemPricingPayload `json:"items" binding:"required,min=1,dive"`
}

// ToPricing maps payloads to domain pricing lines.
func (r SubmitPricingRequest) ToPricing() ([]purchasing.ItemPricing, error) {
	pricing := make([]purchasing.ItemPricing, 0, len(r.Items))
	for _, p := range r.Items {
		itemID, err := id.Parse(p.ItemID)
		if err != nil {
			return nil, apperror.NewValidation("invalid itemId format")
		}
		pricing = append(pricing, purchasing.ItemPricing{ItemID: itemID, UnitCost: p.UnitCost})
	}
	return pricing, nil
}

// ConfirmPurchaseOrderRequest confirms a priced order with final terms.
type ConfirmPurchaseOrderRequest struct {
	PaymentMethod  string     `json:"paymentMethod" binding:"required"`
	PaymentDueDate *time.Time `json:"paymentDueDate"`
}

// ReceiptPayload is one delivered line report.
type ReceiptPayload struct {
	ItemID   string `json:"itemId" binding:"required"`
	Quantity int    `json:"quantity" binding:"required,min=1"`
}

// ReceiveItemsRequest reports delivered quantities.
type ReceiveItemsRequest struct {
	Receipts []ReceiptPayload `json:"receipts" binding:"required,min=1,dive"`
}

// ToReceipts maps payloads to domain receipts.
func (r ReceiveItemsRequest) ToReceipts() ([]purchasing.Receipt, error) {
	receipts := make([]purchasing.Receipt, 0, len(r.Receipts))
	for _, p := range r.Receipts {
		itemID, err := id.Parse(p.ItemID)
		if err != nil {
			return nil, apperror.NewValidation("invalid itemId format")
		}
		receipts = append(receipts, purchasing.Receipt{ItemID: itemID, Quantity: p.Quantity})
	}
	return receipts, nil
}

// RequestRefundRequest opens a refund against a purchase order.
type RequestRefundRequest struct {
	Reason string      `json:"reason" binding:"required"`
	Amount types.Money `json:"amount"`
}

// SetPaymentProofRequest attaches a payment proof image reference.
type SetPaymentProofRequest struct {
	ProofImage string `json:"proofImage" binding:"required"`
}
