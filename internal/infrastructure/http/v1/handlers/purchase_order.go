package handlers

import (
	"context"

	"github.com/gin-gonic/gin"

	"supplytrack/internal/core/id"
	"supplytrack/internal/domain/purchasing"
	"supplytrack/internal/infrastructure/http/v1/dto"
)

// PurchaseOrderHandler handles HTTP requests for the purchase order
// lifecycle.
type PurchaseOrderHandler struct {
	*BaseHandler
	service *purchasing.Service
}

// NewPurchaseOrderHandler creates a new purchase order handler.
func NewPurchaseOrderHandler(base *BaseHandler, service *purchasing.Service) *PurchaseOrderHandler {
	return &PurchaseOrderHandler{BaseHandler: base, service: service}
}

// List handles GET /purchase-orders
func (h *PurchaseOrderHandler) List(c *gin.Context) {
	var query dto.ListQuery
	if !h.BindQuery(c, &query) {
		return
	}

	filter := purchasing.ListFilter{ListFilter: query.ToFilter()}
	if s := c.Query("status"); s != "" {
		status := purchasing.Status(s)
		filter.Status = &status
	}
	if s := c.Query("paymentStatus"); s != "" {
		payment := purchasing.PaymentStatus(s)
		filter.PaymentStatus = &payment
	}
	if s := c.Query("supplierId"); s != "" {
		supplierID, err := id.Parse(s)
		if err == nil {
			filter.SupplierID = &supplierID
		}
	}

	result, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, result)
}

// Create handles POST /purchase-orders
func (h *PurchaseOrderHandler) Create(c *gin.Context) {
	var req dto.CreatePurchaseOrderRequest
	if !h.BindJSON(c, &req) {
		return
	}

	po, err := req.ToEntity()
	if err != nil {
		h.Error(c, err)
		return
	}

	if err := h.service.CreateDraft(c.Request.Context(), po); err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, po)
}

// Get handles GET /purchase-orders/:id
func (h *PurchaseOrderHandler) Get(c *gin.Context) {
	poID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	po, err := h.service.Get(c.Request.Context(), poID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, po)
}

// Update handles PUT /purchase-orders/:id (draft header only)
func (h *PurchaseOrderHandler) Update(c *gin.Context) {
	poID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	var req dto.UpdatePurchaseOrderRequest
	if !h.BindJSON(c, &req) {
		return
	}

	po := &purchasing.PurchaseOrder{}
	po.ID = poID
	if err := req.ApplyTo(po); err != nil {
		h.Error(c, err)
		return
	}

	if err := h.service.UpdateDraft(c.Request.Context(), po); err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, po)
}

// Delete handles DELETE /purchase-orders/:id
func (h *PurchaseOrderHandler) Delete(c *gin.Context) {
	poID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	if err := h.service.Delete(c.Request.Context(), poID); err != nil {
		h.Error(c, err)
		return
	}
	h.NoContent(c)
}

// --- Item lifecycle ---

// AddItem handles POST /purchase-orders/:id/items
func (h *PurchaseOrderHandler) AddItem(c *gin.Context) {
	poID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	var req dto.PurchaseOrderItemPayload
	if !h.BindJSON(c, &req) {
		return
	}

	item, err := req.ToItem()
	if err != nil {
		h.Error(c, err)
		return
	}

	po, err := h.service.AddItem(c.Request.Context(), poID, item)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, po)
}

// UpdateItem handles PUT /purchase-orders/:id/items/:itemId
func (h *PurchaseOrderHandler) UpdateItem(c *gin.Context) {
	poID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}
	itemID, ok := h.ParseID(c, "itemId")
	if !ok {
		return
	}

	var req dto.UpdatePurchaseOrderItemRequest
	if !h.BindJSON(c, &req) {
		return
	}

	item, err := req.ToItem(itemID)
	if err != nil {
		h.Error(c, err)
		return
	}

	po, err := h.service.UpdateItem(c.Request.Context(), poID, item)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, po)
}

// RemoveItem handles DELETE /purchase-orders/:id/items/:itemId
func (h *PurchaseOrderHandler) RemoveItem(c *gin.Context) {
	poID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}
	itemID, ok := h.ParseID(c, "itemId")
	if !ok {
		return
	}

	po, err := h.service.RemoveItem(c.Request.Context(), poID, itemID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, po)
}

// --- Lifecycle verbs ---

// Submit handles POST /purchase-orders/:id/submit
func (h *PurchaseOrderHandler) Submit(c *gin.Context) {
	h.lifecycle(c, h.service.SubmitRequest)
}

// SubmitPricing handles POST /purchase-orders/:id/pricing
func (h *PurchaseOrderHandler) SubmitPricing(c *gin.Context) {
	poID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	var req dto.SubmitPricingRequest
	if !h.BindJSON(c, &req) {
		return
	}

	pricing, err := req.ToPricing()
	if err != nil {
		h.Error(c, err)
		return
	}

	po, err := h.service.SubmitPricing(c.Request.Context(), poID, pricing)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, po)
}

// Confirm handles POST /purchase-orders/:id/confirm
func (h *PurchaseOrderHandler) Confirm(c *gin.Context) {
	poID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	var req dto.ConfirmPurchaseOrderRequest
	if !h.BindJSON(c, &req) {
		return
	}

	po, err := h.service.Confirm(c.Request.Context(), poID,
		purchasing.PaymentMethod(req.PaymentMethod), req.PaymentDueDate)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, po)
}

// MarkInTransit handles POST /purchase-orders/:id/transit
func (h *PurchaseOrderHandler) MarkInTransit(c *gin.Context) {
	h.lifecycle(c, h.service.MarkInTransit)
}

// Receive handles POST /purchase-orders/:id/receive
func (h *PurchaseOrderHandler) Receive(c *gin.Context) {
	poID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	var req dto.ReceiveItemsRequest
	if !h.BindJSON(c, &req) {
		return
	}

	receipts, err := req.ToReceipts()
	if err != nil {
		h.Error(c, err)
		return
	}

	po, err := h.service.ReceiveItems(c.Request.Context(), poID, receipts)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, po)
}

// RequestRefund handles POST /purchase-orders/:id/refund
func (h *PurchaseOrderHandler) RequestRefund(c *gin.Context) {
	poID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	var req dto.RequestRefundRequest
	if !h.BindJSON(c, &req) {
		return
	}

	po, err := h.service.RequestRefund(c.Request.Context(), poID, req.Reason, req.Amount)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, po)
}

// Cancel handles POST /purchase-orders/:id/cancel
func (h *PurchaseOrderHandler) Cancel(c *gin.Context) {
	h.lifecycle(c, h.service.Cancel)
}

// SetPaymentProof handles POST /purchase-orders/:id/payment-proof
func (h *PurchaseOrderHandler) SetPaymentProof(c *gin.Context) {
	poID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	var req dto.SetPaymentProofRequest
	if !h.BindJSON(c, &req) {
		return
	}

	po, err := h.service.SetPaymentProof(c.Request.Context(), poID, req.ProofImage)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, po)
}

// RecomputePaymentStatus handles POST /purchase-orders/:id/payment-status
func (h *PurchaseOrderHandler) RecomputePaymentStatus(c *gin.Context) {
	h.lifecycle(c, h.service.RecomputePaymentStatus)
}

// Notifications handles GET /purchase-orders/:id/notifications
func (h *PurchaseOrderHandler) Notifications(c *gin.Context) {
	poID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	notifications, err := h.service.Notifications(c.Request.Context(), poID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, gin.H{"items": notifications})
}

// PaymentsDueSoon handles GET /purchase-orders/payments/due-soon
func (h *PurchaseOrderHandler) PaymentsDueSoon(c *gin.Context) {
	days := h.ParseIntQuery(c, "days", 7)

	pos, err := h.service.ListPaymentsDueSoon(c.Request.Context(), days)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, gin.H{"items": pos})
}

// lifecycle runs a body-less transition verb on the order in the path.
func (h *PurchaseOrderHandler) lifecycle(c *gin.Context,
	verb func(ctx context.Context, poID id.ID) (*purchasing.PurchaseOrder, error)) {

	poID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	po, err := verb(c.Request.Context(), poID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, po)
}

// RegisterRoutes registers purchase order routes.
func (h *PurchaseOrderHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("", h.List)
	rg.POST("", h.Create)
	rg.GET("/payments/due-soon", h.PaymentsDueSoon)
	rg.GET("/:id", h.Get)
	rg.PUT("/:id", h.Update)
	rg.DELETE("/:id", h.Delete)

	rg.POST("/:id/items", h.AddItem)
	rg.PUT("/:id/items/:itemId", h.UpdateItem)
	rg.DELETE("/:id/items/:itemId", h.RemoveItem)

	rg.POST("/:id/submit", h.Submit)
	rg.POST("/:id/pricing", h.SubmitPricing)
	rg.POST("/:id/confirm", h.Confirm)
	rg.POST("/:id/transit", h.MarkInTransit)
	rg.POST("/:id/receive", h.Receive)
	rg.POST("/:id/refund", h.RequestRefund)
	rg.POST("/:id/cancel", h.Cancel)

	rg.POST("/:id/payment-proof", h.SetPaymentProof)
	rg.POST("/:id/payment-status", h.RecomputePaymentStatus)

	rg.GET("/:id/notifications", h.Notifications)
}
