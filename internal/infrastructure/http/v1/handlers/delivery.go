package handlers

import (
	"github.com/gin-gonic/gin"

	"supplytrack/internal/domain/delivery"
	"supplytrack/internal/domain/fulfillment"
	"supplytrack/internal/infrastructure/http/v1/dto"
)

// DeliveryHandler handles HTTP requests for deliveries.
type DeliveryHandler struct {
	*BaseHandler
	service *fulfillment.Service
}

// NewDeliveryHandler creates a new delivery handler.
func NewDeliveryHandler(base *BaseHandler, service *fulfillment.Service) *DeliveryHandler {
	return &DeliveryHandler{BaseHandler: base, service: service}
}

// List handles GET /deliveries
func (h *DeliveryHandler) List(c *gin.Context) {
	var query dto.ListQuery
	if !h.BindQuery(c, &query) {
		return
	}

	filter := delivery.ListFilter{ListFilter: query.ToFilter()}
	if s := c.Query("status"); s != "" {
		status := delivery.Status(s)
		filter.Status = &status
	}
	if s := c.Query("archived"); s != "" {
		archived := s == "true"
		filter.Archived = &archived
	}

	result, err := h.service.ListDeliveries(c.Request.Context(), filter)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, result)
}

// Get handles GET /deliveries/:id
func (h *DeliveryHandler) Get(c *gin.Context) {
	deliveryID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	d, err := h.service.GetDelivery(c.Request.Context(), deliveryID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, d)
}

// GetByOrder handles GET /deliveries/by-order/:orderId
func (h *DeliveryHandler) GetByOrder(c *gin.Context) {
	orderID, ok := h.ParseID(c, "orderId")
	if !ok {
		return
	}

	d, err := h.service.GetDeliveryByOrder(c.Request.Context(), orderID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, d)
}

// UpdateStatus handles PATCH /deliveries/:id/status
func (h *DeliveryHandler) UpdateStatus(c *gin.Context) {
	deliveryID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	var req dto.UpdateDeliveryStatusRequest
	if !h.BindJSON(c, &req) {
		return
	}

	d, err := h.service.UpdateDeliveryStatus(c.Request.Context(), deliveryID, delivery.Status(req.Status))
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, d)
}

// Complete handles POST /deliveries/:id/complete
func (h *DeliveryHandler) Complete(c *gin.Context) {
	deliveryID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	var req dto.CompleteDeliveryRequest
	if !h.BindJSON(c, &req) {
		return
	}

	d, err := h.service.CompleteDelivery(c.Request.Context(), deliveryID,
		req.ProofOfDeliveryImage, req.DeliveryNote)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, d)
}

// Fail handles POST /deliveries/:id/fail
func (h *DeliveryHandler) Fail(c *gin.Context) {
	deliveryID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	var req dto.FailDeliveryRequest
	if !h.BindJSON(c, &req) {
		return
	}

	d, err := h.service.FailDelivery(c.Request.Context(), deliveryID, req.DeliveryNote)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, d)
}

// RegisterRoutes registers delivery routes.
func (h *DeliveryHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("", h.List)
	rg.GET("/:id", h.Get)
	rg.GET("/by-order/:orderId", h.GetByOrder)
	rg.PATCH("/:id/status", h.UpdateStatus)
	rg.POST("/:id/complete", h.Complete)
	rg.POST("/:id/fail", h.Fail)
}
