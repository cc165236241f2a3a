package handlers

import (
	"github.com/gin-gonic/gin"

	"supplytrack/internal/domain/catalogs/product"
	"supplytrack/internal/domain/fulfillment"
	"supplytrack/internal/domain/orders"
	"supplytrack/internal/infrastructure/http/v1/dto"
)

// ManualOrderHandler handles HTTP requests for staff-captured orders.
type ManualOrderHandler struct {
	*BaseHandler
	service  *fulfillment.Service
	products *product.Service
}

// NewManualOrderHandler creates a new manual order handler.
func NewManualOrderHandler(base *BaseHandler, service *fulfillment.Service, products *product.Service) *ManualOrderHandler {
	return &ManualOrderHandler{BaseHandler: base, service: service, products: products}
}

// List handles GET /manual-orders
func (h *ManualOrderHandler) List(c *gin.Context) {
	var query dto.ListQuery
	if !h.BindQuery(c, &query) {
		return
	}

	filter := orders.ListFilter{ListFilter: query.ToFilter()}
	if s := c.Query("status"); s != "" {
		status := orders.Status(s)
		filter.Status = &status
	}
	if s := c.Query("paymentStatus"); s != "" {
		payment := orders.PaymentStatus(s)
		filter.PaymentStatus = &payment
	}

	result, err := h.service.ListManualOrders(c.Request.Context(), filter)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, result)
}

// Create handles POST /manual-orders
func (h *ManualOrderHandler) Create(c *gin.Context) {
	var req dto.CreateManualOrderRequest
	if !h.BindJSON(c, &req) {
		return
	}

	m := req.ToEntity()
	for _, item := range req.Items {
		productID, err := item.ParseProductID()
		if err != nil {
			h.Error(c, err)
			return
		}

		price := item.PriceAtOrder
		if price == nil {
			p, err := h.products.GetByID(c.Request.Context(), productID)
			if err != nil {
				h.Error(c, err)
				return
			}
			price = &p.Price
		}
		m.AddItem(productID, item.Quantity, *price)
	}

	if err := h.service.CreateManualOrder(c.Request.Context(), m); err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, m)
}

// Get handles GET /manual-orders/:id
func (h *ManualOrderHandler) Get(c *gin.Context) {
	orderID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	m, err := h.service.GetManualOrder(c.Request.Context(), orderID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, m)
}

// TransitionStatus handles PATCH /manual-orders/:id/status
func (h *ManualOrderHandler) TransitionStatus(c *gin.Context) {
	orderID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	var req dto.TransitionOrderStatusRequest
	if !h.BindJSON(c, &req) {
		return
	}

	m, err := h.service.TransitionManualOrderStatus(c.Request.Context(), orderID, orders.Status(req.Status))
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, m)
}

// Delete handles DELETE /manual-orders/:id
func (h *ManualOrderHandler) Delete(c *gin.Context) {
	orderID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	if err := h.service.DeleteManualOrder(c.Request.Context(), orderID); err != nil {
		h.Error(c, err)
		return
	}
	h.NoContent(c)
}

// RegisterRoutes registers manual order routes.
func (h *ManualOrderHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("", h.List)
	rg.POST("", h.Create)
	rg.GET("/:id", h.Get)
	rg.PATCH("/:id/status", h.TransitionStatus)
	rg.DELETE("/:id", h.Delete)
}
