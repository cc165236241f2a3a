package handlers

import (
	"github.com/gin-gonic/gin"

	"supplytrack/internal/core/id"
	"supplytrack/internal/core/types"
	"supplytrack/internal/domain/catalogs/product"
	"supplytrack/internal/domain/fulfillment"
	"supplytrack/internal/domain/orders"
	"supplytrack/internal/infrastructure/http/v1/dto"
)

// OrderHandler handles HTTP requests for customer orders.
type OrderHandler struct {
	*BaseHandler
	service  *fulfillment.Service
	products *product.Service
}

// NewOrderHandler creates a new order handler.
func NewOrderHandler(base *BaseHandler, service *fulfillment.Service, products *product.Service) *OrderHandler {
	return &OrderHandler{BaseHandler: base, service: service, products: products}
}

// freezeLinePrice resolves the price to lock into an order line: the
// requested override if present, the current catalog price otherwise.
func (h *OrderHandler) freezeLinePrice(c *gin.Context, productID id.ID, override *types.Money) (types.Money, bool) {
	if override != nil {
		return *override, true
	}
	p, err := h.products.GetByID(c.Request.Context(), productID)
	if err != nil {
		h.Error(c, err)
		return types.Zero(), false
	}
	return p.Price, true
}

// List handles GET /orders
func (h *OrderHandler) List(c *gin.Context) {
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
	if s := c.Query("customerId"); s != "" {
		customerID, err := id.Parse(s)
		if err == nil {
			filter.CustomerID = &customerID
		}
	}

	result, err := h.service.ListOrders(c.Request.Context(), filter)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, result)
}

// Create handles POST /orders
func (h *OrderHandler) Create(c *gin.Context) {
	var req dto.CreateOrderRequest
	if !h.BindJSON(c, &req) {
		return
	}

	o, err := req.ToEntity()
	if err != nil {
		h.Error(c, err)
		return
	}

	for _, item := range req.Items {
		productID, err := item.ParseProductID()
		if err != nil {
			h.Error(c, err)
			return
		}
		price, ok := h.freezeLinePrice(c, productID, item.PriceAtOrder)
		if !ok {
			return
		}
		o.AddItem(productID, item.Quantity, price)
	}

	if err := h.service.CreateOrder(c.Request.Context(), o); err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, o)
}

// Get handles GET /orders/:id
func (h *OrderHandler) Get(c *gin.Context) {
	orderID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	o, err := h.service.GetOrder(c.Request.Context(), orderID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, o)
}

// TransitionStatus handles PATCH /orders/:id/status
func (h *OrderHandler) TransitionStatus(c *gin.Context) {
	orderID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	var req dto.TransitionOrderStatusRequest
	if !h.BindJSON(c, &req) {
		return
	}

	o, err := h.service.TransitionOrderStatus(c.Request.Context(), orderID, orders.Status(req.Status))
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, o)
}

// Delete handles DELETE /orders/:id
func (h *OrderHandler) Delete(c *gin.Context) {
	orderID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	if err := h.service.DeleteOrder(c.Request.Context(), orderID); err != nil {
		h.Error(c, err)
		return
	}
	h.NoContent(c)
}

// RegisterRoutes registers customer order routes.
func (h *OrderHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("", h.List)
	rg.POST("", h.Create)
	rg.GET("/:id", h.Get)
	rg.PATCH("/:id/status", h.TransitionStatus)
	rg.DELETE("/:id", h.Delete)
}
