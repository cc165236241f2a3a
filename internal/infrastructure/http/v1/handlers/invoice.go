package handlers

import (
	"github.com/gin-gonic/gin"

	"supplytrack/internal/domain/invoices"
	"supplytrack/internal/infrastructure/http/v1/dto"
)

// InvoiceHandler handles HTTP requests for invoices.
type InvoiceHandler struct {
	*BaseHandler
	service *invoices.Service
}

// NewInvoiceHandler creates a new invoice handler.
func NewInvoiceHandler(base *BaseHandler, service *invoices.Service) *InvoiceHandler {
	return &InvoiceHandler{BaseHandler: base, service: service}
}

// List handles GET /invoices
func (h *InvoiceHandler) List(c *gin.Context) {
	var query dto.ListQuery
	if !h.BindQuery(c, &query) {
		return
	}

	filter := invoices.ListFilter{ListFilter: query.ToFilter()}
	if s := c.Query("status"); s != "" {
		status := invoices.Status(s)
		filter.Status = &status
	}

	result, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, result)
}

// CreateForOrder handles POST /invoices/from-order/:orderId
func (h *InvoiceHandler) CreateForOrder(c *gin.Context) {
	orderID, ok := h.ParseID(c, "orderId")
	if !ok {
		return
	}

	inv, err := h.service.CreateForOrder(c.Request.Context(), orderID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, inv)
}

// CreateForManualOrder handles POST /invoices/from-manual-order/:orderId
func (h *InvoiceHandler) CreateForManualOrder(c *gin.Context) {
	orderID, ok := h.ParseID(c, "orderId")
	if !ok {
		return
	}

	inv, err := h.service.CreateForManualOrder(c.Request.Context(), orderID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, inv)
}

// Get handles GET /invoices/:id
func (h *InvoiceHandler) Get(c *gin.Context) {
	invoiceID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	inv, err := h.service.Get(c.Request.Context(), invoiceID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, inv)
}

// Issue handles POST /invoices/:id/issue
func (h *InvoiceHandler) Issue(c *gin.Context) {
	invoiceID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	inv, err := h.service.Issue(c.Request.Context(), invoiceID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, inv)
}

// MarkPaid handles POST /invoices/:id/pay
func (h *InvoiceHandler) MarkPaid(c *gin.Context) {
	invoiceID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	inv, err := h.service.MarkPaid(c.Request.Context(), invoiceID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, inv)
}

// Cancel handles POST /invoices/:id/cancel
func (h *InvoiceHandler) Cancel(c *gin.Context) {
	invoiceID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	inv, err := h.service.Cancel(c.Request.Context(), invoiceID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, inv)
}

// RegisterRoutes registers invoice routes.
func (h *InvoiceHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("", h.List)
	rg.POST("/from-order/:orderId", h.CreateForOrder)
	rg.POST("/from-manual-order/:orderId", h.CreateForManualOrder)
	rg.GET("/:id", h.Get)
	rg.POST("/:id/issue", h.Issue)
	rg.POST("/:id/pay", h.MarkPaid)
	rg.POST("/:id/cancel", h.Cancel)
}
