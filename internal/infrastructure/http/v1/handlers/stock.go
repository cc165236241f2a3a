package handlers

import (
	"time"

	"github.com/gin-gonic/gin"

	"supplytrack/internal/core/id"
	"supplytrack/internal/domain/stockledger"
)

// StockHandler handles HTTP requests for the stock movement ledger.
type StockHandler struct {
	*BaseHandler
	ledger *stockledger.Service
}

// NewStockHandler creates a new stock ledger handler.
func NewStockHandler(base *BaseHandler, ledger *stockledger.Service) *StockHandler {
	return &StockHandler{BaseHandler: base, ledger: ledger}
}

// GetMovements handles GET /stock/movements
func (h *StockHandler) GetMovements(c *gin.Context) {
	filter := stockledger.MovementFilter{
		Reference: c.Query("reference"),
		Limit:     h.ParseIntQuery(c, "limit", 100),
		Offset:    h.ParseIntQuery(c, "offset", 0),
	}

	if s := c.Query("productId"); s != "" {
		productID, err := id.Parse(s)
		if err == nil {
			filter.ProductID = &productID
		}
	}
	if s := c.Query("type"); s != "" {
		movementType := stockledger.MovementType(s)
		filter.Type = &movementType
	}
	if s := c.Query("fromDate"); s != "" {
		if parsed, err := time.Parse(time.RFC3339, s); err == nil {
			filter.FromDate = &parsed
		}
	}
	if s := c.Query("toDate"); s != "" {
		if parsed, err := time.Parse(time.RFC3339, s); err == nil {
			filter.ToDate = &parsed
		}
	}

	result, err := h.ledger.Movements(c.Request.Context(), filter)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, result)
}

// GetAvailability handles GET /stock/availability/:productId
func (h *StockHandler) GetAvailability(c *gin.Context) {
	productID, ok := h.ParseID(c, "productId")
	if !ok {
		return
	}

	quantity := h.ParseIntQuery(c, "quantity", 1)
	available, onHand, err := h.ledger.CheckAvailability(c.Request.Context(), productID, quantity)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, gin.H{
		"productId": productID.String(),
		"requested": quantity,
		"available": available,
		"onHand":    onHand,
	})
}

// RegisterRoutes registers stock ledger routes.
func (h *StockHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/movements", h.GetMovements)
	rg.GET("/availability/:productId", h.GetAvailability)
}
