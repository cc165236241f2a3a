package handlers

import (
	"github.com/gin-gonic/gin"

	"supplytrack/internal/domain/alerts"
)

// AlertHandler handles HTTP requests for reorder alerts.
type AlertHandler struct {
	*BaseHandler
	service *alerts.Service
}

// NewAlertHandler creates a new alert handler.
func NewAlertHandler(base *BaseHandler, service *alerts.Service) *AlertHandler {
	return &AlertHandler{BaseHandler: base, service: service}
}

// Check handles POST /alerts/check (run the sweep now)
func (h *AlertHandler) Check(c *gin.Context) {
	logs, err := h.service.CheckAll(c.Request.Context())
	if err != nil {
		h.Error(c, err)
		return
	}

	fired := 0
	for _, l := range logs {
		if l.AlertFired {
			fired++
		}
	}
	h.OK(c, gin.H{
		"checked": len(logs),
		"fired":   fired,
		"items":   logs,
	})
}

// Recent handles GET /alerts/checks
func (h *AlertHandler) Recent(c *gin.Context) {
	limit := h.ParseIntQuery(c, "limit", 50)
	onlyFired := c.Query("onlyFired") == "true"

	logs, err := h.service.RecentChecks(c.Request.Context(), limit, onlyFired)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, gin.H{"items": logs})
}

// EvaluateProduct handles GET /alerts/evaluate/:productId
func (h *AlertHandler) EvaluateProduct(c *gin.Context) {
	productID, ok := h.ParseID(c, "productId")
	if !ok {
		return
	}

	fired, err := h.service.EvaluateProduct(c.Request.Context(), productID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, gin.H{
		"productId":  productID.String(),
		"alertFired": fired,
	})
}

// RegisterRoutes registers alert routes.
func (h *AlertHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/check", h.Check)
	rg.GET("/checks", h.Recent)
	rg.GET("/evaluate/:productId", h.EvaluateProduct)
}
