package handlers

import (
	"github.com/gin-gonic/gin"

	"supplytrack/internal/domain/audit"
)

// AuditHandler handles HTTP requests for the audit trail.
type AuditHandler struct {
	*BaseHandler
	service *audit.Service
}

// NewAuditHandler creates a new audit handler.
func NewAuditHandler(base *BaseHandler, service *audit.Service) *AuditHandler {
	return &AuditHandler{BaseHandler: base, service: service}
}

// History handles GET /audit/:entityType/:entityId
func (h *AuditHandler) History(c *gin.Context) {
	entityType := c.Param("entityType")
	entityID := c.Param("entityId")
	limit := h.ParseIntQuery(c, "limit", 100)

	entries, err := h.service.History(c.Request.Context(), entityType, entityID, limit)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, gin.H{"items": entries})
}

// RegisterRoutes registers audit trail routes.
func (h *AuditHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/:entityType/:entityId", h.History)
}
