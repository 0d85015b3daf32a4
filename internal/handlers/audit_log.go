package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/sonorastudio/backend/internal/services"
	"github.com/sonorastudio/backend/pkg/response"
	"gorm.io/gorm"
)

// AuditLogHandler exposes the audit trail to admins.
type AuditLogHandler struct {
	auditService *services.AuditLogService
}

func NewAuditLogHandler(db *gorm.DB) *AuditLogHandler {
	return &AuditLogHandler{
		auditService: services.NewAuditLogService(db),
	}
}

// List returns paginated audit entries
// GET /api/logs
func (h *AuditLogHandler) List(c *gin.Context) {
	var req services.AuditLogListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	resp, err := h.auditService.List(&req)
	if err != nil {
		response.ServerError(c, err.Error())
		return
	}

	response.Success(c, resp)
}

// GetModules returns the distinct modules present in the trail
// GET /api/logs/modules
func (h *AuditLogHandler) GetModules(c *gin.Context) {
	modules, err := h.auditService.GetModules()
	if err != nil {
		response.ServerError(c, err.Error())
		return
	}

	response.Success(c, modules)
}

type retentionRequest struct {
	Days int `json:"days" binding:"required,min=1"`
}

// GetRetention returns the audit retention window
// GET /api/logs/retention
func (h *AuditLogHandler) GetRetention(c *gin.Context) {
	response.Success(c, gin.H{"days": h.auditService.GetRetentionDays()})
}

// SetRetention updates the audit retention window
// PUT /api/logs/retention
func (h *AuditLogHandler) SetRetention(c *gin.Context) {
	var req retentionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	if err := h.auditService.SetRetentionDays(req.Days); err != nil {
		response.ServerError(c, err.Error())
		return
	}

	response.Success(c, gin.H{"days": req.Days})
}
