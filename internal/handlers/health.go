package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/sonorastudio/backend/internal/models"
	"github.com/sonorastudio/backend/internal/services"
)

// HealthHandler reports subsystem health for the load balancer and ops.
type HealthHandler struct{}

func NewHealthHandler() *HealthHandler {
	return &HealthHandler{}
}

// CheckHealth returns the health status of all subsystems.
func (h *HealthHandler) CheckHealth(c *gin.Context) {
	overall := "healthy"

	// Database check
	dbStatus := "ok"
	sqlDB, err := models.GetDB().DB()
	if err != nil {
		dbStatus = "error: " + err.Error()
		overall = "unhealthy"
	} else if err := sqlDB.Ping(); err != nil {
		dbStatus = "error: " + err.Error()
		overall = "unhealthy"
	}

	// Notification queue mode
	queue := services.GetNotifyQueue()
	queueMode := "sync"
	if queue != nil && queue.IsAsync() {
		queueMode = "async (Redis)"
	}

	// Projects currently waiting on client action
	var openCount int64
	models.GetDB().Model(&models.Project{}).
		Where("status IN ?", []string{models.StatusWaiting, models.StatusFeedback}).
		Count(&openCount)

	c.JSON(200, gin.H{
		"status":  overall,
		"service": "sonora",
		"components": gin.H{
			"database":      dbStatus,
			"queue_mode":    queueMode,
			"open_projects": openCount,
		},
	})
}
