package handlers

import (
	"net/http"

	"demand-scout/internal/models"
	"demand-scout/internal/worker"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// StatusHandler handles health and pipeline status requests
type StatusHandler struct {
	db            *gorm.DB
	workerService *worker.Service
}

// NewStatusHandler creates a new status handler
func NewStatusHandler(db *gorm.DB, workerService *worker.Service) *StatusHandler {
	return &StatusHandler{
		db:            db,
		workerService: workerService,
	}
}

// HealthCheck handles GET /health
func (h *StatusHandler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": "demand-scout",
	})
}

// WorkerStatus handles GET /api/worker/status
func (h *StatusHandler) WorkerStatus(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"worker_status": h.workerService.Status(),
	})
}

// PipelineStats handles GET /api/stats
func (h *StatusHandler) PipelineStats(c *gin.Context) {
	var itemCount, pendingCount, failedCount int64
	var opportunityCount, viableCount, clusterCount int64

	h.db.Model(&models.SourceItem{}).Count(&itemCount)
	h.db.Model(&models.SourceItem{}).Where("processed_at IS NULL").Count(&pendingCount)
	h.db.Model(&models.SourceItem{}).Where("status = ?", models.StatusFailed).Count(&failedCount)
	h.db.Model(&models.Opportunity{}).Count(&opportunityCount)
	h.db.Model(&models.Opportunity{}).Where("viable = ?", true).Count(&viableCount)
	h.db.Model(&models.DemandCluster{}).Count(&clusterCount)

	var cursors []models.Cursor
	h.db.Order("channel ASC").Find(&cursors)

	c.JSON(http.StatusOK, gin.H{
		"items": gin.H{
			"total":   itemCount,
			"pending": pendingCount,
			"failed":  failedCount,
		},
		"opportunities": gin.H{
			"total":  opportunityCount,
			"viable": viableCount,
		},
		"clusters": clusterCount,
		"cursors":  cursors,
	})
}
