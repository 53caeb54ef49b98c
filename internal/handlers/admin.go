package handlers

import (
	"net/http"
	"os"

	"demand-scout/internal/worker"

	"github.com/gin-gonic/gin"
)

// AdminHandler handles operational admin requests
type AdminHandler struct {
	workerService *worker.Service
}

// NewAdminHandler creates a new admin handler
func NewAdminHandler(workerService *worker.Service) *AdminHandler {
	return &AdminHandler{workerService: workerService}
}

// AdminAuth middleware for basic password protection
func (h *AdminHandler) AdminAuth() gin.HandlerFunc {
	return gin.BasicAuth(gin.Accounts{
		"admin": getAdminPassword(),
	})
}

// getAdminPassword returns the admin password from environment or default
func getAdminPassword() string {
	password := os.Getenv("ADMIN_PASSWORD")
	if password == "" {
		password = "admin123" // Default password for development
	}
	return password
}

// TriggerIngest handles POST /admin/ingest/:channel. Runs one ingestion
// pass for the channel immediately, outside the schedule.
func (h *AdminHandler) TriggerIngest(c *gin.Context) {
	h.runIngest(c, false)
}

// TriggerBackfill handles POST /admin/backfill/:channel. Like TriggerIngest
// but does not advance the channel cursor, so older pages can be replayed.
func (h *AdminHandler) TriggerBackfill(c *gin.Context) {
	h.runIngest(c, true)
}

func (h *AdminHandler) runIngest(c *gin.Context, backfill bool) {
	channel := c.Param("channel")
	if channel == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "channel is required"})
		return
	}

	report, err := h.workerService.TriggerIngest(c.Request.Context(), channel, backfill)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Ingestion run failed",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{"report": report})
}
