package handlers

import (
	"net/http"

	"demand-scout/internal/models"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// ClusterHandler handles HTTP requests for demand clusters
type ClusterHandler struct {
	db *gorm.DB
}

// NewClusterHandler creates a new cluster handler
func NewClusterHandler(db *gorm.DB) *ClusterHandler {
	return &ClusterHandler{db: db}
}

type clusterSummary struct {
	ID                   string   `json:"id"`
	Category             string   `json:"category"`
	Signal               string   `json:"signal"`
	OccurrenceCount      int      `json:"occurrence_count"`
	Channels             []string `json:"channels"`
	LinkedOpportunityIDs []string `json:"linked_opportunity_ids"`
	LastSeenAt           string   `json:"last_seen_at"`
}

// ListClusters handles GET /api/clusters. Embeddings are omitted from the
// response; they are an internal matching detail.
func (h *ClusterHandler) ListClusters(c *gin.Context) {
	limit, page := pagination(c)
	offset := (page - 1) * limit

	query := h.db.Model(&models.DemandCluster{})
	if category := c.Query("category"); category != "" {
		query = query.Where("category = ?", category)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Failed to count clusters",
			"details": err.Error(),
		})
		return
	}

	var clusters []models.DemandCluster
	err := query.
		Order("occurrence_count DESC, last_seen_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&clusters).Error
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Failed to retrieve clusters",
			"details": err.Error(),
		})
		return
	}

	summaries := make([]clusterSummary, 0, len(clusters))
	for _, cluster := range clusters {
		summaries = append(summaries, clusterSummary{
			ID:                   cluster.ID.String(),
			Category:             cluster.Category,
			Signal:               cluster.Signal,
			OccurrenceCount:      cluster.OccurrenceCount,
			Channels:             cluster.Channels,
			LinkedOpportunityIDs: cluster.LinkedOpportunityIDs,
			LastSeenAt:           cluster.LastSeenAt.UTC().Format("2006-01-02T15:04:05Z"),
		})
	}

	c.JSON(http.StatusOK, gin.H{
		"clusters": summaries,
		"total":    total,
		"page":     page,
		"limit":    limit,
	})
}
