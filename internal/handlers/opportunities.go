package handlers

import (
	"net/http"
	"strconv"

	"demand-scout/internal/models"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// OpportunityHandler handles HTTP requests for discovered opportunities
type OpportunityHandler struct {
	db *gorm.DB
}

// NewOpportunityHandler creates a new opportunity handler
func NewOpportunityHandler(db *gorm.DB) *OpportunityHandler {
	return &OpportunityHandler{db: db}
}

// ListOpportunities handles GET /api/opportunities
func (h *OpportunityHandler) ListOpportunities(c *gin.Context) {
	limit, page := pagination(c)
	offset := (page - 1) * limit

	query := h.db.Model(&models.Opportunity{})

	if niche := c.Query("niche"); niche != "" {
		query = query.Where("niche = ?", niche)
	}
	if viable := c.Query("viable"); viable != "" {
		v, err := strconv.ParseBool(viable)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "viable must be true or false"})
			return
		}
		query = query.Where("viable = ?", v)
	}
	if minScore := c.Query("min_score"); minScore != "" {
		s, err := strconv.ParseFloat(minScore, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "min_score must be a number"})
			return
		}
		query = query.Where("overall_score >= ?", s)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Failed to count opportunities",
			"details": err.Error(),
		})
		return
	}

	var opportunities []models.Opportunity
	err := query.
		Order("overall_score DESC, source_count DESC").
		Limit(limit).
		Offset(offset).
		Find(&opportunities).Error
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Failed to retrieve opportunities",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"opportunities": opportunities,
		"total":         total,
		"page":          page,
		"limit":         limit,
	})
}

// GetOpportunity handles GET /api/opportunities/:id
func (h *OpportunityHandler) GetOpportunity(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid opportunity ID format"})
		return
	}

	var opportunity models.Opportunity
	err = h.db.Preload("Sources").First(&opportunity, "id = ?", id).Error
	if err == gorm.ErrRecordNotFound {
		c.JSON(http.StatusNotFound, gin.H{"error": "Opportunity not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Failed to retrieve opportunity",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, opportunity)
}

// pagination parses the shared limit/page query parameters
func pagination(c *gin.Context) (limit, page int) {
	limit, _ = strconv.Atoi(c.DefaultQuery("limit", "20"))
	page, _ = strconv.Atoi(c.DefaultQuery("page", "1"))

	if limit > 100 {
		limit = 100
	}
	if limit < 1 {
		limit = 20
	}
	if page < 1 {
		page = 1
	}
	return limit, page
}
