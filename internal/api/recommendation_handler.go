package api

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/apexcapital/loadstar-pipeline/internal/models"
	"github.com/apexcapital/loadstar-pipeline/internal/repository"
	"github.com/apexcapital/loadstar-pipeline/internal/services"
)

// RecommendationHandler serves precomputed carrier/load recommendations and
// on-demand pair scores
type RecommendationHandler struct {
	recommendationService services.RecommendationService
}

// NewRecommendationHandler creates a new recommendation handler
func NewRecommendationHandler(recommendationService services.RecommendationService) *RecommendationHandler {
	return &RecommendationHandler{
		recommendationService: recommendationService,
	}
}

// ListRecommendations handles GET /api/v1/recommendations?carrier_id=...
func (h *RecommendationHandler) ListRecommendations(c *gin.Context) {
	carrierID := c.Query("carrier_id")
	if carrierID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "carrier_id query parameter is required"})
		return
	}

	filters := repository.RecommendationFilters{
		Limit: 100,
	}

	if minScore := c.Query("min_score"); minScore != "" {
		parsed, err := strconv.ParseFloat(minScore, 64)
		if err != nil || parsed < 0 || parsed > 1 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "min_score must be a number between 0 and 1"})
			return
		}
		filters.MinScore = &parsed
	}

	if category := c.Query("category"); category != "" {
		filters.Category = strings.ToUpper(strings.TrimSpace(category))
	}

	if limit := c.Query("limit"); limit != "" {
		parsed, err := strconv.Atoi(limit)
		if err != nil || parsed < 1 || parsed > 500 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be an integer between 1 and 500"})
			return
		}
		filters.Limit = parsed
	}

	recommendations, err := h.recommendationService.GetByCarrier(carrierID, filters)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	if recommendations == nil {
		recommendations = []models.Recommendation{}
	}

	c.JSON(http.StatusOK, gin.H{
		"carrier_id":      carrierID,
		"recommendations": recommendations,
		"count":           len(recommendations),
		"timestamp":       time.Now(),
	})
}

// GetRecommendation handles GET /api/v1/recommendations/:carrier_id/:load_id
func (h *RecommendationHandler) GetRecommendation(c *gin.Context) {
	recommendation, err := h.recommendationService.GetPair(c.Param("carrier_id"), c.Param("load_id"))
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, recommendation)
}

// ScorePair handles GET /api/v1/score?carrier_id=...&load_id=... and scores
// the pair against the live load and the published broker profile.
func (h *RecommendationHandler) ScorePair(c *gin.Context) {
	carrierID := c.Query("carrier_id")
	loadID := c.Query("load_id")
	if carrierID == "" || loadID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "carrier_id and load_id query parameters are required"})
		return
	}

	result, err := h.recommendationService.ScorePair(carrierID, loadID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}
