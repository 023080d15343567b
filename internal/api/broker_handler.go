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

// BrokerHandler serves published broker profiles from the golden record
type BrokerHandler struct {
	profileService services.ProfileService
}

// NewBrokerHandler creates a new broker handler
func NewBrokerHandler(profileService services.ProfileService) *BrokerHandler {
	return &BrokerHandler{
		profileService: profileService,
	}
}

// ListBrokers handles GET /api/v1/brokers with optional filters
func (h *BrokerHandler) ListBrokers(c *gin.Context) {
	filters := repository.ProfileFilters{
		Limit: 50,
	}

	if riskLevels := c.Query("risk_level"); riskLevels != "" {
		for _, level := range strings.Split(riskLevels, ",") {
			filters.RiskCategories = append(filters.RiskCategories, strings.ToUpper(strings.TrimSpace(level)))
		}
	}

	if minScore := c.Query("min_score"); minScore != "" {
		parsed, err := strconv.Atoi(minScore)
		if err != nil || parsed < 0 || parsed > 100 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "min_score must be an integer between 0 and 100"})
			return
		}
		filters.MinScore = &parsed
	}

	if state := c.Query("state"); state != "" {
		filters.HQState = strings.ToUpper(strings.TrimSpace(state))
	}

	if limit := c.Query("limit"); limit != "" {
		parsed, err := strconv.Atoi(limit)
		if err != nil || parsed < 1 || parsed > 500 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be an integer between 1 and 500"})
			return
		}
		filters.Limit = parsed
	}

	if offset := c.Query("offset"); offset != "" {
		parsed, err := strconv.Atoi(offset)
		if err != nil || parsed < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "offset must be a non-negative integer"})
			return
		}
		filters.Offset = parsed
	}

	profiles, err := h.profileService.ListProfiles(filters)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	if profiles == nil {
		profiles = []models.BrokerProfile{}
	}

	c.JSON(http.StatusOK, gin.H{
		"brokers":   profiles,
		"count":     len(profiles),
		"timestamp": time.Now(),
	})
}

// GetBroker handles GET /api/v1/brokers/:id
func (h *BrokerHandler) GetBroker(c *gin.Context) {
	profile, err := h.profileService.GetProfile(c.Param("id"))
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, profile)
}
