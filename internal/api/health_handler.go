package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/apexcapital/loadstar-pipeline/internal/database"
	"github.com/apexcapital/loadstar-pipeline/internal/services"
)

// healthDB is the database surface the health check needs. The concrete
// implementation is database.DB.
type healthDB interface {
	HealthCheck() error
	GetStats() database.Stats
}

// HealthHandler reports database reachability and golden-record freshness
type HealthHandler struct {
	db             healthDB
	profileService services.ProfileService
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(db *database.DB, profileService services.ProfileService) *HealthHandler {
	return &HealthHandler{
		db:             db,
		profileService: profileService,
	}
}

// GetHealth returns overall system health status. A stale snapshot is
// reported but does not fail the check; an unreachable database does.
func (h *HealthHandler) GetHealth(c *gin.Context) {
	response := gin.H{
		"healthy":   true,
		"timestamp": time.Now(),
	}

	if err := h.db.HealthCheck(); err != nil {
		response["healthy"] = false
		response["error"] = "database unreachable: " + err.Error()
		c.JSON(http.StatusServiceUnavailable, response)
		return
	}

	response["database"] = gin.H{
		"status": "up",
		"pool":   h.db.GetStats(),
	}

	staleness, err := h.profileService.Staleness()
	if err != nil {
		response["healthy"] = false
		response["error"] = "failed to read snapshot age: " + err.Error()
		c.JSON(http.StatusServiceUnavailable, response)
		return
	}
	response["snapshot"] = staleness

	c.JSON(http.StatusOK, response)
}
