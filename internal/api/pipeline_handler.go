package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/apexcapital/loadstar-pipeline/internal/auth"
	"github.com/apexcapital/loadstar-pipeline/internal/database"
	"github.com/apexcapital/loadstar-pipeline/internal/pipeline"
	"github.com/apexcapital/loadstar-pipeline/pkg/config"
)

// refreshRunner is the pipeline surface the handler needs. The concrete
// implementation is pipeline.RefreshPipeline.
type refreshRunner interface {
	Start() error
	Stop() error
	RunOnce(ctx context.Context) (*pipeline.CycleStats, error)
	GetStatus() (*pipeline.PipelineStatus, error)
}

// PipelineHandler handles refresh pipeline management operations
type PipelineHandler struct {
	pipeline refreshRunner
}

// NewPipelineHandler creates a new pipeline handler
func NewPipelineHandler(db *database.DB, cfg *config.Config) *PipelineHandler {
	return &PipelineHandler{
		pipeline: pipeline.New(db, cfg),
	}
}

// GetPipelineStatus returns the current status of the refresh pipeline
// (Admin only)
func (h *PipelineHandler) GetPipelineStatus(c *gin.Context) {
	// Check admin role
	role, exists := c.Get(auth.UserRoleKey)
	if !exists || role != "admin" {
		c.JSON(http.StatusForbidden, gin.H{"error": "Admin access required"})
		return
	}

	status, err := h.pipeline.GetStatus()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get pipeline status: " + err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"pipeline_status": status,
		"timestamp":       time.Now(),
	})
}

// StartPipeline starts the periodic refresh pipeline (Admin only)
func (h *PipelineHandler) StartPipeline(c *gin.Context) {
	// Check admin role
	role, exists := c.Get(auth.UserRoleKey)
	if !exists || role != "admin" {
		c.JSON(http.StatusForbidden, gin.H{"error": "Admin access required"})
		return
	}

	if err := h.pipeline.Start(); err != nil {
		c.JSON(http.StatusConflict, gin.H{"error": "Failed to start pipeline: " + err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":   "Refresh pipeline started successfully",
		"timestamp": time.Now(),
	})
}

// StopPipeline stops the periodic refresh pipeline (Admin only)
func (h *PipelineHandler) StopPipeline(c *gin.Context) {
	// Check admin role
	role, exists := c.Get(auth.UserRoleKey)
	if !exists || role != "admin" {
		c.JSON(http.StatusForbidden, gin.H{"error": "Admin access required"})
		return
	}

	if err := h.pipeline.Stop(); err != nil {
		c.JSON(http.StatusConflict, gin.H{"error": "Failed to stop pipeline: " + err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":   "Refresh pipeline stopped successfully",
		"timestamp": time.Now(),
	})
}

// RunRefresh executes a single refresh cycle synchronously (Admin only)
func (h *PipelineHandler) RunRefresh(c *gin.Context) {
	// Check admin role
	role, exists := c.Get(auth.UserRoleKey)
	if !exists || role != "admin" {
		c.JSON(http.StatusForbidden, gin.H{"error": "Admin access required"})
		return
	}

	stats, err := h.pipeline.RunOnce(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Refresh cycle failed: " + err.Error(),
			"stats": stats,
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":   "Refresh cycle completed successfully",
		"summary":   stats.Summary(),
		"stats":     stats,
		"timestamp": time.Now(),
	})
}
