package api

import (
	stderrors "errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/apexcapital/loadstar-pipeline/internal/auth"
	"github.com/apexcapital/loadstar-pipeline/internal/database"
	"github.com/apexcapital/loadstar-pipeline/internal/errors"
	"github.com/apexcapital/loadstar-pipeline/internal/services"
	"github.com/apexcapital/loadstar-pipeline/pkg/config"
)

// SetupRoutes configures all API routes
func SetupRoutes(r *gin.Engine, db *database.DB, cfg *config.Config) error {
	if db == nil || cfg == nil {
		return fmt.Errorf("database and config are required to set up routes")
	}

	// Create centralized services
	svcs := services.NewServices(db, cfg)

	// Create handlers with proper service injection
	authHandler := NewAuthHandler(svcs.Auth)
	brokerHandler := NewBrokerHandler(svcs.Profile)
	recommendationHandler := NewRecommendationHandler(svcs.Recommendation)
	pipelineHandler := NewPipelineHandler(db, cfg)
	healthHandler := NewHealthHandler(db, svcs.Profile)

	// Health endpoint stays outside the auth wall for load balancer probes
	r.GET("/health", healthHandler.GetHealth)

	// Public routes
	public := r.Group("/api/v1")
	{
		public.POST("/auth/login", authHandler.Login)
		public.POST("/auth/register", authHandler.Register)
		public.POST("/auth/refresh", authHandler.RefreshToken)
		public.POST("/auth/logout", authHandler.Logout)
	}

	// Protected routes
	protected := r.Group("/api/v1")
	protected.Use(auth.JWTMiddleware(cfg.JWTSecret))
	protected.Use(auth.CSRFMiddleware())
	{
		// Golden record endpoints
		protected.GET("/brokers", brokerHandler.ListBrokers)
		protected.GET("/brokers/:id", brokerHandler.GetBroker)

		// Recommendation endpoints
		protected.GET("/recommendations", recommendationHandler.ListRecommendations)
		protected.GET("/recommendations/:carrier_id/:load_id", recommendationHandler.GetRecommendation)
		protected.GET("/score", recommendationHandler.ScorePair)

		// Refresh pipeline endpoints
		protected.GET("/pipeline/status", pipelineHandler.GetPipelineStatus)
		protected.POST("/pipeline/start", pipelineHandler.StartPipeline)
		protected.POST("/pipeline/stop", pipelineHandler.StopPipeline)
		protected.POST("/pipeline/refresh", pipelineHandler.RunRefresh)
	}

	return nil
}

// respondServiceError maps a service error onto an HTTP status using its
// application error code. Unknown errors become 500s.
func respondServiceError(c *gin.Context, err error) {
	var appErr *errors.AppError
	if !stderrors.As(err, &appErr) {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	switch appErr.Code {
	case errors.ErrCodeInvalidInput, errors.ErrCodeValidationError, errors.ErrCodeMalformedInput:
		c.JSON(http.StatusBadRequest, gin.H{"error": appErr.Message, "code": appErr.Code})
	case errors.ErrCodeNotFound:
		c.JSON(http.StatusNotFound, gin.H{"error": appErr.Message, "code": appErr.Code})
	case errors.ErrCodeUnresolvedReference:
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": appErr.Message, "code": appErr.Code})
	case errors.ErrCodeSourceUnavailable:
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": appErr.Message, "code": appErr.Code, "stage": appErr.Stage})
	case errors.ErrCodeUnauthorized:
		c.JSON(http.StatusUnauthorized, gin.H{"error": appErr.Message, "code": appErr.Code})
	case errors.ErrCodeForbidden:
		c.JSON(http.StatusForbidden, gin.H{"error": appErr.Message, "code": appErr.Code})
	case errors.ErrCodeConflict:
		c.JSON(http.StatusConflict, gin.H{"error": appErr.Message, "code": appErr.Code})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": appErr.Message, "code": appErr.Code})
	}
}
