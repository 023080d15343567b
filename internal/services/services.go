package services

import (
	"context"

	"github.com/apexcapital/loadstar-pipeline/internal/database"
	"github.com/apexcapital/loadstar-pipeline/internal/models"
	"github.com/apexcapital/loadstar-pipeline/internal/repository"
	"github.com/apexcapital/loadstar-pipeline/pkg/config"
)

// Services contains all application services
type Services struct {
	Profile        ProfileService
	Materializer   MaterializerService
	Recommendation RecommendationService
	Auth           AuthService
}

// ProfileService defines the read side of the golden record
type ProfileService interface {
	GetProfile(brokerID string) (*models.BrokerProfile, error)
	ListProfiles(filters repository.ProfileFilters) ([]models.BrokerProfile, error)
	Staleness() (*StalenessInfo, error)
}

// MaterializerService defines the golden-record refresh
type MaterializerService interface {
	// Refresh recomputes every broker profile from current source contents
	// and atomically replaces the published table. On error nothing is
	// published and the prior snapshot stays live.
	Refresh(ctx context.Context) (*MaterializeStats, error)
}

// RecommendationService defines the pairwise recommendation engine
type RecommendationService interface {
	// Rebuild rescores every ACTIVE carrier x OPEN load pair and atomically
	// replaces the lookup table.
	Rebuild(ctx context.Context) (*RebuildStats, error)
	GetByCarrier(carrierID string, filters repository.RecommendationFilters) ([]models.Recommendation, error)
	GetPair(carrierID, loadID string) (*models.Recommendation, error)
	// ScorePair scores one pair against the live load and published profile,
	// using the exact formula the batch rebuild uses.
	ScorePair(carrierID, loadID string) (*PairScoreResult, error)
}

// AuthService defines the interface for authentication business logic
type AuthService interface {
	Login(email, password string) (*LoginResponse, error)
	Register(req *RegisterRequest) (*models.User, error)
	ValidateToken(token string) (*models.User, error)
	RefreshToken(token string) (*LoginResponse, error)
}

// NewServices creates a new Services instance with all dependencies
func NewServices(db *database.DB, cfg *config.Config) *Services {
	repos := repository.NewRepositories(db.DB)

	return &Services{
		Profile:        newProfileService(repos, cfg),
		Materializer:   newMaterializerService(repos, cfg),
		Recommendation: newRecommendationService(repos, cfg),
		Auth:           newAuthService(repos, cfg),
	}
}
