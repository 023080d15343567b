package services

import (
	"time"

	"github.com/google/uuid"

	"github.com/apexcapital/loadstar-pipeline/internal/errors"
	"github.com/apexcapital/loadstar-pipeline/internal/models"
	"github.com/apexcapital/loadstar-pipeline/internal/repository"
	"github.com/apexcapital/loadstar-pipeline/pkg/config"
)

// Snapshot staleness labels reported by the health and status endpoints
const (
	SnapshotFresh = "FRESH"
	SnapshotStale = "STALE"
)

// StalenessInfo describes the age of the published golden record.
// LastRefreshed is nil before the first successful refresh, which counts
// as stale.
type StalenessInfo struct {
	Status        string     `json:"status"`
	LastRefreshed *time.Time `json:"last_refreshed"`
	AgeSeconds    float64    `json:"age_seconds"`
	BoundSeconds  float64    `json:"bound_seconds"`
	ProfileCount  int        `json:"profile_count"`
}

// profileServiceImpl implements ProfileService
type profileServiceImpl struct {
	repos *repository.Repositories
	cfg   *config.Config
}

// newProfileService creates a new profile service implementation
func newProfileService(repos *repository.Repositories, cfg *config.Config) ProfileService {
	return &profileServiceImpl{
		repos: repos,
		cfg:   cfg,
	}
}

// GetProfile retrieves one published golden-record row
func (s *profileServiceImpl) GetProfile(brokerID string) (*models.BrokerProfile, error) {
	id, err := uuid.Parse(brokerID)
	if err != nil {
		return nil, errors.InvalidInput("invalid broker id", err)
	}

	profile, err := s.repos.Profile.GetByBrokerID(id)
	if err != nil {
		return nil, errors.NotFound("broker profile not found", err)
	}

	return profile, nil
}

// ListProfiles retrieves published profiles with filters
func (s *profileServiceImpl) ListProfiles(filters repository.ProfileFilters) ([]models.BrokerProfile, error) {
	profiles, err := s.repos.Profile.GetAll(filters)
	if err != nil {
		return nil, errors.DatabaseError("failed to list broker profiles", err)
	}

	return profiles, nil
}

// Staleness reports the age of the published snapshot against the
// configured refresh bound
func (s *profileServiceImpl) Staleness() (*StalenessInfo, error) {
	lastRefreshed, err := s.repos.Profile.LastRefreshed()
	if err != nil {
		return nil, errors.DatabaseError("failed to read last refresh time", err)
	}

	count, err := s.repos.Profile.Count()
	if err != nil {
		return nil, errors.DatabaseError("failed to count profiles", err)
	}

	bound := s.cfg.RefreshInterval()
	info := &StalenessInfo{
		Status:       SnapshotStale,
		BoundSeconds: bound.Seconds(),
		ProfileCount: count,
	}

	if lastRefreshed.IsZero() {
		return info, nil
	}

	age := time.Since(lastRefreshed)
	info.LastRefreshed = &lastRefreshed
	info.AgeSeconds = age.Seconds()
	if age <= bound {
		info.Status = SnapshotFresh
	}

	return info, nil
}
