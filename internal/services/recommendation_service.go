package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/apexcapital/loadstar-pipeline/internal/errors"
	"github.com/apexcapital/loadstar-pipeline/internal/logger"
	"github.com/apexcapital/loadstar-pipeline/internal/models"
	"github.com/apexcapital/loadstar-pipeline/internal/repository"
	"github.com/apexcapital/loadstar-pipeline/internal/scoring"
	"github.com/apexcapital/loadstar-pipeline/pkg/config"
)

// RebuildStats summarizes one recommendation rebuild
type RebuildStats struct {
	ActiveCarriers  int           `json:"active_carriers"`
	OpenLoads       int           `json:"open_loads"`
	PairsScored     int           `json:"pairs_scored"`
	Written         int           `json:"written"`
	Overrides       int           `json:"overrides"`
	UnresolvedPairs int           `json:"unresolved_pairs"`
	ComputedAt      time.Time     `json:"computed_at"`
	Duration        time.Duration `json:"duration"`
}

// Summary renders the stats for cycle logs
func (s *RebuildStats) Summary() string {
	return fmt.Sprintf("pairs=%d, written=%d, overrides=%d, unresolved=%d, duration=%v",
		s.PairsScored, s.Written, s.Overrides, s.UnresolvedPairs,
		s.Duration.Round(time.Millisecond))
}

// PairScoreResult is the on-demand scoring response. Breakdown carries the
// same component split the batch rebuild computes.
type PairScoreResult struct {
	CarrierID uuid.UUID              `json:"carrier_id"`
	LoadID    uuid.UUID              `json:"load_id"`
	BrokerID  uuid.UUID              `json:"broker_id"`
	Score     float64                `json:"score"`
	Category  string                 `json:"category"`
	Breakdown scoring.MatchBreakdown `json:"breakdown"`
	ScoredAt  time.Time              `json:"scored_at"`
}

// recommendationServiceImpl implements RecommendationService
type recommendationServiceImpl struct {
	repos  *repository.Repositories
	cfg    *config.Config
	logger logger.Logger
}

// newRecommendationService creates a new recommendation service implementation
func newRecommendationService(repos *repository.Repositories, cfg *config.Config) RecommendationService {
	return &recommendationServiceImpl{
		repos:  repos,
		cfg:    cfg,
		logger: logger.NewComponentLogger("recommender"),
	}
}

// Rebuild rescores every ACTIVE carrier x OPEN load pair against the
// published golden record and atomically replaces the lookup table.
// Re-running against unchanged sources produces an identical table apart
// from computed_at.
func (s *recommendationServiceImpl) Rebuild(ctx context.Context) (*RebuildStats, error) {
	start := time.Now()
	stats := &RebuildStats{}

	carriers, err := s.repos.Carrier.GetActive()
	if err != nil {
		return nil, errors.SourceUnavailable("carriers", err)
	}

	loads, err := s.repos.Load.GetOpen()
	if err != nil {
		return nil, errors.SourceUnavailable("load_postings", err)
	}

	profiles, err := s.repos.Profile.GetAll(repository.ProfileFilters{})
	if err != nil {
		return nil, errors.SourceUnavailable("broker_profiles", err)
	}

	profileByBroker := make(map[uuid.UUID]*models.BrokerProfile, len(profiles))
	for i := range profiles {
		profileByBroker[profiles[i].BrokerID] = &profiles[i]
	}

	stats.ActiveCarriers = len(carriers)
	stats.OpenLoads = len(loads)

	// One shared timestamp for the whole generation.
	computedAt := time.Now().UTC()
	recs := make([]models.Recommendation, 0, len(carriers)*len(loads))
	for ci := range carriers {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("rebuild cancelled: %w", err)
		}
		for li := range loads {
			recs = append(recs, s.scorePairRow(&carriers[ci], &loads[li], profileByBroker, computedAt, stats))
		}
	}
	stats.PairsScored = len(recs)

	err = s.repos.Tx.WithTransaction(func(txRepos *repository.Repositories) error {
		return txRepos.Recommendation.ReplaceAll(recs, s.cfg.RecommendationBatch)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to publish recommendations: %w", err)
	}

	stats.Written = len(recs)
	stats.ComputedAt = computedAt
	stats.Duration = time.Since(start)

	s.logger.Info("recommendations rebuilt", "summary", stats.Summary())
	return stats, nil
}

// scorePairRow builds one lookup row. A pair whose broker has no published
// profile still yields a row: null broker reference, fallback score 0.0,
// NO_MATCH. One bad pair never aborts the batch.
func (s *recommendationServiceImpl) scorePairRow(
	carrier *models.Carrier,
	load *models.LoadPosting,
	profileByBroker map[uuid.UUID]*models.BrokerProfile,
	computedAt time.Time,
	stats *RebuildStats,
) models.Recommendation {
	rec := models.Recommendation{
		CarrierID:         carrier.ID,
		LoadID:            load.ID,
		MatchCategory:     models.MatchNoMatch,
		OriginCity:        load.OriginCity,
		OriginState:       load.OriginState,
		DestinationCity:   load.DestinationCity,
		DestinationState:  load.DestinationState,
		TotalRate:         load.TotalRate,
		EquipmentRequired: load.EquipmentRequired,
		DistanceMiles:     load.DistanceMiles,
		ComputedAt:        computedAt,
	}

	profile, ok := profileByBroker[load.BrokerID]
	if !ok {
		stats.UnresolvedPairs++
		s.logger.Warn("unresolved broker for pair",
			"carrier_id", carrier.ID.String(),
			"load_id", load.ID.String(),
			"broker_id", load.BrokerID.String())
		return rec
	}

	brokerID := load.BrokerID
	rec.BrokerID = &brokerID
	rec.BrokerName = profile.BrokerName
	rec.CreditScore = profile.CreditScore
	rec.RiskCategory = profile.RiskCategory
	rec.CompositeScore = profile.CompositeScore

	breakdown := scoring.MatchScoreBreakdown(scoring.MatchInput{
		RiskCategory:   profile.RiskCategory,
		CreditScore:    profile.CreditScore,
		CompositeScore: profile.CompositeScore,
		AvgDaysToPay:   profile.AvgDaysToPay,
		RatePerMile:    load.RatePerMile,
	})

	rec.Score = breakdown.Score
	rec.MatchCategory = scoring.MatchCategory(breakdown.Score)

	if breakdown.Overridden {
		stats.Overrides++
		s.logger.Info("risk override for pair",
			"carrier_id", carrier.ID.String(),
			"load_id", load.ID.String(),
			"risk_category", profile.RiskCategory)
	}

	return rec
}

// GetByCarrier retrieves stored recommendations for one carrier
func (s *recommendationServiceImpl) GetByCarrier(carrierID string, filters repository.RecommendationFilters) ([]models.Recommendation, error) {
	id, err := uuid.Parse(carrierID)
	if err != nil {
		return nil, errors.InvalidInput("invalid carrier id", err)
	}

	recs, err := s.repos.Recommendation.GetByCarrier(id, filters)
	if err != nil {
		return nil, errors.DatabaseError("failed to get recommendations", err)
	}

	return recs, nil
}

// GetPair retrieves one stored (carrier, load) recommendation
func (s *recommendationServiceImpl) GetPair(carrierID, loadID string) (*models.Recommendation, error) {
	cid, err := uuid.Parse(carrierID)
	if err != nil {
		return nil, errors.InvalidInput("invalid carrier id", err)
	}

	lid, err := uuid.Parse(loadID)
	if err != nil {
		return nil, errors.InvalidInput("invalid load id", err)
	}

	rec, err := s.repos.Recommendation.GetPair(cid, lid)
	if err != nil {
		return nil, errors.NotFound("recommendation not found", err)
	}

	return rec, nil
}

// ScorePair scores one pair on demand against the live load and the
// published profile. Uses the exact formula the batch rebuild uses, so a
// stored row and an on-demand call over the same snapshot agree.
func (s *recommendationServiceImpl) ScorePair(carrierID, loadID string) (*PairScoreResult, error) {
	cid, err := uuid.Parse(carrierID)
	if err != nil {
		return nil, errors.InvalidInput("invalid carrier id", err)
	}

	lid, err := uuid.Parse(loadID)
	if err != nil {
		return nil, errors.InvalidInput("invalid load id", err)
	}

	carrier, err := s.repos.Carrier.GetByID(cid)
	if err != nil {
		return nil, errors.NotFound("carrier not found", err)
	}

	load, err := s.repos.Load.GetByID(lid)
	if err != nil {
		return nil, errors.NotFound("load posting not found", err)
	}

	profile, err := s.repos.Profile.GetByBrokerID(load.BrokerID)
	if err != nil {
		return nil, errors.UnresolvedReference("no published profile for the load's broker", err)
	}

	pair := scoring.ScorePair(scoring.MatchInput{
		RiskCategory:   profile.RiskCategory,
		CreditScore:    profile.CreditScore,
		CompositeScore: profile.CompositeScore,
		AvgDaysToPay:   profile.AvgDaysToPay,
		RatePerMile:    load.RatePerMile,
	})

	return &PairScoreResult{
		CarrierID: carrier.ID,
		LoadID:    load.ID,
		BrokerID:  profile.BrokerID,
		Score:     pair.Score,
		Category:  pair.Category,
		Breakdown: pair.Breakdown,
		ScoredAt:  pair.ScoredAt,
	}, nil
}
