package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/apexcapital/loadstar-pipeline/internal/aggregate"
	"github.com/apexcapital/loadstar-pipeline/internal/errors"
	"github.com/apexcapital/loadstar-pipeline/internal/geo"
	"github.com/apexcapital/loadstar-pipeline/internal/logger"
	"github.com/apexcapital/loadstar-pipeline/internal/models"
	"github.com/apexcapital/loadstar-pipeline/internal/repository"
	"github.com/apexcapital/loadstar-pipeline/internal/scoring"
	"github.com/apexcapital/loadstar-pipeline/pkg/config"
)

// MaterializeStats summarizes one golden-record refresh
type MaterializeStats struct {
	BrokersProcessed int           `json:"brokers_processed"`
	ProfilesWritten  int           `json:"profiles_written"`
	InvoicesRead     int           `json:"invoices_read"`
	PostingsRead     int           `json:"postings_read"`
	ZeroActivity     int           `json:"zero_activity"`
	MalformedRows    int           `json:"malformed_rows"`
	OrphanedLedger   int           `json:"orphaned_ledger"`
	WeatherMisses    int           `json:"weather_misses"`
	RefreshedAt      time.Time     `json:"refreshed_at"`
	Duration         time.Duration `json:"duration"`
}

// Summary renders the stats for cycle logs
func (s *MaterializeStats) Summary() string {
	return fmt.Sprintf("profiles=%d, zero_activity=%d, malformed=%d, orphaned=%d, duration=%v",
		s.ProfilesWritten, s.ZeroActivity, s.MalformedRows, s.OrphanedLedger,
		s.Duration.Round(time.Millisecond))
}

// materializerServiceImpl implements MaterializerService
type materializerServiceImpl struct {
	repos      *repository.Repositories
	aggregator *aggregate.Aggregator
	cfg        *config.Config
	logger     logger.Logger
}

// newMaterializerService creates a new materializer service implementation
func newMaterializerService(repos *repository.Repositories, cfg *config.Config) MaterializerService {
	grid := geo.NewGrid(cfg.GeoCellPrecision)
	return &materializerServiceImpl{
		repos:      repos,
		aggregator: aggregate.NewAggregator(grid),
		cfg:        cfg,
		logger:     logger.NewComponentLogger("materializer"),
	}
}

// Refresh recomputes the full golden record from current source contents.
// The refresh fails closed: any source read error aborts before the write
// transaction, so the previously published snapshot stays live.
func (s *materializerServiceImpl) Refresh(ctx context.Context) (*MaterializeStats, error) {
	start := time.Now()
	stats := &MaterializeStats{}

	// Load every source table up front. A refresh never publishes from a
	// partial read.
	brokers, err := s.repos.Broker.GetAll()
	if err != nil {
		return nil, errors.SourceUnavailable("brokers", err)
	}

	invoices, err := s.repos.Invoice.GetAll()
	if err != nil {
		return nil, errors.SourceUnavailable("invoices", err)
	}

	postings, err := s.repos.Load.GetAll()
	if err != nil {
		return nil, errors.SourceUnavailable("load_postings", err)
	}

	weather, err := s.repos.Weather.GetLatestByCity()
	if err != nil {
		return nil, errors.SourceUnavailable("weather_observations", err)
	}

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("refresh cancelled: %w", err)
	}

	stats.BrokersProcessed = len(brokers)
	stats.InvoicesRead = len(invoices)
	stats.PostingsRead = len(postings)

	aggregates := s.aggregator.Aggregate(invoices, postings)

	// Ledger rows may reference brokers that left the registry. Their
	// aggregates are computed but never published; surface them so the
	// feed owner can clean up.
	registry := make(map[uuid.UUID]struct{}, len(brokers))
	for i := range brokers {
		registry[brokers[i].ID] = struct{}{}
	}
	for brokerID := range aggregates {
		if _, ok := registry[brokerID]; !ok {
			stats.OrphanedLedger++
			s.logger.Warn("unresolved broker reference in ledger", "broker_id", brokerID.String())
		}
	}

	// Outer join: every registry broker gets exactly one profile, with
	// zeroed aggregates when it has no ledger or posting activity. The
	// whole snapshot shares one refreshed_at.
	refreshedAt := time.Now().UTC()
	profiles := make([]models.BrokerProfile, 0, len(brokers))
	for i := range brokers {
		profiles = append(profiles, s.buildProfile(&brokers[i], aggregates[brokers[i].ID], weather, refreshedAt, stats))
	}

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("refresh cancelled: %w", err)
	}

	// Atomic publish: readers see the prior snapshot until this commits.
	err = s.repos.Tx.WithTransaction(func(txRepos *repository.Repositories) error {
		return txRepos.Profile.ReplaceAll(profiles)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to publish broker profiles: %w", err)
	}

	stats.ProfilesWritten = len(profiles)
	stats.RefreshedAt = refreshedAt
	stats.Duration = time.Since(start)

	s.logger.Info("golden record refreshed", "summary", stats.Summary())
	return stats, nil
}

// buildProfile assembles one golden-record row from registry fields,
// aggregates and weather context, then derives the published score and
// category.
func (s *materializerServiceImpl) buildProfile(
	broker *models.Broker,
	agg *aggregate.BrokerAggregates,
	weather map[string]models.WeatherObservation,
	refreshedAt time.Time,
	stats *MaterializeStats,
) models.BrokerProfile {
	profile := models.BrokerProfile{
		BrokerID:          broker.ID,
		BrokerName:        broker.Name,
		MCNumber:          broker.MCNumber,
		HQState:           broker.HQState,
		CreditScore:       broker.CreditScore,
		FactoringType:     broker.FactoringType,
		Status:            broker.Status,
		FraudFlag:         broker.FraudFlag,
		DisputeCount:      broker.DisputeCount,
		RelationshipStart: broker.RelationshipStart,
		WeatherRisk:       models.WeatherRiskNone,
		RefreshedAt:       refreshedAt,
	}

	if agg != nil {
		profile.TotalInvoices = agg.TotalInvoices
		profile.TotalAmount = agg.TotalAmount
		profile.AvgInvoiceAmount = agg.AvgInvoiceAmount
		profile.AvgDaysToPay = agg.AvgDaysToPay
		profile.LateInvoices = agg.LateInvoices
		profile.DisputedInvoices = agg.DisputedInvoices
		profile.OutstandingAmount = agg.OutstandingAmount
		profile.UniqueLanes = agg.UniqueLanes
		profile.PrimaryOrigin = agg.PrimaryOrigin
		profile.PrimaryDestination = agg.PrimaryDestination
		profile.AvgHaulMiles = agg.AvgHaulMiles
		profile.OriginCellDiversity = agg.OriginCellDiversity
		profile.LaneDensity = agg.LaneDensity
		stats.MalformedRows += agg.MalformedRows
	} else {
		stats.ZeroActivity++
	}

	// Weather context joins on the broker's primary origin city. Brokers
	// without one, or whose city has no observation, score a zero context
	// component.
	if profile.PrimaryOrigin != "" {
		if obs, ok := weather[profile.PrimaryOrigin]; ok {
			profile.WeatherRisk = obs.RiskLevel
			profile.AvgTempF = obs.AvgTempF
			profile.MaxWindMPH = obs.MaxWindMPH
		} else {
			stats.WeatherMisses++
		}
	}

	composite := scoring.CompositeScore(scoring.ScoreInput{
		CreditScore:  broker.CreditScore,
		AvgDaysToPay: profile.AvgDaysToPay,
		FraudFlag:    broker.FraudFlag,
		WeatherRisk:  profile.WeatherRisk,
	})

	category := scoring.RiskCategory(scoring.RiskInput{
		FraudFlag:        broker.FraudFlag,
		DisputeCount:     broker.DisputeCount,
		DisputedInvoices: profile.DisputedInvoices,
		CreditScore:      broker.CreditScore,
		AvgDaysToPay:     profile.AvgDaysToPay,
	})

	profile.CompositeScore = scoring.PublishedScore(composite, category)
	profile.RiskCategory = category

	return profile
}
