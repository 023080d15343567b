package services

import (
	"context"
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/google/uuid"

	"github.com/apexcapital/loadstar-pipeline/internal/errors"
	"github.com/apexcapital/loadstar-pipeline/internal/models"
	"github.com/apexcapital/loadstar-pipeline/internal/repository"
)

// rebuildFixture seeds one active carrier against three open loads: one on a
// LOW-risk broker, one on a HIGH-risk broker, one on a broker with no
// published profile. An inactive carrier and an assigned load are present to
// be excluded.
type rebuildFixture struct {
	m            *mockRepos
	carrierID    uuid.UUID
	lowBrokerID  uuid.UUID
	highBrokerID uuid.UUID
	lowLoadID    uuid.UUID
	highLoadID   uuid.UUID
	orphanLoadID uuid.UUID
}

func newRebuildFixture() *rebuildFixture {
	f := &rebuildFixture{
		m:            newMockRepos(),
		carrierID:    uuid.New(),
		lowBrokerID:  uuid.New(),
		highBrokerID: uuid.New(),
		lowLoadID:    uuid.New(),
		highLoadID:   uuid.New(),
		orphanLoadID: uuid.New(),
	}

	f.m.carrier.carriers = []models.Carrier{
		{ID: f.carrierID, CarrierName: "Red River Carriers", EquipmentType: models.EquipmentDryVan,
			Status: string(models.CarrierActive)},
		{ID: uuid.New(), CarrierName: "Parked Fleet LLC", Status: string(models.CarrierInactive)},
	}

	f.m.load.loads = []models.LoadPosting{
		{ID: f.lowLoadID, BrokerID: f.lowBrokerID, OriginCity: "Dallas", OriginState: "TX",
			DestinationCity: "Atlanta", DestinationState: "GA", DistanceMiles: 780, RatePerMile: 3.0,
			TotalRate: 2340, EquipmentRequired: models.EquipmentDryVan, Status: string(models.LoadOpen)},
		{ID: f.highLoadID, BrokerID: f.highBrokerID, OriginCity: "Memphis", OriginState: "TN",
			DestinationCity: "Chicago", DestinationState: "IL", DistanceMiles: 530, RatePerMile: 2.5,
			TotalRate: 1325, EquipmentRequired: models.EquipmentReefer, Status: string(models.LoadOpen)},
		{ID: f.orphanLoadID, BrokerID: uuid.New(), OriginCity: "Tulsa", OriginState: "OK",
			DestinationCity: "Denver", DestinationState: "CO", DistanceMiles: 680, RatePerMile: 1.0,
			TotalRate: 680, EquipmentRequired: models.EquipmentFlatbed, Status: string(models.LoadOpen)},
		{ID: uuid.New(), BrokerID: f.lowBrokerID, OriginCity: "Austin", OriginState: "TX",
			DestinationCity: "El Paso", DestinationState: "TX", DistanceMiles: 570, RatePerMile: 2.0,
			TotalRate: 1140, EquipmentRequired: models.EquipmentDryVan, Status: string(models.LoadAssigned)},
	}

	f.m.profile.profiles = []models.BrokerProfile{
		{BrokerID: f.lowBrokerID, BrokerName: "Lone Star Logistics", CreditScore: 720,
			CompositeScore: 0, AvgDaysToPay: 30, RiskCategory: models.RiskLow},
		{BrokerID: f.highBrokerID, BrokerName: "Crimson Freight", CreditScore: 800,
			CompositeScore: 50, AvgDaysToPay: 10, RiskCategory: models.RiskHigh},
	}

	return f
}

func TestRecommendationService_Rebuild(t *testing.T) {
	f := newRebuildFixture()
	svc := newRecommendationService(f.m.repos, testConfig())

	stats, err := svc.Rebuild(context.Background())
	if err != nil {
		t.Fatalf("Rebuild failed: %v", err)
	}

	if stats.ActiveCarriers != 1 {
		t.Errorf("Expected 1 active carrier, got %d", stats.ActiveCarriers)
	}
	if stats.OpenLoads != 3 {
		t.Errorf("Expected 3 open loads, got %d", stats.OpenLoads)
	}
	if stats.PairsScored != 3 || stats.Written != 3 {
		t.Errorf("Expected 3 pairs scored and written, got %d and %d", stats.PairsScored, stats.Written)
	}
	if stats.Overrides != 1 {
		t.Errorf("Expected 1 risk override, got %d", stats.Overrides)
	}
	if stats.UnresolvedPairs != 1 {
		t.Errorf("Expected 1 unresolved pair, got %d", stats.UnresolvedPairs)
	}
	if len(f.m.rec.batchSizes) != 1 || f.m.rec.batchSizes[0] != 100 {
		t.Errorf("Expected one publish with batch size 100, got %v", f.m.rec.batchSizes)
	}

	byLoad := make(map[uuid.UUID]models.Recommendation)
	for _, r := range f.m.rec.recs {
		if r.CarrierID != f.carrierID {
			t.Errorf("Unexpected carrier %s in lookup table", r.CarrierID)
		}
		byLoad[r.LoadID] = r
	}
	if len(byLoad) != 3 {
		t.Fatalf("Expected rows for 3 loads, got %d", len(byLoad))
	}

	low := byLoad[f.lowLoadID]
	if low.Score != 0.8375 {
		t.Errorf("Expected score 0.8375 for the clean pair, got %v", low.Score)
	}
	if low.MatchCategory != models.MatchStrong {
		t.Errorf("Expected STRONG, got %s", low.MatchCategory)
	}
	if low.BrokerID == nil || *low.BrokerID != f.lowBrokerID {
		t.Error("Expected resolved broker reference on the clean pair")
	}
	if low.BrokerName != "Lone Star Logistics" || low.CreditScore != 720 || low.RiskCategory != models.RiskLow {
		t.Errorf("Expected denormalized broker fields, got name=%s credit=%d risk=%s",
			low.BrokerName, low.CreditScore, low.RiskCategory)
	}
	if low.OriginCity != "Dallas" || low.DestinationState != "GA" || low.TotalRate != 2340 {
		t.Errorf("Expected denormalized load fields, got origin=%s dest_state=%s rate=%.2f",
			low.OriginCity, low.DestinationState, low.TotalRate)
	}

	high := byLoad[f.highLoadID]
	if high.Score != 0.0 {
		t.Errorf("Expected HIGH risk broker to zero the score, got %v", high.Score)
	}
	if high.MatchCategory != models.MatchNoMatch {
		t.Errorf("Expected NO_MATCH for the override, got %s", high.MatchCategory)
	}
	if high.BrokerID == nil || *high.BrokerID != f.highBrokerID {
		t.Error("Override rows keep their resolved broker reference")
	}
	if high.RiskCategory != models.RiskHigh || high.CompositeScore != 50 {
		t.Errorf("Expected denormalized risk fields on the override, got %s/%d",
			high.RiskCategory, high.CompositeScore)
	}

	orphan := byLoad[f.orphanLoadID]
	if orphan.BrokerID != nil {
		t.Error("Expected null broker reference on the unresolved pair")
	}
	if orphan.Score != 0.0 || orphan.MatchCategory != models.MatchNoMatch {
		t.Errorf("Expected fallback 0.0 NO_MATCH on the unresolved pair, got %v %s",
			orphan.Score, orphan.MatchCategory)
	}
	if orphan.OriginCity != "Tulsa" {
		t.Errorf("Unresolved pairs still carry load fields, got origin %s", orphan.OriginCity)
	}

	if low.ComputedAt != high.ComputedAt || low.ComputedAt != orphan.ComputedAt {
		t.Error("Expected every row of a generation to share one computed_at")
	}
	if stats.ComputedAt != low.ComputedAt {
		t.Error("Expected stats to carry the generation timestamp")
	}
}

func TestRecommendationService_Rebuild_Deterministic(t *testing.T) {
	f := newRebuildFixture()
	svc := newRecommendationService(f.m.repos, testConfig())

	if _, err := svc.Rebuild(context.Background()); err != nil {
		t.Fatalf("First rebuild failed: %v", err)
	}
	first := append([]models.Recommendation(nil), f.m.rec.recs...)

	if _, err := svc.Rebuild(context.Background()); err != nil {
		t.Fatalf("Second rebuild failed: %v", err)
	}
	second := f.m.rec.recs

	if len(first) != len(second) {
		t.Fatalf("Expected identical row counts, got %d then %d", len(first), len(second))
	}
	for i := range first {
		a, b := first[i], second[i]
		if a.CarrierID != b.CarrierID || a.LoadID != b.LoadID {
			t.Fatalf("Expected identical pair order at row %d", i)
		}
		if a.Score != b.Score || a.MatchCategory != b.MatchCategory {
			t.Errorf("Expected identical scores for pair (%s, %s): %v/%s vs %v/%s",
				a.CarrierID, a.LoadID, a.Score, a.MatchCategory, b.Score, b.MatchCategory)
		}
	}
}

func TestRecommendationService_Rebuild_FailsClosed(t *testing.T) {
	t.Run("carrier registry down", func(t *testing.T) {
		f := newRebuildFixture()
		f.m.carrier.err = fmt.Errorf("connection refused")

		svc := newRecommendationService(f.m.repos, testConfig())
		_, err := svc.Rebuild(context.Background())
		if err == nil {
			t.Fatal("Expected rebuild to fail when carriers are unreadable")
		}
		if !errors.IsSourceUnavailable(err) {
			t.Errorf("Expected SOURCE_UNAVAILABLE, got %v", err)
		}
		if len(f.m.rec.recs) != 0 {
			t.Error("Expected no publish after a source failure")
		}
	})

	t.Run("publish failure keeps prior table", func(t *testing.T) {
		f := newRebuildFixture()
		f.m.rec.recs = []models.Recommendation{{CarrierID: uuid.New(), LoadID: uuid.New(), Score: 0.5}}
		f.m.tx.err = fmt.Errorf("deadlock detected")

		svc := newRecommendationService(f.m.repos, testConfig())
		if _, err := svc.Rebuild(context.Background()); err == nil {
			t.Fatal("Expected rebuild to fail when the publish transaction fails")
		}
		if len(f.m.rec.recs) != 1 || f.m.rec.recs[0].Score != 0.5 {
			t.Error("Expected prior lookup table to stay live after a failed publish")
		}
	})

	t.Run("cancelled context", func(t *testing.T) {
		f := newRebuildFixture()
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		svc := newRecommendationService(f.m.repos, testConfig())
		if _, err := svc.Rebuild(ctx); err == nil {
			t.Fatal("Expected rebuild to fail on a cancelled context")
		}
		if len(f.m.rec.recs) != 0 {
			t.Error("Expected no publish after cancellation")
		}
	})
}

func TestRecommendationService_ScorePair_MatchesBatch(t *testing.T) {
	f := newRebuildFixture()
	svc := newRecommendationService(f.m.repos, testConfig())

	if _, err := svc.Rebuild(context.Background()); err != nil {
		t.Fatalf("Rebuild failed: %v", err)
	}

	for _, loadID := range []uuid.UUID{f.lowLoadID, f.highLoadID} {
		stored, err := svc.GetPair(f.carrierID.String(), loadID.String())
		if err != nil {
			t.Fatalf("GetPair failed: %v", err)
		}

		live, err := svc.ScorePair(f.carrierID.String(), loadID.String())
		if err != nil {
			t.Fatalf("ScorePair failed: %v", err)
		}

		if live.Score != stored.Score {
			t.Errorf("On-demand score %v disagrees with stored %v for load %s", live.Score, stored.Score, loadID)
		}
		if live.Category != stored.MatchCategory {
			t.Errorf("On-demand category %s disagrees with stored %s for load %s", live.Category, stored.MatchCategory, loadID)
		}
		if stored.BrokerID == nil || live.BrokerID != *stored.BrokerID {
			t.Errorf("On-demand broker %s disagrees with stored row for load %s", live.BrokerID, loadID)
		}
	}
}

func TestRecommendationService_ScorePair_Errors(t *testing.T) {
	f := newRebuildFixture()
	svc := newRecommendationService(f.m.repos, testConfig())

	assertCode := func(t *testing.T, err error, code string) {
		t.Helper()
		if err == nil {
			t.Fatal("Expected an error")
		}
		var appErr *errors.AppError
		if !stderrors.As(err, &appErr) {
			t.Fatalf("Expected AppError, got %T: %v", err, err)
		}
		if appErr.Code != code {
			t.Errorf("Expected code %s, got %s", code, appErr.Code)
		}
	}

	t.Run("malformed carrier id", func(t *testing.T) {
		_, err := svc.ScorePair("not-a-uuid", f.lowLoadID.String())
		assertCode(t, err, errors.ErrCodeInvalidInput)
	})

	t.Run("malformed load id", func(t *testing.T) {
		_, err := svc.ScorePair(f.carrierID.String(), "not-a-uuid")
		assertCode(t, err, errors.ErrCodeInvalidInput)
	})

	t.Run("unknown carrier", func(t *testing.T) {
		_, err := svc.ScorePair(uuid.New().String(), f.lowLoadID.String())
		assertCode(t, err, errors.ErrCodeNotFound)
	})

	t.Run("unknown load", func(t *testing.T) {
		_, err := svc.ScorePair(f.carrierID.String(), uuid.New().String())
		assertCode(t, err, errors.ErrCodeNotFound)
	})

	t.Run("load broker has no published profile", func(t *testing.T) {
		_, err := svc.ScorePair(f.carrierID.String(), f.orphanLoadID.String())
		assertCode(t, err, errors.ErrCodeUnresolvedReference)
	})

	t.Run("stored pair missing", func(t *testing.T) {
		_, err := svc.GetPair(f.carrierID.String(), uuid.New().String())
		assertCode(t, err, errors.ErrCodeNotFound)
	})

	t.Run("list with malformed carrier id", func(t *testing.T) {
		_, err := svc.GetByCarrier("not-a-uuid", repository.RecommendationFilters{})
		assertCode(t, err, errors.ErrCodeInvalidInput)
	})
}

func TestRecommendationService_GetByCarrier(t *testing.T) {
	f := newRebuildFixture()
	svc := newRecommendationService(f.m.repos, testConfig())

	if _, err := svc.Rebuild(context.Background()); err != nil {
		t.Fatalf("Rebuild failed: %v", err)
	}

	recs, err := svc.GetByCarrier(f.carrierID.String(), repository.RecommendationFilters{})
	if err != nil {
		t.Fatalf("GetByCarrier failed: %v", err)
	}
	if len(recs) != 3 {
		t.Errorf("Expected 3 stored recommendations, got %d", len(recs))
	}
}
