package pipeline

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/apexcapital/loadstar-pipeline/internal/database"
	"github.com/apexcapital/loadstar-pipeline/internal/repository"
	"github.com/apexcapital/loadstar-pipeline/internal/services"
	"github.com/apexcapital/loadstar-pipeline/pkg/config"
)

// RefreshPipeline drives the golden-record refresh on a fixed interval:
// materialize broker profiles first, then rebuild carrier recommendations
// on top of the fresh snapshot.
type RefreshPipeline struct {
	repos        *repository.Repositories
	materializer services.MaterializerService
	recommender  services.RecommendationService
	interval     time.Duration
	isRunning    bool
	stopChan     chan struct{}
	wg           sync.WaitGroup
	mu           sync.RWMutex
}

// New creates a refresh pipeline wired to the given database
func New(db *database.DB, cfg *config.Config) *RefreshPipeline {
	svcs := services.NewServices(db, cfg)
	return &RefreshPipeline{
		repos:        repository.NewRepositories(db.DB),
		materializer: svcs.Materializer,
		recommender:  svcs.Recommendation,
		interval:     cfg.RefreshInterval(),
		stopChan:     make(chan struct{}),
	}
}

// CycleStats describes one materialize+rebuild cycle
type CycleStats struct {
	StartTime   time.Time                  `json:"start_time"`
	EndTime     time.Time                  `json:"end_time"`
	Duration    time.Duration              `json:"duration"`
	Materialize *services.MaterializeStats `json:"materialize,omitempty"`
	Rebuild     *services.RebuildStats     `json:"rebuild,omitempty"`
	FailedStage string                     `json:"failed_stage,omitempty"`
	Error       string                     `json:"error,omitempty"`
}

// Summary renders the cycle outcome for the daemon log
func (s *CycleStats) Summary() string {
	if s.FailedStage != "" {
		return fmt.Sprintf("failed stage=%s after %v: %s",
			s.FailedStage, s.Duration.Round(time.Millisecond), s.Error)
	}
	return fmt.Sprintf("profiles=%d, zero_activity=%d, pairs=%d, unresolved=%d, overrides=%d, duration=%v",
		s.Materialize.ProfilesWritten, s.Materialize.ZeroActivity,
		s.Rebuild.PairsScored, s.Rebuild.UnresolvedPairs, s.Rebuild.Overrides,
		s.Duration.Round(time.Millisecond))
}

// PipelineStatus reports the loop state and what is currently published
type PipelineStatus struct {
	IsRunning           bool       `json:"is_running"`
	Interval            string     `json:"interval"`
	ProfileCount        int        `json:"profile_count"`
	RecommendationCount int        `json:"recommendation_count"`
	LastRefreshed       *time.Time `json:"last_refreshed,omitempty"`
	Timestamp           time.Time  `json:"timestamp"`
}

// Start begins the periodic refresh loop
func (p *RefreshPipeline) Start() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.isRunning {
		return fmt.Errorf("refresh pipeline is already running")
	}

	p.isRunning = true
	p.stopChan = make(chan struct{})

	p.wg.Add(1)
	go p.run()

	log.Printf("🎯 Refresh pipeline started (interval=%v)", p.interval)
	return nil
}

// Stop gracefully stops the refresh loop, waiting for an in-flight cycle
func (p *RefreshPipeline) Stop() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.isRunning {
		return fmt.Errorf("refresh pipeline is not running")
	}

	close(p.stopChan)
	p.wg.Wait()
	p.isRunning = false

	log.Println("🛑 Refresh pipeline stopped")
	return nil
}

// IsRunning returns whether the loop is currently active
func (p *RefreshPipeline) IsRunning() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.isRunning
}

// RunOnce executes a single refresh cycle outside the ticker loop
func (p *RefreshPipeline) RunOnce(ctx context.Context) (*CycleStats, error) {
	return p.executeCycle(ctx)
}

// run is the main refresh loop
func (p *RefreshPipeline) run() {
	defer p.wg.Done()

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	// First cycle runs immediately so a fresh deploy publishes without
	// waiting out a full interval.
	ctx := context.Background()
	if stats, err := p.executeCycle(ctx); err != nil {
		log.Printf("❌ Initial refresh cycle failed: %v", err)
	} else {
		log.Printf("✅ Initial refresh cycle completed: %s", stats.Summary())
	}

	for {
		select {
		case <-p.stopChan:
			log.Println("📋 Refresh pipeline stop signal received")
			return
		case <-ticker.C:
			if stats, err := p.executeCycle(ctx); err != nil {
				log.Printf("❌ Refresh cycle failed: %v", err)
			} else {
				log.Printf("✅ Refresh cycle completed: %s", stats.Summary())
			}
		}
	}
}

// executeCycle performs one materialize+rebuild cycle. Each stage publishes
// atomically, so a failure here leaves the previously published snapshot in
// place. A panic inside a stage is converted into a cycle failure so the
// ticker loop survives it.
func (p *RefreshPipeline) executeCycle(ctx context.Context) (stats *CycleStats, err error) {
	stats = &CycleStats{StartTime: time.Now()}
	defer func() {
		stats.EndTime = time.Now()
		stats.Duration = stats.EndTime.Sub(stats.StartTime)
		if r := recover(); r != nil {
			stats.Error = fmt.Sprint(r)
			err = fmt.Errorf("%s stage panicked: %v", stats.FailedStage, r)
		}
	}()

	log.Printf("🔄 Starting refresh cycle")

	stats.FailedStage = "materialize"
	matStats, merr := p.materializer.Refresh(ctx)
	if merr != nil {
		stats.Error = merr.Error()
		return stats, fmt.Errorf("materialize stage failed: %w", merr)
	}
	stats.Materialize = matStats
	log.Printf("📊 Materialized %d broker profiles (%d zero-activity)",
		matStats.ProfilesWritten, matStats.ZeroActivity)

	stats.FailedStage = "rebuild"
	recStats, rerr := p.recommender.Rebuild(ctx)
	if rerr != nil {
		stats.Error = rerr.Error()
		return stats, fmt.Errorf("rebuild stage failed: %w", rerr)
	}
	stats.Rebuild = recStats
	log.Printf("📊 Rebuilt %d recommendations (%d unresolved, %d overrides)",
		recStats.Written, recStats.UnresolvedPairs, recStats.Overrides)

	stats.FailedStage = ""
	return stats, nil
}

// GetStatus reports the current pipeline state and published row counts
func (p *RefreshPipeline) GetStatus() (*PipelineStatus, error) {
	status := &PipelineStatus{
		IsRunning: p.IsRunning(),
		Interval:  p.interval.String(),
		Timestamp: time.Now(),
	}

	profileCount, err := p.repos.Profile.Count()
	if err != nil {
		return nil, fmt.Errorf("failed to count broker profiles: %w", err)
	}
	status.ProfileCount = profileCount

	recCount, err := p.repos.Recommendation.Count()
	if err != nil {
		return nil, fmt.Errorf("failed to count recommendations: %w", err)
	}
	status.RecommendationCount = recCount

	lastRefreshed, err := p.repos.Profile.LastRefreshed()
	if err != nil {
		return nil, fmt.Errorf("failed to read last refresh time: %w", err)
	}
	if !lastRefreshed.IsZero() {
		status.LastRefreshed = &lastRefreshed
	}

	return status, nil
}
