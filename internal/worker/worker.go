package worker

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/amankumarsingh77/cloud-video-remuxer/internal/config"
	"github.com/amankumarsingh77/cloud-video-remuxer/internal/models"
	"github.com/amankumarsingh77/cloud-video-remuxer/internal/remux"
	"github.com/amankumarsingh77/cloud-video-remuxer/pkg/logger"
	"github.com/amankumarsingh77/cloud-video-remuxer/pkg/utils"
)

// BatchDispatcher is the scheduler's view of the dispatcher.
type BatchDispatcher interface {
	Dispatch(ctx context.Context, jobs []*models.RemuxJob) []Result
}

// Scheduler fires a discovery+dispatch cycle on a fixed interval and a stats
// report on a slower one. A single-flight guard skips a tick while the
// previous cycle's batch is still running, so one slow batch cannot stack
// concurrent discovery queries on top of itself.
type Scheduler struct {
	cfg        *config.Config
	logger     logger.Logger
	jobRepo    remux.JobRepository
	cacheRepo  remux.CacheRepository
	dispatcher BatchDispatcher
	stats      *Stats

	cycleRunning int32
}

func NewScheduler(
	cfg *config.Config,
	logger logger.Logger,
	jobRepo remux.JobRepository,
	cacheRepo remux.CacheRepository,
	dispatcher BatchDispatcher,
	stats *Stats,
) *Scheduler {
	return &Scheduler{
		cfg:        cfg,
		logger:     logger,
		jobRepo:    jobRepo,
		cacheRepo:  cacheRepo,
		dispatcher: dispatcher,
		stats:      stats,
	}
}

// Run blocks until ctx is cancelled. One discovery cycle fires immediately
// at startup, before the first timer tick.
func (s *Scheduler) Run(ctx context.Context) {
	s.logger.Infof("starting remux scheduler, poll every %s, report every %s",
		s.cfg.Worker.PollInterval, s.cfg.Worker.ReportInterval)

	go s.runCycle(ctx)

	pollTicker := time.NewTicker(s.cfg.Worker.PollInterval)
	defer pollTicker.Stop()
	reportTicker := time.NewTicker(s.cfg.Worker.ReportInterval)
	defer reportTicker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Infof("scheduler stopping")
			s.ReportStats(context.Background())
			return
		case <-pollTicker.C:
			go s.runCycle(ctx)
		case <-reportTicker.C:
			s.ReportStats(ctx)
		}
	}
}

// runCycle returns false when it yielded to a cycle already in flight.
func (s *Scheduler) runCycle(ctx context.Context) bool {
	if !atomic.CompareAndSwapInt32(&s.cycleRunning, 0, 1) {
		s.logger.Infof("previous cycle still running, skipping tick")
		return false
	}
	defer atomic.StoreInt32(&s.cycleRunning, 0)

	if s.cfg.Worker.MaxCPUUsage > 0 {
		if ok, usage := utils.CheckCPUUsage(s.cfg.Worker.MaxCPUUsage); !ok {
			s.logger.Infof("CPU usage %.2f%% too high, skipping cycle", usage)
			return true
		}
	}

	if reclaimed, err := s.jobRepo.ReclaimStaleJobs(ctx, s.cfg.Worker.ProcessingLease); err != nil {
		s.logger.Errorf("stale job reclaim failed: %v", err)
	} else if reclaimed > 0 {
		s.logger.Warnf("reclaimed %d stale processing jobs", reclaimed)
	}

	jobs, err := s.jobRepo.FetchEligibleJobs(ctx, s.cfg.Worker.FetchLimit)
	if err != nil {
		// A failed discovery query is a no-op cycle, not a crash; the next
		// tick retries.
		s.logger.Errorf("discovery query failed, treating cycle as no-op: %v", err)
		return true
	}
	if len(jobs) == 0 {
		return true
	}

	s.logger.Infof("discovered %d eligible jobs", len(jobs))
	results := s.dispatcher.Dispatch(ctx, jobs)

	var completed, skipped, retrying, failed int
	for _, res := range results {
		switch res.Outcome {
		case OutcomeCompleted:
			completed++
		case OutcomeSkipped:
			skipped++
		case OutcomeRetrying:
			retrying++
		case OutcomeFailed:
			failed++
		}
	}
	s.logger.Infof("cycle done: %d completed, %d skipped, %d retrying, %d failed",
		completed, skipped, retrying, failed)
	return true
}

// ReportStats logs the aggregate counters and mirrors them to the cache.
// Also called by the shutdown path for the final flush.
func (s *Scheduler) ReportStats(ctx context.Context) {
	snap := s.stats.Snapshot()
	s.logger.Infof("stats: processed=%d skipped=%d failed=%d bytes_saved=%d uptime=%s",
		snap.Processed, snap.Skipped, snap.Failed, snap.BytesSaved, snap.Uptime.Round(time.Second))
	if s.cacheRepo == nil {
		return
	}
	if err := s.cacheRepo.SetStatsSnapshot(ctx, s.stats.Fields()); err != nil {
		s.logger.Warnf("stats snapshot publish failed: %v", err)
	}
}
