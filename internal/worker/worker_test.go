package worker

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/amankumarsingh77/cloud-video-remuxer/internal/config"
	"github.com/amankumarsingh77/cloud-video-remuxer/internal/models"
)

type blockingDispatcher struct {
	started chan struct{}
	release chan struct{}
	calls   int32
}

func (d *blockingDispatcher) Dispatch(_ context.Context, jobs []*models.RemuxJob) []Result {
	d.calls++
	close(d.started)
	<-d.release
	results := make([]Result, len(jobs))
	for i, job := range jobs {
		results[i] = Result{JobID: job.JobID, Outcome: OutcomeCompleted}
	}
	return results
}

func newSchedulerConfig(t *testing.T) *config.Config {
	cfg := newTestConfig(t)
	cfg.Worker.PollInterval = time.Minute
	cfg.Worker.ReportInterval = time.Minute
	cfg.Worker.ProcessingLease = 30 * time.Minute
	cfg.Worker.MaxCPUUsage = 0
	return cfg
}

func TestSchedulerSkipsTickWhileCycleRunning(t *testing.T) {
	repo := newFakeJobRepo(newPendingJob("recordings/a.webm", floatPtr(10)))
	disp := &blockingDispatcher{
		started: make(chan struct{}),
		release: make(chan struct{}),
	}
	s := NewScheduler(newSchedulerConfig(t), newTestLogger(), repo, nil, disp, NewStats())

	done := make(chan bool, 1)
	go func() { done <- s.runCycle(context.Background()) }()
	<-disp.started

	if s.runCycle(context.Background()) {
		t.Fatal("expected the overlapping tick to yield")
	}

	close(disp.release)
	if !<-done {
		t.Fatal("first cycle should have run to completion")
	}
	if disp.calls != 1 {
		t.Fatalf("expected a single dispatch, got %d", disp.calls)
	}
}

func TestSchedulerDiscoveryErrorIsNoOp(t *testing.T) {
	repo := newFakeJobRepo()
	repo.fetchErr = errors.New("connection refused")
	disp := &blockingDispatcher{
		started: make(chan struct{}),
		release: make(chan struct{}),
	}
	s := NewScheduler(newSchedulerConfig(t), newTestLogger(), repo, nil, disp, NewStats())

	if !s.runCycle(context.Background()) {
		t.Fatal("discovery failure must still count as a finished cycle")
	}
	if disp.calls != 0 {
		t.Fatal("nothing should be dispatched when discovery fails")
	}
}

func TestSchedulerEmptyDiscovery(t *testing.T) {
	disp := &blockingDispatcher{
		started: make(chan struct{}),
		release: make(chan struct{}),
	}
	s := NewScheduler(newSchedulerConfig(t), newTestLogger(), newFakeJobRepo(), nil, disp, NewStats())

	if !s.runCycle(context.Background()) {
		t.Fatal("empty discovery must finish the cycle")
	}
	if disp.calls != 0 {
		t.Fatal("empty batch must not be dispatched")
	}
}
