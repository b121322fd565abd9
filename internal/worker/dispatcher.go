package worker

import (
	"context"
	"fmt"
	"sync"

	"github.com/amankumarsingh77/cloud-video-remuxer/internal/models"
	"github.com/amankumarsingh77/cloud-video-remuxer/pkg/logger"
)

// JobProcessor is what the dispatcher runs per job. Satisfied by *Processor;
// tests substitute fakes.
type JobProcessor interface {
	Process(ctx context.Context, job *models.RemuxJob) Result
}

// Dispatcher partitions a discovered job list into fixed-size groups and
// runs each group's jobs concurrently. Groups run sequentially, so in-flight
// jobs never exceed the group size. A failed job never blocks or cancels its
// siblings: every goroutine settles into its own Result slot.
type Dispatcher struct {
	groupSize int
	processor JobProcessor
	logger    logger.Logger
}

func NewDispatcher(groupSize int, processor JobProcessor, logger logger.Logger) *Dispatcher {
	if groupSize < 1 {
		groupSize = 1
	}
	return &Dispatcher{
		groupSize: groupSize,
		processor: processor,
		logger:    logger,
	}
}

func (d *Dispatcher) Dispatch(ctx context.Context, jobs []*models.RemuxJob) []Result {
	results := make([]Result, 0, len(jobs))
	for start := 0; start < len(jobs); start += d.groupSize {
		end := start + d.groupSize
		if end > len(jobs) {
			end = len(jobs)
		}
		results = append(results, d.runGroup(ctx, jobs[start:end])...)
	}
	return results
}

func (d *Dispatcher) runGroup(ctx context.Context, group []*models.RemuxJob) []Result {
	groupResults := make([]Result, len(group))
	var wg sync.WaitGroup
	for i, job := range group {
		wg.Add(1)
		go func(i int, job *models.RemuxJob) {
			defer wg.Done()
			defer func() {
				if r := recover(); r != nil {
					d.logger.Errorf("job %s: panic during processing: %v", job.JobID, r)
					groupResults[i] = Result{
						JobID:   job.JobID,
						Outcome: OutcomeFailed,
						Err:     fmt.Errorf("panic during processing: %v", r),
					}
				}
			}()
			groupResults[i] = d.processor.Process(ctx, job)
		}(i, job)
	}
	wg.Wait()
	return groupResults
}
