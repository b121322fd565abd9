package worker

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/amankumarsingh77/cloud-video-remuxer/internal/config"
	"github.com/amankumarsingh77/cloud-video-remuxer/internal/models"
	"github.com/amankumarsingh77/cloud-video-remuxer/internal/remux"
	"github.com/amankumarsingh77/cloud-video-remuxer/internal/transcode"
	"github.com/amankumarsingh77/cloud-video-remuxer/pkg/logger"
)

const (
	// minDurationSeconds is the floor below which a remux is pointless:
	// clips of a second or less are stored as uploaded.
	minDurationSeconds = 1.0

	skipReasonDurationTooShort = "duration_too_short"

	errorTextLimit = 500
)

type Outcome int

const (
	OutcomeNone Outcome = iota
	OutcomeCompleted
	OutcomeSkipped
	OutcomeRetrying
	OutcomeFailed
)

func (o Outcome) String() string {
	switch o {
	case OutcomeCompleted:
		return "completed"
	case OutcomeSkipped:
		return "skipped"
	case OutcomeRetrying:
		return "retrying"
	case OutcomeFailed:
		return "failed"
	}
	return "none"
}

// Result is the settled outcome of one processing attempt. Errors never
// escape the processor; siblings in the same dispatch group are unaffected.
type Result struct {
	JobID   uuid.UUID
	Outcome Outcome
	Err     error
}

// Processor drives a single job through the remux state machine:
// duration pre-check, claim, existence check, download, probe, remux,
// upload, finalize. Scratch files are removed on every exit path.
type Processor struct {
	cfg         *config.Config
	logger      logger.Logger
	jobRepo     remux.JobRepository
	storageRepo remux.StorageRepository
	cacheRepo   remux.CacheRepository
	invoker     transcode.Invoker
	stats       *Stats
}

func NewProcessor(
	cfg *config.Config,
	logger logger.Logger,
	jobRepo remux.JobRepository,
	storageRepo remux.StorageRepository,
	cacheRepo remux.CacheRepository,
	invoker transcode.Invoker,
	stats *Stats,
) *Processor {
	return &Processor{
		cfg:         cfg,
		logger:      logger,
		jobRepo:     jobRepo,
		storageRepo: storageRepo,
		cacheRepo:   cacheRepo,
		invoker:     invoker,
		stats:       stats,
	}
}

func (p *Processor) Process(ctx context.Context, job *models.RemuxJob) Result {
	// Known-short jobs skip without claiming: no attempt increment, no I/O.
	if job.VideoDurationSeconds != nil && *job.VideoDurationSeconds <= minDurationSeconds {
		return p.skip(ctx, job, models.Metadata{
			"skip_reason": skipReasonDurationTooShort,
			"skipped_at":  time.Now().UTC().Format(time.RFC3339),
		})
	}

	attempt := job.RemuxAttempts + 1
	claimMeta := models.Metadata{
		fmt.Sprintf("attempt_%d_at", attempt): time.Now().UTC().Format(time.RFC3339),
	}
	if err := p.jobRepo.MarkProcessing(ctx, job.JobID, attempt, claimMeta); err != nil {
		p.logger.Errorf("job %s: failed to claim: %v", job.JobID, err)
		return Result{JobID: job.JobID, Outcome: OutcomeNone, Err: err}
	}
	p.cacheStatus(ctx, job.JobID, models.RemuxStatusProcessing)

	srcPath, outPath := p.scratchPaths(job.JobID)
	defer p.cleanupScratch(job.JobID, srcPath, outPath)

	headSize, exists, err := p.storageRepo.HeadObject(ctx, p.cfg.S3.Bucket, job.VideoKey)
	if err != nil {
		return p.handleFailure(ctx, job, attempt, errors.Wrap(err, "existence check"))
	}
	if !exists {
		if attempt >= remux.MaxAttempts {
			return p.fail(ctx, job, errors.Wrapf(remux.ErrObjectNotFound,
				"video %s not found after %d attempts", job.VideoKey, attempt))
		}
		// Upload may still be propagating; the row stays at processing
		// until the lease reclaim makes it discoverable again.
		p.logger.Warnf("job %s: object %s not found, attempt %d/%d, waiting",
			job.JobID, job.VideoKey, attempt, remux.MaxAttempts)
		return Result{JobID: job.JobID, Outcome: OutcomeRetrying, Err: remux.ErrObjectNotFound}
	}

	if err = os.MkdirAll(p.cfg.Worker.ScratchDir, 0o755); err != nil {
		return p.handleFailure(ctx, job, attempt, errors.Wrap(err, "scratch dir"))
	}
	inputSize, err := p.storageRepo.DownloadToFile(ctx, p.cfg.S3.Bucket, job.VideoKey, srcPath)
	if err != nil {
		return p.handleFailure(ctx, job, attempt, errors.Wrap(err, "download"))
	}
	if inputSize == 0 {
		inputSize = headSize
	}

	duration := job.Duration()
	probed := false
	if duration == 0 {
		duration = p.invoker.ProbeDuration(ctx, srcPath)
		probed = true
	}
	if duration <= minDurationSeconds {
		return p.skip(ctx, job, models.Metadata{
			"skip_reason":       skipReasonDurationTooShort,
			"detected_duration": duration,
			"skipped_at":        time.Now().UTC().Format(time.RFC3339),
		})
	}

	remuxStart := time.Now()
	if err = p.invoker.Remux(ctx, srcPath, outPath); err != nil {
		return p.handleFailure(ctx, job, attempt, errors.Wrap(err, "remux"))
	}

	outInfo, err := os.Stat(outPath)
	if err != nil {
		return p.handleFailure(ctx, job, attempt, errors.Wrap(err, "stat output"))
	}
	outputSize := outInfo.Size()
	// The remux optimizes for seeking, not size; a larger output is fine.
	savedBytes := inputSize - outputSize

	if err = p.upload(ctx, job, outPath, outputSize); err != nil {
		return p.handleFailure(ctx, job, attempt, errors.Wrap(err, "upload"))
	}

	remuxedAt := time.Now().UTC()
	finalMeta := models.Metadata{
		"original_size":  inputSize,
		"size_saved":     savedBytes,
		"remux_duration": time.Since(remuxStart).String(),
		"remuxed_by":     p.cfg.Worker.Identity,
	}
	if inputSize > 0 {
		finalMeta["compression_ratio"] = float64(outputSize) / float64(inputSize)
	}
	if probed {
		finalMeta["detected_duration"] = duration
	}
	if err = p.jobRepo.MarkCompleted(ctx, job.JobID, remuxedAt, outputSize, finalMeta); err != nil {
		return p.handleFailure(ctx, job, attempt, errors.Wrap(err, "finalize"))
	}
	p.cacheStatus(ctx, job.JobID, models.RemuxStatusCompleted)
	p.stats.AddProcessed(savedBytes)
	p.logger.Infof("job %s: remuxed %s in %s, saved %d bytes",
		job.JobID, job.VideoKey, time.Since(remuxStart), savedBytes)
	return Result{JobID: job.JobID, Outcome: OutcomeCompleted}
}

func (p *Processor) upload(ctx context.Context, job *models.RemuxJob, outPath string, outputSize int64) error {
	outFile, err := os.Open(outPath)
	if err != nil {
		return err
	}
	defer outFile.Close()
	tagging := fmt.Sprintf("remuxed=true&remuxed-at=%s&remuxed-by=%s",
		time.Now().UTC().Format("2006-01-02T15:04:05Z"), p.cfg.Worker.Identity)
	return p.storageRepo.UploadFile(ctx, &models.StorageUploadInput{
		Body:     outFile,
		Bucket:   p.cfg.S3.Bucket,
		Key:      job.VideoKey,
		MimeType: "video/webm",
		Size:     outputSize,
		Tagging:  tagging,
	})
}

func (p *Processor) skip(ctx context.Context, job *models.RemuxJob, meta models.Metadata) Result {
	if err := p.jobRepo.MarkSkipped(ctx, job.JobID, meta); err != nil {
		p.logger.Errorf("job %s: failed to mark skipped: %v", job.JobID, err)
		return Result{JobID: job.JobID, Outcome: OutcomeNone, Err: err}
	}
	p.cacheStatus(ctx, job.JobID, models.RemuxStatusSkipped)
	p.stats.AddSkipped()
	p.logger.Infof("job %s: skipped, duration too short", job.JobID)
	return Result{JobID: job.JobID, Outcome: OutcomeSkipped}
}

// handleFailure settles an attempt that hit an unexpected error: terminal
// failure at the cap, otherwise the row is left at processing for a later
// cycle.
func (p *Processor) handleFailure(ctx context.Context, job *models.RemuxJob, attempt int, err error) Result {
	p.logger.Errorf("job %s: attempt %d/%d failed: %v", job.JobID, attempt, remux.MaxAttempts, err)
	if attempt >= remux.MaxAttempts {
		return p.fail(ctx, job, err)
	}
	return Result{JobID: job.JobID, Outcome: OutcomeRetrying, Err: err}
}

func (p *Processor) fail(ctx context.Context, job *models.RemuxJob, cause error) Result {
	meta := models.Metadata{
		"remux_error": truncateError(cause),
		"failed_at":   time.Now().UTC().Format(time.RFC3339),
	}
	if err := p.jobRepo.MarkFailed(ctx, job.JobID, meta); err != nil {
		p.logger.Errorf("job %s: failed to mark failed: %v", job.JobID, err)
	}
	p.cacheStatus(ctx, job.JobID, models.RemuxStatusFailed)
	p.stats.AddFailed()
	return Result{JobID: job.JobID, Outcome: OutcomeFailed, Err: cause}
}

func (p *Processor) cacheStatus(ctx context.Context, jobID uuid.UUID, status models.RemuxStatus) {
	if p.cacheRepo == nil {
		return
	}
	if err := p.cacheRepo.SetJobStatus(ctx, jobID.String(), status); err != nil {
		p.logger.Warnf("job %s: status cache write failed: %v", jobID, err)
	}
}

// scratchPaths derives the per-job scratch file names. Namespacing by job id
// keeps concurrent jobs from colliding and makes retry reuse harmless.
func (p *Processor) scratchPaths(jobID uuid.UUID) (string, string) {
	return filepath.Join(p.cfg.Worker.ScratchDir, jobID.String()+"_src.webm"),
		filepath.Join(p.cfg.Worker.ScratchDir, jobID.String()+"_remux.webm")
}

func (p *Processor) cleanupScratch(jobID uuid.UUID, paths ...string) {
	for _, path := range paths {
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			p.logger.Warnf("job %s: failed to remove scratch file %s: %v", jobID, path, err)
		}
	}
}

func truncateError(err error) string {
	text := err.Error()
	if len(text) > errorTextLimit {
		return text[:errorTextLimit]
	}
	return text
}
