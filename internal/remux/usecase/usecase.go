package usecase

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/amankumarsingh77/cloud-video-remuxer/internal/config"
	"github.com/amankumarsingh77/cloud-video-remuxer/internal/models"
	"github.com/amankumarsingh77/cloud-video-remuxer/internal/remux"
	"github.com/amankumarsingh77/cloud-video-remuxer/pkg/logger"
)

const (
	uploadKeyPrefix = "recordings/"
	presignExpiry   = 60 * time.Minute
)

type remuxUC struct {
	cfg         *config.Config
	jobRepo     remux.JobRepository
	storageRepo remux.StorageRepository
	cacheRepo   remux.CacheRepository
	logger      logger.Logger
}

func NewRemuxUseCase(
	cfg *config.Config,
	jobRepo remux.JobRepository,
	storageRepo remux.StorageRepository,
	cacheRepo remux.CacheRepository,
	log logger.Logger,
) remux.UseCase {
	return &remuxUC{
		cfg:         cfg,
		jobRepo:     jobRepo,
		storageRepo: storageRepo,
		cacheRepo:   cacheRepo,
		logger:      log,
	}
}

// GetPresignUploadURL issues a time-limited PUT URL and the object key the
// client must upload to. The key is minted here so clients cannot pick keys.
func (u *remuxUC) GetPresignUploadURL(ctx context.Context, input *models.PresignUploadInput) (string, string, error) {
	key := fmt.Sprintf("%s%s%s", uploadKeyPrefix, uuid.New().String(), filepath.Ext(input.FileName))
	url, err := u.storageRepo.GetPresignedPutURL(ctx, input, u.cfg.S3.Bucket, key, presignExpiry)
	if err != nil {
		return "", "", fmt.Errorf("failed to issue upload url: %w", err)
	}
	return url, key, nil
}

// ConfirmUpload registers a finished upload as a remux job. Uploads the
// client already knows are a second or shorter are created skipped so the
// worker never picks them up.
func (u *remuxUC) ConfirmUpload(ctx context.Context, input *models.ConfirmUploadInput) (*models.RemuxJob, error) {
	size, exists, err := u.storageRepo.HeadObject(ctx, u.cfg.S3.Bucket, input.VideoKey)
	if err != nil {
		return nil, fmt.Errorf("failed to verify upload: %w", err)
	}
	if !exists {
		return nil, remux.ErrObjectNotFound
	}

	status := models.RemuxStatusPending
	meta := models.Metadata{
		"uploaded_at": time.Now().UTC().Format(time.RFC3339),
	}
	if input.DurationSeconds != nil && *input.DurationSeconds <= 1 {
		status = models.RemuxStatusSkipped
		meta["skip_reason"] = "duration_too_short"
	}

	job := &models.RemuxJob{
		UploadStatus:         models.UploadStatusCompleted,
		RemuxStatus:          status,
		VideoKey:             input.VideoKey,
		VideoDurationSeconds: input.DurationSeconds,
		VideoSizeBytes:       &size,
		Metadata:             meta,
	}
	created, err := u.jobRepo.CreateJob(ctx, job)
	if err != nil {
		return nil, err
	}
	if cacheErr := u.cacheRepo.SetJobStatus(ctx, created.JobID.String(), created.RemuxStatus); cacheErr != nil {
		u.logger.Warnf("job %s: status cache write failed: %v", created.JobID, cacheErr)
	}
	return created, nil
}

func (u *remuxUC) GetJob(ctx context.Context, jobID uuid.UUID) (*models.RemuxJob, error) {
	return u.jobRepo.GetJobByID(ctx, jobID)
}

// GetJobStatus prefers the cache and falls back to the job store.
func (u *remuxUC) GetJobStatus(ctx context.Context, jobID uuid.UUID) (models.RemuxStatus, error) {
	if status, err := u.cacheRepo.GetJobStatus(ctx, jobID.String()); err == nil {
		return status, nil
	}
	job, err := u.jobRepo.GetJobByID(ctx, jobID)
	if err != nil {
		return "", err
	}
	return job.RemuxStatus, nil
}
