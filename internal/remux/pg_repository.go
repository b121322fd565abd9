package remux

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/amankumarsingh77/cloud-video-remuxer/internal/models"
)

// MaxAttempts caps how many times a job may be claimed before it is
// terminally failed.
const MaxAttempts = 3

// JobRepository is the job store gateway. Every status writer merges the
// given metadata into the row's jsonb bag instead of replacing it.
type JobRepository interface {
	CreateJob(ctx context.Context, job *models.RemuxJob) (*models.RemuxJob, error)
	GetJobByID(ctx context.Context, jobID uuid.UUID) (*models.RemuxJob, error)
	FetchEligibleJobs(ctx context.Context, limit int) ([]*models.RemuxJob, error)
	ReclaimStaleJobs(ctx context.Context, olderThan time.Duration) (int64, error)
	MarkProcessing(ctx context.Context, jobID uuid.UUID, attempt int, meta models.Metadata) error
	MarkSkipped(ctx context.Context, jobID uuid.UUID, meta models.Metadata) error
	MarkCompleted(ctx context.Context, jobID uuid.UUID, remuxedAt time.Time, remuxedSizeBytes int64, meta models.Metadata) error
	MarkFailed(ctx context.Context, jobID uuid.UUID, meta models.Metadata) error
}
