package remux

import (
	"context"

	"github.com/amankumarsingh77/cloud-video-remuxer/internal/models"
)

// CacheRepository keeps a short-lived view of job status and worker stats so
// the API can answer status polls without hitting the job store.
type CacheRepository interface {
	SetJobStatus(ctx context.Context, jobID string, status models.RemuxStatus) error
	GetJobStatus(ctx context.Context, jobID string) (models.RemuxStatus, error)
	SetStatsSnapshot(ctx context.Context, fields map[string]interface{}) error
}
