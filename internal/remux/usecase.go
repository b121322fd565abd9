package remux

import (
	"context"

	"github.com/google/uuid"

	"github.com/amankumarsingh77/cloud-video-remuxer/internal/models"
)

// UseCase backs the upload API: issue presigned upload URLs, register
// finished uploads as remux jobs, answer status lookups.
type UseCase interface {
	GetPresignUploadURL(ctx context.Context, input *models.PresignUploadInput) (string, string, error)
	ConfirmUpload(ctx context.Context, input *models.ConfirmUploadInput) (*models.RemuxJob, error)
	GetJob(ctx context.Context, jobID uuid.UUID) (*models.RemuxJob, error)
	GetJobStatus(ctx context.Context, jobID uuid.UUID) (models.RemuxStatus, error)
}
