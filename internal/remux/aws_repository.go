package remux

import (
	"context"
	"time"

	"github.com/amankumarsingh77/cloud-video-remuxer/internal/models"
)

// StorageRepository is the object store gateway.
type StorageRepository interface {
	HeadObject(ctx context.Context, bucket, key string) (int64, bool, error)
	DownloadToFile(ctx context.Context, bucket, key, localPath string) (int64, error)
	UploadFile(ctx context.Context, input *models.StorageUploadInput) error
	GetPresignedPutURL(ctx context.Context, input *models.PresignUploadInput, bucket, key string, expiry time.Duration) (string, error)
	GetPresignedGetURL(ctx context.Context, bucket, key string, expiry time.Duration) (string, error)
}
