package repository

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"regexp"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/pkg/errors"

	"github.com/amankumarsingh77/cloud-video-remuxer/internal/models"
	"github.com/amankumarsingh77/cloud-video-remuxer/internal/remux"
)

var videoKeyPattern = regexp.MustCompile(`.+\.(webm|mkv|mp4|mov)$`)

type awsRepository struct {
	client        *s3.Client
	preSignClient *s3.PresignClient
}

func NewAwsRepository(awsClient *s3.Client, preSignClient *s3.PresignClient) remux.StorageRepository {
	return &awsRepository{
		preSignClient: preSignClient,
		client:        awsClient,
	}
}

// HeadObject reports the content length of the object and whether it exists.
// A missing key is not an error.
func (a *awsRepository) HeadObject(ctx context.Context, bucket, key string) (int64, bool, error) {
	res, err := a.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: &bucket,
		Key:    &key,
	})
	if err != nil {
		var notFound *types.NotFound
		if errors.As(err, &notFound) {
			return 0, false, nil
		}
		return 0, false, fmt.Errorf("failed to head object : %w", err)
	}
	var size int64
	if res.ContentLength != nil {
		size = *res.ContentLength
	}
	return size, true, nil
}

// DownloadToFile streams the object into localPath. When the direct get
// fails it retries once through a presigned URL, which gets around
// endpoints that reject streaming reads with path-style addressing.
func (a *awsRepository) DownloadToFile(ctx context.Context, bucket, key, localPath string) (int64, error) {
	res, err := a.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: &bucket,
		Key:    &key,
	})
	if err != nil {
		return a.downloadViaPresignedURL(ctx, bucket, key, localPath)
	}
	defer res.Body.Close()
	return writeToFile(localPath, res.Body)
}

func (a *awsRepository) downloadViaPresignedURL(ctx context.Context, bucket, key, localPath string) (int64, error) {
	url, err := a.GetPresignedGetURL(ctx, bucket, key, 15*time.Minute)
	if err != nil {
		return 0, fmt.Errorf("failed to presign fallback download : %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to build fallback download request : %w", err)
	}
	res, err := http.DefaultClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("failed to download via presigned url : %w", err)
	}
	defer res.Body.Close()
	if res.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("presigned download returned status %d", res.StatusCode)
	}
	return writeToFile(localPath, res.Body)
}

func (a *awsRepository) UploadFile(ctx context.Context, input *models.StorageUploadInput) error {
	_, err := a.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        &input.Bucket,
		Key:           &input.Key,
		ContentType:   &input.MimeType,
		ContentLength: &input.Size,
		Body:          input.Body,
		Tagging:       &input.Tagging,
	})
	if err != nil {
		return fmt.Errorf("failed to upload file : %w", err)
	}
	return nil
}

func (a *awsRepository) GetPresignedPutURL(ctx context.Context, input *models.PresignUploadInput, bucket, key string, expiry time.Duration) (string, error) {
	if !videoKeyPattern.MatchString(input.FileName) {
		return "", fmt.Errorf("invalid file format: %s", input.FileName)
	}
	putObjectReq, err := a.preSignClient.PresignPutObject(
		ctx,
		&s3.PutObjectInput{
			Bucket:        &bucket,
			Key:           &key,
			ContentLength: &input.FileSize,
			ContentType:   &input.MimeType,
		},
		s3.WithPresignExpires(expiry),
	)
	if err != nil {
		return "", fmt.Errorf("failed to presign put object : %w", err)
	}
	return putObjectReq.URL, nil
}

func (a *awsRepository) GetPresignedGetURL(ctx context.Context, bucket, key string, expiry time.Duration) (string, error) {
	getObjectReq, err := a.preSignClient.PresignGetObject(
		ctx,
		&s3.GetObjectInput{
			Bucket: &bucket,
			Key:    &key,
		},
		s3.WithPresignExpires(expiry),
	)
	if err != nil {
		return "", fmt.Errorf("failed to presign get object : %w", err)
	}
	return getObjectReq.URL, nil
}

func writeToFile(localPath string, body io.Reader) (int64, error) {
	outFile, err := os.Create(localPath)
	if err != nil {
		return 0, fmt.Errorf("failed to create local file : %w", err)
	}
	defer outFile.Close()
	written, err := io.Copy(outFile, body)
	if err != nil {
		return 0, fmt.Errorf("failed to write local file : %w", err)
	}
	return written, nil
}
