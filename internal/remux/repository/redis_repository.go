package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/amankumarsingh77/cloud-video-remuxer/internal/models"
	"github.com/amankumarsingh77/cloud-video-remuxer/internal/remux"
)

const (
	jobStatusKeyPrefix = "remux:status:"
	statsSnapshotKey   = "remux:stats"
	jobStatusTTL       = 24 * time.Hour
)

type remuxRedisRepo struct {
	redisClient *redis.Client
}

func NewRemuxRedisRepo(redisClient *redis.Client) remux.CacheRepository {
	return &remuxRedisRepo{
		redisClient: redisClient,
	}
}

func (r *remuxRedisRepo) SetJobStatus(ctx context.Context, jobID string, status models.RemuxStatus) error {
	if err := r.redisClient.Set(ctx, jobStatusKeyPrefix+jobID, string(status), jobStatusTTL).Err(); err != nil {
		return fmt.Errorf("failed to cache job status: %w", err)
	}
	return nil
}

func (r *remuxRedisRepo) GetJobStatus(ctx context.Context, jobID string) (models.RemuxStatus, error) {
	status, err := r.redisClient.Get(ctx, jobStatusKeyPrefix+jobID).Result()
	if err != nil {
		return "", fmt.Errorf("failed to get cached job status: %w", err)
	}
	return models.RemuxStatus(status), nil
}

func (r *remuxRedisRepo) SetStatsSnapshot(ctx context.Context, fields map[string]interface{}) error {
	if err := r.redisClient.HSet(ctx, statsSnapshotKey, fields).Err(); err != nil {
		return fmt.Errorf("failed to publish stats snapshot: %w", err)
	}
	return nil
}
