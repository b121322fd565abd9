package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/amankumarsingh77/cloud-video-remuxer/internal/models"
	"github.com/amankumarsingh77/cloud-video-remuxer/internal/remux"
)

type jobRepo struct {
	db *sqlx.DB
}

func NewJobRepo(db *sqlx.DB) remux.JobRepository {
	return &jobRepo{
		db: db,
	}
}

func (r *jobRepo) CreateJob(ctx context.Context, job *models.RemuxJob) (*models.RemuxJob, error) {
	created := &models.RemuxJob{}
	if err := r.db.QueryRowxContext(
		ctx,
		createJobQuery,
		job.UploadStatus,
		job.RemuxStatus,
		job.VideoKey,
		job.VideoDurationSeconds,
		job.VideoSizeBytes,
		job.Metadata,
	).StructScan(created); err != nil {
		return nil, fmt.Errorf("failed to create remux job: %w", err)
	}
	return created, nil
}

func (r *jobRepo) GetJobByID(ctx context.Context, jobID uuid.UUID) (*models.RemuxJob, error) {
	job := &models.RemuxJob{}
	if err := r.db.QueryRowxContext(
		ctx,
		getJobByIDQuery,
		jobID,
	).StructScan(job); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, remux.ErrJobNotFound
		}
		return nil, fmt.Errorf("failed to get remux job by id: %w", err)
	}
	return job, nil
}

// FetchEligibleJobs returns the oldest discoverable jobs: upload complete,
// still pending, under the attempt cap, and not recorded as too short.
// Rows with unknown duration pass the filter and are probed by the worker.
func (r *jobRepo) FetchEligibleJobs(ctx context.Context, limit int) ([]*models.RemuxJob, error) {
	rows, err := r.db.QueryxContext(
		ctx,
		fetchEligibleJobsQuery,
		remux.MaxAttempts,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch eligible jobs: %w", err)
	}
	defer rows.Close()
	var jobs = make([]*models.RemuxJob, 0, limit)
	for rows.Next() {
		var job models.RemuxJob
		if err = rows.StructScan(&job); err != nil {
			return nil, fmt.Errorf("failed to scan remux job: %w", err)
		}
		jobs = append(jobs, &job)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to scan remux jobs: %w", err)
	}
	return jobs, nil
}

// ReclaimStaleJobs resets processing rows whose claim is older than the lease
// back to pending so a crashed worker's jobs become discoverable again.
func (r *jobRepo) ReclaimStaleJobs(ctx context.Context, olderThan time.Duration) (int64, error) {
	res, err := r.db.ExecContext(
		ctx,
		reclaimStaleJobsQuery,
		time.Now().UTC().Add(-olderThan),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to reclaim stale jobs: %w", err)
	}
	count, _ := res.RowsAffected()
	return count, nil
}

func (r *jobRepo) MarkProcessing(ctx context.Context, jobID uuid.UUID, attempt int, meta models.Metadata) error {
	return r.update(ctx, markProcessingQuery, jobID, attempt, meta)
}

func (r *jobRepo) MarkSkipped(ctx context.Context, jobID uuid.UUID, meta models.Metadata) error {
	return r.update(ctx, markSkippedQuery, jobID, meta)
}

func (r *jobRepo) MarkCompleted(ctx context.Context, jobID uuid.UUID, remuxedAt time.Time, remuxedSizeBytes int64, meta models.Metadata) error {
	return r.update(ctx, markCompletedQuery, jobID, remuxedAt, remuxedSizeBytes, meta)
}

func (r *jobRepo) MarkFailed(ctx context.Context, jobID uuid.UUID, meta models.Metadata) error {
	return r.update(ctx, markFailedQuery, jobID, meta)
}

func (r *jobRepo) update(ctx context.Context, query string, jobID uuid.UUID, args ...interface{}) error {
	params := append([]interface{}{jobID}, args...)
	res, err := r.db.ExecContext(ctx, query, params...)
	if err != nil {
		return fmt.Errorf("failed to update remux job: %w", err)
	}
	count, _ := res.RowsAffected()
	if count == 0 {
		return remux.ErrJobNotFound
	}
	return nil
}
