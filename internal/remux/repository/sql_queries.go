package repository

const (
	createJobQuery = `INSERT INTO remux_jobs (upload_status, remux_status, remux_attempts, video_key, video_duration_seconds, video_size_bytes, metadata)
					VALUES ($1, $2, 0, $3, $4, $5, $6) RETURNING *`

	getJobByIDQuery = `SELECT job_id, upload_status, remux_status, remux_attempts, video_key, video_duration_seconds,
						video_size_bytes, remuxed_size_bytes, metadata, remuxed_at, created_at, updated_at
					FROM remux_jobs WHERE job_id = $1`

	fetchEligibleJobsQuery = `SELECT job_id, upload_status, remux_status, remux_attempts, video_key, video_duration_seconds,
						video_size_bytes, remuxed_size_bytes, metadata, remuxed_at, created_at, updated_at
					FROM remux_jobs
					WHERE upload_status = 'completed'
					  AND remux_status = 'pending'
					  AND remux_attempts < $1
					  AND (video_duration_seconds IS NULL OR video_duration_seconds > 1)
					ORDER BY created_at ASC
					LIMIT $2`

	reclaimStaleJobsQuery = `UPDATE remux_jobs
					SET remux_status = 'pending', updated_at = now()
					WHERE remux_status = 'processing' AND updated_at < $1`

	markProcessingQuery = `UPDATE remux_jobs
					SET remux_status = 'processing',
					    remux_attempts = $2,
					    metadata = COALESCE(metadata, '{}'::jsonb) || $3::jsonb,
					    updated_at = now()
					WHERE job_id = $1`

	markSkippedQuery = `UPDATE remux_jobs
					SET remux_status = 'skipped',
					    metadata = COALESCE(metadata, '{}'::jsonb) || $2::jsonb,
					    updated_at = now()
					WHERE job_id = $1`

	markCompletedQuery = `UPDATE remux_jobs
					SET remux_status = 'completed',
					    remuxed_at = $2,
					    remuxed_size_bytes = $3,
					    metadata = COALESCE(metadata, '{}'::jsonb) || $4::jsonb,
					    updated_at = now()
					WHERE job_id = $1`

	markFailedQuery = `UPDATE remux_jobs
					SET remux_status = 'failed',
					    metadata = COALESCE(metadata, '{}'::jsonb) || $2::jsonb,
					    updated_at = now()
					WHERE job_id = $1`
)
