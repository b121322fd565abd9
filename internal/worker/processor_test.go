package worker

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/amankumarsingh77/cloud-video-remuxer/internal/config"
	"github.com/amankumarsingh77/cloud-video-remuxer/internal/models"
	"github.com/amankumarsingh77/cloud-video-remuxer/internal/remux"
	"github.com/amankumarsingh77/cloud-video-remuxer/pkg/logger"
)

type fakeJobRepo struct {
	mu       sync.Mutex
	jobs     map[uuid.UUID]*models.RemuxJob
	fetchErr error
}

func newFakeJobRepo(jobs ...*models.RemuxJob) *fakeJobRepo {
	r := &fakeJobRepo{jobs: make(map[uuid.UUID]*models.RemuxJob)}
	for _, j := range jobs {
		r.jobs[j.JobID] = j
	}
	return r
}

func (r *fakeJobRepo) CreateJob(_ context.Context, job *models.RemuxJob) (*models.RemuxJob, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	job.JobID = uuid.New()
	job.CreatedAt = time.Now().UTC()
	r.jobs[job.JobID] = job
	return job, nil
}

func (r *fakeJobRepo) GetJobByID(_ context.Context, jobID uuid.UUID) (*models.RemuxJob, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	job, ok := r.jobs[jobID]
	if !ok {
		return nil, remux.ErrJobNotFound
	}
	return job, nil
}

func (r *fakeJobRepo) FetchEligibleJobs(_ context.Context, limit int) ([]*models.RemuxJob, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.fetchErr != nil {
		return nil, r.fetchErr
	}
	var eligible []*models.RemuxJob
	for _, job := range r.jobs {
		if job.RemuxStatus != models.RemuxStatusPending || job.RemuxAttempts >= remux.MaxAttempts {
			continue
		}
		if job.VideoDurationSeconds != nil && *job.VideoDurationSeconds <= 1 {
			continue
		}
		eligible = append(eligible, job)
		if len(eligible) == limit {
			break
		}
	}
	return eligible, nil
}

func (r *fakeJobRepo) ReclaimStaleJobs(_ context.Context, _ time.Duration) (int64, error) {
	return 0, nil
}

func (r *fakeJobRepo) MarkProcessing(_ context.Context, jobID uuid.UUID, attempt int, meta models.Metadata) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	job := r.jobs[jobID]
	job.RemuxStatus = models.RemuxStatusProcessing
	job.RemuxAttempts = attempt
	r.mergeMeta(job, meta)
	return nil
}

func (r *fakeJobRepo) MarkSkipped(_ context.Context, jobID uuid.UUID, meta models.Metadata) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	job := r.jobs[jobID]
	job.RemuxStatus = models.RemuxStatusSkipped
	r.mergeMeta(job, meta)
	return nil
}

func (r *fakeJobRepo) MarkCompleted(_ context.Context, jobID uuid.UUID, remuxedAt time.Time, remuxedSizeBytes int64, meta models.Metadata) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	job := r.jobs[jobID]
	job.RemuxStatus = models.RemuxStatusCompleted
	job.RemuxedAt = &remuxedAt
	job.RemuxedSizeBytes = &remuxedSizeBytes
	r.mergeMeta(job, meta)
	return nil
}

func (r *fakeJobRepo) MarkFailed(_ context.Context, jobID uuid.UUID, meta models.Metadata) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	job := r.jobs[jobID]
	job.RemuxStatus = models.RemuxStatusFailed
	r.mergeMeta(job, meta)
	return nil
}

func (r *fakeJobRepo) mergeMeta(job *models.RemuxJob, meta models.Metadata) {
	if job.Metadata == nil {
		job.Metadata = models.Metadata{}
	}
	for k, v := range meta {
		job.Metadata[k] = v
	}
}

type fakeStorage struct {
	mu          sync.Mutex
	objects     map[string][]byte
	uploads     map[string]int
	downloadErr error
	uploadErr   error
}

func newFakeStorage() *fakeStorage {
	return &fakeStorage{
		objects: make(map[string][]byte),
		uploads: make(map[string]int),
	}
}

func (s *fakeStorage) HeadObject(_ context.Context, _, key string) (int64, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, ok := s.objects[key]
	if !ok {
		return 0, false, nil
	}
	return int64(len(data)), true, nil
}

func (s *fakeStorage) DownloadToFile(_ context.Context, _, key, localPath string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.downloadErr != nil {
		return 0, s.downloadErr
	}
	data := s.objects[key]
	if err := os.WriteFile(localPath, data, 0o644); err != nil {
		return 0, err
	}
	return int64(len(data)), nil
}

func (s *fakeStorage) UploadFile(_ context.Context, input *models.StorageUploadInput) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.uploadErr != nil {
		return s.uploadErr
	}
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, input.Body); err != nil {
		return err
	}
	s.objects[input.Key] = buf.Bytes()
	s.uploads[input.Key]++
	return nil
}

func (s *fakeStorage) GetPresignedPutURL(_ context.Context, _ *models.PresignUploadInput, _, key string, _ time.Duration) (string, error) {
	return "https://signed.example/" + key, nil
}

func (s *fakeStorage) GetPresignedGetURL(_ context.Context, _, key string, _ time.Duration) (string, error) {
	return "https://signed.example/" + key, nil
}

type fakeInvoker struct {
	probeDuration float64
	remuxErr      error
	output        []byte
}

func (f *fakeInvoker) ProbeDuration(_ context.Context, _ string) float64 {
	return f.probeDuration
}

func (f *fakeInvoker) Remux(_ context.Context, _, outputPath string) error {
	if f.remuxErr != nil {
		return f.remuxErr
	}
	return os.WriteFile(outputPath, f.output, 0o644)
}

func newTestConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := &config.Config{}
	cfg.S3.Bucket = "recordings"
	cfg.Worker.ScratchDir = filepath.Join(t.TempDir(), "scratch")
	cfg.Worker.BatchSize = 3
	cfg.Worker.FetchLimit = 5
	cfg.Worker.Identity = "remux-worker-test"
	return cfg
}

func newTestLogger() logger.Logger {
	l := logger.NewApiLogger(&config.Config{})
	l.InitLogger()
	return l
}

func newTestProcessor(t *testing.T, repo *fakeJobRepo, storage *fakeStorage, invoker *fakeInvoker) (*Processor, *Stats) {
	t.Helper()
	stats := NewStats()
	p := NewProcessor(newTestConfig(t), newTestLogger(), repo, storage, nil, invoker, stats)
	return p, stats
}

func floatPtr(f float64) *float64 { return &f }

func newPendingJob(key string, duration *float64) *models.RemuxJob {
	return &models.RemuxJob{
		JobID:                uuid.New(),
		UploadStatus:         models.UploadStatusCompleted,
		RemuxStatus:          models.RemuxStatusPending,
		VideoKey:             key,
		VideoDurationSeconds: duration,
		CreatedAt:            time.Now().UTC(),
	}
}

func assertScratchEmpty(t *testing.T, p *Processor) {
	t.Helper()
	entries, err := os.ReadDir(p.cfg.Worker.ScratchDir)
	if err != nil {
		if os.IsNotExist(err) {
			return
		}
		t.Fatalf("read scratch dir: %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("expected empty scratch dir, found %d entries", len(entries))
	}
}

func TestProcessSkipsKnownShortDuration(t *testing.T) {
	job := newPendingJob("recordings/short.webm", floatPtr(0.5))
	repo := newFakeJobRepo(job)
	storage := newFakeStorage()
	p, stats := newTestProcessor(t, repo, storage, &fakeInvoker{})

	res := p.Process(context.Background(), job)

	if res.Outcome != OutcomeSkipped {
		t.Fatalf("expected skipped, got %s", res.Outcome)
	}
	if job.RemuxStatus != models.RemuxStatusSkipped {
		t.Fatalf("expected status skipped, got %s", job.RemuxStatus)
	}
	if job.RemuxAttempts != 0 {
		t.Fatalf("known-short skip must not consume an attempt, got %d", job.RemuxAttempts)
	}
	if job.Metadata["skip_reason"] != "duration_too_short" {
		t.Fatalf("missing skip_reason, metadata: %v", job.Metadata)
	}
	if snap := stats.Snapshot(); snap.Skipped != 1 {
		t.Fatalf("expected 1 skipped, got %d", snap.Skipped)
	}
	if len(storage.uploads) != 0 {
		t.Fatal("skip path must not touch storage")
	}
}

func TestProcessCompletesJob(t *testing.T) {
	const key = "recordings/x.webm"
	job := newPendingJob(key, floatPtr(45))
	repo := newFakeJobRepo(job)
	storage := newFakeStorage()
	storage.objects[key] = bytes.Repeat([]byte("a"), 1000)
	invoker := &fakeInvoker{output: bytes.Repeat([]byte("b"), 600)}
	p, stats := newTestProcessor(t, repo, storage, invoker)

	res := p.Process(context.Background(), job)

	if res.Outcome != OutcomeCompleted {
		t.Fatalf("expected completed, got %s (err %v)", res.Outcome, res.Err)
	}
	if job.RemuxStatus != models.RemuxStatusCompleted {
		t.Fatalf("expected status completed, got %s", job.RemuxStatus)
	}
	if job.RemuxAttempts != 1 {
		t.Fatalf("expected 1 attempt, got %d", job.RemuxAttempts)
	}
	if job.RemuxedAt == nil {
		t.Fatal("remuxed_at not set")
	}
	if job.RemuxedSizeBytes == nil || *job.RemuxedSizeBytes != 600 {
		t.Fatalf("expected remuxed size 600, got %v", job.RemuxedSizeBytes)
	}
	if storage.uploads[key] != 1 {
		t.Fatalf("expected the key to be overwritten once, got %d uploads", storage.uploads[key])
	}
	if !bytes.Equal(storage.objects[key], invoker.output) {
		t.Fatal("object was not overwritten with remuxed content")
	}
	snap := stats.Snapshot()
	if snap.Processed != 1 || snap.BytesSaved != 400 {
		t.Fatalf("expected processed=1 bytes_saved=400, got %+v", snap)
	}
	assertScratchEmpty(t, p)
}

func TestProcessObjectMissingWaitsThenFails(t *testing.T) {
	job := newPendingJob("recordings/ghost.webm", floatPtr(45))
	repo := newFakeJobRepo(job)
	p, stats := newTestProcessor(t, repo, newFakeStorage(), &fakeInvoker{})

	for attempt := 1; attempt <= remux.MaxAttempts; attempt++ {
		res := p.Process(context.Background(), job)
		if attempt < remux.MaxAttempts {
			if res.Outcome != OutcomeRetrying {
				t.Fatalf("attempt %d: expected retrying, got %s", attempt, res.Outcome)
			}
			if job.RemuxStatus != models.RemuxStatusProcessing {
				t.Fatalf("attempt %d: expected processing, got %s", attempt, job.RemuxStatus)
			}
		} else if res.Outcome != OutcomeFailed {
			t.Fatalf("final attempt: expected failed, got %s", res.Outcome)
		}
	}

	if job.RemuxStatus != models.RemuxStatusFailed {
		t.Fatalf("expected status failed, got %s", job.RemuxStatus)
	}
	if job.RemuxAttempts != remux.MaxAttempts {
		t.Fatalf("expected %d attempts, got %d", remux.MaxAttempts, job.RemuxAttempts)
	}
	errText, _ := job.Metadata["remux_error"].(string)
	if !strings.Contains(errText, "not found") {
		t.Fatalf("expected not-found error in metadata, got %q", errText)
	}
	if snap := stats.Snapshot(); snap.Failed != 1 {
		t.Fatalf("expected 1 failed, got %d", snap.Failed)
	}
}

func TestProcessProbedShortDurationSkips(t *testing.T) {
	const key = "recordings/unknown.webm"
	job := newPendingJob(key, nil)
	repo := newFakeJobRepo(job)
	storage := newFakeStorage()
	storage.objects[key] = []byte("tiny clip")
	p, stats := newTestProcessor(t, repo, storage, &fakeInvoker{probeDuration: 0.8})

	res := p.Process(context.Background(), job)

	if res.Outcome != OutcomeSkipped {
		t.Fatalf("expected skipped, got %s", res.Outcome)
	}
	if job.RemuxStatus != models.RemuxStatusSkipped {
		t.Fatalf("expected status skipped, got %s", job.RemuxStatus)
	}
	if job.Metadata["detected_duration"] != 0.8 {
		t.Fatalf("expected detected_duration 0.8, got %v", job.Metadata["detected_duration"])
	}
	if snap := stats.Snapshot(); snap.Skipped != 1 {
		t.Fatalf("expected 1 skipped, got %d", snap.Skipped)
	}
	assertScratchEmpty(t, p)
}

func TestProcessTranscodeFailureRetryableUntilCap(t *testing.T) {
	const key = "recordings/bad.webm"
	job := newPendingJob(key, floatPtr(45))
	repo := newFakeJobRepo(job)
	storage := newFakeStorage()
	storage.objects[key] = []byte("corrupt stream")
	invoker := &fakeInvoker{remuxErr: os.ErrInvalid}
	p, _ := newTestProcessor(t, repo, storage, invoker)

	res := p.Process(context.Background(), job)
	if res.Outcome != OutcomeRetrying {
		t.Fatalf("expected retrying under the cap, got %s", res.Outcome)
	}
	if job.RemuxStatus == models.RemuxStatusFailed {
		t.Fatal("job must not be failed before the attempt cap")
	}

	job.RemuxAttempts = remux.MaxAttempts - 1
	res = p.Process(context.Background(), job)
	if res.Outcome != OutcomeFailed {
		t.Fatalf("expected failed at the cap, got %s", res.Outcome)
	}
	if job.RemuxStatus != models.RemuxStatusFailed {
		t.Fatalf("expected status failed, got %s", job.RemuxStatus)
	}
	if job.RemuxAttempts != remux.MaxAttempts {
		t.Fatalf("expected %d attempts, got %d", remux.MaxAttempts, job.RemuxAttempts)
	}
	assertScratchEmpty(t, p)
}

func TestProcessLargerOutputStillCompletes(t *testing.T) {
	const key = "recordings/grow.webm"
	job := newPendingJob(key, floatPtr(45))
	repo := newFakeJobRepo(job)
	storage := newFakeStorage()
	storage.objects[key] = bytes.Repeat([]byte("a"), 1000)
	invoker := &fakeInvoker{output: bytes.Repeat([]byte("b"), 1500)}
	p, stats := newTestProcessor(t, repo, storage, invoker)

	res := p.Process(context.Background(), job)

	if res.Outcome != OutcomeCompleted {
		t.Fatalf("expected completed, got %s (err %v)", res.Outcome, res.Err)
	}
	saved, _ := job.Metadata["size_saved"].(int64)
	if saved != -500 {
		t.Fatalf("expected size_saved -500, got %v", job.Metadata["size_saved"])
	}
	if snap := stats.Snapshot(); snap.BytesSaved != -500 {
		t.Fatalf("expected bytes_saved -500, got %d", snap.BytesSaved)
	}
	if storage.uploads[key] != 1 {
		t.Fatal("larger output must still be uploaded")
	}
}

func TestProcessCleansScratchOnUploadFailure(t *testing.T) {
	const key = "recordings/upfail.webm"
	job := newPendingJob(key, floatPtr(45))
	repo := newFakeJobRepo(job)
	storage := newFakeStorage()
	storage.objects[key] = []byte("payload")
	storage.uploadErr = os.ErrPermission
	invoker := &fakeInvoker{output: []byte("remuxed")}
	p, _ := newTestProcessor(t, repo, storage, invoker)

	res := p.Process(context.Background(), job)

	if res.Outcome != OutcomeRetrying {
		t.Fatalf("expected retrying, got %s", res.Outcome)
	}
	assertScratchEmpty(t, p)
}
