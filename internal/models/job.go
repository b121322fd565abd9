package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

type UploadStatus string

const (
	UploadStatusPending   UploadStatus = "pending"
	UploadStatusCompleted UploadStatus = "completed"
)

type RemuxStatus string

const (
	RemuxStatusPending    RemuxStatus = "pending"
	RemuxStatusProcessing RemuxStatus = "processing"
	RemuxStatusCompleted  RemuxStatus = "completed"
	RemuxStatusSkipped    RemuxStatus = "skipped"
	RemuxStatusFailed     RemuxStatus = "failed"
)

// Metadata is the append-only audit bag stored as jsonb on the job row.
// Updates merge keys server-side, existing keys are never dropped.
type Metadata map[string]interface{}

func (m Metadata) Value() (driver.Value, error) {
	if m == nil {
		return []byte("{}"), nil
	}
	b, err := json.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal metadata: %w", err)
	}
	return b, nil
}

func (m *Metadata) Scan(src interface{}) error {
	if src == nil {
		*m = Metadata{}
		return nil
	}
	var b []byte
	switch v := src.(type) {
	case []byte:
		b = v
	case string:
		b = []byte(v)
	default:
		return fmt.Errorf("unsupported metadata source type %T", src)
	}
	if len(b) == 0 {
		*m = Metadata{}
		return nil
	}
	return json.Unmarshal(b, m)
}

type RemuxJob struct {
	JobID                uuid.UUID    `json:"job_id" db:"job_id" validate:"omitempty"`
	UploadStatus         UploadStatus `json:"upload_status" db:"upload_status" validate:"omitempty"`
	RemuxStatus          RemuxStatus  `json:"remux_status" db:"remux_status" validate:"omitempty"`
	RemuxAttempts        int          `json:"remux_attempts" db:"remux_attempts" validate:"omitempty"`
	VideoKey             string       `json:"video_key" db:"video_key" validate:"required,lte=512"`
	VideoDurationSeconds *float64     `json:"video_duration_seconds" db:"video_duration_seconds" validate:"omitempty"`
	VideoSizeBytes       *int64       `json:"video_size_bytes" db:"video_size_bytes" validate:"omitempty"`
	RemuxedSizeBytes     *int64       `json:"remuxed_size_bytes" db:"remuxed_size_bytes" validate:"omitempty"`
	Metadata             Metadata     `json:"metadata" db:"metadata" validate:"omitempty"`
	RemuxedAt            *time.Time   `json:"remuxed_at" db:"remuxed_at" validate:"omitempty"`
	CreatedAt            time.Time    `json:"created_at" db:"created_at" validate:"omitempty"`
	UpdatedAt            time.Time    `json:"updated_at" db:"updated_at" validate:"omitempty"`
}

// Duration returns the recorded duration, 0 when none is recorded.
func (j *RemuxJob) Duration() float64 {
	if j.VideoDurationSeconds == nil {
		return 0
	}
	return *j.VideoDurationSeconds
}
