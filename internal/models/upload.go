package models

import "io"

// PresignUploadInput is the payload for requesting a presigned upload URL.
type PresignUploadInput struct {
	FileName string `json:"file_name" validate:"required,lte=255"`
	FileSize int64  `json:"file_size" validate:"required,gt=0"`
	MimeType string `json:"mime_type" validate:"required,lte=100"`
}

// ConfirmUploadInput is the payload sent once the client has finished its
// presigned PUT. DurationSeconds is the uploader's own reading and may be
// missing; the worker probes the file when it is.
type ConfirmUploadInput struct {
	VideoKey        string   `json:"video_key" validate:"required,lte=512"`
	DurationSeconds *float64 `json:"duration_seconds" validate:"omitempty,gte=0"`
}

// StorageUploadInput describes a single object write to the store.
type StorageUploadInput struct {
	Body     io.Reader
	Bucket   string
	Key      string
	MimeType string
	Size     int64
	Tagging  string
}
