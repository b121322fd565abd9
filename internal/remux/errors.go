package remux

import "github.com/pkg/errors"

var (
	// ErrObjectNotFound means the uploaded object is not (yet) visible in
	// storage. Retryable until the attempt cap.
	ErrObjectNotFound = errors.New("object not found in storage")

	// ErrJobNotFound means no job row exists for the given id.
	ErrJobNotFound = errors.New("job not found")
)
