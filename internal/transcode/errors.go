package transcode

import "fmt"

// TranscodeError reports a genuine failure of the external media tool: the
// process exited non-zero and its output carries no success marker. Excerpt
// holds the tail of the tool's diagnostic output.
type TranscodeError struct {
	Err     error
	Excerpt string
}

func (e *TranscodeError) Error() string {
	return fmt.Sprintf("transcode failed: %v: %s", e.Err, e.Excerpt)
}

func (e *TranscodeError) Unwrap() error {
	return e.Err
}
