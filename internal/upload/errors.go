package upload

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidRequest is returned for malformed upload calls, e.g. a missing file_prefix.
	ErrInvalidRequest = errors.New("invalid upload request")

	// ErrNotFound is returned when the staged source file does not exist.
	ErrNotFound = errors.New("source file not found")

	// ErrUpload is matched by every UploadError.
	ErrUpload = errors.New("upload failed")

	// ErrRecordNotFound is returned when no upload is recorded for a resource id.
	ErrRecordNotFound = errors.New("upload record not found")
)

// UploadError wraps a failure to reach the object store or to write an object.
type UploadError struct {
	// Op is the step that failed: "connect", "container" or "put".
	Op  string
	Key string
	Err error
}

func (e *UploadError) Error() string {
	if e.Key != "" {
		return fmt.Sprintf("upload %s %s: %v", e.Op, e.Key, e.Err)
	}
	return fmt.Sprintf("upload %s: %v", e.Op, e.Err)
}

func (e *UploadError) Unwrap() error {
	return e.Err
}

// Is lets errors.Is(err, ErrUpload) match.
func (e *UploadError) Is(target error) bool {
	return target == ErrUpload
}

func invalidRequest(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidRequest, fmt.Sprintf(format, args...))
}
