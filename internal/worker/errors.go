package worker

import (
	"errors"
	"fmt"
)

// PermanentError marks a processing failure that cannot succeed on
// retry: missing records, missing files, unsupported formats, samples
// too short to analyze, or too few safe recommendations after filtering.
// The retry executor returns these immediately and the upload is marked
// failed.
type PermanentError struct {
	Reason string
	Err    error
}

func (e *PermanentError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Reason, e.Err)
	}
	return e.Reason
}

func (e *PermanentError) Unwrap() error {
	return e.Err
}

// permanent wraps a reason (and optional cause) as a PermanentError.
func permanent(reason string, err error) *PermanentError {
	return &PermanentError{Reason: reason, Err: err}
}

// IsPermanent reports whether err is a PermanentError anywhere in its
// chain.
func IsPermanent(err error) bool {
	var pe *PermanentError
	return errors.As(err, &pe)
}
