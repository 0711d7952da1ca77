package blobsource

import (
	"errors"
	"fmt"
)

var (
	ErrNoContainer = errors.New("blobsource: container is not set")
	ErrNoPredicate = errors.New("blobsource: retry predicate is not set")
	ErrNoStream    = errors.New("blobsource: container returned no stream")
)

// RetryableError is returned when opening a blob failed with a transient error.
// The caller may try to open the blob again.
type RetryableError struct {
	Path string
	Err  error
}

func (e *RetryableError) Error() string {
	return fmt.Sprintf("recoverable error opening %q: %v", e.Path, e.Err)
}

func (e *RetryableError) Unwrap() error {
	return e.Err
}

// FatalError is returned when opening a blob failed and retrying won't help.
type FatalError struct {
	Path string
	Err  error
}

func (e *FatalError) Error() string {
	return fmt.Sprintf("cannot open %q: %v", e.Path, e.Err)
}

func (e *FatalError) Unwrap() error {
	return e.Err
}

// IsRetryable checks if an error chain contains a RetryableError.
func IsRetryable(err error) bool {
	var e *RetryableError
	return errors.As(err, &e)
}

// IsFatal checks if an error chain contains a FatalError.
func IsFatal(err error) bool {
	var e *FatalError
	return errors.As(err, &e)
}
