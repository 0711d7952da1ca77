package blobsource

import (
	"context"
	"io"
	"log"
	"time"

	gax "github.com/googleapis/gax-go/v2"
)

const DefaultAttempts = 3

// Retrier opens streams, retrying on RetryableError with an exponential backoff.
// A zero value is ready to use.
type Retrier struct {
	// Attempts is the maximal number of open attempts. Zero means DefaultAttempts.
	Attempts int
	// Backoff controls pauses between attempts. It is copied for each Open call.
	Backoff gax.Backoff
	// Logger receives a line for each retry. Defaults to the standard logger.
	Logger *log.Logger
}

func (r *Retrier) attempts() int {
	if r == nil || r.Attempts <= 0 {
		return DefaultAttempts
	}
	return r.Attempts
}

func (r *Retrier) logf(format string, args ...interface{}) {
	if r != nil && r.Logger != nil {
		r.Logger.Printf(format, args...)
		return
	}
	log.Printf(format, args...)
}

// Open calls OpenStream until it succeeds, fails with a non-retryable error,
// or the number of attempts is exhausted. The last error is returned as-is.
func (r *Retrier) Open(ctx context.Context, o Opener) (io.ReadCloser, error) {
	var bo gax.Backoff
	if r != nil {
		bo = r.Backoff
	}
	n := r.attempts()
	for i := 1; ; i++ {
		start := time.Now()
		rc, err := o.OpenStream(ctx)
		if err == nil {
			return rc, nil
		} else if !IsRetryable(err) || i >= n {
			return nil, err
		}
		pause := bo.Pause()
		r.logf("blob open has failed after %s: %v; retrying %d/%d in %s", time.Since(start), err, i, n-1, pause)
		retries.Inc()

		t := time.NewTimer(pause)
		select {
		case <-ctx.Done():
			t.Stop()
			return nil, ctx.Err()
		case <-t.C:
		}
	}
}

// CopyTo opens the stream with retries and copies it to w.
// The stream is always closed. Failures during the copy are not retried.
func (r *Retrier) CopyTo(ctx context.Context, w io.Writer, o Opener) (int64, error) {
	rc, err := r.Open(ctx, o)
	if err != nil {
		return 0, err
	}
	n, err := io.Copy(w, rc)
	if cerr := rc.Close(); err == nil {
		err = cerr
	}
	return n, err
}
