// Package blobsource exposes a single remote blob as a lazily opened byte stream.
//
// Failures are classified into RetryableError and FatalError, so an upper layer
// such as Retrier can decide whether to open the blob again.
package blobsource

import (
	"context"
	"io"

	"github.com/dennwc/blobsource/storage"
	"github.com/dennwc/blobsource/transient"
)

// Opener is implemented by anything that can produce a fresh stream on each call.
type Opener interface {
	OpenStream(ctx context.Context) (io.ReadCloser, error)
}

var _ Opener = (*Source)(nil)

type Option func(s *Source)

// WithPredicate sets a policy that decides which container errors are retryable.
// Default is transient.Is.
func WithPredicate(p transient.Predicate) Option {
	return func(s *Source) {
		s.retryable = p
	}
}

// New creates a byte source for a blob at a given path.
//
// The container is shared and is not closed by the source.
// The path is passed to the container as-is.
func New(c storage.Container, path string, opts ...Option) (*Source, error) {
	if c == nil {
		return nil, ErrNoContainer
	}
	s := &Source{c: c, path: path, retryable: transient.Is}
	for _, opt := range opts {
		opt(s)
	}
	if s.retryable == nil {
		return nil, ErrNoPredicate
	}
	return s, nil
}

// Source is a byte source backed by a blob in a remote container.
// It never caches streams or errors and is safe for concurrent use.
type Source struct {
	c         storage.Container
	path      string
	retryable transient.Predicate
}

// Path returns the blob path.
func (s *Source) Path() string {
	return s.path
}

// OpenStream opens a new stream for the blob. Caller must close it.
//
// Errors are either *RetryableError or *FatalError, both wrapping the underlying container error.
func (s *Source) OpenStream(ctx context.Context) (io.ReadCloser, error) {
	rc, err := s.c.OpenBlob(ctx, s.path)
	if err != nil {
		return nil, s.classify(openCounters, err)
	}
	if rc == nil {
		openCounters.fatal.Inc()
		return nil, &FatalError{Path: s.path, Err: ErrNoStream}
	}
	openCounters.ok.Inc()
	return rc, nil
}

// Stat returns blob metadata, if the container supports it.
func (s *Source) Stat(ctx context.Context) (storage.BlobInfo, error) {
	st, ok := s.c.(storage.Stater)
	if !ok {
		statCounters.fatal.Inc()
		return storage.BlobInfo{}, &FatalError{Path: s.path, Err: storage.ErrNotSupported}
	}
	info, err := st.StatBlob(ctx, s.path)
	if err != nil {
		return storage.BlobInfo{}, s.classify(statCounters, err)
	}
	statCounters.ok.Inc()
	return info, nil
}

func (s *Source) classify(m opCounters, err error) error {
	if s.retryable(err) {
		m.retryable.Inc()
		return &RetryableError{Path: s.path, Err: err}
	}
	m.fatal.Inc()
	return &FatalError{Path: s.path, Err: err}
}
