package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
)

var (
	ErrNotFound     = errors.New("blob: not found")
	ErrNotSupported = errors.New("blob: operation not supported")
	ErrInvalidPath  = errors.New("blob: invalid path")
)

// StatusError is returned by containers that talk to a remote service
// when the service responds with an unexpected status code.
type StatusError struct {
	Op     string
	Path   string
	Code   int
	Status string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status code on %s %q: %v", e.Op, e.Path, e.Status)
}

// BlobInfo describes a single blob in a container.
type BlobInfo struct {
	Path        string `json:"path"`
	Size        uint64 `json:"size"`
	ContentType string `json:"type,omitempty"`
}

// Container provides read access to blobs in a remote container.
type Container interface {
	// OpenBlob opens a new stream for a blob with a given path.
	// Caller must close the stream.
	OpenBlob(ctx context.Context, path string) (io.ReadCloser, error)
}

// Stater is an optional interface for containers that can return blob metadata without reading it.
type Stater interface {
	StatBlob(ctx context.Context, path string) (BlobInfo, error)
}

// Lister is an optional interface for containers that can enumerate blobs.
type Lister interface {
	IterateBlobs(ctx context.Context, prefix string) Iterator
}

type Iterator interface {
	Next() bool
	Err() error
	Close() error
	Blob() BlobInfo
}

// Close closes the container if it holds any resources.
func Close(c Container) error {
	if cl, ok := c.(io.Closer); ok {
		return cl.Close()
	}
	return nil
}
