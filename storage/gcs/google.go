package gcs

import (
	"context"
	"errors"
	"io"
	"strings"

	gcs "cloud.google.com/go/storage"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"

	"github.com/dennwc/blobsource/storage"
)

var (
	_ storage.Container = (*Storage)(nil)
	_ storage.Stater    = (*Storage)(nil)
	_ storage.Lister    = (*Storage)(nil)
)

func init() {
	storage.Register("gcs", func(ctx context.Context, conf storage.Config) (storage.Container, error) {
		var opts []option.ClientOption
		if conf.Credentials != "" {
			opts = append(opts, option.WithCredentialsFile(conf.Credentials))
		}
		if conf.Endpoint != "" {
			opts = append(opts, option.WithEndpoint(conf.Endpoint))
		}
		return New(ctx, conf.Bucket, conf.Prefix, opts...)
	})
}

// New creates a container for a GCS bucket. All blob paths are prefixed with pref.
//
// Client-side retries are disabled; transient errors are returned to the caller.
func New(ctx context.Context, bucket, pref string, opts ...option.ClientOption) (*Storage, error) {
	if bucket == "" {
		return nil, errors.New("gcs: bucket is not set")
	}
	cli, err := gcs.NewClient(ctx, opts...)
	if err != nil {
		return nil, err
	}
	cli.SetRetry(gcs.WithPolicy(gcs.RetryNever))
	b := cli.Bucket(bucket)
	return &Storage{cli: cli, b: b, pref: pref}, nil
}

type Storage struct {
	cli  *gcs.Client
	b    *gcs.BucketHandle
	pref string
}

func (s *Storage) Close() error {
	return s.cli.Close()
}

func (s *Storage) object(path string) *gcs.ObjectHandle {
	return s.b.Object(s.pref + path)
}

func (s *Storage) OpenBlob(ctx context.Context, path string) (io.ReadCloser, error) {
	r, err := s.object(path).NewReader(ctx)
	if err == gcs.ErrObjectNotExist {
		return nil, storage.ErrNotFound
	} else if err != nil {
		return nil, err
	}
	return r, nil
}

func (s *Storage) StatBlob(ctx context.Context, path string) (storage.BlobInfo, error) {
	info, err := s.object(path).Attrs(ctx)
	if err == gcs.ErrObjectNotExist {
		return storage.BlobInfo{}, storage.ErrNotFound
	} else if err != nil {
		return storage.BlobInfo{}, err
	}
	return storage.BlobInfo{Path: path, Size: uint64(info.Size), ContentType: info.ContentType}, nil
}

func (s *Storage) IterateBlobs(ctx context.Context, prefix string) storage.Iterator {
	it := s.b.Objects(ctx, &gcs.Query{Prefix: s.pref + prefix})
	return &objectsIterator{it: it, pref: s.pref}
}

type objectsIterator struct {
	it   *gcs.ObjectIterator
	pref string

	cur storage.BlobInfo
	err error
}

func (it *objectsIterator) Next() bool {
	if it.it == nil || it.err != nil {
		return false
	}
	attrs, err := it.it.Next()
	if err == iterator.Done {
		return false
	} else if err != nil {
		it.err = err
		return false
	}
	it.cur = storage.BlobInfo{
		Path:        strings.TrimPrefix(attrs.Name, it.pref),
		Size:        uint64(attrs.Size),
		ContentType: attrs.ContentType,
	}
	return true
}

func (it *objectsIterator) Blob() storage.BlobInfo {
	return it.cur
}

func (it *objectsIterator) Err() error {
	return it.err
}

func (it *objectsIterator) Close() error {
	it.it = nil
	return nil
}
