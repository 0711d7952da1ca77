// Package s3 implements a container backed by an S3-compatible object store.
package s3

import (
	"context"
	"errors"
	"io"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/dennwc/blobsource/storage"
)

var (
	_ storage.Container = (*Storage)(nil)
	_ storage.Stater    = (*Storage)(nil)
	_ storage.Lister    = (*Storage)(nil)
)

func init() {
	storage.Register("s3", func(ctx context.Context, conf storage.Config) (storage.Container, error) {
		if conf.Endpoint == "" {
			return nil, errors.New("s3: endpoint is not set")
		}
		cli, err := minio.New(conf.Endpoint, &minio.Options{
			Creds:  credentials.NewStaticV4(conf.AccessKey, conf.SecretKey, ""),
			Secure: conf.Secure,
		})
		if err != nil {
			return nil, err
		}
		return New(cli, conf.Bucket, conf.Prefix)
	})
}

// New creates a container for an S3 bucket. All blob paths are prefixed with pref.
func New(cli *minio.Client, bucket, pref string) (*Storage, error) {
	if bucket == "" {
		return nil, errors.New("s3: bucket is not set")
	}
	return &Storage{cli: cli, bucket: bucket, pref: pref}, nil
}

type Storage struct {
	cli    *minio.Client
	bucket string
	pref   string
}

func isNotFound(err error) bool {
	switch minio.ToErrorResponse(err).Code {
	case "NoSuchKey", "NoSuchBucket":
		return true
	}
	return false
}

func (s *Storage) OpenBlob(ctx context.Context, path string) (io.ReadCloser, error) {
	obj, err := s.cli.GetObject(ctx, s.bucket, s.pref+path, minio.GetObjectOptions{})
	if err != nil {
		return nil, err
	}
	// GetObject is lazy; stat forces the request so errors are reported on open.
	if _, err = obj.Stat(); err != nil {
		obj.Close()
		if isNotFound(err) {
			return nil, storage.ErrNotFound
		}
		return nil, err
	}
	return obj, nil
}

func (s *Storage) StatBlob(ctx context.Context, path string) (storage.BlobInfo, error) {
	info, err := s.cli.StatObject(ctx, s.bucket, s.pref+path, minio.StatObjectOptions{})
	if isNotFound(err) {
		return storage.BlobInfo{}, storage.ErrNotFound
	} else if err != nil {
		return storage.BlobInfo{}, err
	}
	return storage.BlobInfo{Path: path, Size: uint64(info.Size), ContentType: info.ContentType}, nil
}

func (s *Storage) IterateBlobs(ctx context.Context, prefix string) storage.Iterator {
	ctx, cancel := context.WithCancel(ctx)
	ch := s.cli.ListObjects(ctx, s.bucket, minio.ListObjectsOptions{
		Prefix:    s.pref + prefix,
		Recursive: true,
	})
	return &objectsIterator{ch: ch, cancel: cancel, pref: s.pref}
}

type objectsIterator struct {
	ch     <-chan minio.ObjectInfo
	cancel func()
	pref   string

	cur storage.BlobInfo
	err error
}

func (it *objectsIterator) Next() bool {
	if it.ch == nil || it.err != nil {
		return false
	}
	obj, ok := <-it.ch
	if !ok {
		it.ch = nil
		return false
	} else if obj.Err != nil {
		it.err = obj.Err
		return false
	}
	it.cur = storage.BlobInfo{
		Path:        strings.TrimPrefix(obj.Key, it.pref),
		Size:        uint64(obj.Size),
		ContentType: obj.ContentType,
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
	it.cancel()
	if it.ch != nil {
		// drain, so the listing goroutine can exit
		for range it.ch {
		}
		it.ch = nil
	}
	return nil
}
