package storage

import (
	"bytes"
	"context"
	"io"
	"sort"
	"strings"
	"sync"
)

func init() {
	Register("memory", func(ctx context.Context, conf Config) (Container, error) {
		return NewInMemory(), nil
	})
}

var (
	_ Container = (*Memory)(nil)
	_ Stater    = (*Memory)(nil)
	_ Lister    = (*Memory)(nil)
)

func NewInMemory() *Memory {
	return &Memory{
		blobs: make(map[string]memBlob),
	}
}

// Memory is an in-memory container.
type Memory struct {
	mu    sync.RWMutex
	blobs map[string]memBlob
}

type memBlob struct {
	data []byte
	typ  string
}

// Put stores a copy of the data under a given path.
func (s *Memory) Put(path string, data []byte, contentType string) {
	buf := make([]byte, len(data))
	copy(buf, data)
	s.mu.Lock()
	s.blobs[path] = memBlob{data: buf, typ: contentType}
	s.mu.Unlock()
}

// Delete removes a blob. It's not an error to delete a missing blob.
func (s *Memory) Delete(path string) {
	s.mu.Lock()
	delete(s.blobs, path)
	s.mu.Unlock()
}

func (s *Memory) OpenBlob(ctx context.Context, path string) (io.ReadCloser, error) {
	s.mu.RLock()
	b, ok := s.blobs[path]
	s.mu.RUnlock()
	if !ok {
		return nil, ErrNotFound
	}
	return io.NopCloser(bytes.NewReader(b.data)), nil
}

func (s *Memory) StatBlob(ctx context.Context, path string) (BlobInfo, error) {
	s.mu.RLock()
	b, ok := s.blobs[path]
	s.mu.RUnlock()
	if !ok {
		return BlobInfo{}, ErrNotFound
	}
	return BlobInfo{Path: path, Size: uint64(len(b.data)), ContentType: b.typ}, nil
}

func (s *Memory) IterateBlobs(ctx context.Context, prefix string) Iterator {
	s.mu.RLock()
	blobs := make([]BlobInfo, 0, len(s.blobs))
	for path, b := range s.blobs {
		if !strings.HasPrefix(path, prefix) {
			continue
		}
		blobs = append(blobs, BlobInfo{Path: path, Size: uint64(len(b.data)), ContentType: b.typ})
	}
	s.mu.RUnlock()
	sort.Slice(blobs, func(i, j int) bool {
		return blobs[i].Path < blobs[j].Path
	})
	return NewSliceIterator(blobs)
}
