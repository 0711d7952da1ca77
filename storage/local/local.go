package local

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/dennwc/blobsource/storage"
	"github.com/dennwc/blobsource/xattr"
)

const (
	// XattrContentType is the name of an extended attribute that stores a content type of the blob.
	XattrContentType = "blobsource.content_type"

	dirPerm = 0755
)

var (
	_ storage.Container = (*Storage)(nil)
	_ storage.Stater    = (*Storage)(nil)
	_ storage.Lister    = (*Storage)(nil)
)

func init() {
	storage.Register("local", func(ctx context.Context, conf storage.Config) (storage.Container, error) {
		return New(conf.Dir, false)
	})
}

// New opens a local directory as a container.
func New(dir string, create bool) (*Storage, error) {
	if dir == "" {
		return nil, fmt.Errorf("local: directory is not set")
	}
	fi, err := os.Stat(dir)
	if os.IsNotExist(err) && create {
		err = os.MkdirAll(dir, dirPerm)
		if err == nil {
			fi, err = os.Stat(dir)
		}
	}
	if err != nil {
		return nil, err
	} else if !fi.IsDir() {
		return nil, fmt.Errorf("local: %q is not a directory", dir)
	}
	dir, err = filepath.Abs(dir)
	if err != nil {
		return nil, err
	}
	return &Storage{dir: dir}, nil
}

// Storage is a container backed by a local directory.
// Blob paths are slash-separated and relative to the directory.
type Storage struct {
	dir string
}

// Dir returns the root directory of the container.
func (s *Storage) Dir() string {
	return s.dir
}

func (s *Storage) blobPath(p string) (string, error) {
	// cleaning a rooted path drops all ".." elements, so the result never escapes the root
	p = path.Clean("/" + p)
	if p == "/" {
		return "", storage.ErrInvalidPath
	}
	return filepath.Join(s.dir, filepath.FromSlash(p)), nil
}

// open opens a regular file for the blob. Directories and special files are reported as missing.
func (s *Storage) open(path string) (*os.File, os.FileInfo, error) {
	fpath, err := s.blobPath(path)
	if err != nil {
		return nil, nil, err
	}
	f, err := os.Open(fpath)
	if os.IsNotExist(err) {
		return nil, nil, storage.ErrNotFound
	} else if err != nil {
		return nil, nil, err
	}
	fi, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, nil, err
	} else if !fi.Mode().IsRegular() {
		f.Close()
		return nil, nil, storage.ErrNotFound
	}
	return f, fi, nil
}

func (s *Storage) OpenBlob(ctx context.Context, path string) (io.ReadCloser, error) {
	f, _, err := s.open(path)
	if err != nil {
		return nil, err
	}
	adviseSequential(f)
	return f, nil
}

func (s *Storage) StatBlob(ctx context.Context, path string) (storage.BlobInfo, error) {
	f, fi, err := s.open(path)
	if err != nil {
		return storage.BlobInfo{}, err
	}
	defer f.Close()
	// content type is optional; filesystems without xattr support are fine
	typ, _ := xattr.FileString(f, XattrContentType)
	return storage.BlobInfo{Path: path, Size: uint64(fi.Size()), ContentType: typ}, nil
}

func (s *Storage) IterateBlobs(ctx context.Context, prefix string) storage.Iterator {
	var blobs []storage.BlobInfo
	err := filepath.WalkDir(s.dir, func(fpath string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		} else if err = ctx.Err(); err != nil {
			return err
		}
		rel, err := filepath.Rel(s.dir, fpath)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)
		if d.IsDir() {
			if rel != "." && !strings.HasPrefix(rel+"/", prefix) && !strings.HasPrefix(prefix, rel+"/") {
				return filepath.SkipDir
			}
			return nil
		} else if !d.Type().IsRegular() || !strings.HasPrefix(rel, prefix) {
			return nil
		}
		fi, err := d.Info()
		if err != nil {
			return err
		}
		typ, _ := xattr.String(fpath, XattrContentType)
		blobs = append(blobs, storage.BlobInfo{Path: rel, Size: uint64(fi.Size()), ContentType: typ})
		return nil
	})
	if err != nil {
		return storage.NewErrIterator(err)
	}
	sort.Slice(blobs, func(i, j int) bool {
		return blobs[i].Path < blobs[j].Path
	})
	return storage.NewSliceIterator(blobs)
}
