package local

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	pxattr "github.com/pkg/xattr"
	"github.com/stretchr/testify/require"

	"github.com/dennwc/blobsource/storage"
	"github.com/dennwc/blobsource/storage/test"
	"github.com/dennwc/blobsource/xattr"
)

func newTestDir(t testing.TB, blobs map[string][]byte) string {
	dir := t.TempDir()
	for path, data := range blobs {
		fpath := filepath.Join(dir, filepath.FromSlash(path))
		require.NoError(t, os.MkdirAll(filepath.Dir(fpath), dirPerm))
		require.NoError(t, os.WriteFile(fpath, data, 0644))
	}
	return dir
}

func TestLocalDir(t *testing.T) {
	storagetest.RunTests(t, func(t testing.TB, blobs map[string][]byte) (storage.Container, func()) {
		s, err := New(newTestDir(t, blobs), false)
		require.NoError(t, err)
		return s, func() {}
	})
}

func TestLocalEscape(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "secret"), []byte("secret"), 0644))
	dir := filepath.Join(root, "blobs")

	s, err := New(dir, true)
	require.NoError(t, err)

	ctx := context.Background()
	_, err = s.OpenBlob(ctx, "../secret")
	require.ErrorIs(t, err, storage.ErrNotFound)

	_, err = s.OpenBlob(ctx, "")
	require.ErrorIs(t, err, storage.ErrInvalidPath)

	require.NoError(t, os.Mkdir(filepath.Join(dir, "sub"), dirPerm))
	_, err = s.OpenBlob(ctx, "sub")
	require.ErrorIs(t, err, storage.ErrNotFound)
}

func TestLocalNotDir(t *testing.T) {
	dir := newTestDir(t, map[string][]byte{"file": []byte("x")})
	_, err := New(filepath.Join(dir, "file"), false)
	require.Error(t, err)

	_, err = New(filepath.Join(dir, "missing"), false)
	require.True(t, os.IsNotExist(err))
}

func TestLocalContentType(t *testing.T) {
	dir := newTestDir(t, map[string][]byte{"a.txt": []byte("data")})
	if err := pxattr.Set(filepath.Join(dir, "a.txt"), xattr.Namespace+XattrContentType, []byte("text/plain")); err != nil {
		t.Skip("xattrs are not supported:", err)
	}
	s, err := New(dir, false)
	require.NoError(t, err)

	info, err := s.StatBlob(context.Background(), "a.txt")
	require.NoError(t, err)
	require.Equal(t, storage.BlobInfo{Path: "a.txt", Size: 4, ContentType: "text/plain"}, info)

	it := s.IterateBlobs(context.Background(), "")
	defer it.Close()
	require.True(t, it.Next())
	require.Equal(t, info, it.Blob())
}
