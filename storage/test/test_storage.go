package storagetest

import (
	"context"
	"io"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dennwc/blobsource"
	"github.com/dennwc/blobsource/storage"
)

// ContainerFunc creates a container populated with given blobs.
type ContainerFunc func(t testing.TB, blobs map[string][]byte) (storage.Container, func())

var testBlobs = map[string][]byte{
	"a.txt":         []byte("useful data"),
	"dir/b.bin":     {0, 1, 2, 3, 4, 5},
	"dir/sub/c.txt": []byte("more useful data"),
	"dir2/d":        {},
}

func RunTests(t *testing.T, fnc ContainerFunc) {
	t.Run("open", func(t *testing.T) {
		testOpen(t, fnc)
	})
	t.Run("not found", func(t *testing.T) {
		testNotFound(t, fnc)
	})
	t.Run("stat", func(t *testing.T) {
		testStat(t, fnc)
	})
	t.Run("list", func(t *testing.T) {
		testList(t, fnc)
	})
	t.Run("source", func(t *testing.T) {
		testSource(t, fnc)
	})
}

func testOpen(t *testing.T, fnc ContainerFunc) {
	s, closer := fnc(t, testBlobs)
	defer closer()

	ctx := context.Background()
	for path, exp := range testBlobs {
		rc, err := s.OpenBlob(ctx, path)
		require.NoError(t, err, path)
		data, err := io.ReadAll(rc)
		rc.Close()
		require.NoError(t, err, path)
		require.Equal(t, len(exp), len(data), path)
		if len(exp) != 0 {
			require.Equal(t, exp, data, path)
		}
	}
}

func testNotFound(t *testing.T, fnc ContainerFunc) {
	s, closer := fnc(t, testBlobs)
	defer closer()

	_, err := s.OpenBlob(context.Background(), "missing/blob")
	require.ErrorIs(t, err, storage.ErrNotFound)
}

func testStat(t *testing.T, fnc ContainerFunc) {
	s, closer := fnc(t, testBlobs)
	defer closer()

	st, ok := s.(storage.Stater)
	if !ok {
		t.Skip("stat is not supported")
	}
	ctx := context.Background()
	for path, exp := range testBlobs {
		info, err := st.StatBlob(ctx, path)
		require.NoError(t, err, path)
		require.Equal(t, path, info.Path)
		require.Equal(t, uint64(len(exp)), info.Size, path)
	}
	_, err := st.StatBlob(ctx, "missing/blob")
	require.ErrorIs(t, err, storage.ErrNotFound)
}

func testList(t *testing.T, fnc ContainerFunc) {
	s, closer := fnc(t, testBlobs)
	defer closer()

	l, ok := s.(storage.Lister)
	if !ok {
		t.Skip("listing is not supported")
	}
	list := func(prefix string) []storage.BlobInfo {
		it := l.IterateBlobs(context.Background(), prefix)
		defer it.Close()
		var out []storage.BlobInfo
		for it.Next() {
			out = append(out, it.Blob())
		}
		require.NoError(t, it.Err())
		return out
	}

	var exp []string
	for path := range testBlobs {
		exp = append(exp, path)
	}
	sort.Strings(exp)

	got := list("")
	require.Len(t, got, len(exp))
	for i, b := range got {
		assert.Equal(t, exp[i], b.Path)
		assert.Equal(t, uint64(len(testBlobs[b.Path])), b.Size)
	}

	got = list("dir/")
	require.Len(t, got, 2)
	require.Equal(t, "dir/b.bin", got[0].Path)
	require.Equal(t, "dir/sub/c.txt", got[1].Path)

	require.Empty(t, list("nothing/"))
}

func testSource(t *testing.T, fnc ContainerFunc) {
	s, closer := fnc(t, testBlobs)
	defer closer()

	ctx := context.Background()
	src, err := blobsource.New(s, "dir/sub/c.txt")
	require.NoError(t, err)

	for i := 0; i < 2; i++ {
		rc, err := src.OpenStream(ctx)
		require.NoError(t, err)
		data, err := io.ReadAll(rc)
		rc.Close()
		require.NoError(t, err)
		require.Equal(t, testBlobs["dir/sub/c.txt"], data)
	}

	src, err = blobsource.New(s, "missing/blob")
	require.NoError(t, err)
	_, err = src.OpenStream(ctx)
	require.True(t, blobsource.IsFatal(err))
	require.ErrorIs(t, err, storage.ErrNotFound)
}
