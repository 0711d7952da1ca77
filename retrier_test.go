package blobsource_test

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log"
	"sync/atomic"
	"testing"
	"time"

	gax "github.com/googleapis/gax-go/v2"
	"github.com/stretchr/testify/require"

	"github.com/dennwc/blobsource"
	"github.com/dennwc/blobsource/storage"
)

func newRetrier(attempts int, logs io.Writer) *blobsource.Retrier {
	return &blobsource.Retrier{
		Attempts: attempts,
		Backoff:  gax.Backoff{Initial: time.Millisecond, Max: 2 * time.Millisecond},
		Logger:   log.New(logs, "", 0),
	}
}

func unavailable() error {
	return &storage.StatusError{Op: "get", Path: testPath, Code: 503, Status: "503 Service Unavailable"}
}

func TestRetrierRecovers(t *testing.T) {
	var calls int32
	c := openFunc(func(_ context.Context, path string) (io.ReadCloser, error) {
		if atomic.AddInt32(&calls, 1) < 3 {
			return nil, unavailable()
		}
		return newStream("data"), nil
	})
	s, err := blobsource.New(c, testPath)
	require.NoError(t, err)

	logs := new(bytes.Buffer)
	rc, err := newRetrier(3, logs).Open(context.Background(), s)
	require.NoError(t, err)
	defer rc.Close()
	require.Equal(t, int32(3), atomic.LoadInt32(&calls))
	require.Contains(t, logs.String(), "retrying 1/2")
	require.Contains(t, logs.String(), "retrying 2/2")
}

func TestRetrierGivesUp(t *testing.T) {
	var calls int32
	c := openFunc(func(_ context.Context, path string) (io.ReadCloser, error) {
		atomic.AddInt32(&calls, 1)
		return nil, unavailable()
	})
	s, err := blobsource.New(c, testPath)
	require.NoError(t, err)

	_, err = newRetrier(2, io.Discard).Open(context.Background(), s)
	require.True(t, blobsource.IsRetryable(err))
	require.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestRetrierFatal(t *testing.T) {
	var calls int32
	orig := errors.New("forbidden")
	c := openFunc(func(_ context.Context, path string) (io.ReadCloser, error) {
		atomic.AddInt32(&calls, 1)
		return nil, orig
	})
	s, err := blobsource.New(c, testPath)
	require.NoError(t, err)

	_, err = newRetrier(5, io.Discard).Open(context.Background(), s)
	require.True(t, blobsource.IsFatal(err))
	require.ErrorIs(t, err, orig)
	require.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestRetrierCanceled(t *testing.T) {
	c := openFunc(func(_ context.Context, path string) (io.ReadCloser, error) {
		return nil, unavailable()
	})
	s, err := blobsource.New(c, testPath)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	r := &blobsource.Retrier{
		Attempts: 3,
		Backoff:  gax.Backoff{Initial: time.Hour, Max: time.Hour},
		Logger:   log.New(io.Discard, "", 0),
	}
	_, err = r.Open(ctx, s)
	require.Equal(t, context.Canceled, err)
}

func TestRetrierDefaults(t *testing.T) {
	var r *blobsource.Retrier
	mem := storage.NewInMemory()
	mem.Put(testPath, []byte("data"), "")
	s, err := blobsource.New(mem, testPath)
	require.NoError(t, err)

	rc, err := r.Open(context.Background(), s)
	require.NoError(t, err)
	rc.Close()
}

func TestRetrierCopyTo(t *testing.T) {
	stream := newStream("some data")
	var calls int32
	c := openFunc(func(_ context.Context, path string) (io.ReadCloser, error) {
		if atomic.AddInt32(&calls, 1) == 1 {
			return nil, unavailable()
		}
		return stream, nil
	})
	s, err := blobsource.New(c, testPath)
	require.NoError(t, err)

	buf := new(bytes.Buffer)
	n, err := newRetrier(3, io.Discard).CopyTo(context.Background(), buf, s)
	require.NoError(t, err)
	require.Equal(t, int64(9), n)
	require.Equal(t, "some data", buf.String())
	require.True(t, stream.closed)
}
