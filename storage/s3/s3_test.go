package s3

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/dennwc/blobsource"
	"github.com/dennwc/blobsource/storage"
	"github.com/dennwc/blobsource/storage/test"
)

const (
	testAccessKey = "minioadmin"
	testSecretKey = "minioadmin"
	testBucket    = "blobsource-tests"
)

func setupMinio(t testing.TB) *minio.Client {
	t.Helper()
	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        "minio/minio:latest",
		ExposedPorts: []string{"9000/tcp"},
		Env: map[string]string{
			"MINIO_ROOT_USER":     testAccessKey,
			"MINIO_ROOT_PASSWORD": testSecretKey,
		},
		Cmd:        []string{"server", "/data"},
		WaitingFor: wait.ForHTTP("/minio/health/live").WithPort("9000"),
	}
	c, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		t.Skip("cannot start minio container:", err)
	}
	t.Cleanup(func() {
		_ = c.Terminate(context.Background())
	})

	endpoint, err := c.Endpoint(ctx, "")
	require.NoError(t, err)

	cli, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(testAccessKey, testSecretKey, ""),
		Secure: false,
	})
	require.NoError(t, err)
	return cli
}

func TestMinio(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	cli := setupMinio(t)
	ctx := context.Background()

	n := 0
	storagetest.RunTests(t, func(t testing.TB, blobs map[string][]byte) (storage.Container, func()) {
		n++
		bucket := fmt.Sprintf("%s-%d", testBucket, n)
		require.NoError(t, cli.MakeBucket(ctx, bucket, minio.MakeBucketOptions{}))
		for path, data := range blobs {
			_, err := cli.PutObject(ctx, bucket, "pref/"+path, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{})
			require.NoError(t, err)
		}
		s, err := New(cli, bucket, "pref/")
		require.NoError(t, err)
		return s, func() {}
	})
}

const errorXML = `<?xml version="1.0" encoding="UTF-8"?>
<Error><Code>%s</Code><Message>%s</Message><Resource>%s</Resource><RequestId>1</RequestId></Error>`

func newFakeServer(t testing.TB) *Storage {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/xml")
		switch {
		case strings.HasSuffix(r.URL.Path, "/denied"):
			w.WriteHeader(http.StatusForbidden)
			fmt.Fprintf(w, errorXML, "AccessDenied", "Access Denied.", r.URL.Path)
		default:
			w.WriteHeader(http.StatusNotFound)
			fmt.Fprintf(w, errorXML, "NoSuchKey", "The specified key does not exist.", r.URL.Path)
		}
	}))
	t.Cleanup(srv.Close)

	cli, err := minio.New(strings.TrimPrefix(srv.URL, "http://"), &minio.Options{
		Creds:  credentials.NewStaticV4(testAccessKey, testSecretKey, ""),
		Region: "us-east-1",
	})
	require.NoError(t, err)
	s, err := New(cli, testBucket, "")
	require.NoError(t, err)
	return s
}

func TestS3Errors(t *testing.T) {
	s := newFakeServer(t)
	ctx := context.Background()

	_, err := s.OpenBlob(ctx, "missing")
	require.ErrorIs(t, err, storage.ErrNotFound)

	_, err = s.StatBlob(ctx, "missing")
	require.ErrorIs(t, err, storage.ErrNotFound)

	src, err := blobsource.New(s, "denied")
	require.NoError(t, err)
	_, err = src.OpenStream(ctx)
	require.True(t, blobsource.IsFatal(err), "%v", err)

	var resp minio.ErrorResponse
	require.ErrorAs(t, err, &resp)
	require.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestS3Config(t *testing.T) {
	ctx := context.Background()
	_, err := storage.Open(ctx, storage.Config{Type: "s3", Bucket: testBucket})
	require.Error(t, err)

	_, err = storage.Open(ctx, storage.Config{Type: "s3", Endpoint: "localhost:9000"})
	require.Error(t, err)

	c, err := storage.Open(ctx, storage.Config{Type: "s3", Endpoint: "localhost:9000", Bucket: testBucket})
	require.NoError(t, err)
	require.IsType(t, &Storage{}, c)
}
