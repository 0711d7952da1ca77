package transient_test

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"syscall"
	"testing"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/minio/minio-go/v7"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/googleapi"

	"github.com/dennwc/blobsource/storage"
	"github.com/dennwc/blobsource/transient"
)

type timeoutErr struct{}

func (timeoutErr) Error() string   { return "i/o timeout" }
func (timeoutErr) Timeout() bool   { return true }
func (timeoutErr) Temporary() bool { return true }

func azureError(code int) error {
	return &azcore.ResponseError{
		ErrorCode:  "InternalError",
		StatusCode: code,
		RawResponse: &http.Response{
			StatusCode: code,
			Status:     http.StatusText(code),
			Header:     http.Header{},
			Request:    httptest.NewRequest("GET", "https://acct.blob.core.windows.net/c/path/to/file", nil),
		},
	}
}

func TestIs(t *testing.T) {
	_, parseErr := url.Parse("http://[::1")
	require.Error(t, parseErr)

	var cases = []struct {
		name string
		err  error
		exp  bool
	}{
		{"nil", nil, false},
		{"plain", errors.New("boom"), false},
		{"canceled", context.Canceled, false},
		{"deadline", fmt.Errorf("open: %w", context.DeadlineExceeded), false},
		{"not found", storage.ErrNotFound, false},
		{"azure 500", azureError(500), true},
		{"azure 503 wrapped", fmt.Errorf("open: %w", azureError(503)), true},
		{"azure 403", azureError(403), false},
		{"azure 404", azureError(404), false},
		{"gcs 502", &googleapi.Error{Code: 502}, true},
		{"gcs 429", &googleapi.Error{Code: 429}, true},
		{"gcs 400", &googleapi.Error{Code: 400}, false},
		{"minio 500", minio.ErrorResponse{StatusCode: 500, Code: "InternalError"}, true},
		{"minio 403", minio.ErrorResponse{StatusCode: 403, Code: "AccessDenied"}, false},
		{"status 503", &storage.StatusError{Op: "get", Path: "a", Code: 503, Status: "503 Service Unavailable"}, true},
		{"status 401", &storage.StatusError{Op: "get", Path: "a", Code: 401, Status: "401 Unauthorized"}, false},
		{"uri syntax", parseErr, true},
		{"escape", url.EscapeError("%zz"), true},
		{"invalid host", url.InvalidHostError("exa mple.com"), true},
		{"invalid host wrapped", fmt.Errorf("open: %w", url.InvalidHostError("exa mple.com")), true},
		{"conn reset", &net.OpError{Op: "read", Net: "tcp", Err: os.NewSyscallError("read", syscall.ECONNRESET)}, true},
		{"conn reset bare", syscall.ECONNRESET, true},
		{"status 501", &storage.StatusError{Op: "stat", Path: "a", Code: 501, Status: "501 Not Implemented"}, false},
		{"azure 505", azureError(505), false},
		{"gcs 504", &googleapi.Error{Code: 504}, true},
		{"timeout", timeoutErr{}, true},
		{"unexpected eof", io.ErrUnexpectedEOF, true},
		{"status text 502", errors.New("error during call, http status code: 502"), true},
		{"status text 400", errors.New("error during call, http status code: 400"), false},
		{"status text 501", errors.New("error during call, http status code: 501"), false},
		{"status text 5031", errors.New("error during call, http status code: 5031"), false},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			require.Equal(t, c.exp, transient.Is(c.err))
		})
	}
}

func TestStatusCode(t *testing.T) {
	code, ok := transient.StatusCode(fmt.Errorf("wrapped: %w", &googleapi.Error{Code: 503}))
	require.True(t, ok)
	require.Equal(t, 503, code)

	_, ok = transient.StatusCode(errors.New("no code"))
	require.False(t, ok)
}
