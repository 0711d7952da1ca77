// Package transient decides which storage failures are worth retrying.
package transient

import (
	"context"
	"errors"
	"io"
	"net"
	"net/http"
	"net/url"
	"regexp"
	"syscall"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/minio/minio-go/v7"
	"google.golang.org/api/googleapi"

	"github.com/dennwc/blobsource/storage"
)

// Predicate reports whether an error is transient.
type Predicate func(err error) bool

var _ Predicate = Is

var shouldRetryErrorRegexp = regexp.MustCompile(`status code: (429|50[0234])\b`)

// Is is the default retry policy for storage errors.
//
// Server faults, throttling, timeouts and malformed URIs are transient.
// A missing blob, caller cancellation and everything else are not.
func Is(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	if errors.Is(err, storage.ErrNotFound) {
		return false
	}
	if code, ok := StatusCode(err); ok {
		return IsTransientStatus(code)
	}
	if isURISyntax(err) {
		return true
	}
	var nerr net.Error
	if errors.As(err, &nerr) && nerr.Timeout() {
		return true
	}
	if errors.Is(err, io.ErrUnexpectedEOF) || errors.Is(err, syscall.ECONNRESET) {
		return true
	}
	return shouldRetryErrorRegexp.MatchString(err.Error())
}

// IsTransientStatus reports whether an HTTP status code indicates a transient server condition.
// Server errors that describe a permanent condition, like 501 or 505, are not transient.
func IsTransientStatus(code int) bool {
	switch code {
	case http.StatusTooManyRequests,
		http.StatusInternalServerError,
		http.StatusBadGateway,
		http.StatusServiceUnavailable,
		http.StatusGatewayTimeout:
		return true
	}
	return false
}

// StatusCode extracts an HTTP status code from errors returned by supported storage SDKs.
func StatusCode(err error) (int, bool) {
	var aerr *azcore.ResponseError
	if errors.As(err, &aerr) && aerr.StatusCode != 0 {
		return aerr.StatusCode, true
	}
	var gerr *googleapi.Error
	if errors.As(err, &gerr) && gerr.Code != 0 {
		return gerr.Code, true
	}
	var merr minio.ErrorResponse
	if errors.As(err, &merr) && merr.StatusCode != 0 {
		return merr.StatusCode, true
	}
	var serr *storage.StatusError
	if errors.As(err, &serr) && serr.Code != 0 {
		return serr.Code, true
	}
	return 0, false
}

// isURISyntax matches failures to build or parse a blob URI during the open call.
func isURISyntax(err error) bool {
	var uerr *url.Error
	if errors.As(err, &uerr) && uerr.Op == "parse" {
		return true
	}
	var eerr url.EscapeError
	if errors.As(err, &eerr) {
		return true
	}
	var herr url.InvalidHostError
	return errors.As(err, &herr)
}
