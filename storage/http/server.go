package httpstor

import (
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"strconv"
	"strings"

	"github.com/dennwc/blobsource"
	"github.com/dennwc/blobsource/storage"
)

// RetryAfter is the value of the Retry-After header sent with recoverable failures, in seconds.
const RetryAfter = 1

// NewServer creates a blob HTTP server for a given URL path.
//
// Each GET request opens the blob through a new Source and r.
// A nil Retrier uses the defaults.
func NewServer(c storage.Container, urlPref string, r *blobsource.Retrier) http.Handler {
	urlPref = strings.TrimSuffix(urlPref, "/")
	return &server{c: c, pref: urlPref, r: r}
}

type server struct {
	c    storage.Container
	pref string
	r    *blobsource.Retrier
}

func (s *server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != "GET" && r.Method != "HEAD" {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	path := strings.TrimPrefix(r.URL.Path, s.pref)
	path = strings.TrimPrefix(path, "/")
	if path == "blobs" || path == "blobs/" {
		s.serveBlobsList(w, r)
		return
	} else if !strings.HasPrefix(path, "blobs/") {
		w.WriteHeader(http.StatusForbidden)
		return
	}
	s.serveBlob(w, r, strings.TrimPrefix(path, "blobs/"))
}

func (s *server) serveBlobsList(w http.ResponseWriter, r *http.Request) {
	if r.Method != "GET" {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	l, ok := s.c.(storage.Lister)
	if !ok {
		s.writeError(w, r, "", storage.ErrNotSupported)
		return
	}
	it := l.IterateBlobs(r.Context(), r.URL.Query().Get("prefix"))
	defer it.Close()

	w.Header().Set("Content-Type", "application/json")
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	for it.Next() {
		err := enc.Encode(it.Blob())
		if err != nil {
			return // write error, client is probably gone; ok to ignore
		}
	}
	// status code was already sent, so the error can only be logged
	if err := it.Err(); err != nil {
		log.Println("http: error when listing blobs:", err)
	}
}

// writeError maps an error to a status code. Fatal errors never get a 5xx code,
// so remote clients don't retry them.
func (s *server) writeError(w http.ResponseWriter, r *http.Request, path string, err error) {
	if r.Context().Err() != nil {
		// client is gone, nobody will read the response
		return
	}
	switch {
	case errors.Is(err, storage.ErrNotFound):
		w.WriteHeader(http.StatusNotFound)
		return
	case errors.Is(err, storage.ErrInvalidPath):
		w.WriteHeader(http.StatusBadRequest)
	case errors.Is(err, storage.ErrNotSupported):
		w.WriteHeader(http.StatusMethodNotAllowed)
	case blobsource.IsRetryable(err):
		log.Printf("http: recoverable error on %q: %v", path, err)
		w.Header().Set("Retry-After", strconv.Itoa(RetryAfter))
		w.WriteHeader(http.StatusServiceUnavailable)
	default:
		log.Printf("http: error on %q: %v", path, err)
		w.WriteHeader(http.StatusFailedDependency)
	}
	w.Write([]byte(err.Error()))
}

func (s *server) serveBlob(w http.ResponseWriter, r *http.Request, path string) {
	if path == "" {
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	src, err := blobsource.New(s.c, path)
	if err != nil {
		s.writeError(w, r, path, err)
		return
	}
	switch r.Method {
	case "HEAD":
		info, err := src.Stat(r.Context())
		if err != nil {
			s.writeError(w, r, path, err)
			return
		}
		w.Header().Set("Content-Length", strconv.FormatUint(info.Size, 10))
		w.Header().Set("Content-Type", contentType(info.ContentType))
		return
	case "GET":
		rc, err := s.r.Open(r.Context(), src)
		if err != nil {
			s.writeError(w, r, path, err)
			return
		}
		defer rc.Close()
		// size is unknown without a separate stat, so the body is chunked
		w.Header().Set("Content-Type", contentType(""))
		_, _ = io.Copy(w, rc)
		return
	}
	w.WriteHeader(http.StatusMethodNotAllowed)
}

func contentType(typ string) string {
	if typ == "" {
		return "application/octet-stream"
	}
	return typ
}
