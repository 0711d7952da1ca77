package httpstor

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/dennwc/blobsource/storage"
)

var (
	_ storage.Container = (*Client)(nil)
	_ storage.Stater    = (*Client)(nil)
	_ storage.Lister    = (*Client)(nil)
)

func init() {
	storage.Register("http", func(ctx context.Context, conf storage.Config) (storage.Container, error) {
		if conf.URL == "" {
			return nil, errors.New("http: url is not set")
		}
		_, err := url.Parse(conf.URL)
		if err != nil {
			return nil, err
		}
		return NewClient(conf.URL), nil
	})
}

// NewClient creates a blob HTTP client with a given base address.
//
// Example:
//		NewClient("https://domain.com/store")
func NewClient(addr string) *Client {
	addr = strings.TrimSuffix(addr, "/")
	return &Client{
		base: addr,
		cli:  http.DefaultClient,
	}
}

// Client is a HTTP client for a blob server.
type Client struct {
	cli  *http.Client
	base string
}

// SetHTTPClient allows to set a custom HTTP client that will be used to send requests.
func (c *Client) SetHTTPClient(cli *http.Client) {
	c.cli = cli
}

func (c *Client) blobsURL() string {
	return c.base + "/blobs/"
}

func (c *Client) blobURL(path string) string {
	path = strings.TrimPrefix(path, "/")
	return c.blobsURL() + (&url.URL{Path: path}).EscapedPath()
}

func (c *Client) do(ctx context.Context, method, addr string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, addr, nil)
	if err != nil {
		return nil, err
	}
	return c.cli.Do(req)
}

func (c *Client) StatBlob(ctx context.Context, path string) (storage.BlobInfo, error) {
	if path == "" {
		return storage.BlobInfo{}, storage.ErrInvalidPath
	}
	resp, err := c.do(ctx, "HEAD", c.blobURL(path))
	if err != nil {
		return storage.BlobInfo{}, err
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		info := storage.BlobInfo{Path: path, ContentType: resp.Header.Get("Content-Type")}
		if resp.ContentLength > 0 {
			info.Size = uint64(resp.ContentLength)
		}
		return info, nil
	case http.StatusNotFound:
		return storage.BlobInfo{}, storage.ErrNotFound
	case http.StatusMethodNotAllowed:
		return storage.BlobInfo{}, storage.ErrNotSupported
	default:
		return storage.BlobInfo{}, &storage.StatusError{Op: "stat", Path: path, Code: resp.StatusCode, Status: resp.Status}
	}
}

func (c *Client) OpenBlob(ctx context.Context, path string) (io.ReadCloser, error) {
	if path == "" {
		return nil, storage.ErrInvalidPath
	}
	resp, err := c.do(ctx, "GET", c.blobURL(path))
	if err != nil {
		return nil, err
	}

	switch resp.StatusCode {
	case http.StatusOK:
		return resp.Body, nil
	case http.StatusNotFound:
		resp.Body.Close()
		return nil, storage.ErrNotFound
	default:
		resp.Body.Close()
		return nil, &storage.StatusError{Op: "open", Path: path, Code: resp.StatusCode, Status: resp.Status}
	}
}

func (c *Client) IterateBlobs(ctx context.Context, prefix string) storage.Iterator {
	addr := c.blobsURL()
	if prefix != "" {
		addr += "?" + url.Values{"prefix": {prefix}}.Encode()
	}
	return &blobsIterator{c: c, ctx: ctx, url: addr, prefix: prefix}
}

type blobsIterator struct {
	c      *Client
	ctx    context.Context
	url    string
	prefix string

	resp *http.Response
	dec  *json.Decoder
	cur  storage.BlobInfo
	err  error
}

func (it *blobsIterator) Next() bool {
	if it.err != nil {
		return false
	}
	if it.resp == nil {
		resp, err := it.c.do(it.ctx, "GET", it.url)
		if err != nil {
			it.err = err
			return false
		} else if resp.StatusCode == http.StatusMethodNotAllowed {
			resp.Body.Close()
			it.err = storage.ErrNotSupported
			return false
		} else if resp.StatusCode != http.StatusOK {
			resp.Body.Close()
			it.err = &storage.StatusError{Op: "list", Path: it.prefix, Code: resp.StatusCode, Status: resp.Status}
			return false
		}
		it.resp = resp
		it.dec = json.NewDecoder(it.resp.Body)
	}
	it.cur = storage.BlobInfo{}
	if err := it.dec.Decode(&it.cur); err == io.EOF {
		return false
	} else if err != nil {
		it.err = err
		return false
	}
	return true
}

func (it *blobsIterator) Blob() storage.BlobInfo {
	return it.cur
}

func (it *blobsIterator) Err() error {
	return it.err
}

func (it *blobsIterator) Close() error {
	if it.resp != nil {
		it.resp.Body.Close()
	}
	return nil
}
