// Package azure implements a container backed by Azure Blob Storage.
package azure

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/policy"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/runtime"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/bloberror"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/container"

	"github.com/dennwc/blobsource/storage"
)

var (
	_ storage.Container = (*Storage)(nil)
	_ storage.Stater    = (*Storage)(nil)
	_ storage.Lister    = (*Storage)(nil)

	_ Client = (*azblob.Client)(nil)
)

func init() {
	storage.Register("azure", func(ctx context.Context, conf storage.Config) (storage.Container, error) {
		return Open(conf)
	})
}

// Client is an interface for *azblob.Client. Used for testing purposes.
type Client interface {
	// DownloadStream reads a blob from the container into a stream.
	DownloadStream(
		ctx context.Context,
		containerName string,
		blobName string,
		o *azblob.DownloadStreamOptions,
	) (azblob.DownloadStreamResponse, error)
	// NewListBlobsFlatPager returns a pager for listing blobs in a container.
	NewListBlobsFlatPager(
		containerName string,
		o *azblob.ListBlobsFlatOptions,
	) *runtime.Pager[azblob.ListBlobsFlatResponse]
}

// Open creates an Azure client from the config.
//
// A connection string takes precedence over a shared key. Without either, the container is accessed anonymously.
// Client-side retries are disabled; transient errors are returned to the caller.
func Open(conf storage.Config) (*Storage, error) {
	if conf.Container == "" {
		return nil, errors.New("azure: container is not set")
	}
	opts := &azblob.ClientOptions{
		ClientOptions: azcore.ClientOptions{
			Retry: policy.RetryOptions{MaxRetries: -1},
		},
	}
	serviceURL := conf.Endpoint
	if serviceURL == "" && conf.Account != "" {
		serviceURL = fmt.Sprintf("https://%s.blob.core.windows.net/", conf.Account)
	}
	var (
		cli *azblob.Client
		err error
	)
	switch {
	case conf.ConnectionString != "":
		cli, err = azblob.NewClientFromConnectionString(conf.ConnectionString, opts)
	case serviceURL == "":
		return nil, errors.New("azure: either account, endpoint or connection string must be set")
	case conf.Account != "" && conf.SecretKey != "":
		var cred *azblob.SharedKeyCredential
		cred, err = azblob.NewSharedKeyCredential(conf.Account, conf.SecretKey)
		if err != nil {
			return nil, err
		}
		cli, err = azblob.NewClientWithSharedKeyCredential(serviceURL, cred, opts)
	default:
		cli, err = azblob.NewClientWithNoCredential(serviceURL, opts)
	}
	if err != nil {
		return nil, err
	}
	return New(cli, conf.Container, conf.Prefix), nil
}

// New creates a container for a given Azure container name. All blob paths are prefixed with pref.
func New(cli Client, container, pref string) *Storage {
	return &Storage{cli: cli, container: container, pref: pref}
}

type Storage struct {
	cli       Client
	container string
	pref      string
}

func (s *Storage) OpenBlob(ctx context.Context, path string) (io.ReadCloser, error) {
	resp, err := s.cli.DownloadStream(ctx, s.container, s.pref+path, nil)
	if bloberror.HasCode(err, bloberror.BlobNotFound) {
		return nil, storage.ErrNotFound
	} else if err != nil {
		return nil, err
	}
	return resp.Body, nil
}

// StatBlob finds the blob with a listing request, since the narrow client has no properties call.
func (s *Storage) StatBlob(ctx context.Context, path string) (storage.BlobInfo, error) {
	name := s.pref + path
	var max int32 = 1
	pager := s.cli.NewListBlobsFlatPager(s.container, &azblob.ListBlobsFlatOptions{
		Prefix:     &name,
		MaxResults: &max,
	})
	if !pager.More() {
		return storage.BlobInfo{}, storage.ErrNotFound
	}
	resp, err := pager.NextPage(ctx)
	if err != nil {
		return storage.BlobInfo{}, err
	}
	if resp.Segment != nil {
		for _, item := range resp.Segment.BlobItems {
			if item == nil || item.Name == nil || *item.Name != name {
				continue
			}
			info := blobInfo(item.Properties)
			info.Path = path
			return info, nil
		}
	}
	return storage.BlobInfo{}, storage.ErrNotFound
}

func (s *Storage) IterateBlobs(ctx context.Context, prefix string) storage.Iterator {
	name := s.pref + prefix
	pager := s.cli.NewListBlobsFlatPager(s.container, &azblob.ListBlobsFlatOptions{
		Prefix: &name,
	})
	return &blobsIterator{ctx: ctx, pager: pager, pref: s.pref}
}

func blobInfo(p *container.BlobProperties) storage.BlobInfo {
	var info storage.BlobInfo
	if p == nil {
		return info
	}
	if p.ContentLength != nil {
		info.Size = uint64(*p.ContentLength)
	}
	if p.ContentType != nil {
		info.ContentType = *p.ContentType
	}
	return info
}

type blobsIterator struct {
	ctx   context.Context
	pager *runtime.Pager[azblob.ListBlobsFlatResponse]
	pref  string

	page []storage.BlobInfo
	cur  storage.BlobInfo
	err  error
	done bool
}

func (it *blobsIterator) Next() bool {
	for len(it.page) == 0 {
		if it.done || it.err != nil || !it.pager.More() {
			return false
		}
		resp, err := it.pager.NextPage(it.ctx)
		if err != nil {
			it.err = err
			return false
		}
		if resp.Segment == nil {
			continue
		}
		for _, item := range resp.Segment.BlobItems {
			if item == nil || item.Name == nil {
				continue
			}
			info := blobInfo(item.Properties)
			info.Path = strings.TrimPrefix(*item.Name, it.pref)
			it.page = append(it.page, info)
		}
	}
	it.cur = it.page[0]
	it.page = it.page[1:]
	return true
}

func (it *blobsIterator) Blob() storage.BlobInfo {
	return it.cur
}

func (it *blobsIterator) Err() error {
	return it.err
}

func (it *blobsIterator) Close() error {
	it.done = true
	it.page = nil
	return nil
}
