package storagetest

import (
	"testing"

	"github.com/dennwc/blobsource/storage"
)

func TestMemory(t *testing.T) {
	RunTests(t, func(_ testing.TB, blobs map[string][]byte) (storage.Container, func()) {
		s := storage.NewInMemory()
		for path, data := range blobs {
			s.Put(path, data, "")
		}
		return s, func() {}
	})
}
