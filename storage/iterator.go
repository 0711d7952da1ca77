package storage

// NewSliceIterator returns an iterator over a fixed list of blobs.
func NewSliceIterator(blobs []BlobInfo) Iterator {
	return &sliceIter{blobs: blobs, i: -1}
}

// NewErrIterator returns an iterator that yields no blobs and fails with err.
func NewErrIterator(err error) Iterator {
	return &sliceIter{err: err}
}

type sliceIter struct {
	blobs []BlobInfo
	i     int
	err   error
}

func (it *sliceIter) Next() bool {
	if it.err != nil || it.i >= len(it.blobs) {
		return false
	}
	it.i++
	return it.i < len(it.blobs)
}

func (it *sliceIter) Err() error {
	return it.err
}

func (it *sliceIter) Close() error {
	it.i = len(it.blobs)
	return nil
}

func (it *sliceIter) Blob() BlobInfo {
	if it.i < 0 || it.i >= len(it.blobs) {
		return BlobInfo{}
	}
	return it.blobs[it.i]
}
