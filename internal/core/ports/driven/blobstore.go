package driven

import (
	"context"
	"io"
)

// BlobInfo describes one stored blob.
type BlobInfo struct {
	// Name is the object name under the store's namespace.
	Name string

	// Size is the object size in bytes.
	Size int64

	// URL is the opaque durable reference used to fetch the blob back.
	URL string
}

// BlobStore is an opaque object store for source documents.
//
// The core treats returned URLs as durable references persisted alongside
// document and chunk records; it never parses them.
type BlobStore interface {
	// Put stores the reader's contents under a suggested name and
	// returns the durable URL.
	Put(ctx context.Context, r io.Reader, name string) (string, error)

	// Get fetches a blob's contents by its URL.
	Get(ctx context.Context, url string) ([]byte, error)

	// List enumerates blobs whose names start with prefix.
	List(ctx context.Context, prefix string) ([]BlobInfo, error)
}
