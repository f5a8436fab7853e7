package storage

import (
	"context"
	"io"
)

// BlobStore holds submission artifacts and question media. Keys are opaque
// to callers; SignedURL is what ends up in artifact_refs / video_url fields.
type BlobStore interface {
	Put(ctx context.Context, key string, r io.Reader, size int64) (string, error) // returns canonical key
	Get(ctx context.Context, key string) (io.ReadCloser, error)
	SignedURL(ctx context.Context, key string) (string, error) // fs returns "file://..." for dev
}
