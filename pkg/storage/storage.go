// Package storage abstracts the remote object store that mirrors session logs.
package storage

import (
	"context"
	"errors"
	"io"
)

// ErrNotFound reports a missing object key.
var ErrNotFound = errors.New("object not found")

// Store is the subset of object storage mug relies on.
type Store interface {
	ListBuckets(ctx context.Context) ([]string, error)
	CreateBucket(ctx context.Context, bucket string) error
	ListKeys(ctx context.Context, bucket string) ([]string, error)
	Put(ctx context.Context, bucket, key string, body io.ReadSeeker) error
	// Get returns the object body; callers close it. Missing keys yield ErrNotFound.
	Get(ctx context.Context, bucket, key string) (io.ReadCloser, error)
}
