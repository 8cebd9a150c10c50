package repository

import (
	"context"
	"errors"
)

// ErrNotFound is returned by a BlobStore when no object exists under the key.
var ErrNotFound = errors.New("repository: object not found")

// BlobStore reads and writes whole objects by key. Implementations must
// return an error wrapping ErrNotFound for a missing key.
type BlobStore interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key string, body []byte) error
}
