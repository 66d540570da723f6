package object

import (
	"context"
	"errors"
	"io"
)

// ErrNotFound is returned when no object exists under the key.
var ErrNotFound = errors.New("object not found")

// Store serves stored files for download.
type Store interface {
	// Open returns the object body and its size in bytes.
	Open(ctx context.Context, key string) (io.ReadCloser, int64, error)
}
