package object

import (
	"context"
	"errors"
	"io"
)

// ErrNotFound is returned by Open when no object exists under the key.
var ErrNotFound = errors.New("object not found")

// ObjectStore defines the contract for saving and retrieving binary objects
// addressed by caller-chosen keys.
type ObjectStore interface {
	Put(ctx context.Context, key string, contentType string, r io.Reader) (sizeBytes int64, err error)
	Open(ctx context.Context, key string) (io.ReadCloser, error)
	// PublicURL resolves the publicly reachable address of key. It does not
	// check that the object exists.
	PublicURL(key string) string
	// KeyFromURL reverses PublicURL. It reports false for URLs this store
	// did not produce.
	KeyFromURL(raw string) (string, bool)
}
