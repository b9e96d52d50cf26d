// Package storage is the blob backend behind the access engine. The rest of
// the service only ever sees opaque keys, nothing outside this package
// touches raw bytes or knows where they live.
package storage

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/viper"
)

// Storage stores and retrieves raw bytes by key. Implementations must be
// swappable without affecting any authorization logic.
type Storage interface {
	// Put streams the body to the backend under key
	Put(ctx context.Context, key string, body io.Reader, size int64, contentType string) error

	// Get returns the bytes stored under key. The caller closes the reader.
	Get(ctx context.Context, key string) (io.ReadCloser, error)

	Delete(ctx context.Context, key string) error

	// URLFor returns a direct URL for backends that can serve bytes
	// themselves, or "" when the app has to stream them.
	URLFor(key string) string

	// Backend names the backend for the file record
	Backend() string
}

// New builds the backend selected by storage.type.
func New() (Storage, error) {
	switch t := viper.GetString("storage.type"); t {
	case "local":
		return NewLocal(viper.GetString("storage.local_path"))
	case "s3":
		return NewS3()
	default:
		return nil, fmt.Errorf("unknown storage type %q", t)
	}
}
