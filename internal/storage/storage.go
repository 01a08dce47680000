// Package storage persists uploaded avatar images.
// Objects are content-addressed: the key is derived from the SHA-256 of the
// bytes, so re-uploading the same image overwrites an identical object.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/rs/zerolog"

	"github.com/prn-tf/linkday/internal/config"
)

// Backend names accepted in storage.backend.
const (
	BackendDisabled   = "disabled"
	BackendFilesystem = "filesystem"
	BackendS3         = "s3"
)

// ErrInvalidKey indicates a key that would escape the storage root.
var ErrInvalidKey = errors.New("invalid object key")

// AvatarStore stores avatar objects.
type AvatarStore interface {
	// Put writes size bytes from body under key and returns the public URL.
	Put(ctx context.Context, key, contentType string, body io.Reader, size int64) (string, error)
}

// New builds the configured AvatarStore. It returns nil, nil when uploads
// are disabled.
func New(ctx context.Context, cfg config.StorageConfig, logger zerolog.Logger) (AvatarStore, error) {
	switch cfg.Backend {
	case "", BackendDisabled:
		return nil, nil
	case BackendFilesystem:
		return NewFilesystemStore(cfg.DataDir, cfg.PublicBaseURL, logger)
	case BackendS3:
		return NewS3Store(ctx, cfg.S3, cfg.PublicBaseURL, logger)
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Backend)
	}
}

// publicURL joins the base URL and key.
func publicURL(baseURL, key string) string {
	return strings.TrimRight(baseURL, "/") + "/" + key
}
