package storage

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
)

// FilesystemStore writes avatars beneath a local directory.
type FilesystemStore struct {
	root    string
	baseURL string
	logger  zerolog.Logger
}

// NewFilesystemStore creates the root directory if needed.
func NewFilesystemStore(root, baseURL string, logger zerolog.Logger) (*FilesystemStore, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create storage directory: %w", err)
	}

	logger.Info().Str("root", root).Msg("filesystem avatar storage ready")

	return &FilesystemStore{
		root:    root,
		baseURL: baseURL,
		logger:  logger.With().Str("component", "fs-storage").Logger(),
	}, nil
}

// Put writes the object through a temp file and renames it into place.
func (s *FilesystemStore) Put(ctx context.Context, key, contentType string, body io.Reader, size int64) (string, error) {
	if !validKey(key) {
		return "", ErrInvalidKey
	}

	dest := filepath.Join(s.root, filepath.FromSlash(key))
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return "", fmt.Errorf("failed to create shard directory: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(dest), ".upload-*")
	if err != nil {
		return "", fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	written, err := io.Copy(tmp, body)
	if closeErr := tmp.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		return "", fmt.Errorf("failed to write object: %w", err)
	}
	if size >= 0 && written != size {
		return "", fmt.Errorf("size mismatch: expected %d, wrote %d", size, written)
	}

	if err := os.Rename(tmpName, dest); err != nil {
		return "", fmt.Errorf("failed to commit object: %w", err)
	}

	s.logger.Debug().Str("key", key).Int64("size", written).Msg("avatar stored")
	return publicURL(s.baseURL, key), nil
}

// Handler serves stored objects. Mount it at /avatars/ without stripping
// the prefix; keys already start with it.
func (s *FilesystemStore) Handler() http.Handler {
	return http.FileServer(http.Dir(s.root))
}
