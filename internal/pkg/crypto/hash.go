// Package crypto provides hashing, password and key utilities for LinkDay.
package crypto

import (
	"crypto/sha256"
	"encoding/hex"
	"hash"
	"io"
)

// HashReader passes reads through while feeding a SHA-256 digest.
// Uploaded avatars are addressed by this digest.
type HashReader struct {
	r      io.Reader
	digest hash.Hash
	n      int64
}

// NewHashReader wraps r.
func NewHashReader(r io.Reader) *HashReader {
	return &HashReader{r: r, digest: sha256.New()}
}

// Read implements io.Reader.
func (h *HashReader) Read(p []byte) (int, error) {
	n, err := h.r.Read(p)
	if n > 0 {
		h.digest.Write(p[:n])
		h.n += int64(n)
	}
	return n, err
}

// SHA256 returns the hex digest of everything read so far.
func (h *HashReader) SHA256() string {
	return hex.EncodeToString(h.digest.Sum(nil))
}

// Size returns the number of bytes read so far.
func (h *HashReader) Size() int64 {
	return h.n
}

// ComputeSHA256 returns the hex SHA-256 of data.
func ComputeSHA256(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
