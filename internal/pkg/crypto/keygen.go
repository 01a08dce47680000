package crypto

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
)

// SecretSize is the number of random bytes in a generated JWT secret.
const SecretSize = 32

// GenerateJWTSecret returns a random 32-byte secret as 64 hex characters,
// suitable for auth.jwt_secret.
func GenerateJWTSecret() (string, error) {
	key := make([]byte, SecretSize)
	if _, err := rand.Read(key); err != nil {
		return "", fmt.Errorf("failed to generate secret: %w", err)
	}
	return hex.EncodeToString(key), nil
}
