package storage

import (
	"path"
	"strings"
)

// AvatarPrefix is the key prefix for avatar objects.
const AvatarPrefix = "avatars"

// PathConfig holds configuration for sharded key generation.
type PathConfig struct {
	// Prefix is the first key segment.
	Prefix string

	// ShardLevels is the number of directory levels for sharding.
	// Default: 2 (e.g., avatars/ab/cd/abcdef...)
	ShardLevels int

	// ShardWidth is the number of characters per shard level.
	// Default: 2 (e.g., ab, cd)
	ShardWidth int
}

// DefaultPathConfig returns the avatar key configuration.
func DefaultPathConfig() PathConfig {
	return PathConfig{
		Prefix:      AvatarPrefix,
		ShardLevels: 2,
		ShardWidth:  2,
	}
}

// ComputeKey generates the object key for a content hash and extension.
//
// Example with default config:
//
//	hash: "abcdef1234567890..."
//	ext:  "png"
//	result: "avatars/ab/cd/abcdef1234567890....png"
func ComputeKey(cfg PathConfig, contentHash, ext string) string {
	name := contentHash
	if ext != "" {
		name += "." + ext
	}

	components := make([]string, 0, cfg.ShardLevels+2)
	components = append(components, cfg.Prefix)

	if len(contentHash) >= cfg.ShardLevels*cfg.ShardWidth {
		offset := 0
		for i := 0; i < cfg.ShardLevels; i++ {
			components = append(components, contentHash[offset:offset+cfg.ShardWidth])
			offset += cfg.ShardWidth
		}
	}

	components = append(components, name)
	return path.Join(components...)
}

// AvatarKey generates the key for an avatar using the default layout.
func AvatarKey(contentHash, ext string) string {
	return ComputeKey(DefaultPathConfig(), contentHash, ext)
}

// validKey rejects absolute keys and keys with parent segments.
func validKey(key string) bool {
	if key == "" || strings.HasPrefix(key, "/") {
		return false
	}
	for _, seg := range strings.Split(key, "/") {
		if seg == ".." || seg == "" {
			return false
		}
	}
	return true
}
