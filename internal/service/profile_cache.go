package service

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"github.com/prn-tf/linkday/internal/repository"
)

// ProfileCache caches public profile responses by username.
// A nil *ProfileCache is valid and caches nothing.
type ProfileCache struct {
	cache  repository.Cache
	ttl    time.Duration
	keys   repository.CacheKey
	logger zerolog.Logger
}

// NewProfileCache wraps cache. It returns nil when cache is nil.
func NewProfileCache(cache repository.Cache, ttl time.Duration, logger zerolog.Logger) *ProfileCache {
	if cache == nil {
		return nil
	}
	return &ProfileCache{
		cache:  cache,
		ttl:    ttl,
		logger: logger.With().Str("component", "profile-cache").Logger(),
	}
}

// Get returns the cached profile for username.
func (c *ProfileCache) Get(ctx context.Context, username string) (*PublicProfileOutput, bool) {
	if c == nil {
		return nil, false
	}

	data, err := c.cache.Get(ctx, c.keys.Profile(username))
	if err != nil {
		if !errors.Is(err, repository.ErrCacheMiss) {
			c.logger.Warn().Err(err).Str("username", username).Msg("profile cache read failed")
		}
		return nil, false
	}

	var out PublicProfileOutput
	if err := json.Unmarshal(data, &out); err != nil {
		c.logger.Warn().Err(err).Str("username", username).Msg("discarding undecodable cached profile")
		return nil, false
	}
	return &out, true
}

// Set stores the profile for username.
func (c *ProfileCache) Set(ctx context.Context, username string, out *PublicProfileOutput) {
	if c == nil {
		return
	}

	data, err := json.Marshal(out)
	if err != nil {
		c.logger.Warn().Err(err).Str("username", username).Msg("failed to encode profile")
		return
	}
	if err := c.cache.Set(ctx, c.keys.Profile(username), data, c.ttl); err != nil {
		c.logger.Warn().Err(err).Str("username", username).Msg("profile cache write failed")
	}
}

// Invalidate drops the cached profiles of usernames.
func (c *ProfileCache) Invalidate(ctx context.Context, usernames ...string) {
	if c == nil || len(usernames) == 0 {
		return
	}

	keys := make([]string, 0, len(usernames))
	for _, u := range usernames {
		if u != "" {
			keys = append(keys, c.keys.Profile(u))
		}
	}
	if err := c.cache.DeleteMulti(ctx, keys...); err != nil {
		c.logger.Warn().Err(err).Strs("usernames", usernames).Msg("profile cache invalidation failed")
	}
}
