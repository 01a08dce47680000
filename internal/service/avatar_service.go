package service

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/prn-tf/linkday/internal/auth"
	"github.com/prn-tf/linkday/internal/domain"
	"github.com/prn-tf/linkday/internal/pkg/crypto"
	"github.com/prn-tf/linkday/internal/storage"
)

// avatarTypes maps accepted sniffed content types to file extensions.
var avatarTypes = map[string]string{
	"image/png":  "png",
	"image/jpeg": "jpg",
	"image/gif":  "gif",
	"image/webp": "webp",
}

// AvatarService stores uploaded avatars and points the caller's profile at them.
type AvatarService struct {
	store   storage.AvatarStore
	users   *UserService
	maxSize int64
	logger  zerolog.Logger
}

// NewAvatarService creates a new AvatarService.
func NewAvatarService(
	store storage.AvatarStore,
	users *UserService,
	maxSize int64,
	logger zerolog.Logger,
) *AvatarService {
	return &AvatarService{
		store:   store,
		users:   users,
		maxSize: maxSize,
		logger:  logger.With().Str("service", "avatar").Logger(),
	}
}

// UploadAvatarInput contains an avatar upload.
type UploadAvatarInput struct {
	Caller auth.Identity
	// Content is read until EOF or MaxSize+1 bytes, whichever is first.
	Content io.Reader
}

// MaxSize returns the largest accepted upload in bytes.
func (s *AvatarService) MaxSize() int64 {
	return s.maxSize
}

// Upload validates and stores an avatar, then sets it on the caller's profile.
func (s *AvatarService) Upload(ctx context.Context, input UploadAvatarInput) (*domain.User, error) {
	if s.store == nil {
		return nil, ErrAvatarUnavailable
	}
	if input.Content == nil {
		return nil, ErrAvatarMissing
	}

	hr := crypto.NewHashReader(io.LimitReader(input.Content, s.maxSize+1))
	data, err := io.ReadAll(hr)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read avatar: %v", ErrInternalError, err)
	}
	if len(data) == 0 {
		return nil, ErrAvatarMissing
	}
	if hr.Size() > s.maxSize {
		return nil, ErrAvatarTooLarge
	}

	contentType := http.DetectContentType(data)
	ext, ok := avatarTypes[contentType]
	if !ok {
		return nil, ErrAvatarType
	}

	key := storage.AvatarKey(hr.SHA256(), ext)
	url, err := s.store.Put(ctx, key, contentType, bytes.NewReader(data), hr.Size())
	if err != nil {
		s.logger.Error().Err(err).Str("user_id", input.Caller.UserID).Str("key", key).Msg("failed to store avatar")
		return nil, fmt.Errorf("%w: %v", ErrInternalError, err)
	}

	user, err := s.users.UpdateProfile(ctx, UpdateProfileInput{
		Caller: input.Caller,
		Patch:  domain.ProfilePatch{Avatar: &url},
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("user_id", user.ID).
		Str("key", key).
		Int64("size", hr.Size()).
		Msg("avatar updated")

	return user, nil
}
