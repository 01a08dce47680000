package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/prn-tf/linkday/internal/auth"
	"github.com/prn-tf/linkday/internal/domain"
	"github.com/prn-tf/linkday/internal/repository"
)

// UserService handles profile reads and owner-scoped profile updates.
type UserService struct {
	userRepo repository.UserRepository
	linkRepo repository.LinkRepository
	profiles *ProfileCache
	logger   zerolog.Logger
}

// NewUserService creates a new UserService. profiles may be nil.
func NewUserService(
	userRepo repository.UserRepository,
	linkRepo repository.LinkRepository,
	profiles *ProfileCache,
	logger zerolog.Logger,
) *UserService {
	return &UserService{
		userRepo: userRepo,
		linkRepo: linkRepo,
		profiles: profiles,
		logger:   logger.With().Str("service", "user").Logger(),
	}
}

// PublicProfileOutput is what anonymous visitors see for a username.
type PublicProfileOutput struct {
	User  domain.PublicProfile `json:"user"`
	Links []*domain.Link       `json:"links"`
}

// UpdateProfileInput contains a partial profile update for the caller.
type UpdateProfileInput struct {
	Caller auth.Identity
	Patch  domain.ProfilePatch
}

// UpdateUsernameInput contains the caller's requested username.
type UpdateUsernameInput struct {
	Caller   auth.Identity
	Username string
}

// GetByID retrieves a user regardless of IsActive.
func (s *UserService) GetByID(ctx context.Context, id string) (*domain.User, error) {
	if !validID(id) {
		return nil, domain.ErrUserNotFound
	}

	user, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, domain.ErrUserNotFound
		}
		s.logger.Error().Err(err).Str("user_id", id).Msg("failed to get user")
		return nil, fmt.Errorf("%w: %v", ErrInternalError, err)
	}
	return user, nil
}

// GetPublicProfile returns an active user's public fields and active links.
// The username is matched exactly as given.
func (s *UserService) GetPublicProfile(ctx context.Context, username string) (*PublicProfileOutput, error) {
	if out, ok := s.profiles.Get(ctx, username); ok {
		return out, nil
	}

	user, err := s.userRepo.GetActiveByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, domain.ErrUserNotFound
		}
		s.logger.Error().Err(err).Str("username", username).Msg("failed to get user by username")
		return nil, fmt.Errorf("%w: %v", ErrInternalError, err)
	}

	links, err := s.linkRepo.ListByUser(ctx, user.ID, true)
	if err != nil {
		s.logger.Error().Err(err).Str("user_id", user.ID).Msg("failed to list active links")
		return nil, fmt.Errorf("%w: %v", ErrInternalError, err)
	}
	if links == nil {
		links = []*domain.Link{}
	}

	out := &PublicProfileOutput{
		User:  user.Public(),
		Links: links,
	}
	s.profiles.Set(ctx, username, out)

	return out, nil
}

// UpdateProfile applies a partial update to the caller's profile.
func (s *UserService) UpdateProfile(ctx context.Context, input UpdateProfileInput) (*domain.User, error) {
	user, err := s.GetByID(ctx, input.Caller.UserID)
	if err != nil {
		return nil, err
	}

	input.Patch.Apply(user)
	if err := user.Validate(); err != nil {
		return nil, err
	}

	if err := s.userRepo.UpdateProfile(ctx, user); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, domain.ErrUserNotFound
		}
		s.logger.Error().Err(err).Str("user_id", user.ID).Msg("failed to update profile")
		return nil, fmt.Errorf("%w: %v", ErrInternalError, err)
	}

	s.profiles.Invalidate(ctx, user.Username)

	s.logger.Info().Str("user_id", user.ID).Msg("profile updated")

	return user, nil
}

// UpdateUsername lowercases and assigns a new username to the caller.
// A username held by another user is rejected and nothing is changed.
func (s *UserService) UpdateUsername(ctx context.Context, input UpdateUsernameInput) (*domain.User, error) {
	username := domain.NormalizeUsername(input.Username)
	if err := domain.ValidateUsername(username); err != nil {
		return nil, err
	}

	exists, err := s.userRepo.ExistsByUsername(ctx, username, input.Caller.UserID)
	if err != nil {
		s.logger.Error().Err(err).Str("username", username).Msg("failed to check username existence")
		return nil, fmt.Errorf("%w: %v", ErrInternalError, err)
	}
	if exists {
		return nil, domain.ErrUsernameTaken
	}

	user, err := s.GetByID(ctx, input.Caller.UserID)
	if err != nil {
		return nil, err
	}
	previous := user.Username

	if err := s.userRepo.UpdateUsername(ctx, user.ID, username); err != nil {
		switch {
		case errors.Is(err, domain.ErrConflict):
			return nil, domain.ErrUsernameTaken
		case errors.Is(err, repository.ErrNotFound):
			return nil, domain.ErrUserNotFound
		}
		s.logger.Error().Err(err).Str("user_id", user.ID).Msg("failed to update username")
		return nil, fmt.Errorf("%w: %v", ErrInternalError, err)
	}
	user.Username = username

	s.profiles.Invalidate(ctx, previous, username)

	s.logger.Info().
		Str("user_id", user.ID).
		Str("old_username", previous).
		Str("username", username).
		Msg("username updated")

	return user, nil
}

// SetActiveByUsername enables or disables an account. Disabled accounts
// cannot log in and their public profile is hidden.
func (s *UserService) SetActiveByUsername(ctx context.Context, username string, active bool) (*domain.User, error) {
	user, err := s.userRepo.GetByUsername(ctx, domain.NormalizeUsername(username))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, domain.ErrUserNotFound
		}
		s.logger.Error().Err(err).Str("username", username).Msg("failed to get user by username")
		return nil, fmt.Errorf("%w: %v", ErrInternalError, err)
	}

	if err := s.userRepo.SetActive(ctx, user.ID, active); err != nil {
		s.logger.Error().Err(err).Str("user_id", user.ID).Msg("failed to set user active state")
		return nil, fmt.Errorf("%w: %v", ErrInternalError, err)
	}
	user.IsActive = active

	s.profiles.Invalidate(ctx, user.Username)

	s.logger.Info().
		Str("user_id", user.ID).
		Bool("active", active).
		Msg("user active state changed")

	return user, nil
}

// List returns users ordered by creation time.
func (s *UserService) List(ctx context.Context, opts repository.ListOptions) ([]*domain.User, error) {
	users, err := s.userRepo.List(ctx, opts)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to list users")
		return nil, fmt.Errorf("%w: %v", ErrInternalError, err)
	}
	return users, nil
}
