package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/prn-tf/linkday/internal/auth"
	"github.com/prn-tf/linkday/internal/domain"
	"github.com/prn-tf/linkday/internal/pkg/crypto"
	"github.com/prn-tf/linkday/internal/repository"
)

// AuthService registers users and issues access tokens.
type AuthService struct {
	userRepo  repository.UserRepository
	passwords *crypto.PasswordHasher
	tokens    *auth.TokenManager
	logger    zerolog.Logger
}

// NewAuthService creates a new AuthService.
func NewAuthService(
	userRepo repository.UserRepository,
	passwords *crypto.PasswordHasher,
	tokens *auth.TokenManager,
	logger zerolog.Logger,
) *AuthService {
	return &AuthService{
		userRepo:  userRepo,
		passwords: passwords,
		tokens:    tokens,
		logger:    logger.With().Str("service", "auth").Logger(),
	}
}

// RegisterInput contains the data needed to create an account.
type RegisterInput struct {
	Name     string
	Email    string
	Username string
	Password string
}

// LoginInput contains login credentials.
type LoginInput struct {
	Email    string
	Password string
}

// AuthOutput is returned by Register and Login.
type AuthOutput struct {
	Token     string
	ExpiresAt time.Time
	User      *domain.User
}

// Register creates a new account and returns a token for it.
func (s *AuthService) Register(ctx context.Context, input RegisterInput) (*AuthOutput, error) {
	if err := validateRegisterInput(input); err != nil {
		return nil, err
	}

	passwordHash, err := s.passwords.Hash(input.Password)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to hash password")
		return nil, fmt.Errorf("%w: failed to hash password", ErrInternalError)
	}

	user := domain.NewUser(uuid.NewString(), input.Name, input.Email, input.Username, passwordHash)
	if err := user.Validate(); err != nil {
		return nil, err
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		if errors.Is(err, domain.ErrConflict) {
			return nil, err
		}
		s.logger.Error().Err(err).Str("username", user.Username).Msg("failed to create user")
		return nil, fmt.Errorf("%w: %v", ErrInternalError, err)
	}

	s.logger.Info().
		Str("user_id", user.ID).
		Str("username", user.Username).
		Msg("user registered")

	return s.issue(user)
}

// Login verifies credentials and returns a token. Unknown emails, wrong
// passwords and inactive accounts all fail the same way.
func (s *AuthService) Login(ctx context.Context, input LoginInput) (*AuthOutput, error) {
	if strings.TrimSpace(input.Email) == "" || input.Password == "" {
		return nil, ErrMissingCredentials
	}

	user, err := s.userRepo.GetByEmail(ctx, domain.NormalizeEmail(input.Email))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, domain.ErrInvalidCredentials
		}
		s.logger.Error().Err(err).Msg("failed to get user by email")
		return nil, fmt.Errorf("%w: %v", ErrInternalError, err)
	}

	if !user.CanAuthenticate() {
		return nil, domain.ErrInvalidCredentials
	}

	if err := s.passwords.Compare(user.PasswordHash, input.Password); err != nil {
		if !errors.Is(err, crypto.ErrPasswordMismatch) {
			s.logger.Warn().Err(err).Str("user_id", user.ID).Msg("stored password hash is unusable")
		}
		return nil, domain.ErrInvalidCredentials
	}

	s.logger.Info().Str("user_id", user.ID).Msg("user logged in")

	return s.issue(user)
}

// issue signs a token for user.
func (s *AuthService) issue(user *domain.User) (*AuthOutput, error) {
	token, expiresAt, err := s.tokens.Issue(user.ID)
	if err != nil {
		s.logger.Error().Err(err).Str("user_id", user.ID).Msg("failed to issue token")
		return nil, fmt.Errorf("%w: %v", ErrInternalError, err)
	}

	return &AuthOutput{
		Token:     token,
		ExpiresAt: expiresAt,
		User:      user,
	}, nil
}

// validateRegisterInput checks the registration fields in the order a
// client is expected to fix them.
func validateRegisterInput(input RegisterInput) error {
	if strings.TrimSpace(input.Name) == "" ||
		strings.TrimSpace(input.Email) == "" ||
		strings.TrimSpace(input.Username) == "" ||
		input.Password == "" {
		return ErrMissingFields
	}
	if !domain.ValidEmail(domain.NormalizeEmail(input.Email)) {
		return ErrInvalidEmail
	}
	if err := domain.ValidateUsername(domain.NormalizeUsername(input.Username)); err != nil {
		return err
	}
	if utf8.RuneCountInString(input.Password) < domain.PasswordMinLength {
		return ErrPasswordTooShort
	}
	return nil
}
