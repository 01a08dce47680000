// Package domain contains the core business entities for LinkDay.
// These are pure Go structs with no external dependencies.
package domain

import (
	"regexp"
	"strings"
	"time"
	"unicode/utf8"
)

// Field limits for users.
const (
	UsernameMinLength = 3
	UsernameMaxLength = 30
	BioMaxLength      = 160
	PasswordMinLength = 6
)

var emailPattern = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

// Theme is the profile page color scheme.
type Theme string

const (
	ThemeLight    Theme = "light"
	ThemeDark     Theme = "dark"
	ThemeColorful Theme = "colorful"
)

// Valid reports whether t is one of the supported themes.
func (t Theme) Valid() bool {
	switch t {
	case ThemeLight, ThemeDark, ThemeColorful:
		return true
	}
	return false
}

// User represents a registered LinkDay user.
type User struct {
	// ID is the opaque identifier assigned at creation.
	ID string `json:"id"`

	Name  string `json:"name"`
	Email string `json:"email"`

	// Username is unique and always stored lowercase.
	Username string `json:"username"`

	// PasswordHash is the bcrypt hash of the user's password.
	// This is never exposed in API responses.
	PasswordHash string `json:"-"`

	Avatar string `json:"avatar"`
	Bio    string `json:"bio"`
	Theme  Theme  `json:"theme"`

	// IsActive excludes the user from public lookup and login when false.
	IsActive bool `json:"isActive"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// NewUser creates a new User with default values.
func NewUser(id, name, email, username, passwordHash string) *User {
	now := time.Now().UTC()
	return &User{
		ID:           id,
		Name:         strings.TrimSpace(name),
		Email:        NormalizeEmail(email),
		Username:     NormalizeUsername(username),
		PasswordHash: passwordHash,
		Theme:        ThemeLight,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

// CanAuthenticate returns true if the user is allowed to authenticate.
func (u *User) CanAuthenticate() bool {
	return u.IsActive
}

// Validate checks field constraints before persistence.
func (u *User) Validate() error {
	if u.Name == "" {
		return Validationf("Name is required")
	}
	if !ValidEmail(u.Email) {
		return Validationf("Please provide a valid email")
	}
	if err := ValidateUsername(u.Username); err != nil {
		return err
	}
	if utf8.RuneCountInString(u.Bio) > BioMaxLength {
		return Validationf("Bio cannot exceed %d characters", BioMaxLength)
	}
	if !u.Theme.Valid() {
		return Validationf("Theme must be light, dark or colorful")
	}
	return nil
}

// PublicProfile is the view of a user visible to anonymous visitors.
type PublicProfile struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Username  string    `json:"username"`
	Avatar    string    `json:"avatar"`
	Bio       string    `json:"bio"`
	Theme     Theme     `json:"theme"`
	CreatedAt time.Time `json:"createdAt"`
}

// Public returns the user without credential or contact fields.
func (u *User) Public() PublicProfile {
	return PublicProfile{
		ID:        u.ID,
		Name:      u.Name,
		Username:  u.Username,
		Avatar:    u.Avatar,
		Bio:       u.Bio,
		Theme:     u.Theme,
		CreatedAt: u.CreatedAt,
	}
}

// ProfilePatch is a partial profile update.
//
//   - Name is applied only when non-empty.
//   - Bio and Avatar are applied whenever supplied, including "".
//   - Theme is applied only when it is a valid Theme; anything else is ignored.
type ProfilePatch struct {
	Name   *string
	Bio    *string
	Avatar *string
	Theme  *string
}

// Apply mutates u according to the patch semantics.
func (p ProfilePatch) Apply(u *User) {
	if p.Name != nil && *p.Name != "" {
		u.Name = strings.TrimSpace(*p.Name)
	}
	if p.Bio != nil {
		u.Bio = strings.TrimSpace(*p.Bio)
	}
	if p.Avatar != nil {
		u.Avatar = *p.Avatar
	}
	if p.Theme != nil {
		if t := Theme(*p.Theme); t.Valid() {
			u.Theme = t
		}
	}
}

// NormalizeUsername trims and lowercases a username.
func NormalizeUsername(username string) string {
	return strings.ToLower(strings.TrimSpace(username))
}

// NormalizeEmail trims and lowercases an email address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// ValidateUsername checks the username length.
func ValidateUsername(username string) error {
	n := utf8.RuneCountInString(username)
	if n < UsernameMinLength || n > UsernameMaxLength {
		return ErrUsernameLength
	}
	return nil
}

// ValidEmail reports whether email looks like an address.
func ValidEmail(email string) bool {
	return emailPattern.MatchString(email)
}
