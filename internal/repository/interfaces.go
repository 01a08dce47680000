// Package repository defines data access interfaces for LinkDay.
// These interfaces abstract database operations, allowing for different implementations
// (PostgreSQL, SQLite, in-memory for testing) while keeping the service layer clean.
package repository

import (
	"context"

	"github.com/prn-tf/linkday/internal/domain"
)

// =============================================================================
// User Repository
// =============================================================================

// UserRepository defines the interface for user data access.
type UserRepository interface {
	// Create creates a new user.
	// Returns domain.ErrEmailTaken or domain.ErrUsernameTaken on a unique violation.
	Create(ctx context.Context, user *domain.User) error

	// GetByID retrieves a user by ID regardless of IsActive.
	// Returns ErrNotFound if no such user exists.
	GetByID(ctx context.Context, id string) (*domain.User, error)

	// GetByEmail retrieves a user by (normalized) email regardless of IsActive.
	GetByEmail(ctx context.Context, email string) (*domain.User, error)

	// GetActiveByUsername retrieves an active user by username.
	// Inactive users are reported as ErrNotFound.
	GetActiveByUsername(ctx context.Context, username string) (*domain.User, error)

	// GetByUsername retrieves a user by username regardless of IsActive.
	GetByUsername(ctx context.Context, username string) (*domain.User, error)

	// UpdateProfile persists name, bio, avatar and theme.
	UpdateProfile(ctx context.Context, user *domain.User) error

	// UpdateUsername persists the username.
	// Returns domain.ErrUsernameTaken on a unique violation.
	UpdateUsername(ctx context.Context, id, username string) error

	// SetActive toggles the IsActive flag.
	SetActive(ctx context.Context, id string, active bool) error

	// ExistsByUsername reports whether a user other than excludeID holds username.
	// An empty excludeID checks all users.
	ExistsByUsername(ctx context.Context, username, excludeID string) (bool, error)

	// List returns users ordered by creation time.
	List(ctx context.Context, opts ListOptions) ([]*domain.User, error)
}

// =============================================================================
// Link Repository
// =============================================================================

// LinkRepository defines the interface for link data access.
type LinkRepository interface {
	// Create creates a new link.
	Create(ctx context.Context, link *domain.Link) error

	// GetByID retrieves a link by ID.
	// Returns ErrNotFound if no such link exists.
	GetByID(ctx context.Context, id string) (*domain.Link, error)

	// ListByUser returns the owner's links ordered by order, then createdAt.
	// When activeOnly is set, inactive links are excluded.
	ListByUser(ctx context.Context, userID string, activeOnly bool) ([]*domain.Link, error)

	// CountByUser returns the number of links owned by userID.
	CountByUser(ctx context.Context, userID string) (int, error)

	// Update persists title, url, description, icon and isActive for a link
	// owned by link.UserID. It never touches clicks or order.
	// Returns ErrNotFound if no owned link matched.
	Update(ctx context.Context, link *domain.Link) error

	// Delete removes a link owned by userID.
	// Returns ErrNotFound if no owned link matched.
	Delete(ctx context.Context, id, userID string) error

	// Reorder sets order = i for linkIDs[i] where the link is owned by userID.
	// Unowned, unknown and empty ids are skipped. Not transactional across ids.
	// Returns the number of links updated.
	Reorder(ctx context.Context, userID string, linkIDs []string) (int64, error)

	// IncrementClicks atomically adds one click to an active link and returns its URL.
	// Returns ErrNotFound if the link is missing or inactive.
	IncrementClicks(ctx context.Context, id string) (string, error)
}

// =============================================================================
// Common Types
// =============================================================================

// ListOptions contains common pagination options.
type ListOptions struct {
	// Offset is the number of records to skip.
	Offset int

	// Limit is the maximum number of records to return.
	// Zero means no limit.
	Limit int
}
