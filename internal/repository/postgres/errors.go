package postgres

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/prn-tf/linkday/internal/domain"
	"github.com/prn-tf/linkday/internal/repository"
)

// uniqueViolation is the SQLSTATE for unique_violation.
const uniqueViolation = "23505"

// Constraint names from migrations/000001_init.up.sql.
const (
	constraintUserEmail    = "users_email_key"
	constraintUserUsername = "users_username_key"
)

// isUniqueViolation checks if an error is a unique constraint violation.
func isUniqueViolation(err error) (*pgconn.PgError, bool) {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return pgErr, true
	}
	return nil, false
}

// userConflict maps a users unique violation to the domain error naming the field.
func userConflict(pgErr *pgconn.PgError) error {
	switch pgErr.ConstraintName {
	case constraintUserEmail:
		return domain.ErrEmailTaken
	case constraintUserUsername:
		return domain.ErrUsernameTaken
	default:
		return domain.NewError(domain.ErrConflict, "Duplicate field value entered")
	}
}

// notFoundOr translates pgx.ErrNoRows and wraps anything else.
func notFoundOr(err error, op string) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return repository.ErrNotFound
	}
	return fmt.Errorf("failed to %s: %w", op, err)
}
