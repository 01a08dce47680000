package sqlite

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/prn-tf/linkday/internal/domain"
	"github.com/prn-tf/linkday/internal/repository"
)

// Error handling utilities for SQLite.

// isUniqueViolation checks if an error is a unique constraint violation.
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	// SQLite unique constraint error message
	errStr := err.Error()
	return strings.Contains(errStr, "UNIQUE constraint failed") ||
		strings.Contains(errStr, "constraint failed: UNIQUE")
}

// userConflict maps a users unique violation to the domain error naming the field.
// SQLite reports the column as "UNIQUE constraint failed: users.email".
func userConflict(err error) error {
	if strings.Contains(err.Error(), "users.email") {
		return domain.ErrEmailTaken
	}
	return domain.ErrUsernameTaken
}

// isNoRows checks if an error indicates no rows were found.
func isNoRows(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}

// requireAffected reports repository.ErrNotFound when a write matched no rows.
func requireAffected(result sql.Result) error {
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if n == 0 {
		return repository.ErrNotFound
	}
	return nil
}
