package repository

import "context"

// Repositories holds all repository instances.
type Repositories struct {
	User UserRepository
	Link LinkRepository
}

// DatabaseHealth is an interface for database health checks.
// Both the postgres and sqlite DB types satisfy it.
type DatabaseHealth interface {
	Ping(ctx context.Context) error
	Health(ctx context.Context) error
	Close() error
}

// Store bundles the repositories with the connection that backs them.
type Store struct {
	Repos    *Repositories
	Database DatabaseHealth
}
