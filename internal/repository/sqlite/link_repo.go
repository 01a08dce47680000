package sqlite

import (
	"context"
	"fmt"
	"time"

	"github.com/prn-tf/linkday/internal/domain"
	"github.com/prn-tf/linkday/internal/repository"
)

// linkRepository implements repository.LinkRepository for SQLite.
type linkRepository struct {
	db *DB
}

// NewLinkRepository creates a new SQLite link repository.
func NewLinkRepository(db *DB) repository.LinkRepository {
	return &linkRepository{db: db}
}

const linkColumns = `id, user_id, title, url, description, icon, position, clicks, is_active, created_at, updated_at`

// Create creates a new link.
func (r *linkRepository) Create(ctx context.Context, link *domain.Link) error {
	query := `
		INSERT INTO links (` + linkColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := r.db.ExecContext(ctx, query,
		link.ID,
		link.UserID,
		link.Title,
		link.URL,
		link.Description,
		link.Icon,
		link.Order,
		link.Clicks,
		boolToInt(link.IsActive),
		formatTime(link.CreatedAt),
		formatTime(link.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to create link: %w", err)
	}

	return nil
}

// GetByID retrieves a link by ID.
func (r *linkRepository) GetByID(ctx context.Context, id string) (*domain.Link, error) {
	query := `SELECT ` + linkColumns + ` FROM links WHERE id = ?`

	link, err := scanLink(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if isNoRows(err) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get link by ID: %w", err)
	}

	return link, nil
}

// ListByUser returns the owner's links in display order.
func (r *linkRepository) ListByUser(ctx context.Context, userID string, activeOnly bool) ([]*domain.Link, error) {
	query := `SELECT ` + linkColumns + ` FROM links WHERE user_id = ?`
	if activeOnly {
		query += ` AND is_active = 1`
	}
	query += ` ORDER BY position ASC, created_at ASC`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list links: %w", err)
	}
	defer rows.Close()

	links := []*domain.Link{}
	for rows.Next() {
		link, err := scanLink(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan link: %w", err)
		}
		links = append(links, link)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating links: %w", err)
	}

	return links, nil
}

// CountByUser returns the number of links owned by userID.
func (r *linkRepository) CountByUser(ctx context.Context, userID string) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM links WHERE user_id = ?`, userID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count links: %w", err)
	}
	return count, nil
}

// Update persists the editable fields of an owned link.
func (r *linkRepository) Update(ctx context.Context, link *domain.Link) error {
	link.UpdatedAt = time.Now().UTC()

	query := `
		UPDATE links
		SET title = ?, url = ?, description = ?, icon = ?, is_active = ?, updated_at = ?
		WHERE id = ? AND user_id = ?
	`

	result, err := r.db.ExecContext(ctx, query,
		link.Title,
		link.URL,
		link.Description,
		link.Icon,
		boolToInt(link.IsActive),
		formatTime(link.UpdatedAt),
		link.ID,
		link.UserID,
	)
	if err != nil {
		return fmt.Errorf("failed to update link: %w", err)
	}

	return requireAffected(result)
}

// Delete removes an owned link. Remaining positions are left as they are.
func (r *linkRepository) Delete(ctx context.Context, id, userID string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM links WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return fmt.Errorf("failed to delete link: %w", err)
	}

	return requireAffected(result)
}

// Reorder assigns positions one statement at a time.
// A failure stops the run; positions already written stay written.
// Empty entries hold their position and are skipped.
func (r *linkRepository) Reorder(ctx context.Context, userID string, linkIDs []string) (int64, error) {
	query := `UPDATE links SET position = ?, updated_at = ? WHERE id = ? AND user_id = ?`
	now := formatTime(time.Now())

	var updated int64
	for i, id := range linkIDs {
		if id == "" {
			continue
		}
		result, err := r.db.ExecContext(ctx, query, i, now, id, userID)
		if err != nil {
			return updated, fmt.Errorf("failed to reorder link %s: %w", id, err)
		}
		n, err := result.RowsAffected()
		if err != nil {
			return updated, fmt.Errorf("failed to get rows affected: %w", err)
		}
		updated += n
	}

	return updated, nil
}

// IncrementClicks atomically adds one click to an active link.
func (r *linkRepository) IncrementClicks(ctx context.Context, id string) (string, error) {
	query := `
		UPDATE links
		SET clicks = clicks + 1
		WHERE id = ? AND is_active = 1
		RETURNING url
	`

	var url string
	if err := r.db.QueryRowContext(ctx, query, id).Scan(&url); err != nil {
		if isNoRows(err) {
			return "", repository.ErrNotFound
		}
		return "", fmt.Errorf("failed to increment clicks: %w", err)
	}

	return url, nil
}

func scanLink(row rowScanner) (*domain.Link, error) {
	link := &domain.Link{}
	var isActive int
	var createdAt, updatedAt string

	err := row.Scan(
		&link.ID,
		&link.UserID,
		&link.Title,
		&link.URL,
		&link.Description,
		&link.Icon,
		&link.Order,
		&link.Clicks,
		&isActive,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return nil, err
	}

	link.IsActive = isActive != 0
	link.CreatedAt = parseTime(createdAt)
	link.UpdatedAt = parseTime(updatedAt)

	return link, nil
}

// Ensure linkRepository implements repository.LinkRepository
var _ repository.LinkRepository = (*linkRepository)(nil)
