package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/prn-tf/linkday/internal/domain"
	"github.com/prn-tf/linkday/internal/repository"
)

// linkRepository implements repository.LinkRepository.
type linkRepository struct {
	q Querier
}

// NewLinkRepository creates a new PostgreSQL link repository.
func NewLinkRepository(db *DB) repository.LinkRepository {
	return &linkRepository{q: db.Pool}
}

const linkColumns = `id, user_id, title, url, description, icon, position, clicks, is_active, created_at, updated_at`

// Create creates a new link.
func (r *linkRepository) Create(ctx context.Context, link *domain.Link) error {
	query := `
		INSERT INTO links (` + linkColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`

	_, err := r.q.Exec(ctx, query,
		link.ID,
		link.UserID,
		link.Title,
		link.URL,
		link.Description,
		link.Icon,
		link.Order,
		link.Clicks,
		link.IsActive,
		link.CreatedAt,
		link.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create link: %w", err)
	}

	return nil
}

// GetByID retrieves a link by ID.
func (r *linkRepository) GetByID(ctx context.Context, id string) (*domain.Link, error) {
	link, err := scanLink(r.q.QueryRow(ctx, `SELECT `+linkColumns+` FROM links WHERE id = $1`, id))
	if err != nil {
		return nil, notFoundOr(err, "get link by ID")
	}
	return link, nil
}

// ListByUser returns the owner's links in display order.
func (r *linkRepository) ListByUser(ctx context.Context, userID string, activeOnly bool) ([]*domain.Link, error) {
	query := `SELECT ` + linkColumns + ` FROM links WHERE user_id = $1`
	if activeOnly {
		query += ` AND is_active`
	}
	query += ` ORDER BY position ASC, created_at ASC`

	rows, err := r.q.Query(ctx, query, userID)
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
	if err := r.q.QueryRow(ctx, `SELECT COUNT(*) FROM links WHERE user_id = $1`, userID).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count links: %w", err)
	}
	return count, nil
}

// Update persists the editable fields of an owned link.
func (r *linkRepository) Update(ctx context.Context, link *domain.Link) error {
	query := `
		UPDATE links
		SET title = $1, url = $2, description = $3, icon = $4, is_active = $5, updated_at = NOW()
		WHERE id = $6 AND user_id = $7
		RETURNING updated_at
	`

	err := r.q.QueryRow(ctx, query,
		link.Title,
		link.URL,
		link.Description,
		link.Icon,
		link.IsActive,
		link.ID,
		link.UserID,
	).Scan(&link.UpdatedAt)
	if err != nil {
		return notFoundOr(err, "update link")
	}

	return nil
}

// Delete removes an owned link. Remaining positions are left as they are.
func (r *linkRepository) Delete(ctx context.Context, id, userID string) error {
	tag, err := r.q.Exec(ctx, `DELETE FROM links WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return fmt.Errorf("failed to delete link: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// Reorder sends one UPDATE per id in a single pgx batch.
// Ids that are unknown or owned by someone else match no rows and are skipped.
// Empty entries hold their position but are not sent.
func (r *linkRepository) Reorder(ctx context.Context, userID string, linkIDs []string) (int64, error) {
	if len(linkIDs) == 0 {
		return 0, nil
	}

	batch := &pgx.Batch{}
	queued := make([]string, 0, len(linkIDs))
	for i, id := range linkIDs {
		if id == "" {
			continue
		}
		batch.Queue(`UPDATE links SET position = $1, updated_at = NOW() WHERE id = $2 AND user_id = $3`, i, id, userID)
		queued = append(queued, id)
	}
	if len(queued) == 0 {
		return 0, nil
	}

	results := r.q.SendBatch(ctx, batch)
	defer results.Close()

	var updated int64
	for _, id := range queued {
		tag, err := results.Exec()
		if err != nil {
			return updated, fmt.Errorf("failed to reorder link %s: %w", id, err)
		}
		updated += tag.RowsAffected()
	}

	return updated, nil
}

// IncrementClicks atomically adds one click to an active link.
func (r *linkRepository) IncrementClicks(ctx context.Context, id string) (string, error) {
	query := `
		UPDATE links
		SET clicks = clicks + 1
		WHERE id = $1 AND is_active
		RETURNING url
	`

	var url string
	if err := r.q.QueryRow(ctx, query, id).Scan(&url); err != nil {
		return "", notFoundOr(err, "increment clicks")
	}

	return url, nil
}

func scanLink(row pgx.Row) (*domain.Link, error) {
	link := &domain.Link{}

	err := row.Scan(
		&link.ID,
		&link.UserID,
		&link.Title,
		&link.URL,
		&link.Description,
		&link.Icon,
		&link.Order,
		&link.Clicks,
		&link.IsActive,
		&link.CreatedAt,
		&link.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	link.CreatedAt = link.CreatedAt.UTC()
	link.UpdatedAt = link.UpdatedAt.UTC()

	return link, nil
}

// Ensure linkRepository implements repository.LinkRepository
var _ repository.LinkRepository = (*linkRepository)(nil)
