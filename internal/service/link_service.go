package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/prn-tf/linkday/internal/auth"
	"github.com/prn-tf/linkday/internal/domain"
	"github.com/prn-tf/linkday/internal/metrics"
	"github.com/prn-tf/linkday/internal/repository"
)

// LinkService handles link operations. Everything except RecordClick is
// scoped to the calling owner.
type LinkService struct {
	linkRepo repository.LinkRepository
	profiles *ProfileCache
	metrics  *metrics.Metrics
	logger   zerolog.Logger
}

// NewLinkService creates a new LinkService. profiles and m may be nil.
func NewLinkService(
	linkRepo repository.LinkRepository,
	profiles *ProfileCache,
	m *metrics.Metrics,
	logger zerolog.Logger,
) *LinkService {
	return &LinkService{
		linkRepo: linkRepo,
		profiles: profiles,
		metrics:  m,
		logger:   logger.With().Str("service", "link").Logger(),
	}
}

// =============================================================================
// Input/Output Structs
// =============================================================================

// CreateLinkInput contains the data needed to create a link.
type CreateLinkInput struct {
	Caller      auth.Identity
	Title       string
	URL         string
	Description string
	Icon        string
}

// UpdateLinkInput contains the data needed to update a link.
type UpdateLinkInput struct {
	Caller auth.Identity
	LinkID string
	Patch  domain.LinkPatch
}

// ReorderLinksInput contains the desired order of the caller's links.
type ReorderLinksInput struct {
	Caller auth.Identity
	// LinkIDs[i] receives order i. Malformed ids are skipped.
	LinkIDs []string
}

// ReorderLinksOutput reports how many links were moved.
type ReorderLinksOutput struct {
	Updated int64
}

// =============================================================================
// Service Methods
// =============================================================================

// List returns all of the caller's links ordered for display.
func (s *LinkService) List(ctx context.Context, caller auth.Identity) ([]*domain.Link, error) {
	links, err := s.linkRepo.ListByUser(ctx, caller.UserID, false)
	if err != nil {
		s.logger.Error().Err(err).Str("user_id", caller.UserID).Msg("failed to list links")
		return nil, fmt.Errorf("%w: %v", ErrInternalError, err)
	}
	return links, nil
}

// Create appends a new active link to the caller's list.
func (s *LinkService) Create(ctx context.Context, input CreateLinkInput) (*domain.Link, error) {
	if strings.TrimSpace(input.Title) == "" || strings.TrimSpace(input.URL) == "" {
		return nil, domain.ErrTitleURLRequired
	}

	count, err := s.linkRepo.CountByUser(ctx, input.Caller.UserID)
	if err != nil {
		s.logger.Error().Err(err).Str("user_id", input.Caller.UserID).Msg("failed to count links")
		return nil, fmt.Errorf("%w: %v", ErrInternalError, err)
	}

	link := domain.NewLink(
		uuid.NewString(),
		input.Caller.UserID,
		input.Title,
		input.URL,
		input.Description,
		input.Icon,
		count,
	)
	if err := link.Validate(); err != nil {
		return nil, err
	}

	if err := s.linkRepo.Create(ctx, link); err != nil {
		s.logger.Error().Err(err).Str("user_id", input.Caller.UserID).Msg("failed to create link")
		return nil, fmt.Errorf("%w: %v", ErrInternalError, err)
	}

	s.profiles.Invalidate(ctx, input.Caller.Username)

	s.logger.Info().
		Str("user_id", input.Caller.UserID).
		Str("link_id", link.ID).
		Int("order", link.Order).
		Msg("link created")

	return link, nil
}

// Update applies a partial update to one of the caller's links.
func (s *LinkService) Update(ctx context.Context, input UpdateLinkInput) (*domain.Link, error) {
	link, err := s.ownedLink(ctx, input.Caller, input.LinkID)
	if err != nil {
		return nil, err
	}

	input.Patch.Apply(link)
	if err := link.Validate(); err != nil {
		return nil, err
	}

	if err := s.linkRepo.Update(ctx, link); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, domain.ErrLinkNotFound
		}
		s.logger.Error().Err(err).Str("link_id", link.ID).Msg("failed to update link")
		return nil, fmt.Errorf("%w: %v", ErrInternalError, err)
	}

	s.profiles.Invalidate(ctx, input.Caller.Username)

	s.logger.Info().
		Str("user_id", input.Caller.UserID).
		Str("link_id", link.ID).
		Msg("link updated")

	return link, nil
}

// Delete permanently removes one of the caller's links. Remaining links
// keep their order values.
func (s *LinkService) Delete(ctx context.Context, caller auth.Identity, linkID string) error {
	if _, err := s.ownedLink(ctx, caller, linkID); err != nil {
		return err
	}

	if err := s.linkRepo.Delete(ctx, linkID, caller.UserID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return domain.ErrLinkNotFound
		}
		s.logger.Error().Err(err).Str("link_id", linkID).Msg("failed to delete link")
		return fmt.Errorf("%w: %v", ErrInternalError, err)
	}

	s.profiles.Invalidate(ctx, caller.Username)

	s.logger.Info().
		Str("user_id", caller.UserID).
		Str("link_id", linkID).
		Msg("link deleted")

	return nil
}

// Reorder assigns order i to LinkIDs[i] for each id the caller owns.
// Other ids are skipped without error. Links not listed keep their order.
func (s *LinkService) Reorder(ctx context.Context, input ReorderLinksInput) (*ReorderLinksOutput, error) {
	ids := make([]string, len(input.LinkIDs))
	for i, id := range input.LinkIDs {
		if validID(id) {
			ids[i] = id
		}
	}

	updated, err := s.linkRepo.Reorder(ctx, input.Caller.UserID, ids)
	if err != nil {
		s.logger.Error().
			Err(err).
			Str("user_id", input.Caller.UserID).
			Int64("updated", updated).
			Msg("failed to reorder links")
		return nil, fmt.Errorf("%w: %v", ErrInternalError, err)
	}

	s.profiles.Invalidate(ctx, input.Caller.Username)

	s.logger.Info().
		Str("user_id", input.Caller.UserID).
		Int("requested", len(input.LinkIDs)).
		Int64("updated", updated).
		Msg("links reordered")

	return &ReorderLinksOutput{Updated: updated}, nil
}

// RecordClick atomically counts a click on an active link and returns the
// redirect target. Missing and inactive links are reported as not found.
func (s *LinkService) RecordClick(ctx context.Context, linkID string) (string, error) {
	if !validID(linkID) {
		return "", domain.ErrLinkNotFound
	}

	url, err := s.linkRepo.IncrementClicks(ctx, linkID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return "", domain.ErrLinkNotFound
		}
		s.logger.Error().Err(err).Str("link_id", linkID).Msg("failed to record click")
		return "", fmt.Errorf("%w: %v", ErrInternalError, err)
	}

	if s.metrics != nil {
		s.metrics.RecordClick()
	}

	return url, nil
}

// ownedLink loads a link and applies the ownership guard.
func (s *LinkService) ownedLink(ctx context.Context, caller auth.Identity, linkID string) (*domain.Link, error) {
	if !validID(linkID) {
		return nil, domain.ErrLinkNotFound
	}

	link, err := s.linkRepo.GetByID(ctx, linkID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, domain.ErrLinkNotFound
		}
		s.logger.Error().Err(err).Str("link_id", linkID).Msg("failed to get link")
		return nil, fmt.Errorf("%w: %v", ErrInternalError, err)
	}

	if domain.AuthorizeOwner(link, caller.UserID) != domain.AccessAllowed {
		return nil, domain.ErrLinkNotFound
	}
	return link, nil
}

// validID reports whether id is a canonical UUID string.
func validID(id string) bool {
	if len(id) != 36 {
		return false
	}
	_, err := uuid.Parse(id)
	return err == nil
}
