package domain

import (
	"strings"
	"time"
	"unicode/utf8"
)

// Field limits for links.
const (
	TitleMaxLength       = 100
	DescriptionMaxLength = 300
)

// Link is an outbound link on a user's profile.
type Link struct {
	ID     string `json:"id"`
	UserID string `json:"userId"`

	Title       string `json:"title"`
	URL         string `json:"url"`
	Description string `json:"description"`
	Icon        string `json:"icon"`

	// Order is the zero-based display rank among the owner's links.
	// It is dense only right after a create or reorder.
	Order int `json:"order"`

	// Clicks only ever increases.
	Clicks int64 `json:"clicks"`

	IsActive bool `json:"isActive"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// NewLink creates an active link appended at position order.
func NewLink(id, userID, title, url, description, icon string, order int) *Link {
	now := time.Now().UTC()
	return &Link{
		ID:          id,
		UserID:      userID,
		Title:       strings.TrimSpace(title),
		URL:         strings.TrimSpace(url),
		Description: description,
		Icon:        icon,
		Order:       order,
		Clicks:      0,
		IsActive:    true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// Validate checks field constraints before persistence.
func (l *Link) Validate() error {
	if l.Title == "" || l.URL == "" {
		return ErrTitleURLRequired
	}
	if utf8.RuneCountInString(l.Title) > TitleMaxLength {
		return Validationf("Title cannot exceed %d characters", TitleMaxLength)
	}
	if utf8.RuneCountInString(l.Description) > DescriptionMaxLength {
		return Validationf("Description cannot exceed %d characters", DescriptionMaxLength)
	}
	return nil
}

// LinkPatch is a partial link update.
//
//   - Title and URL are applied only when non-empty.
//   - Description, Icon and IsActive are applied whenever supplied,
//     so "" and false are honored.
type LinkPatch struct {
	Title       *string
	URL         *string
	Description *string
	Icon        *string
	IsActive    *bool
}

// Apply mutates l according to the patch semantics.
func (p LinkPatch) Apply(l *Link) {
	if p.Title != nil && *p.Title != "" {
		l.Title = strings.TrimSpace(*p.Title)
	}
	if p.URL != nil && *p.URL != "" {
		l.URL = strings.TrimSpace(*p.URL)
	}
	if p.Description != nil {
		l.Description = *p.Description
	}
	if p.Icon != nil {
		l.Icon = *p.Icon
	}
	if p.IsActive != nil {
		l.IsActive = *p.IsActive
	}
}

// Access is the outcome of an ownership check.
type Access int

const (
	// AccessNotFound hides the resource from the caller.
	AccessNotFound Access = iota

	// AccessAllowed permits the operation.
	AccessAllowed
)

// AuthorizeOwner permits an operation on link iff it exists and is owned by
// callerID. Anything else is reported as not found.
func AuthorizeOwner(link *Link, callerID string) Access {
	if link == nil || callerID == "" || link.UserID != callerID {
		return AccessNotFound
	}
	return AccessAllowed
}
