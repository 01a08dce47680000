package service

import (
	"context"
	"sort"
	"sync"

	"github.com/stretchr/testify/mock"

	"github.com/prn-tf/linkday/internal/domain"
	"github.com/prn-tf/linkday/internal/repository"
)

// MockUserRepository is a map-backed implementation of repository.UserRepository.
type MockUserRepository struct {
	mu     sync.Mutex
	users  map[string]*domain.User
	getErr error
}

func NewMockUserRepository() *MockUserRepository {
	return &MockUserRepository{users: make(map[string]*domain.User)}
}

func (m *MockUserRepository) Create(ctx context.Context, user *domain.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Email == user.Email {
			return domain.ErrEmailTaken
		}
		if u.Username == user.Username {
			return domain.ErrUsernameTaken
		}
	}
	cp := *user
	m.users[user.ID] = &cp
	return nil
}

func (m *MockUserRepository) find(match func(*domain.User) bool) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.getErr != nil {
		return nil, m.getErr
	}
	for _, u := range m.users {
		if match(u) {
			cp := *u
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (m *MockUserRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	return m.find(func(u *domain.User) bool { return u.ID == id })
}

func (m *MockUserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	return m.find(func(u *domain.User) bool { return u.Email == email })
}

func (m *MockUserRepository) GetActiveByUsername(ctx context.Context, username string) (*domain.User, error) {
	return m.find(func(u *domain.User) bool { return u.Username == username && u.IsActive })
}

func (m *MockUserRepository) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	return m.find(func(u *domain.User) bool { return u.Username == username })
}

func (m *MockUserRepository) UpdateProfile(ctx context.Context, user *domain.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored, ok := m.users[user.ID]
	if !ok {
		return repository.ErrNotFound
	}
	stored.Name = user.Name
	stored.Bio = user.Bio
	stored.Avatar = user.Avatar
	stored.Theme = user.Theme
	return nil
}

func (m *MockUserRepository) UpdateUsername(ctx context.Context, id, username string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.ID != id && u.Username == username {
			return domain.ErrUsernameTaken
		}
	}
	stored, ok := m.users[id]
	if !ok {
		return repository.ErrNotFound
	}
	stored.Username = username
	return nil
}

func (m *MockUserRepository) SetActive(ctx context.Context, id string, active bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored, ok := m.users[id]
	if !ok {
		return repository.ErrNotFound
	}
	stored.IsActive = active
	return nil
}

func (m *MockUserRepository) ExistsByUsername(ctx context.Context, username, excludeID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Username == username && u.ID != excludeID {
			return true, nil
		}
	}
	return false, nil
}

func (m *MockUserRepository) List(ctx context.Context, opts repository.ListOptions) ([]*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []*domain.User
	for _, u := range m.users {
		cp := *u
		result = append(result, &cp)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].CreatedAt.Before(result[j].CreatedAt) })
	return result, nil
}

// Helper to read the stored record without copying semantics getting in the way.
func (m *MockUserRepository) stored(id string) domain.User {
	m.mu.Lock()
	defer m.mu.Unlock()
	return *m.users[id]
}

// MockLinkRepository is a map-backed implementation of repository.LinkRepository.
type MockLinkRepository struct {
	mu    sync.Mutex
	links map[string]*domain.Link
}

func NewMockLinkRepository() *MockLinkRepository {
	return &MockLinkRepository{links: make(map[string]*domain.Link)}
}

func (m *MockLinkRepository) Create(ctx context.Context, link *domain.Link) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *link
	m.links[link.ID] = &cp
	return nil
}

func (m *MockLinkRepository) GetByID(ctx context.Context, id string) (*domain.Link, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	l, ok := m.links[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *l
	return &cp, nil
}

func (m *MockLinkRepository) ListByUser(ctx context.Context, userID string, activeOnly bool) ([]*domain.Link, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []*domain.Link
	for _, l := range m.links {
		if l.UserID == userID && (!activeOnly || l.IsActive) {
			cp := *l
			result = append(result, &cp)
		}
	}
	sortLinks(result)
	return result, nil
}

// sortLinks matches the repositories' ORDER BY position, created_at.
func sortLinks(links []*domain.Link) {
	sort.SliceStable(links, func(i, j int) bool {
		if links[i].Order != links[j].Order {
			return links[i].Order < links[j].Order
		}
		return links[i].CreatedAt.Before(links[j].CreatedAt)
	})
}

func (m *MockLinkRepository) CountByUser(ctx context.Context, userID string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, l := range m.links {
		if l.UserID == userID {
			n++
		}
	}
	return n, nil
}

func (m *MockLinkRepository) Update(ctx context.Context, link *domain.Link) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored, ok := m.links[link.ID]
	if !ok || stored.UserID != link.UserID {
		return repository.ErrNotFound
	}
	stored.Title = link.Title
	stored.URL = link.URL
	stored.Description = link.Description
	stored.Icon = link.Icon
	stored.IsActive = link.IsActive
	return nil
}

func (m *MockLinkRepository) Delete(ctx context.Context, id, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored, ok := m.links[id]
	if !ok || stored.UserID != userID {
		return repository.ErrNotFound
	}
	delete(m.links, id)
	return nil
}

func (m *MockLinkRepository) Reorder(ctx context.Context, userID string, linkIDs []string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for i, id := range linkIDs {
		if l, ok := m.links[id]; ok && l.UserID == userID {
			l.Order = i
			n++
		}
	}
	return n, nil
}

func (m *MockLinkRepository) IncrementClicks(ctx context.Context, id string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	l, ok := m.links[id]
	if !ok || !l.IsActive {
		return "", repository.ErrNotFound
	}
	l.Clicks++
	return l.URL, nil
}

func (m *MockLinkRepository) stored(id string) domain.Link {
	m.mu.Lock()
	defer m.mu.Unlock()
	return *m.links[id]
}

// FailingLinkRepository is a testify mock used to drive error paths.
type FailingLinkRepository struct {
	mock.Mock
}

func (m *FailingLinkRepository) Create(ctx context.Context, link *domain.Link) error {
	return m.Called(ctx, link).Error(0)
}

func (m *FailingLinkRepository) GetByID(ctx context.Context, id string) (*domain.Link, error) {
	args := m.Called(ctx, id)
	if l := args.Get(0); l != nil {
		return l.(*domain.Link), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *FailingLinkRepository) ListByUser(ctx context.Context, userID string, activeOnly bool) ([]*domain.Link, error) {
	args := m.Called(ctx, userID, activeOnly)
	if l := args.Get(0); l != nil {
		return l.([]*domain.Link), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *FailingLinkRepository) CountByUser(ctx context.Context, userID string) (int, error) {
	args := m.Called(ctx, userID)
	return args.Int(0), args.Error(1)
}

func (m *FailingLinkRepository) Update(ctx context.Context, link *domain.Link) error {
	return m.Called(ctx, link).Error(0)
}

func (m *FailingLinkRepository) Delete(ctx context.Context, id, userID string) error {
	return m.Called(ctx, id, userID).Error(0)
}

func (m *FailingLinkRepository) Reorder(ctx context.Context, userID string, linkIDs []string) (int64, error) {
	args := m.Called(ctx, userID, linkIDs)
	return args.Get(0).(int64), args.Error(1)
}

func (m *FailingLinkRepository) IncrementClicks(ctx context.Context, id string) (string, error) {
	args := m.Called(ctx, id)
	return args.String(0), args.Error(1)
}

var (
	_ repository.UserRepository = (*MockUserRepository)(nil)
	_ repository.LinkRepository = (*MockLinkRepository)(nil)
	_ repository.LinkRepository = (*FailingLinkRepository)(nil)
)
