package auth

import (
	"context"
	"errors"
	"sync"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/campusmatch/internal/domain"
)

type fakeStore struct {
	mu    sync.Mutex
	users map[string]*domain.User
	err   error
	calls int
}

func newFakeStore(users ...*domain.User) *fakeStore {
	s := &fakeStore{users: map[string]*domain.User{}}
	for _, u := range users {
		s.users[u.ID] = u
	}
	return s
}

func (s *fakeStore) GetByID(_ context.Context, id string) (*domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	u, ok := s.users[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	copied := *u
	return &copied, nil
}

type fakeRevocations struct {
	revoked map[string]bool
	err     error
}

func (f *fakeRevocations) IsRevoked(_ context.Context, tokenID string) (bool, error) {
	if f.err != nil {
		return false, f.err
	}
	return f.revoked[tokenID], nil
}

var errStoreDown = errors.New("connection refused")

func approvedUser(id string) *domain.User {
	return &domain.User{ID: id, Name: id, Email: id + "@example.edu", IsApproved: true}
}
