package http

import (
	"context"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/campusmatch/internal/domain"
)

type memoryStore struct {
	mu       sync.Mutex
	users    map[string]*domain.User
	matches  map[[2]string]bool
	messages []domain.Message
	seq      int
}

func newMemoryStore() *memoryStore {
	return &memoryStore{users: map[string]*domain.User{}, matches: map[[2]string]bool{}}
}

func (s *memoryStore) addUser(u *domain.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[u.ID] = u
}

func (s *memoryStore) match(a, b string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.matches[[2]string{a, b}] = true
	s.matches[[2]string{b, a}] = true
}

// users

type userStore struct{ *memoryStore }

func (s userStore) Create(_ context.Context, user *domain.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seq++
	user.ID = "new-" + strconv.Itoa(s.seq)
	user.CreatedAt = time.Now()
	copied := *user
	s.users[user.ID] = &copied
	return nil
}

func (s userStore) GetByID(_ context.Context, id string) (*domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	copied := *u
	return &copied, nil
}

func (s userStore) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	email = domain.NormalizeEmail(email)
	for _, u := range s.users {
		if u.Email == email {
			copied := *u
			return &copied, nil
		}
	}
	return nil, pgx.ErrNoRows
}

// matches

type matchStore struct{ *memoryStore }

func (s matchStore) AreMatched(_ context.Context, a, b string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.matches[[2]string{a, b}], nil
}

// messages

type messageStore struct{ *memoryStore }

func (s messageStore) Create(_ context.Context, msg *domain.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.messages = append(s.messages, *msg)
	return nil
}

func (s messageStore) ListConversation(_ context.Context, a, b string, before time.Time, limit int) ([]domain.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []domain.Message
	for _, m := range s.messages {
		if ((m.SenderID == a && m.RecipientID == b) || (m.SenderID == b && m.RecipientID == a)) && m.CreatedAt.Before(before) {
			out = append(out, m)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *memoryStore) messageCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.messages)
}
