package service

import (
	"context"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/campusmatch/internal/domain"
	"github.com/spec-kit/campusmatch/internal/events"
	"github.com/spec-kit/campusmatch/internal/relay"
)

type memoryUsers struct {
	mu    sync.Mutex
	byID  map[string]*domain.User
	seq   int
	fault error
}

func newMemoryUsers() *memoryUsers {
	return &memoryUsers{byID: map[string]*domain.User{}}
}

func (m *memoryUsers) Create(_ context.Context, user *domain.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fault != nil {
		return m.fault
	}
	m.seq++
	user.ID = "user-" + strconv.Itoa(m.seq)
	user.CreatedAt = time.Now()
	user.UpdatedAt = user.CreatedAt
	stored := *user
	m.byID[user.ID] = &stored
	return nil
}

func (m *memoryUsers) GetByID(_ context.Context, id string) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fault != nil {
		return nil, m.fault
	}
	if u, ok := m.byID[id]; ok {
		out := *u
		return &out, nil
	}
	return nil, pgx.ErrNoRows
}

func (m *memoryUsers) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fault != nil {
		return nil, m.fault
	}
	email = domain.NormalizeEmail(email)
	for _, u := range m.byID {
		if u.Email == email {
			out := *u
			return &out, nil
		}
	}
	return nil, pgx.ErrNoRows
}

type memoryMatches struct {
	pairs map[[2]string]bool
	fault error
}

func newMemoryMatches(pairs ...[2]string) *memoryMatches {
	m := &memoryMatches{pairs: map[[2]string]bool{}}
	for _, p := range pairs {
		m.pairs[p] = true
		m.pairs[[2]string{p[1], p[0]}] = true
	}
	return m
}

func (m *memoryMatches) AreMatched(_ context.Context, a, b string) (bool, error) {
	if m.fault != nil {
		return false, m.fault
	}
	return m.pairs[[2]string{a, b}], nil
}

type memoryMessages struct {
	mu    sync.Mutex
	items []domain.Message
	fault error
}

func (m *memoryMessages) Create(_ context.Context, msg *domain.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fault != nil {
		return m.fault
	}
	m.items = append(m.items, *msg)
	return nil
}

func (m *memoryMessages) ListConversation(_ context.Context, a, b string, before time.Time, limit int) ([]domain.Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.Message
	for _, msg := range m.items {
		inPair := (msg.SenderID == a && msg.RecipientID == b) || (msg.SenderID == b && msg.RecipientID == a)
		if inPair && msg.CreatedAt.Before(before) {
			out = append(out, msg)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

type stubDeliverer struct {
	status relay.DeliveryStatus
	err    error
	sent   []domain.Envelope
}

func (s *stubDeliverer) Deliver(_ context.Context, env domain.Envelope) (relay.DeliveryStatus, error) {
	s.sent = append(s.sent, env)
	return s.status, s.err
}

type recordingDispatcher struct {
	mu        sync.Mutex
	published []events.Event
	handlers  map[events.EventType][]events.EventHandler
}

func newRecordingDispatcher() *recordingDispatcher {
	return &recordingDispatcher{handlers: map[events.EventType][]events.EventHandler{}}
}

func (d *recordingDispatcher) Publish(ctx context.Context, event events.Event) error {
	d.mu.Lock()
	d.published = append(d.published, event)
	handlers := d.handlers[event.Type]
	d.mu.Unlock()
	for _, h := range handlers {
		_ = h(ctx, event)
	}
	return nil
}

func (d *recordingDispatcher) Subscribe(eventType events.EventType, handler events.EventHandler) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.handlers[eventType] = append(d.handlers[eventType], handler)
}

func (d *recordingDispatcher) Types() []events.EventType {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]events.EventType, 0, len(d.published))
	for _, e := range d.published {
		out = append(out, e.Type)
	}
	return out
}

type fakeRevoker struct {
	revoked map[string]time.Time
	err     error
}

func (f *fakeRevoker) Revoke(_ context.Context, tokenID string, expiresAt time.Time) error {
	if f.err != nil {
		return f.err
	}
	if f.revoked == nil {
		f.revoked = map[string]time.Time{}
	}
	f.revoked[tokenID] = expiresAt
	return nil
}

type fakeSessions struct {
	closed []string
}

func (f *fakeSessions) Disconnect(userID string) bool {
	f.closed = append(f.closed, userID)
	return true
}
