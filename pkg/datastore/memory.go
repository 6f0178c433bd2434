package datastore

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/NicolasHaas/gorelay/pkg/model"
)

// MemoryStore provides an in-memory DataStore implementation for tests
// and for running the relay without a database file. It mirrors SQLite
// behavior for validation and error handling.
type MemoryStore struct {
	mu sync.RWMutex

	now func() time.Time

	nextUserID    int64
	nextMessageID int64

	usersByID   map[int64]*model.User
	usersByName map[string]*model.User
	messages    []model.Message
}

// NewMemory creates a MemoryStore using time.Now().UTC().
func NewMemory() *MemoryStore {
	return NewMemoryWithClock(func() time.Time { return time.Now().UTC() })
}

// NewMemoryWithClock creates a MemoryStore with a custom clock.
func NewMemoryWithClock(now func() time.Time) *MemoryStore {
	if now == nil {
		now = func() time.Time { return time.Now().UTC() }
	}
	return &MemoryStore{
		now:           now,
		nextUserID:    1,
		nextMessageID: 1,
		usersByID:     make(map[int64]*model.User),
		usersByName:   make(map[string]*model.User),
	}
}

func (m *MemoryStore) Close() error { return nil }

// ---- Users ----

func (m *MemoryStore) CreateUser(name string) (*model.User, error) {
	if err := model.ValidateUsername(name); err != nil {
		return nil, fmt.Errorf("datastore: create user: %w", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.usersByName[name]; exists {
		return nil, fmt.Errorf("datastore: create user: name %q already exists", name)
	}

	u := &model.User{
		ID:        m.nextUserID,
		Name:      name,
		CreatedAt: m.now(),
	}
	m.nextUserID++
	m.usersByID[u.ID] = u
	m.usersByName[u.Name] = u

	copied := *u
	return &copied, nil
}

func (m *MemoryStore) GetUserByID(id int64) (*model.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	u, ok := m.usersByID[id]
	if !ok {
		return nil, nil
	}
	copied := *u
	return &copied, nil
}

func (m *MemoryStore) GetUserByName(name string) (*model.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	u, ok := m.usersByName[name]
	if !ok {
		return nil, nil
	}
	copied := *u
	return &copied, nil
}

func (m *MemoryStore) ListUsers() ([]model.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	users := make([]model.User, 0, len(m.usersByID))
	for _, u := range m.usersByID {
		users = append(users, *u)
	}
	sort.Slice(users, func(i, j int) bool { return users[i].ID < users[j].ID })
	return users, nil
}

// ---- Messages ----

func (m *MemoryStore) CreateMessage(message *model.Message) error {
	if err := message.Validate(); err != nil {
		return fmt.Errorf("datastore: message failed validation: %w", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	message.ID = m.nextMessageID
	m.nextMessageID++
	message.CreatedAt = m.now()
	m.messages = append(m.messages, *message)
	return nil
}

// Messages returns a snapshot of all appended messages. Test helper; the
// DataStore interface has no message read path.
func (m *MemoryStore) Messages() []model.Message {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]model.Message, len(m.messages))
	copy(out, m.messages)
	return out
}
