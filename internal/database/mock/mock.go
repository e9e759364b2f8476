// Package mock provides in-memory implementations of the database
// interfaces for testing.
package mock

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/civreg/faceid/internal/database"
)

// EmbeddingRepository is an in-memory database.EmbeddingRepository.
type EmbeddingRepository struct {
	mu      sync.Mutex
	records map[string]database.IdentityRecord

	// Error injection
	AppendError   error
	SnapshotError error
	RemoveError   error
	CountError    error

	// AppendHook, if set, runs inside Append after the error check and
	// before the record is stored. Used to widen race windows in tests.
	AppendHook func()
}

// NewEmbeddingRepository creates an empty in-memory repository.
func NewEmbeddingRepository() *EmbeddingRepository {
	return &EmbeddingRepository{
		records: make(map[string]database.IdentityRecord),
	}
}

// Append stores one record.
func (m *EmbeddingRepository) Append(ctx context.Context, record database.IdentityRecord) error {
	if m.AppendError != nil {
		return m.AppendError
	}
	if m.AppendHook != nil {
		m.AppendHook()
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	record.Embedding = record.Embedding.Clone()
	m.records[record.IdentityID] = record
	return nil
}

// Snapshot returns a copy of all records, ordered by identity ID for
// test determinism.
func (m *EmbeddingRepository) Snapshot(ctx context.Context) ([]database.IdentityRecord, error) {
	if m.SnapshotError != nil {
		return nil, m.SnapshotError
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]database.IdentityRecord, 0, len(m.records))
	for _, rec := range m.records {
		rec.Embedding = rec.Embedding.Clone()
		out = append(out, rec)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].IdentityID < out[j].IdentityID })
	return out, nil
}

// Remove deletes a record; absent identities are a no-op.
func (m *EmbeddingRepository) Remove(ctx context.Context, identityID string) error {
	if m.RemoveError != nil {
		return m.RemoveError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.records, identityID)
	return nil
}

// Count returns the number of stored records.
func (m *EmbeddingRepository) Count(ctx context.Context) (int, error) {
	if m.CountError != nil {
		return 0, m.CountError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.records), nil
}

// CitizenStore is an in-memory database.CitizenStore.
type CitizenStore struct {
	mu       sync.RWMutex
	citizens map[string]database.Citizen

	SaveError   error
	GetError    error
	ListError   error
	UpdateError error
	DeleteError error
}

// NewCitizenStore creates an empty in-memory citizen store.
func NewCitizenStore() *CitizenStore {
	return &CitizenStore{citizens: make(map[string]database.Citizen)}
}

func (m *CitizenStore) Save(ctx context.Context, c database.Citizen) error {
	if m.SaveError != nil {
		return m.SaveError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.citizens[c.IdentityID] = c
	return nil
}

func (m *CitizenStore) Get(ctx context.Context, identityID string) (*database.Citizen, error) {
	if m.GetError != nil {
		return nil, m.GetError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	c, ok := m.citizens[identityID]
	if !ok {
		return nil, nil
	}
	return &c, nil
}

func (m *CitizenStore) List(ctx context.Context, query string) ([]database.Citizen, error) {
	if m.ListError != nil {
		return nil, m.ListError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	normalized := database.NormalizeName(query)
	var out []database.Citizen
	for _, c := range m.citizens {
		if normalized != "" {
			name := database.NormalizeName(c.FirstName + " " + c.LastName)
			if !strings.Contains(name, normalized) {
				continue
			}
		}
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].IdentityID < out[j].IdentityID })
	return out, nil
}

func (m *CitizenStore) Update(ctx context.Context, c database.Citizen) error {
	if m.UpdateError != nil {
		return m.UpdateError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	existing, ok := m.citizens[c.IdentityID]
	if ok {
		c.Photo = existing.Photo
		c.CreatedAt = existing.CreatedAt
	}
	m.citizens[c.IdentityID] = c
	return nil
}

func (m *CitizenStore) Delete(ctx context.Context, identityID string) error {
	if m.DeleteError != nil {
		return m.DeleteError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.citizens, identityID)
	return nil
}

func (m *CitizenStore) Count(ctx context.Context) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.citizens), nil
}

// UserStore is an in-memory database.UserStore.
type UserStore struct {
	mu     sync.RWMutex
	nextID int64
	users  map[int64]database.User

	CreateError error
	GetError    error
}

// NewUserStore creates an empty in-memory user store.
func NewUserStore() *UserStore {
	return &UserStore{users: make(map[int64]database.User)}
}

func (m *UserStore) Create(ctx context.Context, name, passwordHash, role string) (*database.User, error) {
	if m.CreateError != nil {
		return nil, m.CreateError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	u := database.User{
		ID:           m.nextID,
		Name:         name,
		PasswordHash: passwordHash,
		Role:         role,
		CreatedAt:    time.Now(),
	}
	m.users[u.ID] = u
	return &u, nil
}

func (m *UserStore) GetByName(ctx context.Context, name string) (*database.User, error) {
	if m.GetError != nil {
		return nil, m.GetError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, u := range m.users {
		if u.Name == name {
			return &u, nil
		}
	}
	return nil, nil
}

func (m *UserStore) List(ctx context.Context) ([]database.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]database.User, 0, len(m.users))
	for _, u := range m.users {
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *UserStore) Update(ctx context.Context, id int64, name, role string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return nil
	}
	u.Name = name
	u.Role = role
	m.users[id] = u
	return nil
}

func (m *UserStore) Delete(ctx context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.users, id)
	return nil
}
