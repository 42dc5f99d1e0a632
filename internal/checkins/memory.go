package checkins

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/justestif/go-wellness-mood/internal/db"
)

// MemoryStore keeps check-ins in process memory. It is used when no
// database is configured.
type MemoryStore struct {
	mu     sync.RWMutex
	byUser map[string][]db.Checkin
	now    func() time.Time
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		byUser: make(map[string][]db.Checkin),
		now:    time.Now,
	}
}

// Create implements Store.
func (m *MemoryStore) Create(_ context.Context, c *db.Checkin) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = m.now()
	}

	m.mu.Lock()
	m.byUser[c.UserID] = append(m.byUser[c.UserID], *c)
	m.mu.Unlock()
	return nil
}

// Get implements Store.
func (m *MemoryStore) Get(_ context.Context, id uuid.UUID) (*db.Checkin, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, list := range m.byUser {
		for _, c := range list {
			if c.ID == id {
				return &c, nil
			}
		}
	}
	return nil, db.ErrNotFound
}

// ListForUser implements Store, newest first.
func (m *MemoryStore) ListForUser(_ context.Context, userID string, limit int) ([]db.Checkin, error) {
	m.mu.RLock()
	all := slices.Clone(m.byUser[userID])
	m.mu.RUnlock()

	slices.SortStableFunc(all, func(a, b db.Checkin) int {
		return b.CreatedAt.Compare(a.CreatedAt)
	})
	if limit > 0 && len(all) > limit {
		all = all[:limit]
	}
	return all, nil
}
