package session

import (
	"context"
	"sync"
	"time"
)

type memoryEntry struct {
	session   Session
	expiresAt time.Time
}

// MemoryStore is an in-process Store for tests and single-node development.
type MemoryStore struct {
	mu      sync.Mutex
	ttl     time.Duration
	now     func() time.Time
	entries map[string]memoryEntry
}

// NewMemoryStore returns an empty store. A zero ttl keeps sessions until
// their token expires or they are deleted.
func NewMemoryStore(ttl time.Duration) *MemoryStore {
	return &MemoryStore{ttl: ttl, now: time.Now, entries: make(map[string]memoryEntry)}
}

func (m *MemoryStore) Save(_ context.Context, browserID string, sess Session) error {
	if err := validate(browserID, sess); err != nil {
		return err
	}
	now := m.now()
	ttl, err := lifetime(sess, m.ttl, now)
	if err != nil {
		return err
	}
	sess.SavedAt = now.UTC()
	entry := memoryEntry{session: sess}
	if ttl > 0 {
		entry.expiresAt = now.Add(ttl)
	}
	m.mu.Lock()
	m.entries[redisKey(browserID, sess.Portal)] = entry
	m.mu.Unlock()
	return nil
}

func (m *MemoryStore) Load(_ context.Context, browserID string, portal Portal) (*Session, error) {
	key := redisKey(browserID, portal)
	m.mu.Lock()
	defer m.mu.Unlock()
	entry, ok := m.entries[key]
	if !ok {
		return nil, ErrNotFound
	}
	if !entry.expiresAt.IsZero() && !m.now().Before(entry.expiresAt) {
		delete(m.entries, key)
		return nil, ErrNotFound
	}
	sess := entry.session
	return &sess, nil
}

func (m *MemoryStore) Delete(_ context.Context, browserID string, portal Portal) error {
	m.mu.Lock()
	delete(m.entries, redisKey(browserID, portal))
	m.mu.Unlock()
	return nil
}
