package dialogue

import (
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// Store is the session persistence boundary. The pipeline only needs
// get/put/delete by id, so any backend can stand in for the in-memory
// default.
type Store interface {
	Get(id string) (*Session, bool)
	Put(s *Session)
	Delete(id string)
}

// MemoryStore keeps sessions in process memory with an optional idle
// TTL. A zero ttl means sessions never expire.
type MemoryStore struct {
	c *gocache.Cache
}

// NewMemoryStore creates an in-memory store. Expired sessions are
// swept every ttl/2, matching the vector cache's housekeeping.
func NewMemoryStore(ttl time.Duration) *MemoryStore {
	if ttl <= 0 {
		return &MemoryStore{c: gocache.New(gocache.NoExpiration, 0)}
	}
	return &MemoryStore{c: gocache.New(ttl, ttl/2)}
}

func (m *MemoryStore) Get(id string) (*Session, bool) {
	v, ok := m.c.Get(id)
	if !ok {
		return nil, false
	}
	s, ok := v.(*Session)
	return s, ok
}

// Put stores the session, refreshing its TTL.
func (m *MemoryStore) Put(s *Session) {
	m.c.SetDefault(s.ID, s)
}

func (m *MemoryStore) Delete(id string) {
	m.c.Delete(id)
}
