package session

import (
	"context"
	"errors"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// MemoryStore keeps sessions in process memory. Sessions do not survive a restart.
type MemoryStore struct {
	c *gocache.Cache
}

// NewMemoryStore creates a MemoryStore that sweeps expired entries every cleanup interval
func NewMemoryStore(cleanup time.Duration) *MemoryStore {
	return &MemoryStore{c: gocache.New(gocache.NoExpiration, cleanup)}
}

// Save stores a copy of s until its expiry
func (m *MemoryStore) Save(_ context.Context, s *Session) error {
	if s == nil || s.ID == "" {
		return errors.New("session: missing id")
	}
	ttl := time.Until(s.ExpiresAt)
	if ttl <= 0 {
		return errors.New("session: expires_at must be in the future")
	}
	stored := *s
	m.c.Set(s.ID, &stored, ttl)
	return nil
}

// Get returns a copy of the stored session
func (m *MemoryStore) Get(_ context.Context, id string) (*Session, error) {
	v, ok := m.c.Get(id)
	if !ok {
		return nil, nil
	}
	s := *v.(*Session)
	return &s, nil
}

// Delete removes the session; deleting an unknown id is not an error
func (m *MemoryStore) Delete(_ context.Context, id string) error {
	m.c.Delete(id)
	return nil
}
