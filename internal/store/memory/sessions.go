// Package memory implements the repositories in process memory.
// Used in dev mode and as the test double for the service layer.
package memory

import (
	"context"
	"sync"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/snapcal/registrar/internal/domain/repository"
)

// SessionStore keeps handshake sessions in a TTL cache. The cache
// handles expiry; the mutex makes Consume's find-and-delete atomic.
type SessionStore struct {
	mu sync.Mutex
	c  *gocache.Cache

	// Now is overridable in tests.
	Now func() time.Time
}

// NewSessionStore creates an in-memory session store. Expired entries
// are also purged by the cache janitor once a minute.
func NewSessionStore() *SessionStore {
	return &SessionStore{
		c:   gocache.New(gocache.NoExpiration, time.Minute),
		Now: time.Now,
	}
}

func (s *SessionStore) Create(ctx context.Context, sess *repository.HandshakeSession) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.c.Get(sess.State); ok {
		return repository.ErrDuplicateState
	}
	cp := *sess
	s.c.Set(sess.State, &cp, time.Until(sess.ExpiresAt))
	return nil
}

func (s *SessionStore) Consume(ctx context.Context, state string) (*repository.HandshakeSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	v, ok := s.c.Get(state)
	if !ok {
		return nil, repository.ErrNotFound
	}
	sess := v.(*repository.HandshakeSession)
	if sess.Expired(s.Now()) {
		s.c.Delete(state)
		return nil, repository.ErrNotFound
	}
	s.c.Delete(state)
	cp := *sess
	return &cp, nil
}

func (s *SessionStore) DeleteExpired(ctx context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	before := s.c.ItemCount()
	s.c.DeleteExpired()
	after := s.c.ItemCount()
	if before > after {
		return before - after, nil
	}
	return 0, nil
}

var _ repository.SessionRepository = (*SessionStore)(nil)
