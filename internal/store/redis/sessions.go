// Package redis implements the session repository on Redis. Sessions
// carry a native TTL, so expiry needs no sweep; GETDEL gives the atomic
// consume the handshake requires.
package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	rdb "github.com/redis/go-redis/v9"

	"github.com/snapcal/registrar/internal/domain/repository"
)

// SessionStore persists handshake sessions as JSON values with TTL.
type SessionStore struct {
	client *rdb.Client
	prefix string

	Now func() time.Time
}

// NewSessionStore wraps an existing Redis client. The prefix namespaces
// the handshake keys (default "hs:").
func NewSessionStore(client *rdb.Client, prefix string) *SessionStore {
	if prefix == "" {
		prefix = "hs:"
	}
	return &SessionStore{client: client, prefix: prefix, Now: time.Now}
}

func (s *SessionStore) key(state string) string {
	return s.prefix + state
}

func (s *SessionStore) Create(ctx context.Context, sess *repository.HandshakeSession) error {
	payload, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("redis: marshal session: %w", err)
	}
	ttl := time.Until(sess.ExpiresAt)
	if ttl <= 0 {
		return fmt.Errorf("redis: session already expired")
	}
	ok, err := s.client.SetNX(ctx, s.key(sess.State), payload, ttl).Result()
	if err != nil {
		return fmt.Errorf("redis: create session: %w", err)
	}
	if !ok {
		return repository.ErrDuplicateState
	}
	return nil
}

func (s *SessionStore) Consume(ctx context.Context, state string) (*repository.HandshakeSession, error) {
	val, err := s.client.GetDel(ctx, s.key(state)).Result()
	if err == rdb.Nil {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("redis: consume session: %w", err)
	}
	var sess repository.HandshakeSession
	if err := json.Unmarshal([]byte(val), &sess); err != nil {
		return nil, fmt.Errorf("redis: unmarshal session: %w", err)
	}
	// TTL should have evicted it already; keep the live check anyway.
	if sess.Expired(s.Now()) {
		return nil, repository.ErrNotFound
	}
	return &sess, nil
}

// DeleteExpired is a no-op: Redis evicts sessions via their TTL. Kept
// so the opportunistic sweep stays backend-agnostic and idempotent.
func (s *SessionStore) DeleteExpired(ctx context.Context) (int, error) {
	return 0, nil
}

var _ repository.SessionRepository = (*SessionStore)(nil)
