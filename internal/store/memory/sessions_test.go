package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/snapcal/registrar/internal/domain/repository"
)

func newSession(state string, ttl time.Duration) *repository.HandshakeSession {
	now := time.Now()
	return &repository.HandshakeSession{
		State:               state,
		ExternalID:          "discord-123",
		ExternalDisplayName: "Ana",
		CreatedAt:           now,
		ExpiresAt:           now.Add(ttl),
	}
}

func TestSessionStore_CreateAndConsume(t *testing.T) {
	s := NewSessionStore()
	ctx := context.Background()

	if err := s.Create(ctx, newSession("st-1", 10*time.Minute)); err != nil {
		t.Fatalf("Create err: %v", err)
	}

	got, err := s.Consume(ctx, "st-1")
	if err != nil {
		t.Fatalf("Consume err: %v", err)
	}
	if got.ExternalID != "discord-123" || got.ExternalDisplayName != "Ana" {
		t.Fatalf("unexpected session: %+v", got)
	}
}

func TestSessionStore_ConsumeIsSingleUse(t *testing.T) {
	s := NewSessionStore()
	ctx := context.Background()

	if err := s.Create(ctx, newSession("st-once", 10*time.Minute)); err != nil {
		t.Fatalf("Create err: %v", err)
	}
	if _, err := s.Consume(ctx, "st-once"); err != nil {
		t.Fatalf("first Consume err: %v", err)
	}
	if _, err := s.Consume(ctx, "st-once"); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("second Consume: want ErrNotFound, got %v", err)
	}
}

func TestSessionStore_ConsumeUnknownState(t *testing.T) {
	s := NewSessionStore()
	if _, err := s.Consume(context.Background(), "never-issued"); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("want ErrNotFound, got %v", err)
	}
}

func TestSessionStore_ConsumeExpired(t *testing.T) {
	s := NewSessionStore()
	ctx := context.Background()

	if err := s.Create(ctx, newSession("st-ttl", 10*time.Minute)); err != nil {
		t.Fatalf("Create err: %v", err)
	}

	// Jump the clock past the TTL.
	s.Now = func() time.Time { return time.Now().Add(11 * time.Minute) }

	if _, err := s.Consume(ctx, "st-ttl"); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("want ErrNotFound for expired session, got %v", err)
	}
}

func TestSessionStore_DuplicateState(t *testing.T) {
	s := NewSessionStore()
	ctx := context.Background()

	if err := s.Create(ctx, newSession("st-dup", 10*time.Minute)); err != nil {
		t.Fatalf("Create err: %v", err)
	}
	if err := s.Create(ctx, newSession("st-dup", 10*time.Minute)); !errors.Is(err, repository.ErrDuplicateState) {
		t.Fatalf("want ErrDuplicateState, got %v", err)
	}
}

func TestSessionStore_DeleteExpired(t *testing.T) {
	s := NewSessionStore()
	ctx := context.Background()

	if err := s.Create(ctx, newSession("st-old", -time.Minute)); err != nil {
		t.Fatalf("Create expired err: %v", err)
	}
	if err := s.Create(ctx, newSession("st-live", 10*time.Minute)); err != nil {
		t.Fatalf("Create live err: %v", err)
	}

	n, err := s.DeleteExpired(ctx)
	if err != nil {
		t.Fatalf("DeleteExpired err: %v", err)
	}
	if n != 1 {
		t.Fatalf("want 1 deleted, got %d", n)
	}
	if _, err := s.Consume(ctx, "st-live"); err != nil {
		t.Fatalf("live session should survive the sweep: %v", err)
	}
}
