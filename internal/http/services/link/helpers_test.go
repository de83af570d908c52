package link

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/snapcal/registrar/internal/domain/repository"
	"github.com/snapcal/registrar/internal/store/memory"
)

// fakeProvider scripts the OAuth provider for service tests.
type fakeProvider struct {
	authURL     string
	identity    *ProviderIdentity
	exchangeErr error

	mu        sync.Mutex
	exchanged []string
}

func (f *fakeProvider) AuthURL(ctx context.Context, state string) (string, error) {
	return f.authURL + "?state=" + state, nil
}

func (f *fakeProvider) Exchange(ctx context.Context, code string) (*ProviderIdentity, error) {
	f.mu.Lock()
	f.exchanged = append(f.exchanged, code)
	f.mu.Unlock()

	if f.exchangeErr != nil {
		return nil, f.exchangeErr
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	cp := *f.identity
	return &cp, nil
}

func (f *fakeProvider) exchangeCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.exchanged)
}

// recordingNotifier captures every notification.
type notification struct {
	externalID string
	email      string
	reason     string
	success    bool
}

type recordingNotifier struct {
	mu    sync.Mutex
	calls []notification
}

func (n *recordingNotifier) NotifySuccess(ctx context.Context, externalID, providerEmail string) bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.calls = append(n.calls, notification{externalID: externalID, email: providerEmail, success: true})
	return true
}

func (n *recordingNotifier) NotifyFailure(ctx context.Context, externalID, reason string) bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.calls = append(n.calls, notification{externalID: externalID, reason: reason})
	return true
}

func (n *recordingNotifier) last(t *testing.T) notification {
	t.Helper()
	n.mu.Lock()
	defer n.mu.Unlock()
	if len(n.calls) == 0 {
		t.Fatal("no notification was sent")
	}
	return n.calls[len(n.calls)-1]
}

func (n *recordingNotifier) count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.calls)
}

// failingIdentities wraps the memory store to inject merge errors.
type failingIdentities struct {
	repository.IdentityRepository
	mergeErr error
}

func (f *failingIdentities) Merge(ctx context.Context, in repository.MergeInput) (*repository.MergeResult, error) {
	if f.mergeErr != nil {
		return nil, f.mergeErr
	}
	return f.IdentityRepository.Merge(ctx, in)
}

// failingSessions wraps the memory store to inject consume errors.
type failingSessions struct {
	repository.SessionRepository
	consumeErr error
}

func (f *failingSessions) Consume(ctx context.Context, state string) (*repository.HandshakeSession, error) {
	if f.consumeErr != nil {
		return nil, f.consumeErr
	}
	return f.SessionRepository.Consume(ctx, state)
}

type fixture struct {
	sessions   *memory.SessionStore
	identities *memory.IdentityStore
	provider   *fakeProvider
	notifier   *recordingNotifier
	callback   CallbackService
}

func newFixture() *fixture {
	f := &fixture{
		sessions:   memory.NewSessionStore(),
		identities: memory.NewIdentityStore(),
		provider: &fakeProvider{
			authURL: "https://accounts.google.com/o/oauth2/v2/auth",
			identity: &ProviderIdentity{
				Subject:       "google-sub-1",
				Email:         "ana@gmail.com",
				EmailVerified: true,
				Name:          "Ana",
			},
		},
		notifier: &recordingNotifier{},
	}
	f.callback = NewCallbackService(f.sessions, f.identities, f.provider, f.notifier, 5*time.Second)
	return f
}

func (f *fixture) addSession(t *testing.T, state, externalID string, ttl time.Duration) {
	t.Helper()
	now := time.Now()
	err := f.sessions.Create(context.Background(), &repository.HandshakeSession{
		State:      state,
		ExternalID: externalID,
		CreatedAt:  now,
		ExpiresAt:  now.Add(ttl),
	})
	if err != nil {
		t.Fatalf("add session: %v", err)
	}
}

var errBoom = errors.New("boom")
