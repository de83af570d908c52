package memory

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/snapcal/registrar/internal/domain/repository"
)

// IdentityStore keeps identity records in a map. A single mutex
// serializes merges, which is the per-key guarantee the directory
// needs (one process, one map).
type IdentityStore struct {
	mu      sync.RWMutex
	records map[string]*repository.IdentityRecord

	Now func() time.Time
}

// NewIdentityStore creates an empty in-memory identity directory.
func NewIdentityStore() *IdentityStore {
	return &IdentityStore{
		records: make(map[string]*repository.IdentityRecord),
		Now:     time.Now,
	}
}

func (s *IdentityStore) Get(ctx context.Context, externalID string) (*repository.IdentityRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.records[externalID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return cloneRecord(rec), nil
}

func (s *IdentityStore) Merge(ctx context.Context, in repository.MergeInput) (*repository.MergeResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.Now()

	rec, ok := s.records[in.ExternalID]
	if !ok {
		acct := repository.LinkedAccount{
			AccountID:     uuid.NewString(),
			ProviderEmail: in.ProviderEmail,
			LinkedAt:      now,
			RefreshedAt:   now,
		}
		s.records[in.ExternalID] = &repository.IdentityRecord{
			ExternalID:      in.ExternalID,
			DisplayName:     in.DisplayName,
			Accounts:        []repository.LinkedAccount{acct},
			ActiveAccountID: acct.AccountID,
			CreatedAt:       now,
			UpdatedAt:       now,
		}
		return &repository.MergeResult{Outcome: repository.MergeCreated, Account: acct, Total: 1}, nil
	}

	if in.DisplayName != "" {
		rec.DisplayName = in.DisplayName
	}
	rec.UpdatedAt = now

	if acct := rec.AccountByEmail(in.ProviderEmail); acct != nil {
		// Re-authenticating a known email always reactivates it.
		acct.RefreshedAt = now
		rec.ActiveAccountID = acct.AccountID
		return &repository.MergeResult{Outcome: repository.MergeRefreshed, Account: *acct, Total: len(rec.Accounts)}, nil
	}

	acct := repository.LinkedAccount{
		AccountID:     uuid.NewString(),
		ProviderEmail: in.ProviderEmail,
		LinkedAt:      now,
		RefreshedAt:   now,
	}
	rec.Accounts = append(rec.Accounts, acct)
	if rec.ActiveAccountID == "" {
		rec.ActiveAccountID = acct.AccountID
	}
	return &repository.MergeResult{Outcome: repository.MergeAdded, Account: acct, Total: len(rec.Accounts)}, nil
}

func (s *IdentityStore) SetActive(ctx context.Context, externalID, accountID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.records[externalID]
	if !ok {
		return repository.ErrNotFound
	}
	if rec.AccountByID(accountID) == nil {
		return repository.ErrNotFound
	}
	rec.ActiveAccountID = accountID
	rec.UpdatedAt = s.Now()
	return nil
}

func cloneRecord(rec *repository.IdentityRecord) *repository.IdentityRecord {
	cp := *rec
	cp.Accounts = make([]repository.LinkedAccount, len(rec.Accounts))
	copy(cp.Accounts, rec.Accounts)
	return &cp
}

var _ repository.IdentityRepository = (*IdentityStore)(nil)
