package memory

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/snapcal/registrar/internal/domain/repository"
)

func merge(t *testing.T, s *IdentityStore, externalID, email string) *repository.MergeResult {
	t.Helper()
	res, err := s.Merge(context.Background(), repository.MergeInput{
		ExternalID:    externalID,
		ProviderEmail: email,
	})
	if err != nil {
		t.Fatalf("Merge(%s, %s) err: %v", externalID, email, err)
	}
	return res
}

func TestIdentityStore_MergeCreated(t *testing.T) {
	s := NewIdentityStore()

	res := merge(t, s, "u1", "ana@gmail.com")
	if res.Outcome != repository.MergeCreated {
		t.Fatalf("want created, got %s", res.Outcome)
	}
	if res.Total != 1 {
		t.Fatalf("want total 1, got %d", res.Total)
	}

	rec, err := s.Get(context.Background(), "u1")
	if err != nil {
		t.Fatalf("Get err: %v", err)
	}
	if rec.ActiveAccountID != res.Account.AccountID {
		t.Fatalf("first account must become active")
	}
}

func TestIdentityStore_MergeRefreshedReactivates(t *testing.T) {
	s := NewIdentityStore()

	first := merge(t, s, "u1", "ana@gmail.com")
	merge(t, s, "u1", "work@gmail.com")

	// Switch away from the first account, then re-link its email.
	if err := s.SetActive(context.Background(), "u1", mustAccountID(t, s, "u1", "work@gmail.com")); err != nil {
		t.Fatalf("SetActive err: %v", err)
	}

	res := merge(t, s, "u1", "ana@gmail.com")
	if res.Outcome != repository.MergeRefreshed {
		t.Fatalf("want refreshed, got %s", res.Outcome)
	}
	if res.Account.AccountID != first.Account.AccountID {
		t.Fatalf("refresh must keep the original account id")
	}

	rec, _ := s.Get(context.Background(), "u1")
	if rec.ActiveAccountID != first.Account.AccountID {
		t.Fatalf("re-authenticating a known email must make it active again")
	}
	if len(rec.Accounts) != 2 {
		t.Fatalf("refresh must not append, got %d accounts", len(rec.Accounts))
	}
}

func TestIdentityStore_MergeAddedKeepsActive(t *testing.T) {
	s := NewIdentityStore()

	first := merge(t, s, "u1", "ana@gmail.com")
	res := merge(t, s, "u1", "work@gmail.com")
	if res.Outcome != repository.MergeAdded {
		t.Fatalf("want added, got %s", res.Outcome)
	}
	if res.Total != 2 {
		t.Fatalf("want total 2, got %d", res.Total)
	}

	rec, _ := s.Get(context.Background(), "u1")
	if rec.ActiveAccountID != first.Account.AccountID {
		t.Fatalf("appending a new email must not steal the active pointer")
	}
	if rec.Accounts[0].ProviderEmail != "ana@gmail.com" || rec.Accounts[1].ProviderEmail != "work@gmail.com" {
		t.Fatalf("accounts must keep insertion order: %+v", rec.Accounts)
	}
}

func TestIdentityStore_EmailUniquenessAndActiveValidity(t *testing.T) {
	s := NewIdentityStore()

	emails := []string{"a@x.com", "b@x.com", "a@x.com", "c@x.com", "b@x.com", "a@x.com"}
	for _, e := range emails {
		merge(t, s, "u1", e)
	}

	rec, _ := s.Get(context.Background(), "u1")
	seen := map[string]bool{}
	for _, a := range rec.Accounts {
		if seen[a.ProviderEmail] {
			t.Fatalf("duplicate email %s in accounts", a.ProviderEmail)
		}
		seen[a.ProviderEmail] = true
	}
	if len(rec.Accounts) != 3 {
		t.Fatalf("want 3 distinct accounts, got %d", len(rec.Accounts))
	}
	if rec.AccountByID(rec.ActiveAccountID) == nil {
		t.Fatalf("active pointer %q does not reference a linked account", rec.ActiveAccountID)
	}
}

func TestIdentityStore_ConcurrentMerges(t *testing.T) {
	s := NewIdentityStore()
	emails := []string{"a@x.com", "b@x.com", "c@x.com"}

	var wg sync.WaitGroup
	for i := 0; i < 60; i++ {
		wg.Add(1)
		email := emails[i%len(emails)]
		go func() {
			defer wg.Done()
			_, err := s.Merge(context.Background(), repository.MergeInput{
				ExternalID:    "u1",
				ProviderEmail: email,
			})
			if err != nil {
				t.Errorf("Merge(u1, %s) err: %v", email, err)
			}
		}()
	}
	wg.Wait()

	rec, err := s.Get(context.Background(), "u1")
	if err != nil {
		t.Fatalf("Get err: %v", err)
	}
	seen := map[string]bool{}
	for _, a := range rec.Accounts {
		if seen[a.ProviderEmail] {
			t.Fatalf("duplicate email %s after concurrent merges", a.ProviderEmail)
		}
		seen[a.ProviderEmail] = true
	}
	if len(rec.Accounts) != len(emails) {
		t.Fatalf("want %d distinct accounts, got %d", len(emails), len(rec.Accounts))
	}
	if rec.AccountByID(rec.ActiveAccountID) == nil {
		t.Fatalf("active pointer %q does not reference a linked account", rec.ActiveAccountID)
	}
}

func TestIdentityStore_MergeIsolatedPerExternalID(t *testing.T) {
	s := NewIdentityStore()

	merge(t, s, "u1", "shared@x.com")
	merge(t, s, "u2", "shared@x.com")

	r1, _ := s.Get(context.Background(), "u1")
	r2, _ := s.Get(context.Background(), "u2")
	if len(r1.Accounts) != 1 || len(r2.Accounts) != 1 {
		t.Fatalf("same email under different identities must stay separate")
	}
	if r1.Accounts[0].AccountID == r2.Accounts[0].AccountID {
		t.Fatalf("account ids must be distinct across identities")
	}
}

func TestIdentityStore_SetActiveErrors(t *testing.T) {
	s := NewIdentityStore()
	ctx := context.Background()

	if err := s.SetActive(ctx, "nobody", "acct"); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("want ErrNotFound for missing record, got %v", err)
	}

	merge(t, s, "u1", "ana@gmail.com")
	if err := s.SetActive(ctx, "u1", "not-an-account"); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("want ErrNotFound for unknown account, got %v", err)
	}
}

func TestIdentityStore_GetReturnsCopy(t *testing.T) {
	s := NewIdentityStore()
	merge(t, s, "u1", "ana@gmail.com")

	rec, _ := s.Get(context.Background(), "u1")
	rec.Accounts[0].ProviderEmail = "tampered@x.com"
	rec.ActiveAccountID = "tampered"

	fresh, _ := s.Get(context.Background(), "u1")
	if fresh.Accounts[0].ProviderEmail != "ana@gmail.com" {
		t.Fatalf("mutating a returned record must not affect the store")
	}
}

func mustAccountID(t *testing.T, s *IdentityStore, externalID, email string) string {
	t.Helper()
	rec, err := s.Get(context.Background(), externalID)
	if err != nil {
		t.Fatalf("Get err: %v", err)
	}
	acct := rec.AccountByEmail(email)
	if acct == nil {
		t.Fatalf("no account with email %s", email)
	}
	return acct.AccountID
}
