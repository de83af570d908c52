// Package repository defines the persistence contracts for the linking
// subsystem: short-lived OAuth handshake sessions and the identity
// directory mapping one chat identity to many provider accounts.
package repository

import "time"

// HandshakeSession is one in-flight linking attempt, keyed by its opaque
// state token. Write-once, consumed (deleted) exactly once, or garbage
// collected after ExpiresAt.
type HandshakeSession struct {
	State               string
	ExternalID          string
	ExternalDisplayName string
	CreatedAt           time.Time
	ExpiresAt           time.Time
}

// Expired reports whether the session is past its TTL at the given time.
func (s *HandshakeSession) Expired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}

// LinkedAccount is one provider account linked to one external identity.
// Exclusively owned by its IdentityRecord.
type LinkedAccount struct {
	AccountID     string
	ProviderEmail string
	LinkedAt      time.Time
	RefreshedAt   time.Time
}

// IdentityRecord is the aggregate root: one external chat identity and
// its linked provider accounts. Accounts keep insertion order, which
// drives the 1-based positions shown to users. ActiveAccountID always
// references an entry in Accounts, or is empty iff Accounts is empty.
type IdentityRecord struct {
	ExternalID      string
	DisplayName     string
	Accounts        []LinkedAccount
	ActiveAccountID string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// AccountByEmail returns the account with the given provider email
// (case-sensitive match on the verified email string), or nil.
func (r *IdentityRecord) AccountByEmail(email string) *LinkedAccount {
	for i := range r.Accounts {
		if r.Accounts[i].ProviderEmail == email {
			return &r.Accounts[i]
		}
	}
	return nil
}

// AccountByID returns the account with the given id, or nil.
func (r *IdentityRecord) AccountByID(id string) *LinkedAccount {
	for i := range r.Accounts {
		if r.Accounts[i].AccountID == id {
			return &r.Accounts[i]
		}
	}
	return nil
}

// MergeOutcome classifies what a merge did to the directory.
type MergeOutcome string

const (
	// MergeCreated means a new record with its first account was created.
	MergeCreated MergeOutcome = "created"
	// MergeRefreshed means an already-linked email re-authenticated.
	MergeRefreshed MergeOutcome = "refreshed"
	// MergeAdded means a new account was appended to an existing record.
	MergeAdded MergeOutcome = "added"
)

// MergeInput carries the verified provider result into the directory.
type MergeInput struct {
	ExternalID    string
	ProviderEmail string
	DisplayName   string
}

// MergeResult reports the outcome of a merge and the account involved.
type MergeResult struct {
	Outcome MergeOutcome
	Account LinkedAccount
	// Total is the account count after the merge.
	Total int
}
