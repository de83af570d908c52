package repository

import "context"

// SessionRepository persists OAuth handshake sessions.
type SessionRepository interface {
	// Create stores a new session. The state must be unused.
	Create(ctx context.Context, s *HandshakeSession) error

	// Consume atomically finds and deletes the live session for state.
	// Returns ErrNotFound when the state is unknown, already consumed,
	// or expired. The find-and-delete must be a single atomic step so a
	// replayed callback can never observe the same session twice.
	Consume(ctx context.Context, state string) (*HandshakeSession, error)

	// DeleteExpired removes sessions past their TTL and returns how many
	// were deleted. Idempotent; safe to run concurrently with native
	// store expiry.
	DeleteExpired(ctx context.Context) (int, error)
}

// IdentityRepository persists identity records and enforces the
// directory invariants. Merge and SetActive are serialized per
// external id by the implementation.
type IdentityRepository interface {
	// Get returns the record for externalID, or ErrNotFound.
	Get(ctx context.Context, externalID string) (*IdentityRecord, error)

	// Merge applies the link/refresh/append rules for a verified
	// provider email and returns what happened.
	Merge(ctx context.Context, in MergeInput) (*MergeResult, error)

	// SetActive points the record's active account at accountID.
	// Returns ErrNotFound when the record or the account is missing.
	SetActive(ctx context.Context, externalID, accountID string) error
}
