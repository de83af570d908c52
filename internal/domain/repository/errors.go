package repository

import "errors"

var (
	// ErrNotFound indicates the requested record does not exist or, for
	// sessions, is expired or already consumed.
	ErrNotFound = errors.New("repository: not found")

	// ErrDuplicateState indicates a handshake state collision on create.
	// State tokens are 256-bit random values, so hitting this means a
	// caller bug, not bad luck.
	ErrDuplicateState = errors.New("repository: duplicate state")
)
