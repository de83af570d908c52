package link

import (
	"errors"
	"fmt"
)

var (
	// ErrNotConfigured means the provider credentials are absent. Raised
	// at initiation, before any session is written.
	ErrNotConfigured = errors.New("provider credentials are not configured")

	// ErrNoAccounts means the identity has no record or zero linked
	// accounts.
	ErrNoAccounts = errors.New("no linked accounts")
)

// OutOfRangeError reports a switch position outside the current valid
// range. The range is dynamic, so the message carries it.
type OutOfRangeError struct {
	Position int
	Max      int
}

func (e *OutOfRangeError) Error() string {
	return fmt.Sprintf("position %d is out of range, valid range is 1..%d", e.Position, e.Max)
}
