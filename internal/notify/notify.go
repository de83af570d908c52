// Package notify delivers best-effort human-readable link results back
// to the chat identity's origin channel. Delivery is fire-and-forget:
// implementations log failures and return false, never an error, so a
// dead channel can never change a link outcome.
package notify

import "context"

// Notifier is the side channel back to the user.
type Notifier interface {
	// NotifySuccess tells externalID their account was linked.
	NotifySuccess(ctx context.Context, externalID, providerEmail string) bool

	// NotifyFailure tells externalID why linking failed. reason is one
	// of the terminal outcome codes.
	NotifyFailure(ctx context.Context, externalID, reason string) bool
}

// Messages rendered per failure reason. Unknown reasons fall back to a
// generic retry prompt.
var failureMessages = map[string]string{
	"access_denied":      "Google sign-in was cancelled. Run !register again when you're ready.",
	"invalid_state":      "That sign-in link expired or was already used. Run !register to get a fresh one.",
	"missing_parameters": "The sign-in response was incomplete. Run !register to try again.",
	"email_not_verified": "Your Google account's email isn't verified. Verify it with Google, then run !register again.",
	"processing_failed":  "Something went wrong while linking your account. Please run !register to try again.",
}

func failureMessage(reason string) string {
	if m, ok := failureMessages[reason]; ok {
		return m
	}
	return "Linking failed. Please run !register to try again."
}

func successMessage(email string) string {
	return "✅ Linked Google account " + email + ". It's now your active calendar account."
}
