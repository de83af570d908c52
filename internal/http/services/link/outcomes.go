// Package link implements the registration flow: handshake initiation,
// the OAuth callback state machine and the account directory
// operations.
package link

// Terminal outcome codes for a link attempt. Each maps to a distinct
// user-facing message; they are never collapsed into a generic error.
const (
	OutcomeSuccess              = "success"
	OutcomeAccessDenied         = "access_denied"
	OutcomeInvalidState         = "invalid_state"
	OutcomeMissingParameters    = "missing_parameters"
	OutcomeEmailNotVerified     = "email_not_verified"
	OutcomeProcessingFailed     = "processing_failed"
	OutcomeConfigurationMissing = "configuration_missing"
)
