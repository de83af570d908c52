// Package link defines the wire DTOs for the account-linking API.
package link

import "time"

// StartRequest initiates an OAuth link handshake for a chat identity.
type StartRequest struct {
	ExternalID  string `json:"external_id"`
	DisplayName string `json:"display_name,omitempty"`
}

// StartResponse carries the provider authorization URL to present to
// the user. State is echoed for logging and tests.
type StartResponse struct {
	AuthorizationURL string    `json:"authorization_url"`
	State            string    `json:"state"`
	ExpiresAt        time.Time `json:"expires_at"`
}

// AccountSummary is one linked account as shown to users. Position is
// 1-based and derived from the record's insertion order.
type AccountSummary struct {
	Position      int       `json:"position"`
	AccountID     string    `json:"account_id"`
	ProviderEmail string    `json:"provider_email"`
	LinkedAt      time.Time `json:"linked_at"`
	RefreshedAt   time.Time `json:"refreshed_at"`
	IsActive      bool      `json:"is_active"`
}

// StatusResponse summarizes an identity's registration state.
// Registered is false when no record exists; the other fields are then
// zero-valued.
type StatusResponse struct {
	ExternalID   string `json:"external_id"`
	Registered   bool   `json:"registered"`
	DisplayName  string `json:"display_name,omitempty"`
	ActiveEmail  string `json:"active_email,omitempty"`
	AccountCount int    `json:"account_count"`
}

// AccountsResponse lists all linked accounts in position order. An
// identity with no record yields an empty list, not an error.
type AccountsResponse struct {
	ExternalID      string           `json:"external_id"`
	ActiveAccountID string           `json:"active_account_id,omitempty"`
	Accounts        []AccountSummary `json:"accounts"`
}

// SwitchRequest selects the active account by its 1-based position.
type SwitchRequest struct {
	Position int `json:"position"`
}

// SwitchResponse returns the account that is now active.
type SwitchResponse struct {
	Switched AccountSummary `json:"switched"`
}

// SweepResponse reports how many expired sessions a sweep removed.
type SweepResponse struct {
	Deleted int `json:"deleted"`
}
