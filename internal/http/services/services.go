// Package services wires the service layer together for the transport
// layer.
package services

import (
	"time"

	"github.com/snapcal/registrar/internal/domain/repository"
	"github.com/snapcal/registrar/internal/http/services/link"
	"github.com/snapcal/registrar/internal/notify"
)

// Deps are the collaborators the service layer needs.
type Deps struct {
	Sessions   repository.SessionRepository
	Identities repository.IdentityRepository

	// Provider is nil when no credentials are configured. Initiation
	// then fails fast with link.ErrNotConfigured.
	Provider link.ProviderClient
	Notifier notify.Notifier

	SessionTTL      time.Duration
	ExchangeTimeout time.Duration
}

// Services groups all application services.
type Services struct {
	Start     link.StartService
	Callback  link.CallbackService
	Directory link.DirectoryService
	Admin     link.AdminService
}

// New builds the service layer.
func New(d Deps) *Services {
	return &Services{
		Start:     link.NewStartService(d.Sessions, d.Provider, d.SessionTTL),
		Callback:  link.NewCallbackService(d.Sessions, d.Identities, d.Provider, d.Notifier, d.ExchangeTimeout),
		Directory: link.NewDirectoryService(d.Identities),
		Admin:     link.NewAdminService(d.Sessions),
	}
}
