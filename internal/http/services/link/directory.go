package link

import (
	"context"
	"errors"

	dto "github.com/snapcal/registrar/internal/http/dto/link"

	"github.com/snapcal/registrar/internal/domain/repository"
	"github.com/snapcal/registrar/internal/metrics"
	"github.com/snapcal/registrar/internal/observability/logger"
)

// DirectoryService exposes an identity's linked accounts: status, the
// positional listing and the active-account switch.
type DirectoryService interface {
	// Status reports whether externalID is registered. A missing record
	// is a valid "not registered" answer, not an error.
	Status(ctx context.Context, externalID string) (*dto.StatusResponse, error)

	// List returns all linked accounts with their 1-based positions. A
	// missing record or zero accounts yields an empty list, not an error.
	List(ctx context.Context, externalID string) (*dto.AccountsResponse, error)

	// SwitchActive makes the account at the 1-based position the active
	// one. Returns ErrNoAccounts or *OutOfRangeError on bad input.
	SwitchActive(ctx context.Context, externalID string, position int) (*dto.AccountSummary, error)
}

type directoryService struct {
	identities repository.IdentityRepository
}

// NewDirectoryService builds a DirectoryService.
func NewDirectoryService(identities repository.IdentityRepository) DirectoryService {
	return &directoryService{identities: identities}
}

func (s *directoryService) Status(ctx context.Context, externalID string) (*dto.StatusResponse, error) {
	rec, err := s.identities.Get(ctx, externalID)
	if errors.Is(err, repository.ErrNotFound) {
		return &dto.StatusResponse{ExternalID: externalID, Registered: false}, nil
	}
	if err != nil {
		return nil, err
	}

	resp := &dto.StatusResponse{
		ExternalID:   externalID,
		Registered:   len(rec.Accounts) > 0,
		DisplayName:  rec.DisplayName,
		AccountCount: len(rec.Accounts),
	}
	if active := rec.AccountByID(rec.ActiveAccountID); active != nil {
		resp.ActiveEmail = active.ProviderEmail
	}
	return resp, nil
}

func (s *directoryService) List(ctx context.Context, externalID string) (*dto.AccountsResponse, error) {
	rec, err := s.identities.Get(ctx, externalID)
	if errors.Is(err, repository.ErrNotFound) {
		return &dto.AccountsResponse{ExternalID: externalID, Accounts: []dto.AccountSummary{}}, nil
	}
	if err != nil {
		return nil, err
	}

	resp := &dto.AccountsResponse{
		ExternalID:      externalID,
		ActiveAccountID: rec.ActiveAccountID,
		Accounts:        make([]dto.AccountSummary, 0, len(rec.Accounts)),
	}
	for i, acct := range rec.Accounts {
		resp.Accounts = append(resp.Accounts, summarize(&acct, i+1, acct.AccountID == rec.ActiveAccountID))
	}
	return resp, nil
}

func (s *directoryService) SwitchActive(ctx context.Context, externalID string, position int) (*dto.AccountSummary, error) {
	log := logger.From(ctx).With(
		logger.Layer("service"),
		logger.Component("link.directory"),
		logger.ExternalID(externalID),
	)

	rec, err := s.identities.Get(ctx, externalID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrNoAccounts
	}
	if err != nil {
		return nil, err
	}
	if len(rec.Accounts) == 0 {
		return nil, ErrNoAccounts
	}
	if position < 1 || position > len(rec.Accounts) {
		return nil, &OutOfRangeError{Position: position, Max: len(rec.Accounts)}
	}

	target := rec.Accounts[position-1]
	if err := s.identities.SetActive(ctx, externalID, target.AccountID); err != nil {
		return nil, err
	}

	metrics.ActiveSwitches.Inc()
	log.Info("active account switched",
		logger.Op("switch_active"),
		logger.AccountID(target.AccountID),
		logger.Email(target.ProviderEmail),
	)

	summary := summarize(&target, position, true)
	return &summary, nil
}

func summarize(a *repository.LinkedAccount, position int, active bool) dto.AccountSummary {
	return dto.AccountSummary{
		Position:      position,
		AccountID:     a.AccountID,
		ProviderEmail: a.ProviderEmail,
		LinkedAt:      a.LinkedAt,
		RefreshedAt:   a.RefreshedAt,
		IsActive:      active,
	}
}
