package link

import (
	"context"

	"github.com/snapcal/registrar/internal/oauth/google"
)

// ProviderIdentity is the verified identity returned by a successful
// code exchange.
type ProviderIdentity struct {
	Subject       string
	Email         string
	EmailVerified bool
	Name          string
}

// ProviderClient abstracts the OAuth provider for the flow services.
type ProviderClient interface {
	// AuthURL builds the authorization URL carrying state.
	AuthURL(ctx context.Context, state string) (string, error)

	// Exchange redeems an authorization code and returns the verified
	// identity claims.
	Exchange(ctx context.Context, code string) (*ProviderIdentity, error)
}

type googleProvider struct {
	oidc *google.OIDC
}

// NewGoogleProvider wraps the Google OIDC client.
func NewGoogleProvider(oidc *google.OIDC) ProviderClient {
	return &googleProvider{oidc: oidc}
}

func (p *googleProvider) AuthURL(ctx context.Context, state string) (string, error) {
	return p.oidc.AuthURL(ctx, state)
}

func (p *googleProvider) Exchange(ctx context.Context, code string) (*ProviderIdentity, error) {
	tok, err := p.oidc.ExchangeCode(ctx, code)
	if err != nil {
		return nil, err
	}
	claims, err := p.oidc.VerifyIDToken(ctx, tok.IDToken)
	if err != nil {
		return nil, err
	}
	return &ProviderIdentity{
		Subject:       claims.Sub,
		Email:         claims.Email,
		EmailVerified: claims.EmailVerified,
		Name:          claims.Name,
	}, nil
}
