package link

import (
	"context"
	"time"

	dto "github.com/snapcal/registrar/internal/http/dto/link"

	"github.com/snapcal/registrar/internal/domain/repository"
	"github.com/snapcal/registrar/internal/metrics"
	"github.com/snapcal/registrar/internal/observability/logger"
	"github.com/snapcal/registrar/internal/security/token"
)

// stateBytes is the entropy of the opaque state token before encoding.
const stateBytes = 32

// StartService initiates a link handshake.
type StartService interface {
	// Start validates configuration, sweeps expired sessions, stores a
	// fresh handshake session and returns the authorization URL.
	// Returns ErrNotConfigured before writing anything when provider
	// credentials are absent.
	Start(ctx context.Context, req *dto.StartRequest) (*dto.StartResponse, error)
}

type startService struct {
	sessions repository.SessionRepository
	provider ProviderClient
	ttl      time.Duration
}

// NewStartService builds a StartService. provider may be nil when the
// server has no credentials; Start then fails fast.
func NewStartService(sessions repository.SessionRepository, provider ProviderClient, ttl time.Duration) StartService {
	return &startService{sessions: sessions, provider: provider, ttl: ttl}
}

func (s *startService) Start(ctx context.Context, req *dto.StartRequest) (*dto.StartResponse, error) {
	log := logger.From(ctx).With(
		logger.Layer("service"),
		logger.Component("link.start"),
		logger.ExternalID(req.ExternalID),
	)

	// Fail fast, before any session record exists.
	if s.provider == nil {
		log.Warn("link start refused", logger.Op("start"), logger.Err(ErrNotConfigured))
		return nil, ErrNotConfigured
	}

	// Opportunistic sweep. Abandoned handshakes expire by TTL and are
	// collected here on the next initiation.
	if n, err := s.sessions.DeleteExpired(ctx); err != nil {
		log.Warn("session sweep failed", logger.Op("sweep"), logger.Err(err))
	} else if n > 0 {
		metrics.SessionsSwept.Add(float64(n))
		log.Info("swept expired sessions", logger.Op("sweep"), logger.Count(n))
	}

	state, err := token.GenerateOpaque(stateBytes)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	sess := &repository.HandshakeSession{
		State:               state,
		ExternalID:          req.ExternalID,
		ExternalDisplayName: req.DisplayName,
		CreatedAt:           now,
		ExpiresAt:           now.Add(s.ttl),
	}
	if err := s.sessions.Create(ctx, sess); err != nil {
		return nil, err
	}

	authURL, err := s.provider.AuthURL(ctx, state)
	if err != nil {
		return nil, err
	}

	metrics.LinkStarts.Inc()
	log.Info("link handshake started", logger.Op("start"))

	return &dto.StartResponse{
		AuthorizationURL: authURL,
		State:            state,
		ExpiresAt:        sess.ExpiresAt,
	}, nil
}
