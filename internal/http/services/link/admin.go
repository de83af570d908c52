package link

import (
	"context"

	"github.com/snapcal/registrar/internal/domain/repository"
	"github.com/snapcal/registrar/internal/metrics"
	"github.com/snapcal/registrar/internal/observability/logger"
)

// AdminService holds operator-triggered maintenance.
type AdminService interface {
	// Sweep deletes expired handshake sessions and returns the count.
	Sweep(ctx context.Context) (int, error)
}

type adminService struct {
	sessions repository.SessionRepository
}

// NewAdminService builds an AdminService.
func NewAdminService(sessions repository.SessionRepository) AdminService {
	return &adminService{sessions: sessions}
}

func (s *adminService) Sweep(ctx context.Context) (int, error) {
	n, err := s.sessions.DeleteExpired(ctx)
	if err != nil {
		return 0, err
	}
	if n > 0 {
		metrics.SessionsSwept.Add(float64(n))
	}
	logger.From(ctx).Info("manual session sweep",
		logger.Layer("service"),
		logger.Component("link.admin"),
		logger.Op("sweep"),
		logger.Count(n),
	)
	return n, nil
}
