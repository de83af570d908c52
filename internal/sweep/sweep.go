// Package sweep runs the background expiry of handshake sessions on a
// cron schedule. It complements the opportunistic sweep at link
// initiation so abandoned sessions are collected even on idle servers.
package sweep

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/snapcal/registrar/internal/domain/repository"
	"github.com/snapcal/registrar/internal/metrics"
	"github.com/snapcal/registrar/internal/observability/logger"
)

// Sweeper deletes expired sessions on a schedule.
type Sweeper struct {
	sessions repository.SessionRepository
	cron     *cron.Cron
	spec     string
}

// New builds a Sweeper with a standard 5-field cron spec.
func New(sessions repository.SessionRepository, spec string) *Sweeper {
	return &Sweeper{
		sessions: sessions,
		cron:     cron.New(),
		spec:     spec,
	}
}

// Start registers the job and starts the scheduler.
func (s *Sweeper) Start() error {
	if _, err := s.cron.AddFunc(s.spec, s.run); err != nil {
		return err
	}
	s.cron.Start()
	return nil
}

// Stop stops the scheduler and waits for a running job to finish.
func (s *Sweeper) Stop() {
	<-s.cron.Stop().Done()
}

func (s *Sweeper) run() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	log := logger.L().With(logger.Component("sweep"), logger.Op("run"))

	n, err := s.sessions.DeleteExpired(ctx)
	if err != nil {
		log.Error("scheduled session sweep failed", logger.Err(err))
		return
	}
	if n > 0 {
		metrics.SessionsSwept.Add(float64(n))
		log.Info("swept expired sessions", logger.Count(n))
	}
}
