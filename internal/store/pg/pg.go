// Package pg implements the repositories on PostgreSQL using pgxpool.
package pg

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/snapcal/registrar/internal/domain/repository"
)

// Store owns the connection pool and hands out repositories. Process-wide
// lifetime: built once in main, injected into the services, closed on
// shutdown.
type Store struct {
	pool *pgxpool.Pool
}

// Connect parses the DSN, builds the pool and verifies connectivity.
func Connect(ctx context.Context, dsn string, maxConns int) (*Store, error) {
	poolCfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("pg: parse DSN: %w", err)
	}
	if maxConns > 0 {
		poolCfg.MaxConns = int32(maxConns)
	} else {
		poolCfg.MaxConns = 10
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("pg: create pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pg: ping failed: %w", err)
	}
	return &Store{pool: pool}, nil
}

func (s *Store) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

func (s *Store) Close() {
	s.pool.Close()
}

func (s *Store) Sessions() repository.SessionRepository {
	return &sessionRepo{pool: s.pool}
}

func (s *Store) Identities() repository.IdentityRepository {
	return &identityRepo{pool: s.pool}
}
