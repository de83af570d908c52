// Package store builds the configured repository backends.
package store

import (
	"context"
	"fmt"

	rdb "github.com/redis/go-redis/v9"

	"github.com/snapcal/registrar/internal/config"
	"github.com/snapcal/registrar/internal/domain/repository"
	"github.com/snapcal/registrar/internal/store/memory"
	"github.com/snapcal/registrar/internal/store/pg"
	redisstore "github.com/snapcal/registrar/internal/store/redis"
)

// Stores bundles the repositories plus the handles that need closing.
type Stores struct {
	Sessions   repository.SessionRepository
	Identities repository.IdentityRepository

	pgStore     *pg.Store
	redisClient *rdb.Client
}

// Open connects the backends selected by cfg. The identity directory
// follows storage.driver (postgres|memory); the session store follows
// sessions.backend (postgres|redis|memory).
func Open(ctx context.Context, cfg *config.Config) (*Stores, error) {
	st := &Stores{}

	switch cfg.Storage.Driver {
	case "postgres":
		pgStore, err := pg.Connect(ctx, cfg.Storage.DSN, cfg.Storage.MaxConns)
		if err != nil {
			return nil, err
		}
		st.pgStore = pgStore
		st.Identities = pgStore.Identities()
	case "memory":
		st.Identities = memory.NewIdentityStore()
	default:
		return nil, fmt.Errorf("store: unknown storage driver %q", cfg.Storage.Driver)
	}

	switch cfg.Sessions.Backend {
	case "postgres":
		if st.pgStore == nil {
			pgStore, err := pg.Connect(ctx, cfg.Storage.DSN, cfg.Storage.MaxConns)
			if err != nil {
				st.Close()
				return nil, err
			}
			st.pgStore = pgStore
		}
		st.Sessions = st.pgStore.Sessions()
	case "redis":
		client := rdb.NewClient(&rdb.Options{
			Addr: cfg.Sessions.Redis.Addr,
			DB:   cfg.Sessions.Redis.DB,
		})
		if err := client.Ping(ctx).Err(); err != nil {
			st.Close()
			return nil, fmt.Errorf("store: redis ping: %w", err)
		}
		st.redisClient = client
		st.Sessions = redisstore.NewSessionStore(client, cfg.Sessions.Redis.Prefix)
	case "memory":
		st.Sessions = memory.NewSessionStore()
	default:
		st.Close()
		return nil, fmt.Errorf("store: unknown sessions backend %q", cfg.Sessions.Backend)
	}

	return st, nil
}

// Close releases the underlying connections.
func (s *Stores) Close() {
	if s.pgStore != nil {
		s.pgStore.Close()
	}
	if s.redisClient != nil {
		_ = s.redisClient.Close()
	}
}
