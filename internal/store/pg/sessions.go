package pg

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/snapcal/registrar/internal/domain/repository"
)

type sessionRepo struct {
	pool *pgxpool.Pool
}

func (r *sessionRepo) Create(ctx context.Context, s *repository.HandshakeSession) error {
	const query = `
		INSERT INTO handshake_session (state, external_id, external_display_name, created_at, expires_at)
		VALUES ($1, $2, $3, $4, $5)
	`
	_, err := r.pool.Exec(ctx, query,
		s.State, s.ExternalID, nullIfEmpty(s.ExternalDisplayName), s.CreatedAt, s.ExpiresAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return repository.ErrDuplicateState
		}
		return fmt.Errorf("pg: create session: %w", err)
	}
	return nil
}

// Consume deletes and returns the live session in one statement, so a
// replayed state can never be observed twice even under concurrent
// callbacks. Expired rows are filtered here; the sweep removes them.
func (r *sessionRepo) Consume(ctx context.Context, state string) (*repository.HandshakeSession, error) {
	const query = `
		DELETE FROM handshake_session
		WHERE state = $1 AND expires_at > now()
		RETURNING state, external_id, COALESCE(external_display_name, ''), created_at, expires_at
	`
	var s repository.HandshakeSession
	err := r.pool.QueryRow(ctx, query, state).Scan(
		&s.State, &s.ExternalID, &s.ExternalDisplayName, &s.CreatedAt, &s.ExpiresAt,
	)
	if err == pgx.ErrNoRows {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("pg: consume session: %w", err)
	}
	return &s, nil
}

func (r *sessionRepo) DeleteExpired(ctx context.Context) (int, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM handshake_session WHERE expires_at <= now()`)
	if err != nil {
		return 0, fmt.Errorf("pg: delete expired sessions: %w", err)
	}
	return int(tag.RowsAffected()), nil
}

func nullIfEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
