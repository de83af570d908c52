package pg

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/snapcal/registrar/internal/domain/repository"
)

type identityRepo struct {
	pool *pgxpool.Pool
}

func (r *identityRepo) Get(ctx context.Context, externalID string) (*repository.IdentityRecord, error) {
	const recQuery = `
		SELECT external_id, COALESCE(display_name, ''), COALESCE(active_account_id::text, ''), created_at, updated_at
		FROM identity_record WHERE external_id = $1
	`
	var rec repository.IdentityRecord
	err := r.pool.QueryRow(ctx, recQuery, externalID).Scan(
		&rec.ExternalID, &rec.DisplayName, &rec.ActiveAccountID, &rec.CreatedAt, &rec.UpdatedAt,
	)
	if err == pgx.ErrNoRows {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("pg: get identity record: %w", err)
	}

	accounts, err := r.accountsFor(ctx, r.pool, externalID)
	if err != nil {
		return nil, err
	}
	rec.Accounts = accounts
	return &rec, nil
}

type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

func (r *identityRepo) accountsFor(ctx context.Context, q querier, externalID string) ([]repository.LinkedAccount, error) {
	// seq preserves insertion order, which drives 1-based positions.
	const query = `
		SELECT id::text, provider_email, linked_at, refreshed_at
		FROM linked_account WHERE external_id = $1 ORDER BY seq
	`
	rows, err := q.Query(ctx, query, externalID)
	if err != nil {
		return nil, fmt.Errorf("pg: list accounts: %w", err)
	}
	defer rows.Close()

	var accounts []repository.LinkedAccount
	for rows.Next() {
		var a repository.LinkedAccount
		if err := rows.Scan(&a.AccountID, &a.ProviderEmail, &a.LinkedAt, &a.RefreshedAt); err != nil {
			return nil, fmt.Errorf("pg: scan account: %w", err)
		}
		accounts = append(accounts, a)
	}
	return accounts, rows.Err()
}

// Merge serializes concurrent merges for the same external id with a row
// lock on identity_record, so two simultaneous registrations cannot both
// append the same email or both claim the active pointer.
//
// Two first-ever merges have no row to lock yet; the loser's insert hits
// the identity_record primary key. One retry then finds the winner's row
// and takes the normal locked path.
func (r *identityRepo) Merge(ctx context.Context, in repository.MergeInput) (*repository.MergeResult, error) {
	res, err := r.merge(ctx, in)
	if isUniqueViolation(err) {
		return r.merge(ctx, in)
	}
	return res, err
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

func (r *identityRepo) merge(ctx context.Context, in repository.MergeInput) (*repository.MergeResult, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("pg: begin merge tx: %w", err)
	}
	defer tx.Rollback(ctx)

	now := time.Now()

	var activeID string
	err = tx.QueryRow(ctx,
		`SELECT COALESCE(active_account_id::text, '') FROM identity_record WHERE external_id = $1 FOR UPDATE`,
		in.ExternalID,
	).Scan(&activeID)

	if err == pgx.ErrNoRows {
		res, err := r.createRecord(ctx, tx, in, now)
		if err != nil {
			return nil, err
		}
		if err := tx.Commit(ctx); err != nil {
			return nil, fmt.Errorf("pg: commit merge: %w", err)
		}
		return res, nil
	}
	if err != nil {
		return nil, fmt.Errorf("pg: lock identity record: %w", err)
	}

	if in.DisplayName != "" {
		if _, err := tx.Exec(ctx,
			`UPDATE identity_record SET display_name = $2, updated_at = $3 WHERE external_id = $1`,
			in.ExternalID, in.DisplayName, now,
		); err != nil {
			return nil, fmt.Errorf("pg: update display name: %w", err)
		}
	}

	// Known email re-authenticating: refresh and reactivate.
	var acct repository.LinkedAccount
	err = tx.QueryRow(ctx,
		`UPDATE linked_account SET refreshed_at = $3
		 WHERE external_id = $1 AND provider_email = $2
		 RETURNING id::text, provider_email, linked_at, refreshed_at`,
		in.ExternalID, in.ProviderEmail, now,
	).Scan(&acct.AccountID, &acct.ProviderEmail, &acct.LinkedAt, &acct.RefreshedAt)

	switch {
	case err == nil:
		if _, err := tx.Exec(ctx,
			`UPDATE identity_record SET active_account_id = $2, updated_at = $3 WHERE external_id = $1`,
			in.ExternalID, acct.AccountID, now,
		); err != nil {
			return nil, fmt.Errorf("pg: reactivate account: %w", err)
		}
		total, err := r.countAccounts(ctx, tx, in.ExternalID)
		if err != nil {
			return nil, err
		}
		if err := tx.Commit(ctx); err != nil {
			return nil, fmt.Errorf("pg: commit merge: %w", err)
		}
		return &repository.MergeResult{Outcome: repository.MergeRefreshed, Account: acct, Total: total}, nil

	case err == pgx.ErrNoRows:
		// New email for an existing record.
		acct = repository.LinkedAccount{
			AccountID:     uuid.NewString(),
			ProviderEmail: in.ProviderEmail,
			LinkedAt:      now,
			RefreshedAt:   now,
		}
		if _, err := tx.Exec(ctx,
			`INSERT INTO linked_account (id, external_id, provider_email, linked_at, refreshed_at)
			 VALUES ($1, $2, $3, $4, $4)`,
			acct.AccountID, in.ExternalID, acct.ProviderEmail, now,
		); err != nil {
			return nil, fmt.Errorf("pg: insert account: %w", err)
		}
		if activeID == "" {
			if _, err := tx.Exec(ctx,
				`UPDATE identity_record SET active_account_id = $2, updated_at = $3 WHERE external_id = $1`,
				in.ExternalID, acct.AccountID, now,
			); err != nil {
				return nil, fmt.Errorf("pg: set first active account: %w", err)
			}
		}
		total, err := r.countAccounts(ctx, tx, in.ExternalID)
		if err != nil {
			return nil, err
		}
		if err := tx.Commit(ctx); err != nil {
			return nil, fmt.Errorf("pg: commit merge: %w", err)
		}
		return &repository.MergeResult{Outcome: repository.MergeAdded, Account: acct, Total: total}, nil

	default:
		return nil, fmt.Errorf("pg: refresh account: %w", err)
	}
}

func (r *identityRepo) createRecord(ctx context.Context, tx pgx.Tx, in repository.MergeInput, now time.Time) (*repository.MergeResult, error) {
	if _, err := tx.Exec(ctx,
		`INSERT INTO identity_record (external_id, display_name, created_at, updated_at)
		 VALUES ($1, $2, $3, $3)`,
		in.ExternalID, nullIfEmpty(in.DisplayName), now,
	); err != nil {
		return nil, fmt.Errorf("pg: insert identity record: %w", err)
	}

	acct := repository.LinkedAccount{
		AccountID:     uuid.NewString(),
		ProviderEmail: in.ProviderEmail,
		LinkedAt:      now,
		RefreshedAt:   now,
	}
	if _, err := tx.Exec(ctx,
		`INSERT INTO linked_account (id, external_id, provider_email, linked_at, refreshed_at)
		 VALUES ($1, $2, $3, $4, $4)`,
		acct.AccountID, in.ExternalID, acct.ProviderEmail, now,
	); err != nil {
		return nil, fmt.Errorf("pg: insert first account: %w", err)
	}
	if _, err := tx.Exec(ctx,
		`UPDATE identity_record SET active_account_id = $2 WHERE external_id = $1`,
		in.ExternalID, acct.AccountID,
	); err != nil {
		return nil, fmt.Errorf("pg: activate first account: %w", err)
	}
	return &repository.MergeResult{Outcome: repository.MergeCreated, Account: acct, Total: 1}, nil
}

func (r *identityRepo) countAccounts(ctx context.Context, tx pgx.Tx, externalID string) (int, error) {
	var n int
	if err := tx.QueryRow(ctx,
		`SELECT COUNT(*) FROM linked_account WHERE external_id = $1`, externalID,
	).Scan(&n); err != nil {
		return 0, fmt.Errorf("pg: count accounts: %w", err)
	}
	return n, nil
}

func (r *identityRepo) SetActive(ctx context.Context, externalID, accountID string) error {
	// Accounts are never removed by normal flows, so validating and
	// pointing in one guarded UPDATE is race-free.
	const query = `
		UPDATE identity_record SET active_account_id = $2, updated_at = now()
		WHERE external_id = $1
		  AND EXISTS (SELECT 1 FROM linked_account WHERE external_id = $1 AND id = $2)
	`
	tag, err := r.pool.Exec(ctx, query, externalID, accountID)
	if err != nil {
		return fmt.Errorf("pg: set active account: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}
