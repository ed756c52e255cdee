package pgsql

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/renderdesk/renderdesk/internal/apperrors"
	"github.com/renderdesk/renderdesk/internal/core/domain"
	portsrepo "github.com/renderdesk/renderdesk/internal/core/ports/repositories"
)

// PgxLedgerRepository implements the atomic credit store over the users and
// credit_entries tables. A balance mutation and its ledger entry always share
// one transaction, so the reconciliation invariant holds across crashes.
type PgxLedgerRepository struct {
	BaseRepository
}

func newPgxLedgerRepository(pool *pgxpool.Pool) portsrepo.LedgerRepository {
	return &PgxLedgerRepository{BaseRepository: BaseRepository{Pool: pool}}
}

var _ portsrepo.LedgerRepository = (*PgxLedgerRepository)(nil)

// GetBalance returns the user's current credit balance.
func (r *PgxLedgerRepository) GetBalance(ctx context.Context, userID string) (int64, error) {
	var credits int64
	err := r.Pool.QueryRow(ctx,
		`SELECT credits FROM users WHERE user_id = $1 AND deleted_at IS NULL;`,
		userID,
	).Scan(&credits)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, apperrors.ErrNotFound
		}
		return 0, fmt.Errorf("failed to read balance for user %s: %w", userID, err)
	}
	return credits, nil
}

// TryDebit reserves amount credits. The balance check, blocked check and
// decrement are one conditional UPDATE, so concurrent debits against the same
// user can never overdraw: at most one of two racing debits passes the
// credits >= amount predicate.
func (r *PgxLedgerRepository) TryDebit(ctx context.Context, userID string, amount int64, entry domain.CreditEntry) error {
	if amount <= 0 {
		return fmt.Errorf("%w: debit amount must be positive", apperrors.ErrValidation)
	}

	tx, err := r.Begin(ctx)
	if err != nil {
		return err
	}
	defer r.Rollback(ctx, tx)

	tag, err := tx.Exec(ctx, `
		UPDATE users
		SET credits = credits - $2, last_updated_at = $3
		WHERE user_id = $1 AND blocked = FALSE AND deleted_at IS NULL AND credits >= $2;
	`, userID, amount, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to debit user %s: %w", userID, err)
	}

	if tag.RowsAffected() == 0 {
		return r.debitFailureReason(ctx, tx, userID, amount)
	}

	entry.Amount = -amount
	if err := insertCreditEntry(ctx, tx, entry); err != nil {
		return err
	}

	return r.Commit(ctx, tx)
}

// debitFailureReason disambiguates a zero-row debit into the precondition that
// actually failed.
func (r *PgxLedgerRepository) debitFailureReason(ctx context.Context, tx pgx.Tx, userID string, amount int64) error {
	var blocked bool
	var credits int64
	err := tx.QueryRow(ctx,
		`SELECT blocked, credits FROM users WHERE user_id = $1 AND deleted_at IS NULL;`,
		userID,
	).Scan(&blocked, &credits)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.ErrNotFound
		}
		return fmt.Errorf("failed to inspect user %s after rejected debit: %w", userID, err)
	}
	if blocked {
		return apperrors.ErrUserBlocked
	}
	return fmt.Errorf("%w: balance %d, requested %d", apperrors.ErrInsufficientCredits, credits, amount)
}

// Credit adds amount credits. Blocked users can still be credited; blocking
// only gates new debits.
func (r *PgxLedgerRepository) Credit(ctx context.Context, userID string, amount int64, entry domain.CreditEntry) error {
	if amount <= 0 {
		return fmt.Errorf("%w: credit amount must be positive", apperrors.ErrValidation)
	}

	tx, err := r.Begin(ctx)
	if err != nil {
		return err
	}
	defer r.Rollback(ctx, tx)

	tag, err := tx.Exec(ctx, `
		UPDATE users
		SET credits = credits + $2, last_updated_at = $3
		WHERE user_id = $1 AND deleted_at IS NULL;
	`, userID, amount, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to credit user %s: %w", userID, err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}

	entry.Amount = amount
	if err := insertCreditEntry(ctx, tx, entry); err != nil {
		return err
	}

	return r.Commit(ctx, tx)
}

func insertCreditEntry(ctx context.Context, tx pgx.Tx, entry domain.CreditEntry) error {
	var detail []byte
	if entry.Detail != nil {
		var err error
		detail, err = json.Marshal(entry.Detail)
		if err != nil {
			return fmt.Errorf("failed to marshal entry detail: %w", err)
		}
	}

	var projectID sql.NullString
	if entry.ProjectID != nil {
		projectID = sql.NullString{String: *entry.ProjectID, Valid: true}
	}

	_, err := tx.Exec(ctx, `
		INSERT INTO credit_entries (entry_id, user_id, project_id, entry_type, amount, detail, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7);
	`, entry.EntryID, entry.UserID, projectID, string(entry.EntryType), entry.Amount, detail, entry.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert credit entry %s: %w", entry.EntryID, err)
	}
	return nil
}

// ListEntries returns the user's ledger entries, newest first.
func (r *PgxLedgerRepository) ListEntries(ctx context.Context, userID string, limit int, offset int) ([]domain.CreditEntry, error) {
	if limit <= 0 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}

	rows, err := r.Pool.Query(ctx, `
		SELECT entry_id, user_id, project_id, entry_type, amount, detail, created_at
		FROM credit_entries
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3;
	`, userID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to query credit entries for user %s: %w", userID, err)
	}
	defer rows.Close()

	entries := []domain.CreditEntry{}
	for rows.Next() {
		var entry domain.CreditEntry
		var projectID sql.NullString
		var entryType string
		var detail []byte
		if err := rows.Scan(&entry.EntryID, &entry.UserID, &projectID, &entryType, &entry.Amount, &detail, &entry.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan credit entry row: %w", err)
		}
		if projectID.Valid {
			entry.ProjectID = &projectID.String
		}
		entry.EntryType = domain.CreditEntryType(entryType)
		if len(detail) > 0 {
			if err := json.Unmarshal(detail, &entry.Detail); err != nil {
				return nil, fmt.Errorf("failed to unmarshal detail for entry %s: %w", entry.EntryID, err)
			}
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating credit entry rows: %w", err)
	}
	return entries, nil
}

// SumEntries returns the signed sum of all entries for a user.
func (r *PgxLedgerRepository) SumEntries(ctx context.Context, userID string) (int64, error) {
	var sum int64
	err := r.Pool.QueryRow(ctx,
		`SELECT COALESCE(SUM(amount), 0) FROM credit_entries WHERE user_id = $1;`,
		userID,
	).Scan(&sum)
	if err != nil {
		return 0, fmt.Errorf("failed to sum credit entries for user %s: %w", userID, err)
	}
	return sum, nil
}
