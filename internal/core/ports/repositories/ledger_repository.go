package repositories

import (
	"context"

	"github.com/renderdesk/renderdesk/internal/core/domain"
)

// LedgerRepository is the atomic credit store. Balance mutations and their
// ledger entries are written in a single database transaction so the two can
// never diverge, even across a crash.
type LedgerRepository interface {
	// GetBalance returns the user's current credit balance.
	// Returns apperrors.ErrNotFound for an unknown user.
	GetBalance(ctx context.Context, userID string) (int64, error)

	// TryDebit atomically checks that the user exists, is not blocked, and has
	// balance >= amount, then decrements the balance and appends entry. The
	// check-and-decrement is a single conditional UPDATE so two concurrent
	// debits can never overdraw the balance.
	// Returns apperrors.ErrNotFound, apperrors.ErrUserBlocked or
	// apperrors.ErrInsufficientCredits when the precondition fails.
	TryDebit(ctx context.Context, userID string, amount int64, entry domain.CreditEntry) error

	// Credit atomically increments the balance and appends entry. Used for
	// refunds and grants; idempotency is the caller's responsibility.
	Credit(ctx context.Context, userID string, amount int64, entry domain.CreditEntry) error

	// ListEntries returns the user's ledger entries, newest first.
	ListEntries(ctx context.Context, userID string, limit int, offset int) ([]domain.CreditEntry, error)

	// SumEntries returns the signed sum of all entries for a user. Used by the
	// reconciliation check: sum must equal the current balance.
	SumEntries(ctx context.Context, userID string) (int64, error)
}
