package services

import (
	"context"

	"github.com/renderdesk/renderdesk/internal/core/domain"
)

// LedgerSvcFacade exposes credit balance operations. All balance mutations go
// through here so every change lands in the ledger.
type LedgerSvcFacade interface {
	GetBalance(ctx context.Context, userID string) (int64, error)

	// TryDebit reserves amount credits for a paid operation. Fails fast with
	// apperrors.ErrInsufficientCredits / ErrUserBlocked / ErrNotFound.
	TryDebit(ctx context.Context, userID string, amount int64, entryType domain.CreditEntryType, projectID *string, detail map[string]any) error

	// Credit adds amount credits, for refunds and grants.
	Credit(ctx context.Context, userID string, amount int64, entryType domain.CreditEntryType, projectID *string, detail map[string]any) error

	// AdjustCredits applies a signed delta on behalf of an administrator and
	// records the action in the admin audit trail.
	AdjustCredits(ctx context.Context, adminUserID string, targetUserID string, delta int64, reason string) (int64, error)

	ListEntries(ctx context.Context, userID string, limit int, offset int) ([]domain.CreditEntry, error)

	// Reconcile verifies the ledger invariant: sum of entries == balance.
	Reconcile(ctx context.Context, userID string) (bool, error)
}
