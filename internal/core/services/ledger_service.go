package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/renderdesk/renderdesk/internal/apperrors"
	"github.com/renderdesk/renderdesk/internal/core/domain"
	"github.com/renderdesk/renderdesk/internal/core/ports"
	portsrepo "github.com/renderdesk/renderdesk/internal/core/ports/repositories"
	portssvc "github.com/renderdesk/renderdesk/internal/core/ports/services"
	"github.com/renderdesk/renderdesk/internal/metrics"
)

// ledgerService owns all credit balance mutations. Every mutation creates a
// ledger entry through the repository in the same transaction, and is then
// mirrored to the usage event stream on a best-effort basis.
type ledgerService struct {
	BaseService
	ledgerRepo      portsrepo.LedgerRepository
	userRepo        portsrepo.UserRepository
	adminActionRepo portsrepo.AdminActionRepository
	publisher       ports.UsageEventPublisher
}

// NewLedgerService creates the ledger service. publisher may be nil.
func NewLedgerService(ledgerRepo portsrepo.LedgerRepository, userRepo portsrepo.UserRepository, adminActionRepo portsrepo.AdminActionRepository, publisher ports.UsageEventPublisher) portssvc.LedgerSvcFacade {
	return &ledgerService{
		ledgerRepo:      ledgerRepo,
		userRepo:        userRepo,
		adminActionRepo: adminActionRepo,
		publisher:       publisher,
	}
}

var _ portssvc.LedgerSvcFacade = (*ledgerService)(nil)

func (s *ledgerService) GetBalance(ctx context.Context, userID string) (int64, error) {
	return s.ledgerRepo.GetBalance(ctx, userID)
}

func (s *ledgerService) TryDebit(ctx context.Context, userID string, amount int64, entryType domain.CreditEntryType, projectID *string, detail map[string]any) error {
	entry := domain.CreditEntry{
		EntryID:   uuid.NewString(),
		UserID:    userID,
		ProjectID: projectID,
		EntryType: entryType,
		Detail:    detail,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.ledgerRepo.TryDebit(ctx, userID, amount, entry); err != nil {
		return err
	}

	if entryType == domain.EntryTypeRender {
		metrics.CreditsDebited.Add(float64(amount))
	}
	entry.Amount = -amount
	s.publishEntry(ctx, entry)
	return nil
}

func (s *ledgerService) Credit(ctx context.Context, userID string, amount int64, entryType domain.CreditEntryType, projectID *string, detail map[string]any) error {
	entry := domain.CreditEntry{
		EntryID:   uuid.NewString(),
		UserID:    userID,
		ProjectID: projectID,
		EntryType: entryType,
		Detail:    detail,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.ledgerRepo.Credit(ctx, userID, amount, entry); err != nil {
		return err
	}

	if entryType == domain.EntryTypeRenderRefund {
		metrics.CreditsRefunded.Add(float64(amount))
	}
	entry.Amount = amount
	s.publishEntry(ctx, entry)
	return nil
}

// AdjustCredits applies a signed delta on behalf of an administrator and
// records an audit entry. A negative delta goes through the same conditional
// debit as renders, so it can never push a balance below zero.
func (s *ledgerService) AdjustCredits(ctx context.Context, adminUserID string, targetUserID string, delta int64, reason string) (int64, error) {
	if delta == 0 {
		return 0, fmt.Errorf("%w: delta must be non-zero", apperrors.ErrValidation)
	}
	if err := s.requireAdmin(ctx, adminUserID); err != nil {
		return 0, err
	}

	detail := map[string]any{"adminId": adminUserID}
	if reason != "" {
		detail["reason"] = reason
	}

	var err error
	if delta > 0 {
		err = s.Credit(ctx, targetUserID, delta, domain.EntryTypeAdminCredit, nil, detail)
	} else {
		err = s.TryDebit(ctx, targetUserID, -delta, domain.EntryTypeAdminCredit, nil, detail)
	}
	if err != nil {
		return 0, err
	}

	s.recordAdminAction(ctx, adminUserID, targetUserID, "adjust_credits", map[string]any{
		"delta":  delta,
		"reason": reason,
	})

	return s.ledgerRepo.GetBalance(ctx, targetUserID)
}

func (s *ledgerService) ListEntries(ctx context.Context, userID string, limit int, offset int) ([]domain.CreditEntry, error) {
	return s.ledgerRepo.ListEntries(ctx, userID, limit, offset)
}

// Reconcile checks that the sum of a user's ledger entries equals the stored
// balance. A mismatch means a balance mutation bypassed the ledger.
func (s *ledgerService) Reconcile(ctx context.Context, userID string) (bool, error) {
	balance, err := s.ledgerRepo.GetBalance(ctx, userID)
	if err != nil {
		return false, err
	}
	sum, err := s.ledgerRepo.SumEntries(ctx, userID)
	if err != nil {
		return false, err
	}
	if sum != balance {
		s.LogError(ctx, fmt.Errorf("ledger sum %d != balance %d", sum, balance),
			"Ledger reconciliation mismatch", slog.String("target_user_id", userID))
		return false, nil
	}
	return true, nil
}

func (s *ledgerService) requireAdmin(ctx context.Context, userID string) error {
	user, err := s.userRepo.FindUserByID(ctx, userID)
	if err != nil {
		return err
	}
	if !user.IsAdmin {
		return fmt.Errorf("%w: user %s is not an administrator", apperrors.ErrForbidden, userID)
	}
	return nil
}

func (s *ledgerService) publishEntry(ctx context.Context, entry domain.CreditEntry) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.PublishCreditEntry(ctx, entry); err != nil {
		s.LogWarn(ctx, "Failed to publish credit entry event",
			slog.String("entry_id", entry.EntryID), slog.String("error", err.Error()))
	}
}

func (s *ledgerService) recordAdminAction(ctx context.Context, adminID string, targetUserID string, actionType string, details map[string]any) {
	err := s.adminActionRepo.SaveAdminAction(ctx, portsrepo.AdminAction{
		ActionID:     uuid.NewString(),
		AdminID:      adminID,
		ActionType:   actionType,
		TargetUserID: targetUserID,
		Details:      details,
		CreatedAt:    time.Now().UTC(),
	})
	if err != nil {
		s.LogWarn(ctx, "Failed to record admin action",
			slog.String("action_type", actionType), slog.String("error", err.Error()))
	}
}
