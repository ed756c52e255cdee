package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/renderdesk/renderdesk/internal/apperrors"
	"github.com/renderdesk/renderdesk/internal/core/domain"
	portsrepo "github.com/renderdesk/renderdesk/internal/core/ports/repositories"
	portssvc "github.com/renderdesk/renderdesk/internal/core/ports/services"
	"github.com/renderdesk/renderdesk/internal/dto"
	"github.com/renderdesk/renderdesk/internal/utils"
)

// userService manages profiles. New accounts receive the signup credit grant
// through the ledger so the grant shows up in the user's history.
type userService struct {
	BaseService
	signupGrant     int64
	userRepo        portsrepo.UserRepository
	adminActionRepo portsrepo.AdminActionRepository
	ledger          portssvc.LedgerSvcFacade
}

// NewUserService creates the user service.
func NewUserService(signupGrant int64, userRepo portsrepo.UserRepository, adminActionRepo portsrepo.AdminActionRepository, ledger portssvc.LedgerSvcFacade) portssvc.UserSvcFacade {
	return &userService{
		signupGrant:     signupGrant,
		userRepo:        userRepo,
		adminActionRepo: adminActionRepo,
		ledger:          ledger,
	}
}

var _ portssvc.UserSvcFacade = (*userService)(nil)

// RegisterUser creates a profile and grants the signup credits.
func (s *userService) RegisterUser(ctx context.Context, req dto.RegisterRequest) (*domain.User, error) {
	passwordHash, err := utils.HashPassword(req.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	displayName := req.DisplayName
	if displayName == "" {
		displayName = req.Username
	}

	user := s.newUser(req.Username, passwordHash, displayName)
	if err := s.userRepo.SaveUser(ctx, user); err != nil {
		return nil, err
	}

	s.grantSignupCredits(ctx, &user)
	return &user, nil
}

// AuthenticateUser verifies a username/password pair. Unknown users and bad
// passwords both return ErrUnauthorized so callers cannot probe usernames.
func (s *userService) AuthenticateUser(ctx context.Context, username string, password string) (*domain.User, error) {
	user, err := s.userRepo.FindUserByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, fmt.Errorf("%w: invalid credentials", apperrors.ErrUnauthorized)
		}
		return nil, err
	}
	if !utils.CheckPasswordHash(password, user.PasswordHash) {
		return nil, fmt.Errorf("%w: invalid credentials", apperrors.ErrUnauthorized)
	}
	return user, nil
}

// EnsureOAuthProfile returns the profile backing an external identity,
// creating it with the signup grant on first sign-in.
func (s *userService) EnsureOAuthProfile(ctx context.Context, subject string, displayName string) (*domain.User, error) {
	username := "google:" + subject

	user, err := s.userRepo.FindUserByUsername(ctx, username)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, apperrors.ErrNotFound) {
		return nil, err
	}

	created := s.newUser(username, "", displayName)
	if err := s.userRepo.SaveUser(ctx, created); err != nil {
		// A concurrent first sign-in may have won the insert.
		if errors.Is(err, apperrors.ErrDuplicate) {
			return s.userRepo.FindUserByUsername(ctx, username)
		}
		return nil, err
	}

	s.grantSignupCredits(ctx, &created)
	return &created, nil
}

func (s *userService) GetUserByID(ctx context.Context, userID string) (*domain.User, error) {
	return s.userRepo.FindUserByID(ctx, userID)
}

func (s *userService) ListUsers(ctx context.Context, limit int, offset int) ([]domain.User, error) {
	return s.userRepo.ListUsers(ctx, limit, offset)
}

// SetBlocked blocks or unblocks a user on behalf of an administrator.
// Blocking stops new debits only; the balance and history stay intact.
func (s *userService) SetBlocked(ctx context.Context, adminUserID string, targetUserID string, blocked bool, reason string) error {
	admin, err := s.userRepo.FindUserByID(ctx, adminUserID)
	if err != nil {
		return err
	}
	if !admin.IsAdmin {
		return fmt.Errorf("%w: user %s is not an administrator", apperrors.ErrForbidden, adminUserID)
	}

	if err := s.userRepo.SetBlocked(ctx, targetUserID, blocked, adminUserID, time.Now().UTC()); err != nil {
		return err
	}

	actionType := "block_user"
	if !blocked {
		actionType = "unblock_user"
	}
	err = s.adminActionRepo.SaveAdminAction(ctx, portsrepo.AdminAction{
		ActionID:     uuid.NewString(),
		AdminID:      adminUserID,
		ActionType:   actionType,
		TargetUserID: targetUserID,
		Details:      map[string]any{"reason": reason},
		CreatedAt:    time.Now().UTC(),
	})
	if err != nil {
		s.LogWarn(ctx, "Failed to record admin action",
			slog.String("action_type", actionType), slog.String("error", err.Error()))
	}
	return nil
}

func (s *userService) UpdateRefreshTokenHash(ctx context.Context, userID string, tokenHash string, expiry time.Time) error {
	return s.userRepo.UpdateRefreshToken(ctx, userID, tokenHash, expiry)
}

func (s *userService) ClearRefreshToken(ctx context.Context, userID string) error {
	return s.userRepo.ClearRefreshToken(ctx, userID)
}

func (s *userService) newUser(username string, passwordHash string, displayName string) domain.User {
	now := time.Now().UTC()
	userID := uuid.NewString()
	return domain.User{
		UserID:       userID,
		Username:     username,
		PasswordHash: passwordHash,
		DisplayName:  displayName,
		Credits:      0,
		AuditFields: domain.AuditFields{
			CreatedAt:     now,
			CreatedBy:     userID,
			LastUpdatedAt: now,
			LastUpdatedBy: userID,
		},
	}
}

// grantSignupCredits applies the welcome grant. A grant failure leaves the
// account usable at zero balance and is logged for reconciliation.
func (s *userService) grantSignupCredits(ctx context.Context, user *domain.User) {
	if s.signupGrant <= 0 {
		return
	}
	err := s.ledger.Credit(ctx, user.UserID, s.signupGrant, domain.EntryTypeSignupGrant, nil, nil)
	if err != nil {
		s.LogError(ctx, err, "Failed to grant signup credits", slog.String("target_user_id", user.UserID))
		return
	}
	user.Credits = s.signupGrant
}
