package services

import (
	"context"
	"time"

	"github.com/renderdesk/renderdesk/internal/core/domain"
	"github.com/renderdesk/renderdesk/internal/dto"
)

// UserSvcFacade manages user profiles and authentication lookups.
type UserSvcFacade interface {
	// RegisterUser creates a profile and grants the signup credits.
	RegisterUser(ctx context.Context, req dto.RegisterRequest) (*domain.User, error)

	// AuthenticateUser verifies a username/password pair.
	AuthenticateUser(ctx context.Context, username string, password string) (*domain.User, error)

	// EnsureOAuthProfile returns the user for an external identity, creating
	// the profile (with the signup grant) on first sign-in.
	EnsureOAuthProfile(ctx context.Context, subject string, displayName string) (*domain.User, error)

	GetUserByID(ctx context.Context, userID string) (*domain.User, error)
	ListUsers(ctx context.Context, limit int, offset int) ([]domain.User, error)

	// SetBlocked blocks or unblocks a user on behalf of an administrator.
	SetBlocked(ctx context.Context, adminUserID string, targetUserID string, blocked bool, reason string) error

	UpdateRefreshTokenHash(ctx context.Context, userID string, tokenHash string, expiry time.Time) error
	ClearRefreshToken(ctx context.Context, userID string) error
}
