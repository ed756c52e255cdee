package repositories

import (
	"context"
	"time"

	"github.com/renderdesk/renderdesk/internal/core/domain"
)

// UserRepository persists user profiles. Credit balance mutation lives in
// LedgerRepository; this interface never changes the credits column directly.
type UserRepository interface {
	SaveUser(ctx context.Context, user domain.User) error
	FindUserByID(ctx context.Context, userID string) (*domain.User, error)
	FindUserByUsername(ctx context.Context, username string) (*domain.User, error)
	ListUsers(ctx context.Context, limit int, offset int) ([]domain.User, error)
	UpdateDisplayName(ctx context.Context, userID string, displayName string, updatedBy string, now time.Time) error
	SetBlocked(ctx context.Context, userID string, blocked bool, updatedBy string, now time.Time) error
	UpdateRefreshToken(ctx context.Context, userID string, tokenHash string, expiry time.Time) error
	ClearRefreshToken(ctx context.Context, userID string) error
}
