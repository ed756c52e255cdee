package services

import (
	"context"
	"time"

	"github.com/renderdesk/renderdesk/internal/core/domain"
)

// TokenSvcFacade issues and validates access and refresh tokens.
type TokenSvcFacade interface {
	GenerateAccessToken(ctx context.Context, user *domain.User) (string, time.Time, error)
	GenerateRefreshToken(ctx context.Context, user *domain.User) (string, time.Time, error)
	ValidateAndParseRefreshToken(ctx context.Context, userID string, refreshToken string) (*domain.User, error)
}

// GoogleUserInfo is the verified identity extracted from a Google ID token.
type GoogleUserInfo struct {
	Subject string
	Email   string
	Name    string
}

// GoogleOAuthSvcFacade exchanges an authorization code for a verified Google
// identity.
type GoogleOAuthSvcFacade interface {
	ExchangeAndVerify(ctx context.Context, code string) (*GoogleUserInfo, error)
}
