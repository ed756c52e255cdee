package services

import (
	"context"
	"crypto/subtle"
	"fmt"
	"time"

	"github.com/renderdesk/renderdesk/internal/apperrors"
	"github.com/renderdesk/renderdesk/internal/core/domain"
	portssvc "github.com/renderdesk/renderdesk/internal/core/ports/services"
	"github.com/renderdesk/renderdesk/internal/utils"
	"github.com/renderdesk/renderdesk/pkg/config"
)

const refreshTokenByteLength = 32

// tokenService issues HS256 access tokens and rotating opaque refresh tokens.
// Only the sha256 of a refresh token is stored.
type tokenService struct {
	BaseService
	jwtSecret     string
	jwtExpiry     time.Duration
	jwtIssuer     string
	refreshExpiry time.Duration
	users         portssvc.UserSvcFacade
}

// NewTokenService creates the token service.
func NewTokenService(cfg *config.Config, users portssvc.UserSvcFacade) portssvc.TokenSvcFacade {
	return &tokenService{
		jwtSecret:     cfg.JWTSecret,
		jwtExpiry:     cfg.JWTExpiryDuration,
		jwtIssuer:     cfg.JWTIssuer,
		refreshExpiry: cfg.RefreshTokenExpiryDuration,
		users:         users,
	}
}

var _ portssvc.TokenSvcFacade = (*tokenService)(nil)

// GenerateAccessToken issues a signed JWT for the user.
func (s *tokenService) GenerateAccessToken(_ context.Context, user *domain.User) (string, time.Time, error) {
	expiresAt := time.Now().Add(s.jwtExpiry)
	token, err := utils.GenerateJWT(user.UserID, s.jwtSecret, s.jwtExpiry, s.jwtIssuer)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to sign access token: %w", err)
	}
	return token, expiresAt, nil
}

// GenerateRefreshToken issues a new opaque refresh token and persists its
// hash, invalidating any previously issued one.
func (s *tokenService) GenerateRefreshToken(ctx context.Context, user *domain.User) (string, time.Time, error) {
	token, err := utils.GenerateSecureRandomString(refreshTokenByteLength)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to generate refresh token: %w", err)
	}

	expiry := time.Now().Add(s.refreshExpiry)
	if err := s.users.UpdateRefreshTokenHash(ctx, user.UserID, utils.HashRefreshToken(token), expiry); err != nil {
		return "", time.Time{}, err
	}
	return token, expiry, nil
}

// ValidateAndParseRefreshToken checks the presented refresh token against the
// stored hash and expiry.
func (s *tokenService) ValidateAndParseRefreshToken(ctx context.Context, userID string, refreshToken string) (*domain.User, error) {
	user, err := s.users.GetUserByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	if user.RefreshTokenHash == nil || user.RefreshTokenExpiryTime == nil {
		return nil, fmt.Errorf("%w: no refresh token on record", apperrors.ErrUnauthorized)
	}
	if time.Now().After(*user.RefreshTokenExpiryTime) {
		return nil, fmt.Errorf("%w: refresh token expired", apperrors.ErrUnauthorized)
	}

	presented := utils.HashRefreshToken(refreshToken)
	if subtle.ConstantTimeCompare([]byte(presented), []byte(*user.RefreshTokenHash)) != 1 {
		return nil, fmt.Errorf("%w: refresh token mismatch", apperrors.ErrUnauthorized)
	}
	return user, nil
}
