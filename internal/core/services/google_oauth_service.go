package services

import (
	"context"
	"fmt"

	"github.com/renderdesk/renderdesk/internal/apperrors"
	portssvc "github.com/renderdesk/renderdesk/internal/core/ports/services"
	"github.com/renderdesk/renderdesk/pkg/config"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/idtoken"
)

// googleOAuthService exchanges an authorization code for a verified Google
// identity. The identity comes from the validated ID token, not the userinfo
// endpoint, so the subject is always signature-checked.
type googleOAuthService struct {
	BaseService
	clientID     string
	oauth2Config *oauth2.Config
}

// NewGoogleOAuthService creates the OAuth exchange service.
func NewGoogleOAuthService(cfg *config.Config) portssvc.GoogleOAuthSvcFacade {
	return &googleOAuthService{
		clientID: cfg.GoogleClientID,
		oauth2Config: &oauth2.Config{
			ClientID:     cfg.GoogleClientID,
			ClientSecret: cfg.GoogleClientSecret,
			RedirectURL:  cfg.GoogleRedirectURL,
			Endpoint:     google.Endpoint,
			Scopes:       []string{"openid", "email", "profile"},
		},
	}
}

var _ portssvc.GoogleOAuthSvcFacade = (*googleOAuthService)(nil)

// ExchangeAndVerify trades the authorization code for tokens and validates
// the returned ID token against our client ID.
func (s *googleOAuthService) ExchangeAndVerify(ctx context.Context, code string) (*portssvc.GoogleUserInfo, error) {
	token, err := s.oauth2Config.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("%w: code exchange failed: %v", apperrors.ErrUnauthorized, err)
	}

	rawIDToken, ok := token.Extra("id_token").(string)
	if !ok || rawIDToken == "" {
		return nil, fmt.Errorf("%w: no id_token in exchange response", apperrors.ErrUnauthorized)
	}

	payload, err := idtoken.Validate(ctx, rawIDToken, s.clientID)
	if err != nil {
		return nil, fmt.Errorf("%w: id_token validation failed: %v", apperrors.ErrUnauthorized, err)
	}

	info := &portssvc.GoogleUserInfo{Subject: payload.Subject}
	if email, ok := payload.Claims["email"].(string); ok {
		info.Email = email
	}
	if name, ok := payload.Claims["name"].(string); ok {
		info.Name = name
	}
	return info, nil
}
