package dto

import "time"

// RegisterRequest is the payload for username/password signup.
type RegisterRequest struct {
	Username    string `json:"username" binding:"required,min=3,max=64"`
	Password    string `json:"password" binding:"required,min=8"`
	DisplayName string `json:"displayName" binding:"max=128"`
}

// LoginRequest is the payload for username/password login.
type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// LoginResponse carries the issued access token. The refresh token travels in
// an HTTP-only cookie, not in the body.
type LoginResponse struct {
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expiresAt"`
	User      UserResponse `json:"user"`
}

// ExchangeCodeRequest carries the Google OAuth authorization code.
type ExchangeCodeRequest struct {
	Code string `json:"code" binding:"required"`
}

// RefreshRequest identifies the account whose refresh token cookie should be
// rotated.
type RefreshRequest struct {
	UserID string `json:"userID" binding:"required"`
}
