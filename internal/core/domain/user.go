package domain

import "time"

// User represents an authenticated account holder in the domain.
// Credits is the user's current balance; it never goes negative (enforced by the
// ledger repository's atomic debit) and a blocked user may not initiate new debits.
type User struct {
	UserID       string `json:"userID"` // Primary Key (UUID)
	Username     string `json:"username"`
	PasswordHash string `json:"-"`
	DisplayName  string `json:"displayName"`
	IsAdmin      bool   `json:"isAdmin"`
	Blocked      bool   `json:"blocked"`
	Credits      int64  `json:"credits"`
	AuditFields
	DeletedAt *time.Time `json:"deletedAt,omitempty"` // Soft delete only, users are never hard-deleted

	// Refresh token rotation state
	RefreshTokenHash       *string    `json:"-"`
	RefreshTokenExpiryTime *time.Time `json:"-"`
}
