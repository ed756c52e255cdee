package dto

import (
	"time"

	"github.com/renderdesk/renderdesk/internal/core/domain"
)

// UserResponse is the public view of a user.
type UserResponse struct {
	UserID      string    `json:"userID"`
	Username    string    `json:"username"`
	DisplayName string    `json:"displayName"`
	IsAdmin     bool      `json:"isAdmin"`
	Blocked     bool      `json:"blocked"`
	Credits     int64     `json:"credits"`
	CreatedAt   time.Time `json:"createdAt"`
}

// ToUserResponse maps a domain user to its public view.
func ToUserResponse(u *domain.User) UserResponse {
	return UserResponse{
		UserID:      u.UserID,
		Username:    u.Username,
		DisplayName: u.DisplayName,
		IsAdmin:     u.IsAdmin,
		Blocked:     u.Blocked,
		Credits:     u.Credits,
		CreatedAt:   u.CreatedAt,
	}
}

// CreditEntryResponse is one row of a user's ledger history.
type CreditEntryResponse struct {
	EntryID   string         `json:"entryID"`
	ProjectID *string        `json:"projectID,omitempty"`
	EntryType string         `json:"entryType"`
	Amount    int64          `json:"amount"`
	Detail    map[string]any `json:"detail,omitempty"`
	CreatedAt time.Time      `json:"createdAt"`
}

// ToCreditEntryResponse maps a ledger entry to its API view.
func ToCreditEntryResponse(e domain.CreditEntry) CreditEntryResponse {
	return CreditEntryResponse{
		EntryID:   e.EntryID,
		ProjectID: e.ProjectID,
		EntryType: string(e.EntryType),
		Amount:    e.Amount,
		Detail:    e.Detail,
		CreatedAt: e.CreatedAt,
	}
}

// BalanceResponse reports a user's current credit balance.
type BalanceResponse struct {
	UserID  string `json:"userID"`
	Credits int64  `json:"credits"`
}
