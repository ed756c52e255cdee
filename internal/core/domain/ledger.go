package domain

import "time"

// CreditEntryType categorizes a ledger entry.
type CreditEntryType string

const (
	EntryTypeRender       CreditEntryType = "render"        // debit for a render attempt
	EntryTypeRenderRefund CreditEntryType = "render_refund" // compensating credit after a failed render
	EntryTypeSignupGrant  CreditEntryType = "signup_grant"  // initial grant on profile creation
	EntryTypeAdminCredit  CreditEntryType = "admin_credit"  // administrative balance adjustment
)

// CreditEntry is an immutable, append-only record of a single balance change.
// The sum of all entries for a user equals the user's current credit balance.
type CreditEntry struct {
	EntryID   string          `json:"entryID"` // Primary Key (UUID)
	UserID    string          `json:"userID"`
	ProjectID *string         `json:"projectID,omitempty"`
	EntryType CreditEntryType `json:"entryType"`
	Amount    int64           `json:"amount"` // signed delta, negative for debits
	Detail    map[string]any  `json:"detail,omitempty"`
	CreatedAt time.Time       `json:"createdAt"`
}
