package dto

// AdjustCreditsRequest grants or removes credits from a user. Delta is signed;
// a negative delta debits the target.
type AdjustCreditsRequest struct {
	TargetUserID string `json:"targetUserID" binding:"required"`
	Delta        int64  `json:"delta" binding:"required"`
	Reason       string `json:"reason" binding:"max=256"`
}

// SetBlockedRequest blocks or unblocks a user.
type SetBlockedRequest struct {
	TargetUserID string `json:"targetUserID" binding:"required"`
	Blocked      *bool  `json:"blocked" binding:"required"`
	Reason       string `json:"reason" binding:"max=256"`
}
