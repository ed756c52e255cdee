package repositories

import (
	"context"
	"time"
)

// AdminAction is an audit record of an administrative operation.
type AdminAction struct {
	ActionID     string
	AdminID      string
	ActionType   string
	TargetUserID string
	Details      map[string]any
	CreatedAt    time.Time
}

// AdminActionRepository records the admin audit trail. Writes are best-effort:
// callers log failures but never fail the primary operation on them.
type AdminActionRepository interface {
	SaveAdminAction(ctx context.Context, action AdminAction) error
}
