package ports

import (
	"context"

	"github.com/renderdesk/renderdesk/internal/core/domain"
)

// UsageEventPublisher streams ledger entries to an external audit topic.
// Publishing is best-effort; callers log failures and continue.
type UsageEventPublisher interface {
	PublishCreditEntry(ctx context.Context, entry domain.CreditEntry) error
	Close() error
}
