package repositories

import (
	"context"

	"github.com/renderdesk/renderdesk/internal/core/domain"
)

// StyleRepository persists the style catalog.
type StyleRepository interface {
	SaveStyle(ctx context.Context, style domain.Style) error
	FindStyleByID(ctx context.Context, styleID string) (*domain.Style, error)
	UpdateStyle(ctx context.Context, style domain.Style) error
	ListStyles(ctx context.Context, includeInactive bool) ([]domain.Style, error)
}
