package services

import (
	"context"

	"github.com/renderdesk/renderdesk/internal/core/domain"
	"github.com/renderdesk/renderdesk/internal/dto"
)

// StyleSvcFacade manages the style catalog. Mutations are admin-only.
type StyleSvcFacade interface {
	CreateStyle(ctx context.Context, adminUserID string, req dto.CreateStyleRequest) (*domain.Style, error)
	UpdateStyle(ctx context.Context, adminUserID string, styleID string, req dto.UpdateStyleRequest) (*domain.Style, error)
	GetStyleByID(ctx context.Context, styleID string) (*domain.Style, error)
	ListStyles(ctx context.Context, includeInactive bool) ([]domain.Style, error)
}
