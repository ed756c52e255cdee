package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/renderdesk/renderdesk/internal/apperrors"
	"github.com/renderdesk/renderdesk/internal/core/domain"
	portsrepo "github.com/renderdesk/renderdesk/internal/core/ports/repositories"
	portssvc "github.com/renderdesk/renderdesk/internal/core/ports/services"
	"github.com/renderdesk/renderdesk/internal/dto"
)

// styleService manages the style catalog. Catalog mutations are admin-only.
type styleService struct {
	BaseService
	styleRepo portsrepo.StyleRepository
	userRepo  portsrepo.UserRepository
}

// NewStyleService creates the style catalog service.
func NewStyleService(styleRepo portsrepo.StyleRepository, userRepo portsrepo.UserRepository) portssvc.StyleSvcFacade {
	return &styleService{styleRepo: styleRepo, userRepo: userRepo}
}

var _ portssvc.StyleSvcFacade = (*styleService)(nil)

func (s *styleService) CreateStyle(ctx context.Context, adminUserID string, req dto.CreateStyleRequest) (*domain.Style, error) {
	if err := s.requireAdmin(ctx, adminUserID); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	style := domain.Style{
		StyleID:     uuid.NewString(),
		Name:        req.Name,
		Description: req.Description,
		Prompt:      req.Prompt,
		IsActive:    true,
		AuditFields: domain.AuditFields{
			CreatedAt:     now,
			CreatedBy:     adminUserID,
			LastUpdatedAt: now,
			LastUpdatedBy: adminUserID,
		},
	}
	if err := s.styleRepo.SaveStyle(ctx, style); err != nil {
		return nil, err
	}
	return &style, nil
}

func (s *styleService) UpdateStyle(ctx context.Context, adminUserID string, styleID string, req dto.UpdateStyleRequest) (*domain.Style, error) {
	if err := s.requireAdmin(ctx, adminUserID); err != nil {
		return nil, err
	}

	style, err := s.styleRepo.FindStyleByID(ctx, styleID)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		style.Name = *req.Name
	}
	if req.Description != nil {
		style.Description = *req.Description
	}
	if req.Prompt != nil {
		style.Prompt = *req.Prompt
	}
	if req.IsActive != nil {
		style.IsActive = *req.IsActive
	}
	style.LastUpdatedAt = time.Now().UTC()
	style.LastUpdatedBy = adminUserID

	if err := s.styleRepo.UpdateStyle(ctx, *style); err != nil {
		return nil, err
	}
	return style, nil
}

func (s *styleService) GetStyleByID(ctx context.Context, styleID string) (*domain.Style, error) {
	return s.styleRepo.FindStyleByID(ctx, styleID)
}

func (s *styleService) ListStyles(ctx context.Context, includeInactive bool) ([]domain.Style, error) {
	return s.styleRepo.ListStyles(ctx, includeInactive)
}

func (s *styleService) requireAdmin(ctx context.Context, userID string) error {
	user, err := s.userRepo.FindUserByID(ctx, userID)
	if err != nil {
		return err
	}
	if !user.IsAdmin {
		return fmt.Errorf("%w: user %s is not an administrator", apperrors.ErrForbidden, userID)
	}
	return nil
}
