package services

import (
	"context"

	"github.com/renderdesk/renderdesk/internal/core/domain"
	"github.com/renderdesk/renderdesk/internal/dto"
)

// ProjectSvcFacade manages user projects.
type ProjectSvcFacade interface {
	CreateProject(ctx context.Context, userID string, req dto.CreateProjectRequest) (*domain.Project, error)

	// GetProjectForUser returns the project only if it belongs to userID;
	// otherwise apperrors.ErrForbidden.
	GetProjectForUser(ctx context.Context, userID string, projectID string) (*domain.Project, error)

	ListProjects(ctx context.Context, userID string, limit int, offset int) ([]domain.Project, error)
}
