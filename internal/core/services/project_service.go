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

// projectService manages projects and enforces per-user ownership.
type projectService struct {
	BaseService
	projectRepo portsrepo.ProjectRepository
}

// NewProjectService creates the project service.
func NewProjectService(projectRepo portsrepo.ProjectRepository) portssvc.ProjectSvcFacade {
	return &projectService{projectRepo: projectRepo}
}

var _ portssvc.ProjectSvcFacade = (*projectService)(nil)

func (s *projectService) CreateProject(ctx context.Context, userID string, req dto.CreateProjectRequest) (*domain.Project, error) {
	now := time.Now().UTC()
	project := domain.Project{
		ProjectID: uuid.NewString(),
		UserID:    userID,
		Name:      req.Name,
		AuditFields: domain.AuditFields{
			CreatedAt:     now,
			CreatedBy:     userID,
			LastUpdatedAt: now,
			LastUpdatedBy: userID,
		},
	}
	if err := s.projectRepo.SaveProject(ctx, project); err != nil {
		return nil, err
	}
	return &project, nil
}

// GetProjectForUser returns the project only when it belongs to userID.
func (s *projectService) GetProjectForUser(ctx context.Context, userID string, projectID string) (*domain.Project, error) {
	project, err := s.projectRepo.FindProjectByID(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if project.UserID != userID {
		return nil, fmt.Errorf("%w: project %s does not belong to user", apperrors.ErrForbidden, projectID)
	}
	return project, nil
}

func (s *projectService) ListProjects(ctx context.Context, userID string, limit int, offset int) ([]domain.Project, error) {
	return s.projectRepo.ListProjectsByUser(ctx, userID, limit, offset)
}
