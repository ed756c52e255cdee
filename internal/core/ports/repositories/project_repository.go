package repositories

import (
	"context"

	"github.com/renderdesk/renderdesk/internal/core/domain"
)

// ProjectRepository persists projects.
type ProjectRepository interface {
	SaveProject(ctx context.Context, project domain.Project) error
	FindProjectByID(ctx context.Context, projectID string) (*domain.Project, error)
	ListProjectsByUser(ctx context.Context, userID string, limit int, offset int) ([]domain.Project, error)
}
