package dto

import (
	"time"

	"github.com/renderdesk/renderdesk/internal/core/domain"
)

// CreateProjectRequest creates a new project.
type CreateProjectRequest struct {
	Name string `json:"name" binding:"required,max=128"`
}

// ProjectResponse is the public view of a project.
type ProjectResponse struct {
	ProjectID string    `json:"projectID"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"createdAt"`
}

// ToProjectResponse maps a domain project to its public view.
func ToProjectResponse(p *domain.Project) ProjectResponse {
	return ProjectResponse{
		ProjectID: p.ProjectID,
		Name:      p.Name,
		CreatedAt: p.CreatedAt,
	}
}
