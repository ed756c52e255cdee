package repositories

import (
	"context"

	"github.com/renderdesk/renderdesk/internal/core/domain"
)

// RenderRepository records completed render artifacts. Insert-only: a render
// row is written once, after the output object exists in the content store.
type RenderRepository interface {
	SaveRender(ctx context.Context, render domain.Render) error
	FindRenderByID(ctx context.Context, renderID string) (*domain.Render, error)
	ListRendersByProject(ctx context.Context, projectID string, limit int, offset int) ([]domain.Render, error)
	ListRendersByUser(ctx context.Context, userID string, limit int, offset int) ([]domain.Render, error)
}
