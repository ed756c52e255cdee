package services

import (
	"context"

	"github.com/renderdesk/renderdesk/internal/dto"
)

// RenderSvcFacade runs the credit-metered render workflow: reserve credits,
// execute the provider call, then commit the artifact or refund.
type RenderSvcFacade interface {
	Render(ctx context.Context, userID string, req dto.RenderRequest) (*dto.RenderResponse, error)

	// UploadBefore stores a source photo in the caller's project and returns
	// its path for use in a later render request.
	UploadBefore(ctx context.Context, userID string, projectID string, filename string, contentType string, data []byte) (*dto.UploadResponse, error)
	ListProjectRenders(ctx context.Context, userID string, projectID string, limit int, offset int) ([]dto.RenderRecordResponse, error)
	ListUserRenders(ctx context.Context, userID string, limit int, offset int) ([]dto.RenderRecordResponse, error)
}
