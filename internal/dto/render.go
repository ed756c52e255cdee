package dto

import (
	"time"

	"github.com/renderdesk/renderdesk/internal/core/domain"
)

// RenderRequest asks for one restyled render of an uploaded photo.
type RenderRequest struct {
	ProjectID  string `json:"projectID" binding:"required"`
	StyleID    string `json:"styleID" binding:"required"`
	BeforePath string `json:"beforePath" binding:"required"`
}

// UploadResponse reports a stored source photo.
type UploadResponse struct {
	Path string `json:"path"`
	URL  string `json:"url,omitempty"`
}

// RenderResponse reports a committed render.
type RenderResponse struct {
	RenderID         string `json:"renderID"`
	AfterPath        string `json:"afterPath"`
	AfterURL         string `json:"afterURL,omitempty"`
	Provider         string `json:"provider"`
	CreditsRemaining int64  `json:"creditsRemaining"`
}

// RenderRecordResponse is the list view of a stored render.
type RenderRecordResponse struct {
	RenderID   string    `json:"renderID"`
	ProjectID  string    `json:"projectID"`
	StyleID    string    `json:"styleID"`
	BeforePath string    `json:"beforePath"`
	AfterPath  string    `json:"afterPath"`
	Provider   string    `json:"provider"`
	CreatedAt  time.Time `json:"createdAt"`
}

// ToRenderRecordResponse maps a stored render to its list view.
func ToRenderRecordResponse(r domain.Render) RenderRecordResponse {
	return RenderRecordResponse{
		RenderID:   r.RenderID,
		ProjectID:  r.ProjectID,
		StyleID:    r.StyleID,
		BeforePath: r.BeforePath,
		AfterPath:  r.AfterPath,
		Provider:   r.Provider,
		CreatedAt:  r.CreatedAt,
	}
}
