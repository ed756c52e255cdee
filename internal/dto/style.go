package dto

import "github.com/renderdesk/renderdesk/internal/core/domain"

// CreateStyleRequest adds a style to the catalog.
type CreateStyleRequest struct {
	Name        string `json:"name" binding:"required,max=64"`
	Description string `json:"description" binding:"max=512"`
	Prompt      string `json:"prompt" binding:"required"`
}

// UpdateStyleRequest edits a catalog entry. Nil fields are left unchanged.
type UpdateStyleRequest struct {
	Name        *string `json:"name,omitempty"`
	Description *string `json:"description,omitempty"`
	Prompt      *string `json:"prompt,omitempty"`
	IsActive    *bool   `json:"isActive,omitempty"`
}

// StyleResponse is the public view of a style.
type StyleResponse struct {
	StyleID     string `json:"styleID"`
	Name        string `json:"name"`
	Description string `json:"description"`
	IsActive    bool   `json:"isActive"`
}

// ToStyleResponse maps a domain style to its public view. The prompt text is
// deliberately not exposed.
func ToStyleResponse(s domain.Style) StyleResponse {
	return StyleResponse{
		StyleID:     s.StyleID,
		Name:        s.Name,
		Description: s.Description,
		IsActive:    s.IsActive,
	}
}
