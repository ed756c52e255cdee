package domain

// Style is a catalog entry describing a design style users can request.
// Prompt is the full text sent to the image provider for this style.
type Style struct {
	StyleID     string `json:"styleID"` // Primary Key (UUID)
	Name        string `json:"name"`
	Description string `json:"description"`
	Prompt      string `json:"prompt"`
	IsActive    bool   `json:"isActive"`
	AuditFields
}
