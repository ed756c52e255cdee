package domain

// Project groups a user's uploaded photos and renders.
type Project struct {
	ProjectID string `json:"projectID"` // Primary Key (UUID)
	UserID    string `json:"userID"`
	Name      string `json:"name"`
	AuditFields
}
