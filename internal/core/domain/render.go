package domain

import "time"

// Render is the persisted artifact of a successfully completed restyling
// operation. It is created only after the output bytes are durably stored in
// the content store; AfterPath never references a missing object.
type Render struct {
	RenderID   string    `json:"renderID"` // Primary Key (UUID)
	ProjectID  string    `json:"projectID"`
	UserID     string    `json:"userID"`
	StyleID    string    `json:"styleID"`
	BeforePath string    `json:"beforePath"`
	AfterPath  string    `json:"afterPath"`
	Provider   string    `json:"provider"` // provider that produced the output
	CreatedAt  time.Time `json:"createdAt"`
}
