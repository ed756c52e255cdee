package ports

import "context"

// GenerateRequest carries everything a provider needs for one render.
type GenerateRequest struct {
	Prompt    string
	BeforeURL string // signed URL of the source photo; empty for prompt-only providers
	Width     int
	Height    int
}

// RenderProvider is implemented by each external image-generation backend.
// Generate returns the raw image bytes, or an error classified as
// apperrors.RetryableError / apperrors.FatalError where the provider's status
// makes the classification possible. Providers must honor ctx cancellation.
type RenderProvider interface {
	Name() string
	Generate(ctx context.Context, req GenerateRequest) ([]byte, error)
}

// RenderExecutor runs the paid external call under a bounded deadline and
// normalizes every outcome. It never touches the ledger.
type RenderExecutor interface {
	ProviderName() string
	Execute(ctx context.Context, req GenerateRequest) ([]byte, error)
}
