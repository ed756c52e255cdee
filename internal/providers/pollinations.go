package providers

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/renderdesk/renderdesk/internal/core/ports"
)

// Pollinations calls the free image service: a single GET with the prompt in
// the path returns the image bytes directly. No API key required.
type Pollinations struct {
	client  *http.Client
	baseURL string
}

// NewPollinations creates a Pollinations provider.
func NewPollinations(baseURL string) *Pollinations {
	return &Pollinations{client: http.DefaultClient, baseURL: baseURL}
}

var _ ports.RenderProvider = (*Pollinations)(nil)

func (p *Pollinations) Name() string { return "pollinations" }

// Generate fetches the rendered prompt image.
func (p *Pollinations) Generate(ctx context.Context, req ports.GenerateRequest) ([]byte, error) {
	endpoint := fmt.Sprintf("%s/prompt/%s?width=%d&height=%d&model=flux&enhance=true",
		p.baseURL, url.PathEscape(req.Prompt), req.Width, req.Height)

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build pollinations request: %w", err)
	}

	resp, err := p.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("pollinations request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		errText, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, classifyStatus(p.Name(), resp.StatusCode, string(errText))
	}

	return io.ReadAll(resp.Body)
}
