package providers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/renderdesk/renderdesk/internal/apperrors"
	"github.com/renderdesk/renderdesk/internal/core/ports"
)

const openAIBaseURL = "https://api.openai.com"

// OpenAI calls the DALL-E image generation endpoint. The response carries a
// URL rather than bytes, so a second request downloads the image.
type OpenAI struct {
	client  *http.Client
	baseURL string
	apiKey  string
}

// NewOpenAI creates an OpenAI provider.
func NewOpenAI(apiKey string) *OpenAI {
	return &OpenAI{client: http.DefaultClient, baseURL: openAIBaseURL, apiKey: apiKey}
}

var _ ports.RenderProvider = (*OpenAI)(nil)

func (p *OpenAI) Name() string { return "openai" }

type openAIResponse struct {
	Data []struct {
		URL string `json:"url"`
	} `json:"data"`
}

// Generate requests one dall-e-3 image and downloads it.
func (p *OpenAI) Generate(ctx context.Context, req ports.GenerateRequest) ([]byte, error) {
	payload := map[string]any{
		"model":   "dall-e-3",
		"prompt":  req.Prompt,
		"n":       1,
		"size":    "1024x1024",
		"quality": "standard",
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal openai request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/v1/images/generations", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build openai request: %w", err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+p.apiKey)
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("openai request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		errText, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, classifyStatus(p.Name(), resp.StatusCode, string(errText))
	}

	var result openAIResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode openai response: %w", err)
	}
	if len(result.Data) == 0 || result.Data[0].URL == "" {
		return nil, &apperrors.FatalError{Reason: apperrors.ReasonEmptyResult}
	}

	return p.download(ctx, result.Data[0].URL)
}

func (p *OpenAI) download(ctx context.Context, url string) ([]byte, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build image download request: %w", err)
	}
	resp, err := p.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("failed to download openai image: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, classifyStatus(p.Name(), resp.StatusCode, "image download failed")
	}
	return io.ReadAll(resp.Body)
}
