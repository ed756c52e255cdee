package providers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/renderdesk/renderdesk/internal/core/ports"
)

const huggingFaceBaseURL = "https://api-inference.huggingface.co"

// HuggingFace calls the Hugging Face inference API synchronously. The API
// returns raw image bytes on success and 503 while the model is warming up.
type HuggingFace struct {
	client  *http.Client
	baseURL string
	model   string
	apiKey  string
}

// NewHuggingFace creates a Hugging Face provider for the given model.
func NewHuggingFace(model string, apiKey string) *HuggingFace {
	return &HuggingFace{
		client:  http.DefaultClient,
		baseURL: huggingFaceBaseURL,
		model:   model,
		apiKey:  apiKey,
	}
}

var _ ports.RenderProvider = (*HuggingFace)(nil)

func (p *HuggingFace) Name() string { return "huggingface" }

type hfRequest struct {
	Inputs     string       `json:"inputs"`
	Parameters hfParameters `json:"parameters"`
	Options    hfOptions    `json:"options"`
}

type hfParameters struct {
	NumInferenceSteps int     `json:"num_inference_steps"`
	GuidanceScale     float64 `json:"guidance_scale"`
	Width             int     `json:"width"`
	Height            int     `json:"height"`
}

type hfOptions struct {
	WaitForModel bool `json:"wait_for_model"`
	UseCache     bool `json:"use_cache"`
}

// Generate posts the prompt and returns the image bytes from the response body.
func (p *HuggingFace) Generate(ctx context.Context, req ports.GenerateRequest) ([]byte, error) {
	payload := hfRequest{
		Inputs: req.Prompt,
		Parameters: hfParameters{
			NumInferenceSteps: 15,
			GuidanceScale:     7.5,
			Width:             req.Width,
			Height:            req.Height,
		},
		Options: hfOptions{WaitForModel: true, UseCache: false},
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal hugging face request: %w", err)
	}

	url := fmt.Sprintf("%s/models/%s", p.baseURL, p.model)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build hugging face request: %w", err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+p.apiKey)
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("hugging face request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		errText, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, classifyStatus(p.Name(), resp.StatusCode, string(errText))
	}

	return io.ReadAll(resp.Body)
}
