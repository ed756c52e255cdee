package providers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/renderdesk/renderdesk/internal/apperrors"
	"github.com/renderdesk/renderdesk/internal/core/ports"
)

const replicateBaseURL = "https://api.replicate.com"

// Replicate drives the asynchronous submit/poll prediction API: create a
// prediction, then poll at a fixed interval up to a bounded attempt count.
// Terminal states are "succeeded" and "failed"; running out of attempts is a
// retryable timeout.
type Replicate struct {
	client       *http.Client
	baseURL      string
	token        string
	modelVersion string
	pollInterval time.Duration
	maxAttempts  int
}

// NewReplicate creates a Replicate provider pinned to one model version.
func NewReplicate(token string, modelVersion string, pollInterval time.Duration, maxAttempts int) *Replicate {
	return &Replicate{
		client:       http.DefaultClient,
		baseURL:      replicateBaseURL,
		token:        token,
		modelVersion: modelVersion,
		pollInterval: pollInterval,
		maxAttempts:  maxAttempts,
	}
}

var _ ports.RenderProvider = (*Replicate)(nil)

func (p *Replicate) Name() string { return "replicate" }

type replicatePrediction struct {
	ID     string   `json:"id"`
	Status string   `json:"status"`
	Output []string `json:"output"`
	Error  string   `json:"error"`
}

// Generate submits a prediction and polls it to completion.
func (p *Replicate) Generate(ctx context.Context, req ports.GenerateRequest) ([]byte, error) {
	payload := map[string]any{
		"version": p.modelVersion,
		"input": map[string]any{
			"prompt":              req.Prompt,
			"width":               req.Width,
			"height":              req.Height,
			"num_inference_steps": 15,
			"guidance_scale":      7.5,
		},
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal replicate request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/v1/predictions", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build replicate request: %w", err)
	}
	httpReq.Header.Set("Authorization", "Token "+p.token)
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("replicate submit failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated && resp.StatusCode != http.StatusOK {
		errText, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, classifyStatus(p.Name(), resp.StatusCode, string(errText))
	}

	var prediction replicatePrediction
	if err := json.NewDecoder(resp.Body).Decode(&prediction); err != nil {
		return nil, fmt.Errorf("failed to decode replicate prediction: %w", err)
	}

	return p.poll(ctx, prediction.ID)
}

// poll checks the prediction status every pollInterval, at most maxAttempts times.
func (p *Replicate) poll(ctx context.Context, predictionID string) ([]byte, error) {
	ticker := time.NewTicker(p.pollInterval)
	defer ticker.Stop()

	for attempt := 0; attempt < p.maxAttempts; attempt++ {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
		}

		status, err := p.getPrediction(ctx, predictionID)
		if err != nil {
			return nil, err
		}

		switch status.Status {
		case "succeeded":
			if len(status.Output) == 0 {
				return nil, &apperrors.FatalError{Reason: apperrors.ReasonEmptyResult}
			}
			return p.download(ctx, status.Output[0])
		case "failed":
			return nil, &apperrors.FatalError{
				Reason: apperrors.ReasonGenerationFailed,
				Err:    fmt.Errorf("replicate prediction failed: %s", status.Error),
			}
		}
	}

	return nil, &apperrors.RetryableError{
		Reason:     apperrors.ReasonTimeout,
		RetryAfter: defaultRetryAfter,
		Err:        fmt.Errorf("prediction %s not terminal after %d attempts", predictionID, p.maxAttempts),
	}
}

func (p *Replicate) getPrediction(ctx context.Context, predictionID string) (*replicatePrediction, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, p.baseURL+"/v1/predictions/"+predictionID, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build replicate status request: %w", err)
	}
	httpReq.Header.Set("Authorization", "Token "+p.token)

	resp, err := p.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("replicate status poll failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		errText, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, classifyStatus(p.Name(), resp.StatusCode, string(errText))
	}

	var prediction replicatePrediction
	if err := json.NewDecoder(resp.Body).Decode(&prediction); err != nil {
		return nil, fmt.Errorf("failed to decode replicate status: %w", err)
	}
	return &prediction, nil
}

func (p *Replicate) download(ctx context.Context, url string) ([]byte, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build output download request: %w", err)
	}
	resp, err := p.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("failed to download replicate output: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, classifyStatus(p.Name(), resp.StatusCode, "output download failed")
	}
	return io.ReadAll(resp.Body)
}
