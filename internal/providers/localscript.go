package providers

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/renderdesk/renderdesk/internal/apperrors"
	"github.com/renderdesk/renderdesk/internal/core/ports"
)

// LocalScript runs a local Python restyling pipeline instead of a hosted API.
// The source photo is downloaded to a temp file, the script writes the result
// next to it, and the output file is read back. The ctx deadline kills the
// process through exec.CommandContext.
type LocalScript struct {
	client     *http.Client
	scriptPath string
}

// NewLocalScript creates a provider running the script at scriptPath.
func NewLocalScript(scriptPath string) *LocalScript {
	return &LocalScript{client: http.DefaultClient, scriptPath: scriptPath}
}

var _ ports.RenderProvider = (*LocalScript)(nil)

func (p *LocalScript) Name() string { return "local" }

// Generate downloads the source image, runs the pipeline and reads the output.
func (p *LocalScript) Generate(ctx context.Context, req ports.GenerateRequest) ([]byte, error) {
	tmpDir, err := os.MkdirTemp("", "renderdesk-local-*")
	if err != nil {
		return nil, fmt.Errorf("failed to create temp dir: %w", err)
	}
	defer os.RemoveAll(tmpDir)

	inputPath := filepath.Join(tmpDir, "input.png")
	outputPath := filepath.Join(tmpDir, "output.png")

	if req.BeforeURL != "" {
		if err := p.downloadTo(ctx, req.BeforeURL, inputPath); err != nil {
			return nil, err
		}
	}

	cmd := exec.CommandContext(ctx, "python3", p.scriptPath,
		"--prompt", req.Prompt,
		"--input", inputPath,
		"--output", outputPath,
	)
	if out, err := cmd.CombinedOutput(); err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, &apperrors.FatalError{
			Reason: apperrors.ReasonGenerationFailed,
			Err:    fmt.Errorf("local pipeline failed: %w: %s", err, out),
		}
	}

	data, err := os.ReadFile(outputPath)
	if err != nil {
		return nil, &apperrors.FatalError{
			Reason: apperrors.ReasonEmptyResult,
			Err:    fmt.Errorf("local pipeline produced no output: %w", err),
		}
	}
	return data, nil
}

func (p *LocalScript) downloadTo(ctx context.Context, url string, path string) error {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("failed to build source download request: %w", err)
	}
	resp, err := p.client.Do(httpReq)
	if err != nil {
		return fmt.Errorf("failed to download source image: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return classifyStatus(p.Name(), resp.StatusCode, "source image download failed")
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create temp input file: %w", err)
	}
	defer f.Close()

	if _, err := io.Copy(f, resp.Body); err != nil {
		return fmt.Errorf("failed to write temp input file: %w", err)
	}
	return nil
}
