package providers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/renderdesk/renderdesk/internal/apperrors"
	"github.com/renderdesk/renderdesk/internal/core/ports"
	"github.com/renderdesk/renderdesk/pkg/config"
)

// defaultRetryAfter is the hint returned with transient failures, matching the
// "try again in 30 seconds" guidance surfaced to users.
const defaultRetryAfter = 30 * time.Second

// Executor runs a single configured provider under a bounded deadline and
// normalizes every outcome into image bytes, a RetryableError or a FatalError.
// It holds no ledger state; compensation is the render service's job.
type Executor struct {
	provider ports.RenderProvider
	timeout  time.Duration
}

// NewExecutor wraps provider with deadline enforcement.
func NewExecutor(provider ports.RenderProvider, timeout time.Duration) *Executor {
	return &Executor{provider: provider, timeout: timeout}
}

var _ ports.RenderExecutor = (*Executor)(nil)

// ProviderName reports which backend this executor drives.
func (e *Executor) ProviderName() string {
	return e.provider.Name()
}

// Execute invokes the provider. The deadline is enforced here because
// providers are not trusted to respect it: the derived context cancels the
// in-flight call, and expiry is reported as a retryable timeout.
func (e *Executor) Execute(ctx context.Context, req ports.GenerateRequest) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	data, err := e.provider.Generate(ctx, req)
	if err != nil {
		var retryable *apperrors.RetryableError
		if errors.As(err, &retryable) {
			return nil, retryable
		}
		var fatal *apperrors.FatalError
		if errors.As(err, &fatal) {
			return nil, fatal
		}
		if errors.Is(err, context.DeadlineExceeded) || ctx.Err() != nil {
			return nil, &apperrors.RetryableError{
				Reason:     apperrors.ReasonTimeout,
				RetryAfter: defaultRetryAfter,
				Err:        err,
			}
		}
		// Unclassified transport failures are assumed transient.
		return nil, &apperrors.RetryableError{
			Reason:     apperrors.ReasonProviderUnavailable,
			RetryAfter: defaultRetryAfter,
			Err:        err,
		}
	}

	if len(data) == 0 {
		return nil, &apperrors.FatalError{Reason: apperrors.ReasonEmptyResult}
	}
	return data, nil
}

// FromConfig builds the configured provider. Unknown values fall back to
// Hugging Face.
func FromConfig(cfg *config.Config) ports.RenderProvider {
	switch cfg.AIService {
	case "replicate":
		return NewReplicate(cfg.ReplicateAPIToken, cfg.ReplicateModelVer, cfg.ReplicatePollEvery, cfg.ReplicateMaxAttempts)
	case "openai":
		return NewOpenAI(cfg.OpenAIAPIKey)
	case "pollinations":
		return NewPollinations(cfg.PollinationsBaseURL)
	case "local":
		return NewLocalScript(cfg.LocalScriptPath)
	default:
		return NewHuggingFace(cfg.HuggingFaceModel, cfg.HuggingFaceAPIKey)
	}
}

// classifyStatus maps a provider HTTP status to the failure taxonomy:
// 503/429 transient, auth problems and malformed requests fatal, everything
// else assumed transient.
func classifyStatus(provider string, status int, body string) error {
	err := fmt.Errorf("%s returned status %d: %s", provider, status, body)
	switch status {
	case http.StatusServiceUnavailable, http.StatusTooManyRequests:
		return &apperrors.RetryableError{
			Reason:     apperrors.ReasonProviderUnavailable,
			RetryAfter: defaultRetryAfter,
			Err:        err,
		}
	case http.StatusUnauthorized, http.StatusForbidden:
		return &apperrors.FatalError{Reason: apperrors.ReasonUnauthorized, Err: err}
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		return &apperrors.FatalError{Reason: apperrors.ReasonInvalidRequest, Err: err}
	default:
		return &apperrors.RetryableError{
			Reason:     apperrors.ReasonProviderUnavailable,
			RetryAfter: defaultRetryAfter,
			Err:        err,
		}
	}
}
