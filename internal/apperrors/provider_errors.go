package apperrors

import (
	"fmt"
	"time"
)

// Failure reasons reported by the render executor.
const (
	ReasonTimeout             = "timeout"
	ReasonProviderUnavailable = "provider_unavailable"
	ReasonUnauthorized        = "unauthorized"
	ReasonInvalidRequest      = "invalid_request"
	ReasonEmptyResult         = "empty_result"
	ReasonGenerationFailed    = "generation_failed"
)

// RetryableError reports a transient provider failure. The operation was not
// completed and the caller may retry after RetryAfter.
type RetryableError struct {
	Reason     string
	RetryAfter time.Duration
	Err        error
}

func (e *RetryableError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("retryable provider failure (%s): %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("retryable provider failure (%s)", e.Reason)
}

func (e *RetryableError) Unwrap() error { return e.Err }

// FatalError reports a provider failure that will not succeed on retry, such as
// a rejected request or an authentication problem.
type FatalError struct {
	Reason string
	Err    error
}

func (e *FatalError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("fatal provider failure (%s): %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("fatal provider failure (%s)", e.Reason)
}

func (e *FatalError) Unwrap() error { return e.Err }
