package providers

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/renderdesk/renderdesk/internal/apperrors"
	"github.com/renderdesk/renderdesk/internal/core/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestHuggingFace(serverURL string) *HuggingFace {
	p := NewHuggingFace("stabilityai/stable-diffusion-2", "test-key")
	p.baseURL = serverURL
	return p
}

var testRequest = ports.GenerateRequest{
	Prompt: "modern interior",
	Width:  1024,
	Height: 1024,
}

func TestExecutorReturnsImageBytes(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		w.Write([]byte("png-bytes"))
	}))
	defer server.Close()

	executor := NewExecutor(newTestHuggingFace(server.URL), 5*time.Second)

	data, err := executor.Execute(context.Background(), testRequest)

	require.NoError(t, err)
	assert.Equal(t, []byte("png-bytes"), data)
	assert.Equal(t, "huggingface", executor.ProviderName())
}

func TestExecutorClassifiesUnavailableAsRetryable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model is loading", http.StatusServiceUnavailable)
	}))
	defer server.Close()

	executor := NewExecutor(newTestHuggingFace(server.URL), 5*time.Second)

	_, err := executor.Execute(context.Background(), testRequest)

	var retryable *apperrors.RetryableError
	require.ErrorAs(t, err, &retryable)
	assert.Equal(t, apperrors.ReasonProviderUnavailable, retryable.Reason)
	assert.Equal(t, 30*time.Second, retryable.RetryAfter)
}

func TestExecutorClassifiesAuthFailureAsFatal(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "invalid token", http.StatusUnauthorized)
	}))
	defer server.Close()

	executor := NewExecutor(newTestHuggingFace(server.URL), 5*time.Second)

	_, err := executor.Execute(context.Background(), testRequest)

	var fatal *apperrors.FatalError
	require.ErrorAs(t, err, &fatal)
	assert.Equal(t, apperrors.ReasonUnauthorized, fatal.Reason)
}

func TestExecutorClassifiesBadRequestAsFatal(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "prompt rejected", http.StatusUnprocessableEntity)
	}))
	defer server.Close()

	executor := NewExecutor(newTestHuggingFace(server.URL), 5*time.Second)

	_, err := executor.Execute(context.Background(), testRequest)

	var fatal *apperrors.FatalError
	require.ErrorAs(t, err, &fatal)
	assert.Equal(t, apperrors.ReasonInvalidRequest, fatal.Reason)
}

func TestExecutorEnforcesDeadline(t *testing.T) {
	started := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		close(started)
		// Drain the body so the server starts its background read and can
		// observe the client disconnect; otherwise r.Context() is never
		// canceled and the deferred Close blocks forever.
		io.Copy(io.Discard, r.Body)
		<-r.Context().Done()
	}))
	defer server.Close()

	executor := NewExecutor(newTestHuggingFace(server.URL), 50*time.Millisecond)

	start := time.Now()
	_, err := executor.Execute(context.Background(), testRequest)

	<-started
	var retryable *apperrors.RetryableError
	require.ErrorAs(t, err, &retryable)
	assert.Equal(t, apperrors.ReasonTimeout, retryable.Reason)
	assert.Less(t, time.Since(start), 2*time.Second)
}

func TestExecutorRejectsEmptyResult(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	executor := NewExecutor(newTestHuggingFace(server.URL), 5*time.Second)

	_, err := executor.Execute(context.Background(), testRequest)

	var fatal *apperrors.FatalError
	require.ErrorAs(t, err, &fatal)
	assert.Equal(t, apperrors.ReasonEmptyResult, fatal.Reason)
}

func TestExecutorTreatsConnectionFailureAsRetryable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close() // connection refused from here on

	executor := NewExecutor(newTestHuggingFace(server.URL), 5*time.Second)

	_, err := executor.Execute(context.Background(), testRequest)

	var retryable *apperrors.RetryableError
	require.ErrorAs(t, err, &retryable)
}

func TestPollinationsEscapesPrompt(t *testing.T) {
	var gotPath string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.EscapedPath()
		w.Write([]byte("png-bytes"))
	}))
	defer server.Close()

	p := NewPollinations(server.URL)

	data, err := p.Generate(context.Background(), ports.GenerateRequest{
		Prompt: "cozy room, warm light",
		Width:  512,
		Height: 512,
	})

	require.NoError(t, err)
	assert.Equal(t, []byte("png-bytes"), data)
	assert.Contains(t, gotPath, "/prompt/cozy%20room%2C%20warm%20light")
}
