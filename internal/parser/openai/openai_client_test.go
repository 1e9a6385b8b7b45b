package openai_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"invoiceflow/internal/config"
	"invoiceflow/internal/parser"
	"invoiceflow/internal/parser/openai"
	"invoiceflow/internal/port"
)

func newTestClient(serverURL string) *openai.Client {
	cfg := &config.ParserProviderConfig{
		Provider:    "openai",
		APIKey:      "test-openai-key",
		TimeoutSecs: 30,
	}
	return openai.NewClientWithEndpoint(cfg, serverURL)
}

func successResponse(content, finish string) map[string]interface{} {
	return map[string]interface{}{
		"model": "gpt-4o-mini-2024-07-18",
		"choices": []map[string]interface{}{
			{
				"message":       map[string]interface{}{"role": "assistant", "content": content},
				"finish_reason": finish,
			},
		},
	}
}

func TestClient_Complete_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer test-openai-key", r.Header.Get("Authorization"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var reqBody map[string]interface{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&reqBody))
		assert.Equal(t, "gpt-4o-mini", reqBody["model"])
		assert.Equal(t, float64(16000), reqBody["max_tokens"])
		assert.InDelta(t, 0.1, reqBody["temperature"], 1e-6)

		messages := reqBody["messages"].([]interface{})
		require.Len(t, messages, 2)
		sys := messages[0].(map[string]interface{})
		assert.Equal(t, "system", sys["role"])
		assert.Equal(t, "be precise", sys["content"])
		user := messages[1].(map[string]interface{})
		assert.Equal(t, "user", user["role"])
		assert.Equal(t, "extract this", user["content"])

		_ = json.NewEncoder(w).Encode(successResponse(`{"Invoice Number":"1"}`, "stop"))
	}))
	defer server.Close()

	resp, err := newTestClient(server.URL).Complete(context.Background(), port.CompletionRequest{
		System: "be precise", Prompt: "extract this", Temperature: 0.1, MaxTokens: 16000,
	})

	require.NoError(t, err)
	assert.Equal(t, `{"Invoice Number":"1"}`, resp.Text)
	assert.Equal(t, "gpt-4o-mini-2024-07-18", resp.Model)
}

func TestClient_Complete_RateLimited(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Retry-After", "20")
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error":{"message":"Rate limit exceeded"}}`))
	}))
	defer server.Close()

	_, err := newTestClient(server.URL).Complete(context.Background(), port.CompletionRequest{Prompt: "x"})

	var rl *parser.RateLimitError
	require.True(t, errors.As(err, &rl))
	assert.Equal(t, "openai", rl.Provider)
	assert.Equal(t, float64(20), rl.RetryAfter.Seconds())
}

func TestClient_Complete_Unauthorized(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":{"message":"Invalid API key"}}`))
	}))
	defer server.Close()

	_, err := newTestClient(server.URL).Complete(context.Background(), port.CompletionRequest{Prompt: "x"})

	require.Error(t, err)
	assert.False(t, parser.IsRetryable(err))
	assert.Contains(t, err.Error(), "status 401")
}

func TestClient_Complete_ServerErrorIsRetryable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	_, err := newTestClient(server.URL).Complete(context.Background(), port.CompletionRequest{Prompt: "x"})

	require.Error(t, err)
	assert.True(t, parser.IsRetryable(err))
}

func TestClient_Complete_Truncated(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(successResponse(`{"Invoice`, "length"))
	}))
	defer server.Close()

	_, err := newTestClient(server.URL).Complete(context.Background(), port.CompletionRequest{Prompt: "x"})

	var trunc *parser.TruncatedError
	require.True(t, errors.As(err, &trunc))
	assert.Equal(t, `{"Invoice`, trunc.Text)
	assert.False(t, parser.IsRetryable(err))
}

func TestClient_Complete_NoChoices(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"choices":[]}`))
	}))
	defer server.Close()

	_, err := newTestClient(server.URL).Complete(context.Background(), port.CompletionRequest{Prompt: "x"})

	assert.ErrorContains(t, err, "no choices")
}

func TestNewClient_BaseURL(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		_ = json.NewEncoder(w).Encode(successResponse("{}", "stop"))
	}))
	defer server.Close()

	c := openai.NewClient(&config.ParserProviderConfig{APIKey: "k", BaseURL: server.URL + "/v1/"})
	resp, err := c.Complete(context.Background(), port.CompletionRequest{Prompt: "x"})

	require.NoError(t, err)
	assert.Equal(t, "{}", resp.Text)
}
