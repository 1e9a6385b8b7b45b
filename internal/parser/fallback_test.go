package parser_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"invoiceflow/internal/parser"
	"invoiceflow/internal/port"
	"invoiceflow/mocks"
)

var fallbackRequest = port.CompletionRequest{System: "sys", Prompt: "page text"}

func TestFallbackClient_FirstSucceeds(t *testing.T) {
	c1 := new(mocks.MockCompletionClient)
	c2 := new(mocks.MockCompletionClient)
	c1.On("Complete", mock.Anything, fallbackRequest).Return(&port.CompletionResponse{Text: "{}", Model: "gpt-4o-mini"}, nil)

	fc := parser.NewFallbackClient([]port.CompletionClient{c1, c2}, []string{"openai", "claude"})

	resp, err := fc.Complete(context.Background(), fallbackRequest)

	require.NoError(t, err)
	assert.Equal(t, "gpt-4o-mini", resp.Model)
	c2.AssertNotCalled(t, "Complete", mock.Anything, mock.Anything)
}

func TestFallbackClient_FirstFails_SecondSucceeds(t *testing.T) {
	c1 := new(mocks.MockCompletionClient)
	c2 := new(mocks.MockCompletionClient)
	c1.On("Complete", mock.Anything, fallbackRequest).Return(nil, errors.New("connection reset"))
	c2.On("Complete", mock.Anything, fallbackRequest).Return(&port.CompletionResponse{Text: "{}", Model: "claude"}, nil)

	fc := parser.NewFallbackClient([]port.CompletionClient{c1, c2}, []string{"openai", "claude"})

	resp, err := fc.Complete(context.Background(), fallbackRequest)

	require.NoError(t, err)
	assert.Equal(t, "claude", resp.Model)
}

func TestFallbackClient_RateLimitedCircuitSkipsProvider(t *testing.T) {
	c1 := new(mocks.MockCompletionClient)
	c2 := new(mocks.MockCompletionClient)
	c1.On("Complete", mock.Anything, fallbackRequest).Return(nil, parser.NewRateLimitError("openai", errors.New("429"), 60))
	c2.On("Complete", mock.Anything, fallbackRequest).Return(&port.CompletionResponse{Text: "{}", Model: "claude"}, nil)

	fc := parser.NewFallbackClient([]port.CompletionClient{c1, c2}, []string{"openai", "claude"})

	_, err := fc.Complete(context.Background(), fallbackRequest)
	require.NoError(t, err)
	_, err = fc.Complete(context.Background(), fallbackRequest)
	require.NoError(t, err)

	c1.AssertNumberOfCalls(t, "Complete", 1)
	c2.AssertNumberOfCalls(t, "Complete", 2)
}

func TestFallbackClient_AllRateLimited(t *testing.T) {
	c1 := new(mocks.MockCompletionClient)
	c2 := new(mocks.MockCompletionClient)
	c1.On("Complete", mock.Anything, fallbackRequest).Return(nil, parser.NewRateLimitError("openai", errors.New("429"), 60))
	c2.On("Complete", mock.Anything, fallbackRequest).Return(nil, parser.NewRateLimitError("claude", errors.New("429"), 30))

	fc := parser.NewFallbackClient([]port.CompletionClient{c1, c2}, []string{"openai", "claude"})

	_, err := fc.Complete(context.Background(), fallbackRequest)

	var rl *parser.RateLimitError
	require.True(t, errors.As(err, &rl))
	assert.Equal(t, "all", rl.Provider)
	assert.LessOrEqual(t, rl.RetryAfter.Seconds(), float64(30))

	// every circuit is open now, so nothing is called
	_, err = fc.Complete(context.Background(), fallbackRequest)
	require.True(t, errors.As(err, &rl))
	c1.AssertNumberOfCalls(t, "Complete", 1)
	c2.AssertNumberOfCalls(t, "Complete", 1)
}

func TestFallbackClient_AllPermanent(t *testing.T) {
	c1 := new(mocks.MockCompletionClient)
	c2 := new(mocks.MockCompletionClient)
	c1.On("Complete", mock.Anything, fallbackRequest).Return(nil, parser.NewPermanentError("openai", errors.New("401")))
	c2.On("Complete", mock.Anything, fallbackRequest).Return(nil, parser.NewPermanentError("claude", errors.New("401")))

	fc := parser.NewFallbackClient([]port.CompletionClient{c1, c2}, []string{"openai", "claude"})

	_, err := fc.Complete(context.Background(), fallbackRequest)

	assert.Error(t, err)
	assert.False(t, parser.IsRetryable(err))
}

func TestFallbackClient_MixedFailuresStayRetryable(t *testing.T) {
	c1 := new(mocks.MockCompletionClient)
	c2 := new(mocks.MockCompletionClient)
	c1.On("Complete", mock.Anything, fallbackRequest).Return(nil, parser.NewPermanentError("openai", errors.New("401")))
	c2.On("Complete", mock.Anything, fallbackRequest).Return(nil, errors.New("timeout"))

	fc := parser.NewFallbackClient([]port.CompletionClient{c1, c2}, []string{"openai", "claude"})

	_, err := fc.Complete(context.Background(), fallbackRequest)

	assert.ErrorContains(t, err, "all providers failed")
	assert.True(t, parser.IsRetryable(err))
}

func TestFallbackClient_RateLimitWithoutHint(t *testing.T) {
	c1 := new(mocks.MockCompletionClient)
	c1.On("Complete", mock.Anything, fallbackRequest).Return(nil, parser.StatusError("openai", 429, "", nil))

	fc := parser.NewFallbackClient([]port.CompletionClient{c1}, []string{"openai"})

	_, err := fc.Complete(context.Background(), fallbackRequest)

	var rl *parser.RateLimitError
	require.True(t, errors.As(err, &rl))
	assert.Zero(t, rl.RetryDelay())

	// the circuit still opens for the default reset window
	_, err = fc.Complete(context.Background(), fallbackRequest)
	require.True(t, errors.As(err, &rl))
	assert.Zero(t, rl.RetryDelay())
	c1.AssertNumberOfCalls(t, "Complete", 1)
}

func TestFallbackClient_TruncatedNotRetryable(t *testing.T) {
	c1 := new(mocks.MockCompletionClient)
	c1.On("Complete", mock.Anything, fallbackRequest).Return(nil, parser.NewTruncatedError("openai", "finish_reason: length", "gpt-4o-mini", "{"))

	fc := parser.NewFallbackClient([]port.CompletionClient{c1}, []string{"openai"})

	_, err := fc.Complete(context.Background(), fallbackRequest)

	var trunc *parser.TruncatedError
	require.True(t, errors.As(err, &trunc))
	assert.False(t, parser.IsRetryable(err))
}

type closingClient struct {
	*mocks.MockCompletionClient
	closed bool
	err    error
}

func (c *closingClient) Close() error {
	c.closed = true
	return c.err
}

func TestFallbackClient_Close(t *testing.T) {
	plain := new(mocks.MockCompletionClient)
	ok := &closingClient{MockCompletionClient: new(mocks.MockCompletionClient)}
	failing := &closingClient{MockCompletionClient: new(mocks.MockCompletionClient), err: errors.New("close failed")}

	fc := parser.NewFallbackClient([]port.CompletionClient{plain, ok, failing}, []string{"openai", "vertex", "vertex"})

	err := fc.Close()

	assert.ErrorContains(t, err, "close failed")
	assert.True(t, ok.closed)
	assert.True(t, failing.closed)
}
