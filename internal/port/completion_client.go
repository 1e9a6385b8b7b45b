package port

import "context"

// CompletionRequest is a single system + user prompt exchange.
type CompletionRequest struct {
	System      string
	Prompt      string
	Temperature float32
	MaxTokens   int
}

// CompletionResponse carries the raw model text.
type CompletionResponse struct {
	Text  string
	Model string
}

// CompletionClient abstracts a language-model text completion API.
type CompletionClient interface {
	Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error)
}
