// Package vertex implements port.CompletionClient with Gemini models served
// by Vertex AI.
package vertex

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"cloud.google.com/go/vertexai/genai"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"invoiceflow/internal/config"
	"invoiceflow/internal/parser"
	"invoiceflow/internal/port"
)

const (
	defaultModel  = "gemini-1.5-pro"
	defaultRegion = "us-central1"
)

// generator issues one GenerateContent call for a configured model.
type generator interface {
	Generate(ctx context.Context, model *modelConfig, prompt string) (*genai.GenerateContentResponse, error)
}

type modelConfig struct {
	name        string
	system      string
	temperature float32
	maxTokens   int32
}

type genaiGenerator struct {
	client *genai.Client
}

func (g *genaiGenerator) Generate(ctx context.Context, m *modelConfig, prompt string) (*genai.GenerateContentResponse, error) {
	model := g.client.GenerativeModel(m.name)
	if m.system != "" {
		model.SystemInstruction = &genai.Content{Parts: []genai.Part{genai.Text(m.system)}}
	}
	model.GenerationConfig = genai.GenerationConfig{
		Temperature: genai.Ptr[float32](m.temperature),
	}
	if m.maxTokens > 0 {
		model.GenerationConfig.MaxOutputTokens = genai.Ptr[int32](m.maxTokens)
	}
	return model.GenerateContent(ctx, genai.Text(prompt))
}

// Client implements port.CompletionClient over the Vertex AI genai SDK.
type Client struct {
	gen   generator
	model string
	close func() error
}

// NewClient creates a Vertex AI client for the configured project and region.
func NewClient(ctx context.Context, cfg *config.ParserProviderConfig) (*Client, error) {
	if cfg.ProjectID == "" {
		return nil, fmt.Errorf("vertex: project_id is required")
	}
	region := cfg.Region
	if region == "" {
		region = defaultRegion
	}
	base, err := genai.NewClient(ctx, cfg.ProjectID, region)
	if err != nil {
		return nil, fmt.Errorf("genai.NewClient: %w", err)
	}
	c := newClient(cfg, &genaiGenerator{client: base})
	c.close = base.Close
	return c, nil
}

func newClient(cfg *config.ParserProviderConfig, gen generator) *Client {
	model := cfg.DefaultModel
	if model == "" {
		model = defaultModel
	}
	return &Client{gen: gen, model: model, close: func() error { return nil }}
}

// Close releases the underlying genai client.
func (c *Client) Close() error {
	return c.close()
}

func (c *Client) Complete(ctx context.Context, in port.CompletionRequest) (*port.CompletionResponse, error) {
	resp, err := c.gen.Generate(ctx, &modelConfig{
		name:        c.model,
		system:      in.System,
		temperature: in.Temperature,
		maxTokens:   int32(in.MaxTokens),
	}, in.Prompt)
	if err != nil {
		return nil, classify(err)
	}

	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return nil, fmt.Errorf("empty response from vertex: no candidates")
	}
	cand := resp.Candidates[0]

	var text strings.Builder
	for _, part := range cand.Content.Parts {
		if t, ok := part.(genai.Text); ok {
			text.WriteString(string(t))
		}
	}
	if cand.FinishReason == genai.FinishReasonMaxTokens {
		return nil, parser.NewTruncatedError("vertex", "finish_reason: MAX_TOKENS", c.model, text.String())
	}
	if text.Len() == 0 {
		return nil, fmt.Errorf("empty response from vertex: no text parts")
	}
	return &port.CompletionResponse{Text: text.String(), Model: c.model}, nil
}

// classify maps gRPC status codes onto the parser error taxonomy.
func classify(err error) error {
	var blocked *genai.BlockedError
	if errors.As(err, &blocked) {
		return parser.NewPermanentError("vertex", err)
	}
	switch status.Code(err) {
	case codes.ResourceExhausted:
		return parser.NewRateLimitError("vertex", err, 0)
	case codes.InvalidArgument, codes.PermissionDenied, codes.Unauthenticated, codes.NotFound, codes.FailedPrecondition:
		return parser.NewPermanentError("vertex", err)
	default:
		return fmt.Errorf("calling vertex: %w", err)
	}
}
