package parser

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"invoiceflow/internal/domain"
	"invoiceflow/internal/port"
	"invoiceflow/internal/retry"
)

// Outcome classifies what one chunk's interpretation produced.
type Outcome string

const (
	OutcomeFound       Outcome = "found"
	OutcomeEmpty       Outcome = "empty"
	OutcomeCallFailed  Outcome = "call_failed"
	OutcomeParseFailed Outcome = "parse_failed"
)

// Outcomes lists every outcome in reporting order.
var Outcomes = []Outcome{OutcomeFound, OutcomeEmpty, OutcomeCallFailed, OutcomeParseFailed}

// Candidate is the interpretation of one chunk. Invoices is non-empty only
// when Outcome is OutcomeFound; Err is set for the two failure outcomes.
type Candidate struct {
	Outcome  Outcome
	Invoices []domain.Invoice
	Err      error
	Attempts int
	Model    string
}

// SchemaValidator checks one raw invoice object before it is decoded.
type SchemaValidator func(raw []byte) error

// Defaults used when no option overrides them.
const (
	DefaultAttempts    = 3
	DefaultBaseDelay   = time.Second
	DefaultTemperature = 0.1
	DefaultMaxTokens   = 16000
)

// Interpreter sends chunk text with the extraction prompt to a completion
// client and decodes the answer into invoices.
type Interpreter struct {
	client      port.CompletionClient
	policy      retry.Policy
	temperature float32
	maxTokens   int
	validate    SchemaValidator
	strict      bool
}

// Option configures an Interpreter.
type Option func(*Interpreter)

// WithRetryPolicy replaces the retry policy for completion calls.
func WithRetryPolicy(p retry.Policy) Option {
	return func(i *Interpreter) { i.policy = p }
}

// WithTemperature sets the sampling temperature.
func WithTemperature(t float32) Option {
	return func(i *Interpreter) { i.temperature = t }
}

// WithMaxTokens sets the completion token limit.
func WithMaxTokens(n int) Option {
	return func(i *Interpreter) {
		if n > 0 {
			i.maxTokens = n
		}
	}
}

// WithSchemaValidator enables per-object schema checks. In strict mode a
// failing object makes the whole chunk a parse failure; otherwise the
// failure is only logged.
func WithSchemaValidator(v SchemaValidator, strict bool) Option {
	return func(i *Interpreter) {
		i.validate = v
		i.strict = strict
	}
}

// NewInterpreter creates an Interpreter over client.
func NewInterpreter(client port.CompletionClient, opts ...Option) *Interpreter {
	i := &Interpreter{
		client:      client,
		policy:      retry.Policy{Attempts: DefaultAttempts, BaseDelay: DefaultBaseDelay},
		temperature: DefaultTemperature,
		maxTokens:   DefaultMaxTokens,
	}
	for _, opt := range opts {
		opt(i)
	}
	return i
}

// Interpret runs one chunk through the model. Only failed completion calls
// are retried; a response that cannot be decoded, truncated output included,
// is reported at once.
func (i *Interpreter) Interpret(ctx context.Context, chunk string) Candidate {
	req := port.CompletionRequest{
		System:      SystemMessage,
		Prompt:      BuildPrompt(chunk),
		Temperature: i.temperature,
		MaxTokens:   i.maxTokens,
	}

	var resp *port.CompletionResponse
	attempt := 0
	attempts, err := i.policy.Do(ctx, func(ctx context.Context) error {
		attempt++
		r, err := i.client.Complete(ctx, req)
		if err != nil {
			log.Printf("parser.Interpreter.Interpret: attempt %d failed: %v", attempt, err)
			return err
		}
		resp = r
		return nil
	}, IsRetryable)
	if err != nil {
		var trunc *TruncatedError
		if errors.As(err, &trunc) {
			return Candidate{Outcome: OutcomeParseFailed, Err: err, Attempts: attempts, Model: trunc.Model}
		}
		return Candidate{Outcome: OutcomeCallFailed, Err: err, Attempts: attempts}
	}

	c := Candidate{Attempts: attempts, Model: resp.Model}
	invoices, err := i.decode(resp.Text)
	if err != nil {
		log.Printf("parser.Interpreter.Interpret: unusable response from %s: %v", resp.Model, err)
		c.Outcome = OutcomeParseFailed
		c.Err = err
		return c
	}
	if len(invoices) == 0 {
		c.Outcome = OutcomeEmpty
		return c
	}
	c.Outcome = OutcomeFound
	c.Invoices = invoices
	return c
}

func (i *Interpreter) decode(text string) ([]domain.Invoice, error) {
	elems, err := splitPayload(ExtractPayload(text))
	if err != nil {
		return nil, err
	}
	if i.validate != nil {
		if err := i.checkSchema(elems); err != nil {
			return nil, err
		}
	}
	return decodeInvoices(elems)
}

func (i *Interpreter) checkSchema(elems []json.RawMessage) error {
	for n, e := range elems {
		err := i.validate(e)
		if err == nil {
			continue
		}
		if i.strict {
			return fmt.Errorf("invoice %d fails schema: %w", n, err)
		}
		log.Printf("parser.Interpreter.Interpret: invoice %d fails schema: %v", n, err)
	}
	return nil
}
