package parser_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"invoiceflow/internal/parser"
	"invoiceflow/internal/port"
	"invoiceflow/internal/retry"
	"invoiceflow/mocks"
)

const invoiceJSON = `{"Invoice Number": "INV-1", "Total": 10, "List of Items": [{"Item Name": "Kale", "Extended Price": 10}]}`

func recordingPolicy(waits *[]time.Duration) retry.Policy {
	return retry.Policy{
		Attempts:  3,
		BaseDelay: time.Second,
		Sleep: func(_ context.Context, d time.Duration) error {
			*waits = append(*waits, d)
			return nil
		},
	}
}

func TestInterpreter_Interpret_Found(t *testing.T) {
	client := new(mocks.MockCompletionClient)
	var sent port.CompletionRequest
	client.On("Complete", mock.Anything, mock.MatchedBy(func(req port.CompletionRequest) bool {
		sent = req
		return true
	})).Return(&port.CompletionResponse{Text: invoiceJSON, Model: "gpt-4o-mini"}, nil)

	var waits []time.Duration
	interp := parser.NewInterpreter(client, parser.WithRetryPolicy(recordingPolicy(&waits)))

	c := interp.Interpret(context.Background(), "PAGE TEXT")

	assert.Equal(t, parser.OutcomeFound, c.Outcome)
	assert.NoError(t, c.Err)
	assert.Equal(t, 1, c.Attempts)
	assert.Equal(t, "gpt-4o-mini", c.Model)
	require.Len(t, c.Invoices, 1)
	assert.Equal(t, "INV-1", c.Invoices[0].InvoiceNumber.String())
	assert.Empty(t, waits)

	assert.Equal(t, parser.SystemMessage, sent.System)
	assert.True(t, strings.HasPrefix(sent.Prompt, parser.Prompt))
	assert.True(t, strings.HasSuffix(sent.Prompt, "INVOICE TEXT TO PROCESS:\nPAGE TEXT"))
	assert.Equal(t, float32(0.1), sent.Temperature)
	assert.Equal(t, 16000, sent.MaxTokens)
}

func TestInterpreter_Interpret_RetriesTransientFailures(t *testing.T) {
	client := new(mocks.MockCompletionClient)
	client.On("Complete", mock.Anything, mock.Anything).Return(nil, errors.New("connection reset")).Twice()
	client.On("Complete", mock.Anything, mock.Anything).Return(&port.CompletionResponse{Text: invoiceJSON}, nil).Once()

	var waits []time.Duration
	interp := parser.NewInterpreter(client, parser.WithRetryPolicy(recordingPolicy(&waits)))

	c := interp.Interpret(context.Background(), "text")

	assert.Equal(t, parser.OutcomeFound, c.Outcome)
	assert.Equal(t, 3, c.Attempts)
	assert.Equal(t, []time.Duration{time.Second, 2 * time.Second}, waits)
}

func TestInterpreter_Interpret_CallFailedAfterRetries(t *testing.T) {
	client := new(mocks.MockCompletionClient)
	client.On("Complete", mock.Anything, mock.Anything).Return(nil, errors.New("503"))

	var waits []time.Duration
	interp := parser.NewInterpreter(client, parser.WithRetryPolicy(recordingPolicy(&waits)))

	c := interp.Interpret(context.Background(), "text")

	assert.Equal(t, parser.OutcomeCallFailed, c.Outcome)
	assert.EqualError(t, c.Err, "503")
	assert.Equal(t, 3, c.Attempts)
	assert.Empty(t, c.Invoices)
	client.AssertNumberOfCalls(t, "Complete", 3)
	assert.Equal(t, []time.Duration{time.Second, 2 * time.Second}, waits)
}

func TestInterpreter_Interpret_RateLimitWaitsForHint(t *testing.T) {
	client := new(mocks.MockCompletionClient)
	client.On("Complete", mock.Anything, mock.Anything).Return(nil, parser.NewRateLimitError("openai", errors.New("429"), 5)).Once()
	client.On("Complete", mock.Anything, mock.Anything).Return(&port.CompletionResponse{Text: "{}"}, nil).Once()

	var waits []time.Duration
	interp := parser.NewInterpreter(client, parser.WithRetryPolicy(recordingPolicy(&waits)))

	c := interp.Interpret(context.Background(), "text")

	assert.Equal(t, parser.OutcomeEmpty, c.Outcome)
	assert.Equal(t, []time.Duration{5 * time.Second}, waits)
}

func TestInterpreter_Interpret_RateLimitWithoutHintUsesBackoff(t *testing.T) {
	client := new(mocks.MockCompletionClient)
	client.On("Complete", mock.Anything, mock.Anything).Return(nil, parser.StatusError("openai", 429, "", nil))

	var waits []time.Duration
	interp := parser.NewInterpreter(client, parser.WithRetryPolicy(recordingPolicy(&waits)))

	c := interp.Interpret(context.Background(), "text")

	assert.Equal(t, parser.OutcomeCallFailed, c.Outcome)
	assert.Equal(t, 3, c.Attempts)
	assert.Equal(t, []time.Duration{time.Second, 2 * time.Second}, waits)
}

func TestInterpreter_Interpret_TruncatedIsParseFailure(t *testing.T) {
	client := new(mocks.MockCompletionClient)
	client.On("Complete", mock.Anything, mock.Anything).
		Return(nil, parser.NewTruncatedError("openai", "finish_reason: length", "gpt-4o-mini", invoiceJSON))

	var waits []time.Duration
	interp := parser.NewInterpreter(client, parser.WithRetryPolicy(recordingPolicy(&waits)))

	c := interp.Interpret(context.Background(), "text")

	assert.Equal(t, parser.OutcomeParseFailed, c.Outcome)
	assert.Equal(t, 1, c.Attempts)
	assert.Equal(t, "gpt-4o-mini", c.Model)
	assert.Empty(t, c.Invoices)
	assert.Empty(t, waits)
	client.AssertNumberOfCalls(t, "Complete", 1)
}

func TestInterpreter_Interpret_PermanentErrorNotRetried(t *testing.T) {
	client := new(mocks.MockCompletionClient)
	client.On("Complete", mock.Anything, mock.Anything).Return(nil, parser.NewPermanentError("openai", errors.New("401")))

	var waits []time.Duration
	interp := parser.NewInterpreter(client, parser.WithRetryPolicy(recordingPolicy(&waits)))

	c := interp.Interpret(context.Background(), "text")

	assert.Equal(t, parser.OutcomeCallFailed, c.Outcome)
	assert.Equal(t, 1, c.Attempts)
	assert.Empty(t, waits)
}

func TestInterpreter_Interpret_ParseFailureNotRetried(t *testing.T) {
	client := new(mocks.MockCompletionClient)
	client.On("Complete", mock.Anything, mock.Anything).Return(&port.CompletionResponse{Text: "Sorry, I can't read this."}, nil)

	var waits []time.Duration
	interp := parser.NewInterpreter(client, parser.WithRetryPolicy(recordingPolicy(&waits)))

	c := interp.Interpret(context.Background(), "text")

	assert.Equal(t, parser.OutcomeParseFailed, c.Outcome)
	assert.Error(t, c.Err)
	client.AssertNumberOfCalls(t, "Complete", 1)
	assert.Empty(t, waits)
}

func TestInterpreter_Interpret_Empty(t *testing.T) {
	client := new(mocks.MockCompletionClient)
	client.On("Complete", mock.Anything, mock.Anything).Return(&port.CompletionResponse{Text: "```json\n[]\n```"}, nil)

	c := parser.NewInterpreter(client).Interpret(context.Background(), "text")

	assert.Equal(t, parser.OutcomeEmpty, c.Outcome)
	assert.NoError(t, c.Err)
}

func TestInterpreter_Interpret_SchemaValidation(t *testing.T) {
	reject := func(raw []byte) error { return errors.New("missing Invoice Number") }

	client := new(mocks.MockCompletionClient)
	client.On("Complete", mock.Anything, mock.Anything).Return(&port.CompletionResponse{Text: invoiceJSON}, nil)

	strict := parser.NewInterpreter(client, parser.WithSchemaValidator(reject, true)).Interpret(context.Background(), "text")
	assert.Equal(t, parser.OutcomeParseFailed, strict.Outcome)
	assert.ErrorContains(t, strict.Err, "missing Invoice Number")

	advisory := parser.NewInterpreter(client, parser.WithSchemaValidator(reject, false)).Interpret(context.Background(), "text")
	assert.Equal(t, parser.OutcomeFound, advisory.Outcome)
}

func TestInterpreter_Options(t *testing.T) {
	client := new(mocks.MockCompletionClient)
	client.On("Complete", mock.Anything, mock.MatchedBy(func(req port.CompletionRequest) bool {
		return req.Temperature == 0 && req.MaxTokens == 2048
	})).Return(&port.CompletionResponse{Text: "{}"}, nil)

	c := parser.NewInterpreter(client, parser.WithTemperature(0), parser.WithMaxTokens(2048)).Interpret(context.Background(), "x")

	assert.Equal(t, parser.OutcomeEmpty, c.Outcome)
	client.AssertExpectations(t)
}
