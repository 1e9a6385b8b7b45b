package main

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"invoiceflow/internal/domain"
	"invoiceflow/internal/parser"
	"invoiceflow/internal/pipeline"
	"invoiceflow/mocks"
)

func TestRun(t *testing.T) {
	runner := new(mocks.MockPipelineRunner)
	runner.On("Process", mock.Anything, "a.pdf").Return(&pipeline.Result{
		Invoices: []domain.Invoice{{InvoiceNumber: "INV-1"}},
		Outcomes: map[parser.Outcome]int{parser.OutcomeFound: 1},
	}, nil)
	runner.On("Process", mock.Anything, "b.pdf").Return(&pipeline.Result{
		Outcomes: map[parser.Outcome]int{parser.OutcomeEmpty: 1},
	}, domain.ErrNoInvoicesFound)
	runner.On("Process", mock.Anything, "c.pdf").Return(nil, domain.ErrExtractionFailed)

	var out bytes.Buffer
	failed := run(context.Background(), runner, []string{"a.pdf", "b.pdf", "c.pdf"}, &out, false)

	assert.Equal(t, 2, failed)

	dec := json.NewDecoder(&out)
	var results []fileResult
	for dec.More() {
		var r fileResult
		require.NoError(t, dec.Decode(&r))
		results = append(results, r)
	}
	require.Len(t, results, 3)
	assert.Equal(t, "a.pdf", results[0].File)
	require.Len(t, results[0].Invoices, 1)
	assert.Equal(t, domain.Text("INV-1"), results[0].Invoices[0].InvoiceNumber)
	assert.Empty(t, results[0].Error)
	assert.Equal(t, 1, results[1].Outcomes[parser.OutcomeEmpty])
	assert.NotEmpty(t, results[1].Error)
	assert.Empty(t, results[2].Invoices)
	assert.Contains(t, results[2].Error, "extraction failed")
}

func TestRun_Pretty(t *testing.T) {
	runner := new(mocks.MockPipelineRunner)
	runner.On("Process", mock.Anything, "a.pdf").Return(&pipeline.Result{Invoices: []domain.Invoice{{InvoiceNumber: "1"}}}, nil)

	var out bytes.Buffer
	failed := run(context.Background(), runner, []string{"a.pdf"}, &out, true)

	assert.Equal(t, 0, failed)
	assert.Contains(t, out.String(), "\n  \"file\": \"a.pdf\"")
}
