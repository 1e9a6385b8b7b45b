// Package validator checks interpretation output: a JSON schema for raw
// candidate objects and arithmetic consistency rules for decoded invoices.
package validator

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"invoiceflow/internal/domain"
)

const schemaURL = "invoice.schema.json"

var (
	compileOnce sync.Once
	compiled    *jsonschema.Schema
	compileErr  error
)

// CandidateSchema returns the JSON schema a raw invoice object must match.
func CandidateSchema() map[string]any {
	categories := make([]any, 0, len(domain.Categories)+1)
	for _, c := range domain.Categories {
		categories = append(categories, string(c))
	}
	categories = append(categories, "")

	numeric := map[string]any{"type": []any{"number", "string", "null"}}
	item := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"Item Number":              map[string]any{"type": []any{"string", "number", "null"}},
			"Item Name":                map[string]any{"type": []any{"string", "null"}},
			"Product Category":         map[string]any{"enum": categories},
			"Quantity Shipped":         numeric,
			"Extended Price":           numeric,
			"Quantity In a Case":       numeric,
			"Measurement Of Each Item": numeric,
			"Total Units Ordered":      numeric,
			"Case Price":               numeric,
			"Catch Weight":             map[string]any{"enum": []any{domain.FlagYes, domain.NotApplicable, ""}},
			"Splitable":                map[string]any{"enum": []any{domain.FlagYes, domain.FlagNo, ""}},
			"Split Price":              numeric,
			"Cost of a Unit":           numeric,
			"Cost of Each Item":        numeric,
		},
	}
	return map[string]any{
		"type":     "object",
		"required": []any{"Invoice Number", "List of Items"},
		"properties": map[string]any{
			"Supplier Name":  map[string]any{"type": []any{"string", "null"}},
			"Invoice Number": map[string]any{"type": []any{"string", "number"}},
			"Total":          numeric,
			"List of Items":  map[string]any{"type": "array", "items": item},
		},
	}
}

func schema() (*jsonschema.Schema, error) {
	compileOnce.Do(func() {
		b, err := json.Marshal(CandidateSchema())
		if err != nil {
			compileErr = fmt.Errorf("marshal schema: %w", err)
			return
		}
		compiler := jsonschema.NewCompiler()
		if err := compiler.AddResource(schemaURL, bytes.NewReader(b)); err != nil {
			compileErr = fmt.Errorf("add schema: %w", err)
			return
		}
		compiled, compileErr = compiler.Compile(schemaURL)
	})
	return compiled, compileErr
}

// ValidateCandidate checks one raw invoice object against CandidateSchema.
func ValidateCandidate(raw []byte) error {
	s, err := schema()
	if err != nil {
		return fmt.Errorf("compile schema: %w", err)
	}
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return fmt.Errorf("unmarshal candidate: %w", err)
	}
	if err := s.Validate(v); err != nil {
		return fmt.Errorf("candidate does not match schema: %w", err)
	}
	return nil
}
