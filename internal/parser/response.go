package parser

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"unicode"

	"invoiceflow/internal/domain"
	"invoiceflow/internal/layout"
)

const fence = "```"

// ExtractPayload cleans a model response and, when the response contains a
// fenced block, cuts it down to the JSON value inside. Fenced objects run
// from the first '{' to the last '}'. The block is read as an array only when
// its body starts with '['.
func ExtractPayload(text string) string {
	cleaned := layout.CleanText(text)
	open := strings.Index(cleaned, fence)
	if open < 0 {
		return cleaned
	}

	if body := fencedBody(cleaned[open+len(fence):]); strings.HasPrefix(body, "[") {
		arr := strings.Index(cleaned[open:], "[") + open
		if end := strings.LastIndex(cleaned, "]"); end > arr {
			return cleaned[arr : end+1]
		}
	}
	obj := strings.Index(cleaned, "{")
	if obj >= 0 {
		if end := strings.LastIndex(cleaned, "}"); end > obj {
			return cleaned[obj : end+1]
		}
	}
	return cleaned
}

// fencedBody drops the language tag after an opening fence.
func fencedBody(s string) string {
	s = strings.TrimLeftFunc(s, unicode.IsLetter)
	return strings.TrimSpace(s)
}

// splitPayload decodes a payload into its invoice objects. An object yields
// one element, an array one per non-empty object. null, {} and [] yield none.
func splitPayload(payload string) ([]json.RawMessage, error) {
	data := bytes.TrimSpace([]byte(payload))
	if len(data) == 0 {
		return nil, fmt.Errorf("empty response")
	}

	var raw json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}

	switch data[0] {
	case 'n':
		return nil, nil
	case '{':
		if isEmptyObject(raw) {
			return nil, nil
		}
		return []json.RawMessage{raw}, nil
	case '[':
		var elems []json.RawMessage
		if err := json.Unmarshal(raw, &elems); err != nil {
			return nil, fmt.Errorf("decoding response array: %w", err)
		}
		out := make([]json.RawMessage, 0, len(elems))
		for i, e := range elems {
			e = bytes.TrimSpace(e)
			if bytes.Equal(e, null) || isEmptyObject(e) {
				continue
			}
			if len(e) == 0 || e[0] != '{' {
				return nil, fmt.Errorf("response element %d is not an object", i)
			}
			out = append(out, e)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("response is not a JSON object or array")
	}
}

var null = []byte("null")

func isEmptyObject(raw json.RawMessage) bool {
	var m map[string]json.RawMessage
	return json.Unmarshal(raw, &m) == nil && len(m) == 0
}

// DecodeResponse turns raw model text into normalized invoices.
func DecodeResponse(text string) ([]domain.Invoice, error) {
	elems, err := splitPayload(ExtractPayload(text))
	if err != nil {
		return nil, err
	}
	return decodeInvoices(elems)
}

func decodeInvoices(elems []json.RawMessage) ([]domain.Invoice, error) {
	invoices := make([]domain.Invoice, 0, len(elems))
	for i, e := range elems {
		var inv domain.Invoice
		if err := json.Unmarshal(e, &inv); err != nil {
			return nil, fmt.Errorf("decoding invoice %d: %w", i, err)
		}
		inv.Normalize()
		invoices = append(invoices, inv)
	}
	return invoices, nil
}
