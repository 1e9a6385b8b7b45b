package validator_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"invoiceflow/internal/validator"
)

func TestValidateCandidate(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		wantErr bool
	}{
		{
			name: "valid",
			raw: `{"Invoice Number": "991", "Total": "$12.00", "List of Items": [
				{"Item Name": "Kale", "Product Category": "PRODUCE", "Splitable": "NO", "Catch Weight": "N/A", "Split Price": "N/A"}]}`,
		},
		{name: "numeric invoice number", raw: `{"Invoice Number": 991, "List of Items": []}`},
		{name: "missing items", raw: `{"Invoice Number": "991"}`, wantErr: true},
		{name: "missing invoice number", raw: `{"List of Items": []}`, wantErr: true},
		{name: "unknown category", raw: `{"Invoice Number": "1", "List of Items": [{"Product Category": "Toys"}]}`, wantErr: true},
		{name: "bad splitable", raw: `{"Invoice Number": "1", "List of Items": [{"Splitable": "maybe"}]}`, wantErr: true},
		{name: "items not array", raw: `{"Invoice Number": "1", "List of Items": {}}`, wantErr: true},
		{name: "not json", raw: `{`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validator.ValidateCandidate([]byte(tt.raw))
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
