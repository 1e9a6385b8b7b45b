package parser_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"invoiceflow/internal/domain"
	"invoiceflow/internal/parser"
)

func TestExtractPayload(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"raw object", `  {"Total": 1}  `, `{"Total": 1}`},
		{"fenced object", "Here you go:\n```json\n{\"Total\": 1}\n```\nthanks", `{"Total": 1}`},
		{"fenced array", "```json\n[{\"Total\": 1}, {\"Total\": 2}]\n```", `[{"Total": 1}, {"Total": 2}]`},
		{"bracket in prose before fenced object", "Extracted invoice [page 1]:\n```json\n{\"List of Items\": [{\"Total\": 1}]}\n```",
			`{"List of Items": [{"Total": 1}]}`},
		{"bare fence array", "```\n[{\"Total\": 1}]\n```", `[{"Total": 1}]`},
		{"fence without json", "```\nnothing here\n```", "```\nnothing here\n```"},
		{"non-printable stripped", "\x00{\"Total\": 1}\x07", `{"Total": 1}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, parser.ExtractPayload(tt.in))
		})
	}
}

func TestDecodeResponse_SingleInvoice(t *testing.T) {
	text := "```json\n" + `{
  "Supplier Name": "Sysco",
  "Invoice Number": 4512,
  "Total": "$1,204.50",
  "List of Items": [
    {"Item Name": "Roma Tomatoes", "Product Category": "produce", "Case Price": 24, "Quantity In a Case": 4,
     "Splitable": "YES", "Split Price": "N/A", "Measured In": "LBS", "Currency": ""}
  ]
}` + "\n```"

	invoices, err := parser.DecodeResponse(text)

	require.NoError(t, err)
	require.Len(t, invoices, 1)
	inv := invoices[0]
	assert.Equal(t, domain.Text("Sysco"), inv.SupplierName)
	assert.Equal(t, domain.Text("4512"), inv.InvoiceNumber)
	assert.Equal(t, domain.Number(1204.50), inv.Total)
	require.Len(t, inv.Items, 1)
	item := inv.Items[0]
	assert.Equal(t, domain.CategoryProduce, item.ProductCategory)
	assert.Equal(t, domain.Text("USD"), item.Currency)
	assert.Equal(t, domain.Text("pounds"), item.MeasuredIn)
	assert.Equal(t, domain.Price(6), item.SplitPrice)
}

func TestDecodeResponse_BracketBeforeFence(t *testing.T) {
	text := "Extracted invoice [page 1]:\n```json\n" + invoiceJSON + "\n```"

	invoices, err := parser.DecodeResponse(text)

	require.NoError(t, err)
	require.Len(t, invoices, 1)
	assert.Equal(t, domain.Text("INV-1"), invoices[0].InvoiceNumber)
	require.Len(t, invoices[0].Items, 1)
}

func TestDecodeResponse_NonStringTextFields(t *testing.T) {
	text := `{"Supplier Name": true, "Invoice Number": "A", "Sold to Address": {"line": 1},
  "List of Items": [{"Item Name": 4512, "Splitable": false, "Priced By": 1, "Currency": null,
    "Measured In": ["LB"], "Product Category": 7}]}`

	invoices, err := parser.DecodeResponse(text)

	require.NoError(t, err)
	require.Len(t, invoices, 1)
	inv := invoices[0]
	assert.Equal(t, domain.Text("true"), inv.SupplierName)
	assert.Equal(t, domain.Text(""), inv.SoldToAddress)
	require.Len(t, inv.Items, 1)
	item := inv.Items[0]
	assert.Equal(t, domain.Text("4512"), item.ItemName)
	assert.Equal(t, domain.Text(domain.FlagNo), item.Splitable)
	assert.Equal(t, domain.Text("1"), item.PricedBy)
	assert.Equal(t, domain.Text("USD"), item.Currency)
	assert.Equal(t, domain.Text(""), item.MeasuredIn)
	assert.Equal(t, domain.CategoryOther, item.ProductCategory)
}

func TestDecodeResponse_Array(t *testing.T) {
	invoices, err := parser.DecodeResponse(`[{"Invoice Number": "A"}, null, {}, {"Invoice Number": "B"}]`)

	require.NoError(t, err)
	require.Len(t, invoices, 2)
	assert.Equal(t, domain.Text("A"), invoices[0].InvoiceNumber)
	assert.Equal(t, domain.Text("B"), invoices[1].InvoiceNumber)
}

func TestDecodeResponse_Empty(t *testing.T) {
	for _, text := range []string{"null", "{}", "[]", "```json\n{}\n```"} {
		invoices, err := parser.DecodeResponse(text)
		require.NoError(t, err, text)
		assert.Empty(t, invoices, text)
	}
}

func TestDecodeResponse_Malformed(t *testing.T) {
	for _, text := range []string{"", "I could not find an invoice.", `{"Total": `, `"just a string"`, `[1, 2]`} {
		_, err := parser.DecodeResponse(text)
		assert.Error(t, err, text)
	}
}
