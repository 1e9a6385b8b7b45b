package domain_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"invoiceflow/internal/domain"
)

func TestNumber_UnmarshalJSON(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want float64
	}{
		{"plain number", `12.5`, 12.5},
		{"numeric string", `"7"`, 7},
		{"currency string", `"$1,204.50"`, 1204.5},
		{"not applicable", `"N/A"`, 0},
		{"null", `null`, 0},
		{"garbage string", `"five pounds"`, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var n domain.Number
			require.NoError(t, json.Unmarshal([]byte(tt.in), &n))
			assert.InDelta(t, tt.want, n.Float64(), 1e-9)
		})
	}
}

func TestOptionalPrice_RoundTripsNotApplicable(t *testing.T) {
	var item domain.InvoiceItem
	require.NoError(t, json.Unmarshal([]byte(`{"Split Price":"N/A","Cost of Each Item":"2.50"}`), &item))
	assert.False(t, item.SplitPrice.Valid)
	assert.True(t, item.CostOfEachItem.Valid)
	assert.InDelta(t, 2.5, item.CostOfEachItem.Value, 1e-9)

	out, err := json.Marshal(item)
	require.NoError(t, err)

	var raw map[string]interface{}
	require.NoError(t, json.Unmarshal(out, &raw))
	assert.Equal(t, "N/A", raw["Split Price"])
	assert.Equal(t, 2.5, raw["Cost of Each Item"])
}

func TestText_AcceptsNumbers(t *testing.T) {
	var inv domain.Invoice
	require.NoError(t, json.Unmarshal([]byte(`{"Invoice Number": 4512, "List of Items":[{"Item Number":"00731"}]}`), &inv))
	assert.Equal(t, domain.Text("4512"), inv.InvoiceNumber)
	assert.Equal(t, "00731", inv.Items[0].ItemNumber.String())
}

func TestText_AcceptsOtherScalars(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want domain.Text
	}{
		{"string", `"Kale"`, "Kale"},
		{"number", `4512`, "4512"},
		{"true", `true`, "true"},
		{"false", `false`, "false"},
		{"null", `null`, ""},
		{"object", `{"a": 1}`, ""},
		{"array", `["LB"]`, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var v domain.Text
			require.NoError(t, json.Unmarshal([]byte(tt.in), &v))
			assert.Equal(t, tt.want, v)
		})
	}
}

func TestParseAmount(t *testing.T) {
	v, ok := domain.ParseAmount(" $3,000 ")
	assert.True(t, ok)
	assert.Equal(t, 3000.0, v)

	_, ok = domain.ParseAmount("")
	assert.False(t, ok)
}

func TestInvoiceList_ScanValue(t *testing.T) {
	list := domain.InvoiceList{{InvoiceNumber: "A1", Total: 10}}
	v, err := list.Value()
	require.NoError(t, err)

	var scanned domain.InvoiceList
	require.NoError(t, scanned.Scan(v))
	require.Len(t, scanned, 1)
	assert.Equal(t, domain.Text("A1"), scanned[0].InvoiceNumber)

	require.NoError(t, scanned.Scan(nil))
	assert.Empty(t, scanned)
	assert.Error(t, scanned.Scan(42))
}
