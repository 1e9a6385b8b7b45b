// Package export renders stored invoices as CSV or XLSX, one row per line item.
package export

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"invoiceflow/internal/domain"
)

// Format is an export file format.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
)

// ParseFormat maps a query value to a Format. An empty value selects CSV.
func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimSpace(s))) {
	case "", FormatCSV:
		return FormatCSV, nil
	case FormatXLSX:
		return FormatXLSX, nil
	}
	return "", fmt.Errorf("%w: %s", domain.ErrUnsupportedExportFormat, s)
}

// ContentType returns the response content type for the format.
func (f Format) ContentType() string {
	if f == FormatXLSX {
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	}
	return "text/csv; charset=utf-8"
}

// columns is the header row: invoice fields first, then item fields.
var columns = []string{
	"Supplier Name",
	"Sold to Address",
	"Order Date",
	"Ship Date",
	"Invoice Number",
	"Shipping Address",
	"Total",
	"Item Number",
	"Item Name",
	"Product Category",
	"Quantity Shipped",
	"Extended Price",
	"Quantity In a Case",
	"Measurement Of Each Item",
	"Measured In",
	"Total Units Ordered",
	"Case Price",
	"Catch Weight",
	"Priced By",
	"Splitable",
	"Split Price",
	"Cost of a Unit",
	"Currency",
	"Cost of Each Item",
}

const invoiceColumns = 7

// Columns returns a copy of the header row.
func Columns() []string {
	out := make([]string, len(columns))
	copy(out, columns)
	return out
}

// Rows flattens invoices into export rows. An invoice without items still
// produces one row carrying its header fields.
func Rows(invoices []domain.Invoice) [][]string {
	var rows [][]string
	for i := range invoices {
		inv := &invoices[i]
		if len(inv.Items) == 0 {
			rows = append(rows, invoiceRow(inv, nil))
			continue
		}
		for j := range inv.Items {
			rows = append(rows, invoiceRow(inv, &inv.Items[j]))
		}
	}
	return rows
}

func invoiceRow(inv *domain.Invoice, item *domain.InvoiceItem) []string {
	row := make([]string, len(columns))
	row[0] = inv.SupplierName.String()
	row[1] = inv.SoldToAddress.String()
	row[2] = inv.OrderDate.String()
	row[3] = inv.ShipDate.String()
	row[4] = inv.InvoiceNumber.String()
	row[5] = inv.ShippingAddress.String()
	row[6] = formatMoney(inv.Total.Float64())
	if item == nil {
		return row
	}

	row[7] = item.ItemNumber.String()
	row[8] = item.ItemName.String()
	row[9] = string(item.ProductCategory)
	row[10] = formatNumber(item.QuantityShipped.Float64())
	row[11] = formatMoney(item.ExtendedPrice.Float64())
	row[12] = formatNumber(item.QuantityInCase.Float64())
	row[13] = formatNumber(item.MeasurementOfEachItem.Float64())
	row[14] = item.MeasuredIn.String()
	row[15] = formatNumber(item.TotalUnitsOrdered.Float64())
	row[16] = formatMoney(item.CasePrice.Float64())
	row[17] = item.CatchWeight.String()
	row[18] = item.PricedBy.String()
	row[19] = item.Splitable.String()
	row[20] = item.SplitPrice.String()
	row[21] = formatNumber(item.CostOfAUnit.Float64())
	row[22] = item.Currency.String()
	row[23] = item.CostOfEachItem.String()
	return row
}

func formatMoney(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}

func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// nonAlphanumeric matches characters that are not alphanumeric, hyphen, or underscore.
var nonAlphanumeric = regexp.MustCompile(`[^a-zA-Z0-9_-]+`)

// multiUnderscore matches consecutive underscores.
var multiUnderscore = regexp.MustCompile(`_{2,}`)

// SanitizeFilename cleans a name for use in Content-Disposition.
// Replaces non-alphanumeric chars (except - _) with _, collapses consecutive
// underscores, and truncates to 100 chars.
func SanitizeFilename(name string) string {
	s := nonAlphanumeric.ReplaceAllString(name, "_")
	s = multiUnderscore.ReplaceAllString(s, "_")
	s = strings.Trim(s, "_")
	if len(s) > 100 {
		s = s[:100]
	}
	return s
}

// BuildFilename returns {sanitized_user_id}_invoices_{YYYY-MM-DD}.{format}.
func BuildFilename(userID string, format Format, now time.Time) string {
	return fmt.Sprintf("%s_invoices_%s.%s", SanitizeFilename(userID), now.Format("2006-01-02"), format)
}
