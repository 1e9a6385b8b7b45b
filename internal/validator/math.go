package validator

import (
	"fmt"
	"math"
	"strings"

	"invoiceflow/internal/domain"
)

const (
	moneyTolerance = 1.00
	unitTolerance  = 0.05
)

// Issue is one failed consistency rule on a decoded invoice.
type Issue struct {
	RuleKey       string `json:"rule_key"`
	InvoiceNumber string `json:"invoice_number"`
	FieldPath     string `json:"field_path"`
	Expected      string `json:"expected"`
	Actual        string `json:"actual"`
	Message       string `json:"message"`
}

type itemRule struct {
	ruleKey   string
	ruleName  string
	field     string
	tolerance float64
	// check returns the expected and actual values, or ok=false when the
	// item lacks the inputs the rule needs.
	check func(it *domain.InvoiceItem) (expected, actual float64, ok bool)
}

var itemRules = []itemRule{
	{
		ruleKey: "math.item.total_units_ordered", ruleName: "Total Units Ordered",
		field: "Total Units Ordered", tolerance: unitTolerance,
		check: func(it *domain.InvoiceItem) (float64, float64, bool) {
			m, q, s := it.MeasurementOfEachItem.Float64(), it.QuantityInCase.Float64(), it.QuantityShipped.Float64()
			if m == 0 || q == 0 || s == 0 {
				return 0, 0, false
			}
			return m * q * s, it.TotalUnitsOrdered.Float64(), true
		},
	},
	{
		ruleKey: "math.item.cost_of_a_unit", ruleName: "Cost of a Unit",
		field: "Cost of a Unit", tolerance: unitTolerance,
		check: func(it *domain.InvoiceItem) (float64, float64, bool) {
			units := it.TotalUnitsOrdered.Float64()
			if units == 0 {
				return 0, 0, false
			}
			return it.ExtendedPrice.Float64() / units, it.CostOfAUnit.Float64(), true
		},
	},
	{
		ruleKey: "math.item.cost_of_each_item", ruleName: "Cost of Each Item",
		field: "Cost of Each Item", tolerance: unitTolerance,
		check: func(it *domain.InvoiceItem) (float64, float64, bool) {
			if !it.CostOfEachItem.Valid || it.MeasurementOfEachItem == 0 {
				return 0, 0, false
			}
			return it.CostOfAUnit.Float64() * it.MeasurementOfEachItem.Float64(), it.CostOfEachItem.Value, true
		},
	},
	{
		ruleKey: "math.item.split_price", ruleName: "Split Price",
		field: "Split Price", tolerance: unitTolerance,
		check: func(it *domain.InvoiceItem) (float64, float64, bool) {
			if it.Splitable != domain.FlagYes || !it.SplitPrice.Valid || it.QuantityInCase == 0 {
				return 0, 0, false
			}
			return it.CasePrice.Float64() / it.QuantityInCase.Float64(), it.SplitPrice.Value, true
		},
	},
	{
		// catch-weight items are priced by weight, not by case
		ruleKey: "math.item.extended_price", ruleName: "Extended Price",
		field: "Extended Price", tolerance: moneyTolerance,
		check: func(it *domain.InvoiceItem) (float64, float64, bool) {
			if it.CatchWeight == domain.FlagYes || it.CasePrice == 0 || it.QuantityShipped == 0 {
				return 0, 0, false
			}
			return it.CasePrice.Float64() * it.QuantityShipped.Float64(), it.ExtendedPrice.Float64(), true
		},
	},
}

func approxEqual(a, b, tolerance float64) bool {
	return math.Abs(a-b) <= tolerance
}

func fmtf(v float64) string {
	return fmt.Sprintf("%.2f", v)
}

func mismatch(ruleKey, ruleName, invoiceNumber, fieldPath string, expected, actual float64) Issue {
	return Issue{
		RuleKey:       ruleKey,
		InvoiceNumber: invoiceNumber,
		FieldPath:     fieldPath,
		Expected:      fmtf(expected),
		Actual:        fmtf(actual),
		Message: fmt.Sprintf("%s: %s calculation mismatch (expected %s, got %s)",
			ruleName, fieldPath, fmtf(expected), fmtf(actual)),
	}
}

// CheckInvoice runs every arithmetic rule against inv and returns the
// failures. Rules whose inputs are missing are skipped.
func CheckInvoice(inv *domain.Invoice) []Issue {
	var issues []Issue
	number := inv.InvoiceNumber.String()

	for i := range inv.Items {
		item := &inv.Items[i]
		for _, r := range itemRules {
			expected, actual, ok := r.check(item)
			if !ok || approxEqual(expected, actual, r.tolerance) {
				continue
			}
			fp := fmt.Sprintf("List of Items[%d].%s", i, r.field)
			issues = append(issues, mismatch(r.ruleKey, r.ruleName, number, fp, expected, actual))
		}
	}

	if inv.Total > 0 && len(inv.Items) > 0 {
		sum := inv.ItemsTotal()
		if !approxEqual(sum, inv.Total.Float64(), moneyTolerance) {
			issues = append(issues, mismatch("math.invoice.total", "Invoice Total", number, "Total", sum, inv.Total.Float64()))
		}
	}
	return issues
}

// Summary renders issues as a single log-friendly line.
func Summary(issues []Issue) string {
	keys := make([]string, 0, len(issues))
	for i := range issues {
		keys = append(keys, issues[i].RuleKey+"@"+issues[i].FieldPath)
	}
	return strings.Join(keys, ", ")
}
