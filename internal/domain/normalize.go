package domain

import (
	"math"
	"strings"
)

// DefaultCurrency applies to items that do not name one.
const DefaultCurrency = "USD"

// Normalize applies the extraction defaults and enforces the item
// invariants: non-negative quantities and prices, a category from the
// closed vocabulary and a split price that is "N/A" exactly when the item
// is not splitable.
func (inv *Invoice) Normalize() {
	inv.SupplierName = Text(strings.TrimSpace(string(inv.SupplierName)))
	inv.InvoiceNumber = Text(strings.TrimSpace(string(inv.InvoiceNumber)))
	inv.Total = abs(inv.Total)
	for i := range inv.Items {
		inv.Items[i].Normalize()
	}
}

// Normalize applies item-level defaults. See Invoice.Normalize.
func (it *InvoiceItem) Normalize() {
	it.ProductCategory = ParseCategory(string(it.ProductCategory))
	it.QuantityShipped = abs(it.QuantityShipped)
	it.ExtendedPrice = abs(it.ExtendedPrice)
	it.QuantityInCase = abs(it.QuantityInCase)
	it.MeasurementOfEachItem = abs(it.MeasurementOfEachItem)
	it.TotalUnitsOrdered = abs(it.TotalUnitsOrdered)
	it.CasePrice = abs(it.CasePrice)
	it.CostOfAUnit = abs(it.CostOfAUnit)
	if it.CostOfEachItem.Valid {
		it.CostOfEachItem.Value = math.Abs(it.CostOfEachItem.Value)
	}

	if unit, ok := CanonicalUnit(string(it.MeasuredIn)); ok {
		it.MeasuredIn = Text(unit)
	}
	if strings.TrimSpace(string(it.Currency)) == "" {
		it.Currency = DefaultCurrency
	}
	if strings.EqualFold(strings.TrimSpace(string(it.CatchWeight)), FlagYes) {
		it.CatchWeight = FlagYes
	} else {
		it.CatchWeight = NotApplicable
	}

	if !strings.EqualFold(strings.TrimSpace(string(it.Splitable)), FlagYes) {
		it.Splitable = FlagNo
		it.SplitPrice = NoPrice()
		return
	}
	it.Splitable = FlagYes
	if it.SplitPrice.Valid {
		it.SplitPrice.Value = math.Abs(it.SplitPrice.Value)
		return
	}
	perCase := it.QuantityInCase.Float64()
	if perCase <= 0 {
		perCase = 1
	}
	it.SplitPrice = Price(it.CasePrice.Float64() / perCase)
}

func abs(n Number) Number {
	return Number(math.Abs(float64(n)))
}
