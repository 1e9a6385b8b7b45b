package domain

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"
)

// InvoiceItem is one purchased line on a wholesale invoice. JSON keys match
// the extraction template the interpretation model is asked to fill.
type InvoiceItem struct {
	ItemNumber            Text          `json:"Item Number"`
	ItemName              Text          `json:"Item Name"`
	ProductCategory       Category      `json:"Product Category"`
	QuantityShipped       Number        `json:"Quantity Shipped"`
	ExtendedPrice         Number        `json:"Extended Price"`
	QuantityInCase        Number        `json:"Quantity In a Case"`
	MeasurementOfEachItem Number        `json:"Measurement Of Each Item"`
	MeasuredIn            Text          `json:"Measured In"`
	TotalUnitsOrdered     Number        `json:"Total Units Ordered"`
	CasePrice             Number        `json:"Case Price"`
	CatchWeight           Text          `json:"Catch Weight"`
	PricedBy              Text          `json:"Priced By"`
	Splitable             Text          `json:"Splitable"`
	SplitPrice            OptionalPrice `json:"Split Price"`
	CostOfAUnit           Number        `json:"Cost of a Unit"`
	Currency              Text          `json:"Currency"`
	CostOfEachItem        OptionalPrice `json:"Cost of Each Item"`
}

// Invoice is one commercial transaction. InvoiceNumber is the merge key
// across pages and chunks of the same document.
type Invoice struct {
	SupplierName    Text          `json:"Supplier Name"`
	SoldToAddress   Text          `json:"Sold to Address"`
	OrderDate       Text          `json:"Order Date"`
	ShipDate        Text          `json:"Ship Date"`
	InvoiceNumber   Text          `json:"Invoice Number"`
	ShippingAddress Text          `json:"Shipping Address"`
	Total           Number        `json:"Total"`
	Items           []InvoiceItem `json:"List of Items"`
}

// Clone returns a deep copy of the invoice.
func (inv *Invoice) Clone() Invoice {
	out := *inv
	if inv.Items != nil {
		out.Items = make([]InvoiceItem, len(inv.Items))
		copy(out.Items, inv.Items)
	}
	return out
}

// ItemsTotal sums the extended price of every line item.
func (inv *Invoice) ItemsTotal() float64 {
	var sum float64
	for i := range inv.Items {
		sum += inv.Items[i].ExtendedPrice.Float64()
	}
	return sum
}

// InvoiceList is a JSONB-backed list of invoices.
type InvoiceList []Invoice

// Value implements driver.Valuer.
func (l InvoiceList) Value() (driver.Value, error) {
	if l == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(l)
}

// Scan implements sql.Scanner.
func (l *InvoiceList) Scan(src interface{}) error {
	var data []byte
	switch v := src.(type) {
	case nil:
		*l = InvoiceList{}
		return nil
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return errors.New("domain.InvoiceList.Scan: unsupported source type")
	}
	var out InvoiceList
	if err := json.Unmarshal(data, &out); err != nil {
		return err
	}
	*l = out
	return nil
}

// UserInvoices is the per-user storage document. ID and UserID carry the same
// value; the user id is both document id and partition key.
type UserInvoices struct {
	ID        string      `db:"id" json:"id" firestore:"id"`
	UserID    string      `db:"user_id" json:"userId" firestore:"userId"`
	Invoices  InvoiceList `db:"invoices" json:"invoices" firestore:"-"`
	CreatedAt time.Time   `db:"created_at" json:"created_at" firestore:"createdAt"`
	UpdatedAt time.Time   `db:"updated_at" json:"updated_at" firestore:"updatedAt"`
}

// StoreResult describes the outcome of appending invoices for a user.
type StoreResult struct {
	Status      string `json:"status"`
	DocumentID  string `json:"document_id"`
	Appended    int    `json:"appended"`
	TotalStored int    `json:"total_stored"`
}
