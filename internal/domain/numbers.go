package domain

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
)

// NotApplicable is the literal used for prices that do not apply to an item.
const NotApplicable = "N/A"

var null = []byte("null")

// Number is a float64 that also decodes from the loosely formatted values
// language models emit: numeric strings, "$1,234.50", "N/A" and null.
// Values that cannot be read as a number decode to zero.
type Number float64

// Float64 returns the value as a float64.
func (n Number) Float64() float64 { return float64(n) }

// UnmarshalJSON implements json.Unmarshaler.
func (n *Number) UnmarshalJSON(data []byte) error {
	v, ok := decodeNumber(data)
	if !ok {
		*n = 0
		return nil
	}
	*n = Number(v)
	return nil
}

// OptionalPrice is a price that may be "N/A". It encodes as a JSON number
// when set and as the string "N/A" otherwise.
type OptionalPrice struct {
	Value float64
	Valid bool
}

// Price builds a set OptionalPrice.
func Price(v float64) OptionalPrice { return OptionalPrice{Value: v, Valid: true} }

// NoPrice is the "N/A" price.
func NoPrice() OptionalPrice { return OptionalPrice{} }

// String renders the price the way it appears in exports.
func (p OptionalPrice) String() string {
	if !p.Valid {
		return NotApplicable
	}
	return strconv.FormatFloat(p.Value, 'f', -1, 64)
}

// MarshalJSON implements json.Marshaler.
func (p OptionalPrice) MarshalJSON() ([]byte, error) {
	if !p.Valid {
		return json.Marshal(NotApplicable)
	}
	return json.Marshal(p.Value)
}

// UnmarshalJSON implements json.Unmarshaler.
func (p *OptionalPrice) UnmarshalJSON(data []byte) error {
	v, ok := decodeNumber(data)
	*p = OptionalPrice{Value: v, Valid: ok}
	return nil
}

// Text is a string that also decodes from the other JSON scalars, so
// identifiers the model emits unquoted (invoice 004512 as 4512.0, say) still
// land as text. Booleans become "true" or "false"; objects and arrays decode
// to the empty string.
type Text string

// String returns the text.
func (t Text) String() string { return string(t) }

// UnmarshalJSON implements json.Unmarshaler.
func (t *Text) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, null) {
		*t = ""
		return nil
	}
	switch data[0] {
	case '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*t = Text(s)
		return nil
	case '{', '[':
		*t = ""
		return nil
	case 't', 'f':
		var b bool
		if err := json.Unmarshal(data, &b); err != nil {
			return err
		}
		*t = Text(strconv.FormatBool(b))
		return nil
	}
	var num json.Number
	if err := json.Unmarshal(data, &num); err != nil {
		return err
	}
	*t = Text(num.String())
	return nil
}

func decodeNumber(data []byte) (float64, bool) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, null) {
		return 0, false
	}
	if data[0] != '"' {
		var f float64
		if err := json.Unmarshal(data, &f); err != nil {
			return 0, false
		}
		return f, true
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return 0, false
	}
	return ParseAmount(s)
}

// ParseAmount reads a human formatted amount such as "$1,204.00" or "12 ".
func ParseAmount(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "$")
	s = strings.ReplaceAll(s, ",", "")
	s = strings.TrimSpace(s)
	if s == "" || strings.EqualFold(s, NotApplicable) {
		return 0, false
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}
