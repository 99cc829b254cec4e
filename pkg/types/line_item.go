package types

import (
	"database/sql/driver"
	"encoding/json"
)

// LineItem is one priced row of a quotation, stored inside the items JSON column.
type LineItem struct {
	ID          int     `json:"id"`
	Description string  `json:"description"`
	Quantity    float64 `json:"quantity"`
	UnitPrice   float64 `json:"unitPrice"`
	Total       float64 `json:"total"`
	ProductID   *int64  `json:"productId,omitempty"`
}

// LineItems keeps quotation items in insertion order.
type LineItems []LineItem

// Clone returns a deep copy of the items.
func (l LineItems) Clone() LineItems {
	if l == nil {
		return nil
	}
	out := make(LineItems, len(l))
	for i, item := range l {
		out[i] = item
		if item.ProductID != nil {
			id := *item.ProductID
			out[i].ProductID = &id
		}
	}
	return out
}

// Value serializes the items to JSON.
func (l LineItems) Value() (driver.Value, error) {
	if l == nil {
		return "[]", nil
	}
	raw, err := json.Marshal(l)
	if err != nil {
		return nil, err
	}
	return string(raw), nil
}

// Scan decodes the JSON column into items.
func (l *LineItems) Scan(value interface{}) error {
	if value == nil {
		*l = LineItems{}
		return nil
	}
	raw, err := asJSON(value)
	if err != nil {
		return err
	}
	var decoded LineItems
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return err
	}
	*l = decoded
	return nil
}
