// Package pricing derives line totals and quotation totals.
//
// Line totals are rounded to two decimals when they are recomputed. Tax is
// computed once on the subtotal and rounded to two decimals, so
// total == subtotal + tax holds exactly at cent precision.
package pricing

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/angelmondragon/quotebuilder-backend/pkg/types"
)

// TaxRate is the fixed VAT rate applied to the subtotal.
var TaxRate = decimal.RequireFromString("0.07")

const moneyPlaces = 2

// Totals are the aggregate amounts of a quotation.
type Totals struct {
	Subtotal float64 `json:"subtotal"`
	Tax      float64 `json:"tax"`
	Total    float64 `json:"total"`
}

// ParseAmount coerces v into a number. Numbers pass through; strings are read
// by their longest leading numeric prefix ("12abc" is 12); anything else,
// including NaN and infinities, is 0.
func ParseAmount(v any) float64 {
	f, ok := ParseNumeric(v)
	if !ok {
		return 0
	}
	return f
}

// ParseNumeric is ParseAmount that also reports whether v held a finite number.
func ParseNumeric(v any) (float64, bool) {
	var f float64
	switch n := v.(type) {
	case float64:
		f = n
	case float32:
		f = float64(n)
	case int:
		f = float64(n)
	case int32:
		f = float64(n)
	case int64:
		f = float64(n)
	case uint:
		f = float64(n)
	case uint32:
		f = float64(n)
	case uint64:
		f = float64(n)
	case decimal.Decimal:
		f = n.InexactFloat64()
	case string:
		return parseLeadingFloat(n)
	case []byte:
		return parseLeadingFloat(string(n))
	case json.Number:
		return parseLeadingFloat(n.String())
	default:
		return 0, false
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// parseLeadingFloat reads the longest prefix of s that forms a decimal number.
func parseLeadingFloat(s string) (float64, bool) {
	s = strings.TrimLeft(s, " \t\n\r\v\f")
	end := 0
	i := 0
	if i < len(s) && (s[i] == '+' || s[i] == '-') {
		i++
	}
	digits := 0
	for i < len(s) && s[i] >= '0' && s[i] <= '9' {
		i++
		digits++
	}
	if digits > 0 {
		end = i
	}
	if i < len(s) && s[i] == '.' {
		i++
		frac := 0
		for i < len(s) && s[i] >= '0' && s[i] <= '9' {
			i++
			frac++
		}
		if digits+frac > 0 {
			end = i
		}
		digits += frac
	}
	if digits > 0 && i < len(s) && (s[i] == 'e' || s[i] == 'E') {
		j := i + 1
		if j < len(s) && (s[j] == '+' || s[j] == '-') {
			j++
		}
		exp := 0
		for j < len(s) && s[j] >= '0' && s[j] <= '9' {
			j++
			exp++
		}
		if exp > 0 {
			end = j
		}
	}
	if end == 0 {
		return 0, false
	}
	f, err := strconv.ParseFloat(s[:end], 64)
	if err != nil || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// LineTotal returns round(quantity * unitPrice, 2).
func LineTotal(quantity, unitPrice float64) float64 {
	return decimal.NewFromFloat(quantity).
		Mul(decimal.NewFromFloat(unitPrice)).
		Round(moneyPlaces).
		InexactFloat64()
}

// Recompute applies new quantity and unit price values to item and refreshes
// its total. Only quantity and unit price edits go through here.
func Recompute(item types.LineItem, quantity, unitPrice any) types.LineItem {
	item.Quantity = ParseAmount(quantity)
	item.UnitPrice = ParseAmount(unitPrice)
	item.Total = LineTotal(item.Quantity, item.UnitPrice)
	return item
}

// Aggregate sums item totals and derives tax and grand total.
func Aggregate(items []types.LineItem) Totals {
	subtotal := decimal.Zero
	for _, item := range items {
		if math.IsNaN(item.Total) || math.IsInf(item.Total, 0) {
			continue
		}
		subtotal = subtotal.Add(decimal.NewFromFloat(item.Total))
	}
	subtotal = subtotal.Round(moneyPlaces)
	tax := subtotal.Mul(TaxRate).Round(moneyPlaces)
	return Totals{
		Subtotal: subtotal.InexactFloat64(),
		Tax:      tax.InexactFloat64(),
		Total:    subtotal.Add(tax).InexactFloat64(),
	}
}

// NextItemID returns max(existing ids, 0) + 1.
func NextItemID(items []types.LineItem) int {
	maxID := 0
	for _, item := range items {
		if item.ID > maxID {
			maxID = item.ID
		}
	}
	return maxID + 1
}

// NewItem returns an empty line item that can be appended to items.
func NewItem(items []types.LineItem) types.LineItem {
	return types.LineItem{
		ID:        NextItemID(items),
		Quantity:  1,
		UnitPrice: 0,
		Total:     0,
	}
}

// Decimal converts an amount to a decimal rounded to cents, for persistence.
func Decimal(amount float64) decimal.Decimal {
	if math.IsNaN(amount) || math.IsInf(amount, 0) {
		return decimal.Zero
	}
	return decimal.NewFromFloat(amount).Round(moneyPlaces)
}
