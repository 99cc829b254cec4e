package controllers

import (
	"github.com/angelmondragon/quotebuilder-backend/internal/pricing"
	"github.com/angelmondragon/quotebuilder-backend/internal/quotations"
	"github.com/angelmondragon/quotebuilder-backend/pkg/types"
)

// itemRequest accepts a line item with permissive numbers: quantity and unit
// price may be numbers or numeric text, anything unreadable becomes 0. Total
// is always recomputed.
type itemRequest struct {
	ID          int    `json:"id"`
	Description string `json:"description"`
	Quantity    any    `json:"quantity"`
	UnitPrice   any    `json:"unitPrice"`
	Total       any    `json:"total"`
	ProductID   *int64 `json:"productId"`
}

func (p itemRequest) lineItem(id int) types.LineItem {
	return pricing.Recompute(types.LineItem{
		ID:          id,
		Description: p.Description,
		ProductID:   p.ProductID,
	}, p.Quantity, p.UnitPrice)
}

// quotationRequest is a posted quotation document. Items use the permissive
// item shape and the money totals are ignored in favour of recomputation.
type quotationRequest struct {
	quotations.Quotation
	Items    []itemRequest `json:"items"`
	Subtotal any           `json:"subtotal"`
	Tax      any           `json:"tax"`
	Total    any           `json:"total"`
}

func (p quotationRequest) quotation() quotations.Quotation {
	q := p.Quotation
	q.Items = nil
	if p.Items != nil {
		q.Items = make(types.LineItems, 0, len(p.Items))
		for _, item := range p.Items {
			q.Items = append(q.Items, item.lineItem(item.ID))
		}
	}
	q.Recalculate()
	return q
}
