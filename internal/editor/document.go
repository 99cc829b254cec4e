package editor

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/angelmondragon/quotebuilder-backend/internal/pricing"
	"github.com/angelmondragon/quotebuilder-backend/internal/products"
	"github.com/angelmondragon/quotebuilder-backend/internal/quotations"
	"github.com/angelmondragon/quotebuilder-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/quotebuilder-backend/pkg/errors"
	"github.com/angelmondragon/quotebuilder-backend/pkg/types"
)

// Item fields accepted by UpdateItemField.
const (
	ItemFieldDescription = "description"
	ItemFieldQuantity    = "quantity"
	ItemFieldUnitPrice   = "unitPrice"
	ItemFieldProductID   = "productId"
)

type stringField func(q *quotations.Quotation) *string

var stringFields = map[string]stringField{
	"clientInfo.name":       func(q *quotations.Quotation) *string { return &q.ClientInfo.Name },
	"clientInfo.company":    func(q *quotations.Quotation) *string { return &q.ClientInfo.Company },
	"clientInfo.address":    func(q *quotations.Quotation) *string { return &q.ClientInfo.Address },
	"clientInfo.email":      func(q *quotations.Quotation) *string { return &q.ClientInfo.Email },
	"clientInfo.phone":      func(q *quotations.Quotation) *string { return &q.ClientInfo.Phone },
	"header.companyName":    func(q *quotations.Quotation) *string { return &q.Header.CompanyName },
	"header.companyAddress": func(q *quotations.Quotation) *string { return &q.Header.CompanyAddress },
	"header.quoteNumber":    func(q *quotations.Quotation) *string { return &q.Header.QuoteNumber },
	"footer.contactEmail":   func(q *quotations.Quotation) *string { return &q.Footer.ContactEmail },
	"footer.contactPhone":   func(q *quotations.Quotation) *string { return &q.Footer.ContactPhone },
	"footer.website":        func(q *quotations.Quotation) *string { return &q.Footer.Website },
	"footer.bankDetails":    func(q *quotations.Quotation) *string { return &q.Footer.BankDetails },
	"terms":                 func(q *quotations.Quotation) *string { return &q.Terms },
	"validUntil":            func(q *quotations.Quotation) *string { return &q.ValidUntil },
}

// UpdateField merges value into the document field named by path. Content is
// not validated here; only the value's shape is checked.
func UpdateField(q *quotations.Quotation, path string, value any, now time.Time) error {
	path = strings.TrimSpace(path)
	if field, ok := stringFields[path]; ok {
		text, ok := scalarText(value)
		if !ok {
			return pkgerrors.Invalid(path, "Value must be text")
		}
		*field(q) = text
		q.UpdatedAt = now
		return nil
	}

	switch path {
	case "header.logo":
		if value == nil {
			q.Header.Logo = nil
			break
		}
		text, ok := scalarText(value)
		if !ok {
			return pkgerrors.Invalid(path, "Value must be text")
		}
		if text == "" {
			q.Header.Logo = nil
		} else {
			q.Header.Logo = &text
		}
	case "currency":
		text, _ := scalarText(value)
		currency, err := enums.ParseCurrency(text)
		if err != nil {
			return pkgerrors.Invalid(path, "Unsupported currency")
		}
		q.Currency = currency
	case "templateId":
		if value == nil {
			q.TemplateID = nil
			break
		}
		id, ok := parseID(value)
		if !ok {
			return pkgerrors.Invalid(path, "Template id must be a positive integer")
		}
		q.TemplateID = &id
	default:
		return pkgerrors.Newf(pkgerrors.CodeValidation, "unknown field %q", path).
			WithDetails(map[string]string{path: "Unknown field"})
	}
	q.UpdatedAt = now
	return nil
}

// AddItem appends an empty line item. Totals are unchanged since the new item
// is worth zero.
func AddItem(q *quotations.Quotation, now time.Time) types.LineItem {
	item := pricing.NewItem(q.Items)
	q.Items = append(q.Items, item)
	q.Recalculate()
	q.UpdatedAt = now
	return item
}

// UpdateItem replaces the item with the same id and refreshes its total.
func UpdateItem(q *quotations.Quotation, item types.LineItem, now time.Time) error {
	idx := q.FindItem(item.ID)
	if idx < 0 {
		return itemNotFound(item.ID)
	}
	q.Items[idx] = pricing.Recompute(item, item.Quantity, item.UnitPrice)
	q.Recalculate()
	q.UpdatedAt = now
	return nil
}

// UpdateItemField edits one field of an item. Quantity and unit price edits
// are coerced permissively and recompute the item total.
func UpdateItemField(q *quotations.Quotation, id int, field string, value any, now time.Time) error {
	idx := q.FindItem(id)
	if idx < 0 {
		return itemNotFound(id)
	}
	item := q.Items[idx]
	switch field {
	case ItemFieldDescription:
		text, ok := scalarText(value)
		if !ok {
			return pkgerrors.Invalid(itemPath(idx, field), "Value must be text")
		}
		item.Description = text
	case ItemFieldQuantity:
		item = pricing.Recompute(item, value, item.UnitPrice)
	case ItemFieldUnitPrice:
		item = pricing.Recompute(item, item.Quantity, value)
	case ItemFieldProductID:
		if value == nil {
			item.ProductID = nil
			break
		}
		pid, ok := parseID(value)
		if !ok {
			return pkgerrors.Invalid(itemPath(idx, field), "Product id must be a positive integer")
		}
		item.ProductID = &pid
	default:
		return pkgerrors.Newf(pkgerrors.CodeValidation, "unknown item field %q", field).
			WithDetails(map[string]string{itemPath(idx, field): "Unknown field"})
	}
	q.Items[idx] = item
	q.Recalculate()
	q.UpdatedAt = now
	return nil
}

// DeleteItem removes exactly the item with id.
func DeleteItem(q *quotations.Quotation, id int, now time.Time) error {
	idx := q.FindItem(id)
	if idx < 0 {
		return itemNotFound(id)
	}
	q.Items = append(q.Items[:idx:idx], q.Items[idx+1:]...)
	q.Recalculate()
	q.UpdatedAt = now
	return nil
}

// ApplyProduct fills an item from a catalog product: description, unit price
// and product reference. The item's quantity is kept.
func ApplyProduct(q *quotations.Quotation, id int, product products.ProductDTO, now time.Time) error {
	idx := q.FindItem(id)
	if idx < 0 {
		return itemNotFound(id)
	}
	item := q.Items[idx]
	item.Description = product.DisplayName()
	pid := product.ID
	item.ProductID = &pid
	q.Items[idx] = pricing.Recompute(item, item.Quantity, product.Price)
	q.Recalculate()
	q.UpdatedAt = now
	return nil
}

func itemNotFound(id int) error {
	return pkgerrors.Newf(pkgerrors.CodeNotFound, "line item %d not found", id)
}

func itemPath(idx int, field string) string {
	return fmt.Sprintf("items.%d.%s", idx, field)
}

// scalarText renders strings, numbers and booleans as text; nil is empty.
func scalarText(value any) (string, bool) {
	switch v := value.(type) {
	case nil:
		return "", true
	case string:
		return v, true
	case json.Number:
		return v.String(), true
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64), true
	case int:
		return strconv.Itoa(v), true
	case int64:
		return strconv.FormatInt(v, 10), true
	case bool:
		return strconv.FormatBool(v), true
	default:
		return "", false
	}
}

func parseID(value any) (int64, bool) {
	var id int64
	switch v := value.(type) {
	case float64:
		if v != math.Trunc(v) || v > math.MaxInt64 {
			return 0, false
		}
		id = int64(v)
	case int:
		id = int64(v)
	case int64:
		id = v
	case json.Number:
		n, err := v.Int64()
		if err != nil {
			return 0, false
		}
		id = n
	case string:
		n, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
		if err != nil {
			return 0, false
		}
		id = n
	default:
		return 0, false
	}
	return id, id > 0
}
