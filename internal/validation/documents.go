package validation

import (
	"fmt"
	"strings"

	"github.com/angelmondragon/quotebuilder-backend/internal/quotations"
	"github.com/angelmondragon/quotebuilder-backend/pkg/enums"
	"github.com/angelmondragon/quotebuilder-backend/pkg/types"
)

const (
	templateNameMin = 2
	templateNameMax = 100
	minQuantity     = 0.01
)

// Quotation validates a document before it is saved.
func Quotation(q quotations.Quotation) Result {
	res := newResult()

	if !Required(q.ClientInfo.Name) {
		res.add("clientInfo.name", "Client name is required")
	}
	if q.ClientInfo.Email != "" && !Email(q.ClientInfo.Email) {
		res.add("clientInfo.email", "Invalid email format")
	}
	if q.ClientInfo.Phone != "" && !Phone(q.ClientInfo.Phone) {
		res.add("clientInfo.phone", "Invalid phone number format")
	}

	if !Required(q.Header.CompanyName) {
		res.add("header.companyName", "Company name is required")
	}
	if !Required(q.Header.QuoteNumber) {
		res.add("header.quoteNumber", "Quote number is required")
	}

	if len(q.Items) == 0 {
		res.add("items", "At least one line item is required")
	}
	for i, item := range q.Items {
		prefix := fmt.Sprintf("items.%d.", i)
		if !Required(item.Description) {
			res.add(prefix+"description", "Description is required")
		}
		if !Number(item.Quantity, Bound(0), nil) {
			res.add(prefix+"quantity", "Valid quantity is required")
		}
		if !Number(item.UnitPrice, Bound(0), nil) {
			res.add(prefix+"unitPrice", "Valid unit price is required")
		}
	}

	if q.ValidUntil != "" && !Date(q.ValidUntil) {
		res.add("validUntil", "Invalid date format")
	}
	if q.Currency != "" && !q.Currency.IsValid() {
		res.add("currency", "Unsupported currency")
	}
	return res
}

// LineItem validates a single row in isolation.
func LineItem(item types.LineItem) Result {
	res := newResult()
	if !Required(item.Description) {
		res.add("description", "Description is required")
	}
	if !Number(item.Quantity, Bound(minQuantity), nil) {
		res.add("quantity", "Quantity must be greater than 0")
	}
	if !Number(item.UnitPrice, Bound(0), nil) {
		res.add("unitPrice", "Unit price must be 0 or greater")
	}
	return res
}

// Template validates a template name.
func Template(name string) Result {
	res := newResult()
	switch {
	case !Required(name):
		res.add("name", "Template name is required")
	case !MinLength(strings.TrimSpace(name), templateNameMin):
		res.add("name", fmt.Sprintf("Template name must be at least %d characters", templateNameMin))
	case !MaxLength(name, templateNameMax):
		res.add("name", fmt.Sprintf("Template name must be less than %d characters", templateNameMax))
	}
	return res
}

// Product validates a catalog entry. Either the SKU or the product name must
// be present and the price must not be negative.
func Product(sku, productName string, price any) Result {
	res := newResult()
	if !Required(sku) && !Required(productName) {
		res.add("productName", "Product name or SKU is required")
	}
	if !Number(price, Bound(0), nil) {
		res.add("price", "Price must be 0 or greater")
	}
	return res
}

// Attribute validates a dynamic attribute value against its declared type.
func Attribute(attributeName string, dataType enums.AttributeDataType, value string) Result {
	res := newResult()
	if !Required(attributeName) {
		res.add("attributeName", "Attribute name is required")
	}
	if !dataType.IsValid() {
		res.add("dataType", "Unsupported data type")
		return res
	}
	if value == "" {
		return res
	}
	switch dataType {
	case enums.AttributeDataTypeNumber:
		if !Number(value, nil, nil) {
			res.add("attributeValue", "Value must be a number")
		}
	case enums.AttributeDataTypeDate:
		if !Date(value) {
			res.add("attributeValue", "Value must be a date")
		}
	case enums.AttributeDataTypeBoolean:
		if v := strings.ToLower(strings.TrimSpace(value)); v != "true" && v != "false" {
			res.add("attributeValue", "Value must be true or false")
		}
	}
	return res
}
