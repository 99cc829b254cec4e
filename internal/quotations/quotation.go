package quotations

import (
	"fmt"
	"strings"
	"time"

	"github.com/angelmondragon/quotebuilder-backend/internal/formatting"
	"github.com/angelmondragon/quotebuilder-backend/internal/pricing"
	"github.com/angelmondragon/quotebuilder-backend/pkg/config"
	"github.com/angelmondragon/quotebuilder-backend/pkg/enums"
	"github.com/angelmondragon/quotebuilder-backend/pkg/types"
)

// DateLayout is the wire format of validUntil.
const DateLayout = "2006-01-02"

// DefaultTerms is the boilerplate placed on every new quotation.
const DefaultTerms = `1. Payment is due within 30 days of invoice date.
2. All prices are in Thai Baht (THB) and include VAT.
3. This quotation is valid for 30 days from the date issued.
4. Additional charges may apply for changes to specifications.`

// ClientInfo identifies who the quotation is addressed to.
type ClientInfo struct {
	Name    string `json:"name"`
	Company string `json:"company"`
	Address string `json:"address"`
	Email   string `json:"email"`
	Phone   string `json:"phone"`
}

// Header is the issuing company block printed at the top.
type Header struct {
	CompanyName    string  `json:"companyName"`
	CompanyAddress string  `json:"companyAddress"`
	QuoteNumber    string  `json:"quoteNumber"`
	Logo           *string `json:"logo"`
}

// Footer carries contact and payment details printed at the bottom.
type Footer struct {
	ContactEmail string `json:"contactEmail"`
	ContactPhone string `json:"contactPhone"`
	Website      string `json:"website"`
	BankDetails  string `json:"bankDetails"`
}

// Quotation is the canonical editing shape of a quotation document.
type Quotation struct {
	ID         int64           `json:"id"`
	TemplateID *int64          `json:"templateId"`
	ClientInfo ClientInfo      `json:"clientInfo"`
	Header     Header          `json:"header"`
	Footer     Footer          `json:"footer"`
	Terms      string          `json:"terms"`
	Items      types.LineItems `json:"items"`
	Subtotal   float64         `json:"subtotal"`
	Tax        float64         `json:"tax"`
	Total      float64         `json:"total"`
	Currency   enums.Currency  `json:"currency"`
	ValidUntil string          `json:"validUntil"`
	CreatedAt  time.Time       `json:"createdAt"`
	UpdatedAt  time.Time       `json:"updatedAt"`
}

// Recalculate refreshes subtotal, tax and total from the items.
func (q *Quotation) Recalculate() {
	totals := pricing.Aggregate(q.Items)
	q.Subtotal = totals.Subtotal
	q.Tax = totals.Tax
	q.Total = totals.Total
}

// Clone returns a copy that shares no mutable state with q.
func (q Quotation) Clone() Quotation {
	out := q
	out.Items = q.Items.Clone()
	if out.Items == nil {
		out.Items = types.LineItems{}
	}
	if q.TemplateID != nil {
		id := *q.TemplateID
		out.TemplateID = &id
	}
	if q.Header.Logo != nil {
		logo := *q.Header.Logo
		out.Header.Logo = &logo
	}
	return out
}

// FindItem returns the index of the item with id, or -1.
func (q Quotation) FindItem(id int) int {
	for i, item := range q.Items {
		if item.ID == id {
			return i
		}
	}
	return -1
}

// Defaults are the values stamped on a freshly created quotation.
type Defaults struct {
	Currency     enums.Currency
	ValidityDays int
	NumberPrefix string
	Terms        string
}

// StandardDefaults mirrors the built-in configuration defaults.
var StandardDefaults = Defaults{
	Currency:     enums.CurrencyTHB,
	ValidityDays: 30,
	NumberPrefix: "QT",
	Terms:        DefaultTerms,
}

// DefaultsFromConfig builds Defaults from the quotation configuration section.
func DefaultsFromConfig(cfg config.QuotationConfig) Defaults {
	d := StandardDefaults
	if currency, err := enums.ParseCurrency(cfg.Currency); err == nil {
		d.Currency = currency
	}
	if cfg.ValidityDays >= 0 {
		d.ValidityDays = cfg.ValidityDays
	}
	if prefix := strings.TrimSpace(cfg.NumberPrefix); prefix != "" {
		d.NumberPrefix = prefix
	}
	if terms := strings.TrimSpace(cfg.DefaultTerms); terms != "" {
		d.Terms = cfg.DefaultTerms
	}
	return d
}

// NewEmpty builds a blank quotation. Its id is a client placeholder derived
// from now and must be replaced by the store on first save.
func (d Defaults) NewEmpty(now time.Time) Quotation {
	millis := now.UnixMilli()
	return Quotation{
		ID: millis,
		Header: Header{
			QuoteNumber: fmt.Sprintf("%s-%d-%s", d.NumberPrefix, now.Year(), formatting.LastDigits(millis, 3)),
		},
		Terms:      d.Terms,
		Items:      types.LineItems{},
		Currency:   d.Currency,
		ValidUntil: now.UTC().AddDate(0, 0, d.ValidityDays).Format(DateLayout),
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

// NewEmpty builds a blank quotation with the standard defaults.
func NewEmpty(now time.Time) Quotation {
	return StandardDefaults.NewEmpty(now)
}
