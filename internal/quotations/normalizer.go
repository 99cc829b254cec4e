package quotations

import (
	"time"

	"github.com/angelmondragon/quotebuilder-backend/internal/pricing"
	"github.com/angelmondragon/quotebuilder-backend/pkg/db/models"
	"github.com/angelmondragon/quotebuilder-backend/pkg/types"
)

// Normalizer converts between the persisted record and the editing shape.
type Normalizer struct {
	Defaults Defaults
}

// NewNormalizer returns a Normalizer stamping d on empty documents.
func NewNormalizer(d Defaults) Normalizer {
	return Normalizer{Defaults: d}
}

// ToEditable converts a stored record into the editing shape. A nil record
// yields a new empty quotation. The client's company, email and phone are not
// persisted and always come back empty.
func (n Normalizer) ToEditable(rec *models.QuotationRecord, now time.Time) Quotation {
	if rec == nil {
		return n.Defaults.NewEmpty(now)
	}

	q := Quotation{
		ID:         rec.ID,
		TemplateID: cloneInt64(rec.TemplateID),
		ClientInfo: ClientInfo{
			Name:    deref(rec.ClientName),
			Address: deref(rec.ClientAddress),
		},
		Terms:      deref(rec.TermsAndConditions),
		ValidUntil: deref(rec.Date),
		Items:      rec.Items.Clone(),
		Subtotal:   rec.Subtotal.InexactFloat64(),
		Tax:        rec.Tax.InexactFloat64(),
		Total:      rec.Total.InexactFloat64(),
		Currency:   rec.Currency,
		CreatedAt:  rec.CreatedAt,
		UpdatedAt:  rec.UpdatedAt,
	}

	if !rec.HeaderText.Decode(&q.Header) {
		q.Header = Header{}
	}
	if rec.QuotationNumber != nil {
		q.Header.QuoteNumber = *rec.QuotationNumber
	}
	if !rec.FooterText.Decode(&q.Footer) {
		q.Footer = Footer{}
	}
	if q.Items == nil {
		q.Items = types.LineItems{}
	}
	if q.Currency == "" {
		q.Currency = n.Defaults.Currency
	}
	return q
}

// ToPersisted converts the editing shape into a storable record.
func (n Normalizer) ToPersisted(q Quotation) models.QuotationRecord {
	rec := models.QuotationRecord{
		ID:                 q.ID,
		TemplateID:         cloneInt64(q.TemplateID),
		ClientName:         strPtr(q.ClientInfo.Name),
		ClientAddress:      strPtr(q.ClientInfo.Address),
		QuotationNumber:    strPtr(q.Header.QuoteNumber),
		Date:               strPtr(q.ValidUntil),
		TermsAndConditions: strPtr(q.Terms),
		Items:              q.Items.Clone(),
		Subtotal:           pricing.Decimal(q.Subtotal),
		Tax:                pricing.Decimal(q.Tax),
		Total:              pricing.Decimal(q.Total),
		Currency:           q.Currency,
		CreatedAt:          q.CreatedAt,
		UpdatedAt:          q.UpdatedAt,
	}
	if rec.Items == nil {
		rec.Items = types.LineItems{}
	}
	if rec.Currency == "" {
		rec.Currency = n.Defaults.Currency
	}
	// Header and footer are plain structs; encoding cannot fail.
	rec.HeaderText, _ = types.EncodeJSON(q.Header)
	rec.FooterText, _ = types.EncodeJSON(q.Footer)
	return rec
}

// ToEditable converts rec with the standard defaults.
func ToEditable(rec *models.QuotationRecord, now time.Time) Quotation {
	return NewNormalizer(StandardDefaults).ToEditable(rec, now)
}

// ToPersisted converts q with the standard defaults.
func ToPersisted(q Quotation) models.QuotationRecord {
	return NewNormalizer(StandardDefaults).ToPersisted(q)
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func strPtr(s string) *string {
	return &s
}

func cloneInt64(v *int64) *int64 {
	if v == nil {
		return nil
	}
	out := *v
	return &out
}
