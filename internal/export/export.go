// Package export renders a quotation as a printable HTML page, a PDF or an
// XLSX workbook. All three renderings are built from the same Document.
package export

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/angelmondragon/quotebuilder-backend/internal/formatting"
	"github.com/angelmondragon/quotebuilder-backend/internal/quotations"
	"github.com/angelmondragon/quotebuilder-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/quotebuilder-backend/pkg/errors"
	"github.com/angelmondragon/quotebuilder-backend/pkg/logger"
	"github.com/angelmondragon/quotebuilder-backend/pkg/metrics"
)

// EmptyItemsText is shown in place of the items table when there are no items.
const EmptyItemsText = "No items added yet"

const (
	placeholderCompany     = "Your Company Name"
	placeholderAddress     = "Company Address"
	placeholderQuoteNumber = "QT-2024-001"
	placeholderClient      = "Client Name"
	placeholderClientAddr  = "Client Address"
	placeholderDescription = "Product/Service description"
	taxLabel               = "VAT (7%)"
)

var unsafeFilename = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// Row is one display-ready line item.
type Row struct {
	Index       int
	Description string
	Quantity    string
	UnitPrice   string
	Total       string

	QuantityValue  float64
	UnitPriceValue float64
	TotalValue     float64
}

// Document is the display-ready view of a quotation.
type Document struct {
	CompanyName    string
	CompanyAddress string
	QuoteNumber    string
	Logo           string
	IssuedOn       string
	ValidUntil     string

	ClientName    string
	ClientCompany string
	ClientAddress string
	ClientEmail   string
	ClientPhone   string

	Rows     []Row
	Currency string
	TaxLabel string
	Subtotal string
	Tax      string
	Total    string

	SubtotalValue float64
	TaxValue      float64
	TotalValue    float64

	Terms        string
	ContactEmail string
	ContactPhone string
	Website      string
	BankDetails  string
}

// HasItems reports whether the items table has rows.
func (d Document) HasItems() bool {
	return len(d.Rows) > 0
}

// Output is a rendered export ready to be served.
type Output struct {
	Format      enums.ExportFormat
	ContentType string
	Filename    string
	Body        []byte
}

// Params wires a Renderer.
type Params struct {
	Locale  string
	Metrics *metrics.QuotationMetrics
	Logger  *logger.Logger
	Clock   func() time.Time
}

// Renderer turns quotations into export documents.
type Renderer struct {
	formatter *formatting.Formatter
	// print is used where the output cannot carry non-Latin glyphs.
	print   *formatting.Formatter
	metrics *metrics.QuotationMetrics
	logg    *logger.Logger
	now     func() time.Time
}

// NewRenderer builds a Renderer for the configured locale.
func NewRenderer(params Params) *Renderer {
	if params.Clock == nil {
		params.Clock = time.Now
	}
	return &Renderer{
		formatter: formatting.NewFormatter(params.Locale),
		print:     formatting.NewFormatter("en-US"),
		metrics:   params.Metrics,
		logg:      params.Logger,
		now:       params.Clock,
	}
}

// Render produces q in the requested format. The quotation is not modified.
func (r *Renderer) Render(ctx context.Context, format enums.ExportFormat, q quotations.Quotation) (*Output, error) {
	if !format.IsValid() {
		return nil, pkgerrors.Newf(pkgerrors.CodeValidation, "unsupported export format %q", format)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	start := r.now()
	var (
		body []byte
		err  error
	)
	switch format {
	case enums.ExportFormatPDF:
		body, err = r.PDF(q)
	case enums.ExportFormatXLSX:
		body, err = r.XLSX(q)
	default:
		body, err = r.HTML(q)
	}
	if err != nil {
		if r.logg != nil {
			r.logg.Error(r.logg.WithField(ctx, "format", format.String()), "quotation export failed", err)
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "render "+format.String())
	}
	r.metrics.ObserveExport(format.String(), r.now().Sub(start))

	return &Output{
		Format:      format,
		ContentType: format.ContentType(),
		Filename:    Filename(q, format),
		Body:        body,
	}, nil
}

// Filename derives a download name from the quote number.
func Filename(q quotations.Quotation, format enums.ExportFormat) string {
	base := strings.Trim(unsafeFilename.ReplaceAllString(q.Header.QuoteNumber, "-"), "-.")
	if base == "" {
		base = "quotation"
	}
	return base + "." + format.String()
}

// Build converts q into a Document using the renderer's locale.
func (r *Renderer) Build(q quotations.Quotation) Document {
	return r.build(q, r.formatter, r.formatter.Currency)
}

// buildPlain formats amounts as "THB 1,234.00" and dates in English.
func (r *Renderer) buildPlain(q quotations.Quotation) Document {
	return r.build(q, r.print, func(amount float64, code string) string {
		return code + " " + r.print.Number(amount, 2)
	})
}

func (r *Renderer) build(q quotations.Quotation, f *formatting.Formatter, money func(float64, string) string) Document {
	currency := q.Currency.String()
	if !q.Currency.IsValid() {
		currency = enums.CurrencyTHB.String()
	}

	doc := Document{
		CompanyName:    orDefault(q.Header.CompanyName, placeholderCompany),
		CompanyAddress: orDefault(q.Header.CompanyAddress, placeholderAddress),
		QuoteNumber:    orDefault(q.Header.QuoteNumber, placeholderQuoteNumber),
		IssuedOn:       f.Date(r.now()),
		ValidUntil:     f.DateString(q.ValidUntil),
		ClientName:     orDefault(q.ClientInfo.Name, placeholderClient),
		ClientCompany:  q.ClientInfo.Company,
		ClientAddress:  orDefault(q.ClientInfo.Address, placeholderClientAddr),
		ClientEmail:    q.ClientInfo.Email,
		ClientPhone:    q.ClientInfo.Phone,
		Currency:       currency,
		TaxLabel:       taxLabel,
		Subtotal:       money(q.Subtotal, currency),
		Tax:            money(q.Tax, currency),
		Total:          money(q.Total, currency),
		SubtotalValue:  q.Subtotal,
		TaxValue:       q.Tax,
		TotalValue:     q.Total,
		Terms:          q.Terms,
		ContactEmail:   q.Footer.ContactEmail,
		ContactPhone:   q.Footer.ContactPhone,
		Website:        q.Footer.Website,
		BankDetails:    q.Footer.BankDetails,
	}
	if q.Header.Logo != nil {
		doc.Logo = *q.Header.Logo
	}

	doc.Rows = make([]Row, 0, len(q.Items))
	for i, item := range q.Items {
		quantity := item.Quantity
		if quantity == 0 {
			quantity = 1
		}
		doc.Rows = append(doc.Rows, Row{
			Index:          i + 1,
			Description:    orDefault(item.Description, placeholderDescription),
			Quantity:       formatQuantity(quantity),
			UnitPrice:      money(item.UnitPrice, currency),
			Total:          money(item.Total, currency),
			QuantityValue:  quantity,
			UnitPriceValue: item.UnitPrice,
			TotalValue:     item.Total,
		})
	}
	return doc
}

func orDefault(value, fallback string) string {
	if strings.TrimSpace(value) == "" {
		return fallback
	}
	return value
}

// formatQuantity drops the fraction for whole quantities.
func formatQuantity(q float64) string {
	if q == float64(int64(q)) {
		return fmt.Sprintf("%d", int64(q))
	}
	return strings.TrimRight(strings.TrimRight(fmt.Sprintf("%.2f", q), "0"), ".")
}
