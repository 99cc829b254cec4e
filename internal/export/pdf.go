package export

import (
	"fmt"

	"github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/row"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/consts/pagesize"
	"github.com/johnfercher/maroto/v2/pkg/core"
	"github.com/johnfercher/maroto/v2/pkg/props"

	"github.com/angelmondragon/quotebuilder-backend/internal/quotations"
)

var (
	accent    = &props.Color{Red: 37, Green: 99, Blue: 235}
	muted     = &props.Color{Red: 75, Green: 85, Blue: 99}
	headingBg = &props.Color{Red: 243, Green: 244, Blue: 246}
)

// PDF renders q as an A4 document with the same sections as the HTML page.
func (r *Renderer) PDF(q quotations.Quotation) ([]byte, error) {
	doc := r.buildPlain(q)

	cfg := config.NewBuilder().
		WithPageSize(pagesize.A4).
		WithLeftMargin(15).
		WithTopMargin(15).
		WithRightMargin(15).
		WithPageNumber(props.PageNumber{
			Pattern: "Page {current} of {total}",
			Place:   props.RightBottom,
			Size:    7,
			Color:   muted,
		}).
		Build()

	m := maroto.New(cfg)
	addPDFHeader(m, doc)
	addPDFClient(m, doc)
	addPDFItems(m, doc)
	addPDFTerms(m, doc)
	addPDFFooter(m, doc)

	out, err := m.Generate()
	if err != nil {
		return nil, fmt.Errorf("generate pdf: %w", err)
	}
	return out.GetBytes(), nil
}

func addPDFHeader(m core.Maroto, doc Document) {
	m.AddRows(
		row.New(10).Add(
			col.New(7).Add(text.New(doc.CompanyName, props.Text{Size: 16, Style: fontstyle.Bold, Color: accent})),
			col.New(5).Add(text.New("QUOTATION", props.Text{Size: 14, Style: fontstyle.Bold, Align: align.Right})),
		),
		row.New(6).Add(
			col.New(7).Add(text.New(doc.CompanyAddress, props.Text{Size: 9, Color: muted})),
			col.New(5).Add(text.New("Quote #: "+doc.QuoteNumber, props.Text{Size: 9, Align: align.Right})),
		),
		row.New(5).Add(
			col.New(7),
			col.New(5).Add(text.New("Date: "+doc.IssuedOn, props.Text{Size: 9, Align: align.Right})),
		),
	)
	if doc.ValidUntil != "" {
		m.AddRows(row.New(5).Add(
			col.New(7),
			col.New(5).Add(text.New("Valid Until: "+doc.ValidUntil, props.Text{Size: 9, Align: align.Right})),
		))
	}
	m.AddRows(row.New(6))
}

func addPDFClient(m core.Maroto, doc Document) {
	lines := []string{doc.ClientName}
	if doc.ClientCompany != "" {
		lines = append(lines, doc.ClientCompany)
	}
	lines = append(lines, doc.ClientAddress)
	if doc.ClientEmail != "" {
		lines = append(lines, "Email: "+doc.ClientEmail)
	}
	if doc.ClientPhone != "" {
		lines = append(lines, "Phone: "+doc.ClientPhone)
	}

	m.AddRows(row.New(7).Add(col.New(12).Add(text.New("Bill To:", props.Text{Size: 11, Style: fontstyle.Bold}))))
	for i, line := range lines {
		style := props.Text{Size: 9, Color: muted}
		if i == 0 {
			style = props.Text{Size: 10, Style: fontstyle.Bold}
		}
		m.AddRows(row.New(5).Add(col.New(12).Add(text.New(line, style))))
	}
	m.AddRows(row.New(6))
}

func addPDFItems(m core.Maroto, doc Document) {
	heading := props.Text{Size: 9, Style: fontstyle.Bold, Top: 1.5}
	headingRight := heading
	headingRight.Align = align.Right
	headingCenter := heading
	headingCenter.Align = align.Center
	cell := &props.Cell{BackgroundColor: headingBg}

	m.AddRows(row.New(8).Add(
		col.New(6).Add(text.New("Description", heading)).WithStyle(cell),
		col.New(1).Add(text.New("Qty", headingCenter)).WithStyle(cell),
		col.New(2).Add(text.New("Unit Price", headingRight)).WithStyle(cell),
		col.New(3).Add(text.New("Total", headingRight)).WithStyle(cell),
	))

	if !doc.HasItems() {
		m.AddRows(row.New(14).Add(
			col.New(12).Add(text.New(EmptyItemsText, props.Text{Size: 9, Align: align.Center, Color: muted, Top: 5})),
		))
		m.AddRows(row.New(6))
		return
	}

	body := props.Text{Size: 9, Top: 1.5}
	right := body
	right.Align = align.Right
	center := body
	center.Align = align.Center
	for _, r := range doc.Rows {
		m.AddRows(row.New(7).Add(
			col.New(6).Add(text.New(r.Description, body)),
			col.New(1).Add(text.New(r.Quantity, center)),
			col.New(2).Add(text.New(r.UnitPrice, right)),
			col.New(3).Add(text.New(r.Total, props.Text{Size: 9, Top: 1.5, Style: fontstyle.Bold, Align: align.Right})),
		))
	}

	label := props.Text{Size: 9, Align: align.Right}
	m.AddRows(
		row.New(4),
		totalsRow("Subtotal:", doc.Subtotal, label),
		totalsRow(doc.TaxLabel+":", doc.Tax, label),
		totalsRow("Total:", doc.Total, props.Text{Size: 11, Style: fontstyle.Bold, Align: align.Right}),
		row.New(6),
	)
}

func totalsRow(label, value string, style props.Text) core.Row {
	return row.New(6).Add(
		col.New(6),
		col.New(3).Add(text.New(label, style)),
		col.New(3).Add(text.New(value, style)),
	)
}

func addPDFTerms(m core.Maroto, doc Document) {
	if doc.Terms == "" {
		return
	}
	m.AddRows(
		row.New(7).Add(col.New(12).Add(text.New("Terms & Conditions:", props.Text{Size: 11, Style: fontstyle.Bold}))),
		text.NewRow(20, doc.Terms, props.Text{Size: 9, Color: muted}),
		row.New(6),
	)
}

func addPDFFooter(m core.Maroto, doc Document) {
	contact := ""
	for _, line := range []struct{ label, value string }{
		{"Email: ", doc.ContactEmail},
		{"Phone: ", doc.ContactPhone},
		{"Website: ", doc.Website},
	} {
		if line.value != "" {
			contact += line.label + line.value + "\n"
		}
	}

	m.AddRows(row.New(7).Add(
		col.New(6).Add(text.New("Contact Information:", props.Text{Size: 10, Style: fontstyle.Bold})),
		col.New(6).Add(text.New(bankHeading(doc), props.Text{Size: 10, Style: fontstyle.Bold})),
	))
	m.AddRows(row.New(16).Add(
		col.New(6).Add(text.New(contact, props.Text{Size: 9, Color: muted})),
		col.New(6).Add(text.New(doc.BankDetails, props.Text{Size: 9, Color: muted})),
	))
}

func bankHeading(doc Document) string {
	if doc.BankDetails == "" {
		return ""
	}
	return "Bank Details:"
}
