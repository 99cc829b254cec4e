package export

import (
	"bytes"
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/angelmondragon/quotebuilder-backend/internal/quotations"
)

const (
	sheetName  = "Quotation"
	moneyStyle = `#,##0.00`
)

// XLSX renders q as a single-sheet workbook. Amounts are written as numbers
// so the sheet stays usable for further calculation.
func (r *Renderer) XLSX(q quotations.Quotation) ([]byte, error) {
	doc := r.Build(q)

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), sheetName); err != nil {
		return nil, fmt.Errorf("set sheet name: %w", err)
	}
	for col, width := range map[string]float64{"A": 6, "B": 44, "C": 10, "D": 16, "E": 18} {
		if err := f.SetColWidth(sheetName, col, col, width); err != nil {
			return nil, fmt.Errorf("set col width %s: %w", col, err)
		}
	}

	styles, err := newSheetStyles(f)
	if err != nil {
		return nil, err
	}

	w := &sheetWriter{f: f}
	w.set("A1", doc.CompanyName, styles.title)
	w.set("A2", doc.CompanyAddress, 0)
	w.set("D1", "QUOTATION", styles.bold)
	w.set("D2", "Quote #", styles.bold)
	w.set("E2", doc.QuoteNumber, 0)
	w.set("D3", "Date", styles.bold)
	w.set("E3", doc.IssuedOn, 0)
	if doc.ValidUntil != "" {
		w.set("D4", "Valid Until", styles.bold)
		w.set("E4", doc.ValidUntil, 0)
	}

	w.set("A6", "Bill To:", styles.bold)
	line := 7
	for _, v := range []string{doc.ClientName, doc.ClientCompany, doc.ClientAddress, prefixed("Email: ", doc.ClientEmail), prefixed("Phone: ", doc.ClientPhone)} {
		if v == "" {
			continue
		}
		w.set(cell("B", line), v, 0)
		line++
	}

	line++
	header := line
	for col, title := range map[string]string{"A": "#", "B": "Description", "C": "Qty", "D": "Unit Price", "E": "Total"} {
		w.set(cell(col, header), title, styles.header)
	}
	line++

	if !doc.HasItems() {
		w.set(cell("B", line), EmptyItemsText, styles.muted)
		line++
	}
	for _, row := range doc.Rows {
		w.set(cell("A", line), row.Index, styles.border)
		w.set(cell("B", line), row.Description, styles.border)
		w.set(cell("C", line), row.QuantityValue, styles.border)
		w.set(cell("D", line), row.UnitPriceValue, styles.money)
		w.set(cell("E", line), row.TotalValue, styles.money)
		line++
	}

	if doc.HasItems() {
		line++
		for _, total := range []struct {
			label string
			value float64
		}{
			{"Subtotal", doc.SubtotalValue},
			{doc.TaxLabel, doc.TaxValue},
			{"Total (" + doc.Currency + ")", doc.TotalValue},
		} {
			w.set(cell("D", line), total.label, styles.bold)
			w.set(cell("E", line), total.value, styles.moneyBold)
			line++
		}
	}

	if doc.Terms != "" {
		line++
		w.set(cell("A", line), "Terms & Conditions:", styles.bold)
		line++
		w.set(cell("A", line), doc.Terms, styles.wrap)
		w.merge(cell("A", line), cell("E", line))
		line++
	}

	line++
	w.set(cell("A", line), "Contact Information:", styles.bold)
	line++
	for _, v := range []string{prefixed("Email: ", doc.ContactEmail), prefixed("Phone: ", doc.ContactPhone), prefixed("Website: ", doc.Website)} {
		if v == "" {
			continue
		}
		w.set(cell("A", line), v, 0)
		line++
	}
	if doc.BankDetails != "" {
		w.set(cell("A", line), "Bank Details:", styles.bold)
		w.set(cell("B", line), doc.BankDetails, styles.wrap)
	}

	if w.err != nil {
		return nil, w.err
	}
	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("write xlsx: %w", err)
	}
	return buf.Bytes(), nil
}

type sheetStyles struct {
	title, bold, header, border, money, moneyBold, muted, wrap int
}

func newSheetStyles(f *excelize.File) (sheetStyles, error) {
	var s sheetStyles
	format := moneyStyle
	defs := []struct {
		dst   *int
		style *excelize.Style
	}{
		{&s.title, &excelize.Style{Font: &excelize.Font{Bold: true, Size: 16, Color: "#2563EB"}}},
		{&s.bold, &excelize.Style{Font: &excelize.Font{Bold: true}}},
		{&s.header, &excelize.Style{
			Font:   &excelize.Font{Bold: true},
			Fill:   excelize.Fill{Type: "pattern", Color: []string{"#F3F4F6"}, Pattern: 1},
			Border: thinBorders(),
		}},
		{&s.border, &excelize.Style{Border: thinBorders()}},
		{&s.money, &excelize.Style{Border: thinBorders(), CustomNumFmt: &format}},
		{&s.moneyBold, &excelize.Style{Font: &excelize.Font{Bold: true}, CustomNumFmt: &format}},
		{&s.muted, &excelize.Style{Font: &excelize.Font{Italic: true, Color: "#6B7280"}}},
		{&s.wrap, &excelize.Style{Alignment: &excelize.Alignment{WrapText: true, Vertical: "top"}}},
	}
	for _, def := range defs {
		id, err := f.NewStyle(def.style)
		if err != nil {
			return s, fmt.Errorf("create style: %w", err)
		}
		*def.dst = id
	}
	return s, nil
}

// sheetWriter records the first failed write; later writes are skipped.
type sheetWriter struct {
	f   *excelize.File
	err error
}

func (w *sheetWriter) set(ref string, value any, style int) {
	if w.err != nil {
		return
	}
	if s, ok := value.(string); ok {
		value = sanitizeCell(s)
	}
	if err := w.f.SetCellValue(sheetName, ref, value); err != nil {
		w.err = fmt.Errorf("set %s: %w", ref, err)
		return
	}
	if style != 0 {
		if err := w.f.SetCellStyle(sheetName, ref, ref, style); err != nil {
			w.err = fmt.Errorf("style %s: %w", ref, err)
		}
	}
}

func (w *sheetWriter) merge(from, to string) {
	if w.err != nil {
		return
	}
	if err := w.f.MergeCell(sheetName, from, to); err != nil {
		w.err = fmt.Errorf("merge %s:%s: %w", from, to, err)
	}
}

func cell(col string, row int) string {
	return fmt.Sprintf("%s%d", col, row)
}

func prefixed(prefix, value string) string {
	if value == "" {
		return ""
	}
	return prefix + value
}

// sanitizeCell stops spreadsheet apps from evaluating user text as a formula.
func sanitizeCell(s string) string {
	if s == "" {
		return s
	}
	switch s[0] {
	case '=', '+', '-', '@', '\t', '\r', '|':
		return "'" + s
	}
	return s
}

func thinBorders() []excelize.Border {
	sides := []string{"left", "top", "bottom", "right"}
	borders := make([]excelize.Border, len(sides))
	for i, side := range sides {
		borders[i] = excelize.Border{Type: side, Color: "#D1D5DB", Style: 1}
	}
	return borders
}
