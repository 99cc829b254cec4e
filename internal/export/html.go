package export

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"strings"

	"github.com/angelmondragon/quotebuilder-backend/internal/quotations"
)

//go:embed templates/quotation.html
var templateFS embed.FS

var quotationPage = template.Must(template.ParseFS(templateFS, "templates/quotation.html"))

type htmlPage struct {
	Lang  string
	Doc   Document
	Empty string
	Logo  template.URL
}

// HTML renders q as a self-contained printable page.
func (r *Renderer) HTML(q quotations.Quotation) ([]byte, error) {
	page := htmlPage{
		Lang:  r.formatter.Locale(),
		Doc:   r.Build(q),
		Empty: EmptyItemsText,
	}
	page.Logo = trustedLogo(page.Doc.Logo)

	var buf bytes.Buffer
	if err := quotationPage.Execute(&buf, page); err != nil {
		return nil, fmt.Errorf("execute quotation template: %w", err)
	}
	return buf.Bytes(), nil
}

// trustedLogo allows http(s) links and inline raster images only.
func trustedLogo(logo string) template.URL {
	logo = strings.TrimSpace(logo)
	lower := strings.ToLower(logo)
	switch {
	case strings.HasPrefix(lower, "https://"), strings.HasPrefix(lower, "http://"):
	case strings.HasPrefix(lower, "data:image/png;"), strings.HasPrefix(lower, "data:image/jpeg;"),
		strings.HasPrefix(lower, "data:image/gif;"), strings.HasPrefix(lower, "data:image/webp;"):
	default:
		return ""
	}
	return template.URL(logo)
}
