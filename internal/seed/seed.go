// Package seed loads the demo catalog used for local development.
package seed

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/multierr"

	"github.com/angelmondragon/quotebuilder-backend/internal/products"
	"github.com/angelmondragon/quotebuilder-backend/internal/quotations"
	"github.com/angelmondragon/quotebuilder-backend/internal/templates"
	"github.com/angelmondragon/quotebuilder-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/quotebuilder-backend/pkg/errors"
	"github.com/angelmondragon/quotebuilder-backend/pkg/logger"
	"github.com/angelmondragon/quotebuilder-backend/pkg/types"
)

// Report counts what a run created and skipped.
type Report struct {
	TemplatesCreated int
	TemplatesSkipped int
	ProductsCreated  int
	ProductsSkipped  int
}

// Templates is the demo template library.
func Templates() []templates.Input {
	header := quotations.Header{
		CompanyName:    "Siam Supplies Co., Ltd.",
		CompanyAddress: "99 Rama IV Road, Khlong Toei, Bangkok 10110",
	}
	footer := quotations.Footer{
		ContactEmail: "sales@siamsupplies.example",
		ContactPhone: "02-123-4567",
		Website:      "https://siamsupplies.example",
		BankDetails:  "Kasikornbank 123-4-56789-0",
	}
	return []templates.Input{
		{
			Name:        "Standard",
			Description: "General goods quotation with 30 day payment terms",
			Category:    "general",
			IsDefault:   true,
			Featured:    true,
			Content: templates.Content{
				Header:   header,
				Footer:   footer,
				Terms:    "Payment due within 30 days. Prices include delivery within Bangkok.",
				Currency: enums.CurrencyTHB,
				Items:    types.LineItems{},
			},
		},
		{
			Name:        "Installation service",
			Description: "On-site installation with labour and materials lines",
			Category:    "services",
			Content: templates.Content{
				Header:   header,
				Footer:   footer,
				Terms:    "50% deposit on acceptance, balance on completion.",
				Currency: enums.CurrencyTHB,
				Items: types.LineItems{
					{ID: 1, Description: "Labour (per day)", Quantity: 1, UnitPrice: 3500, Total: 3500},
					{ID: 2, Description: "Materials", Quantity: 1},
				},
			},
		},
		{
			Name:        "Export (USD)",
			Description: "Overseas customers, priced in US dollars",
			Category:    "export",
			Featured:    true,
			Content: templates.Content{
				Header:   header,
				Footer:   footer,
				Terms:    "FOB Laem Chabang. Payment by T/T before shipment.",
				Currency: enums.CurrencyUSD,
				Items:    types.LineItems{},
			},
		},
	}
}

// Products is the demo catalog.
func Products() []products.Input {
	return []products.Input{
		{SKU: "CBL-THW-2.5", ProductName: "THW copper cable 2.5 sq.mm (100 m)", Price: "1450.00", Tags: "cable,electrical"},
		{SKU: "CBL-VAF-1.5", ProductName: "VAF cable 2x1.5 sq.mm (100 m)", Price: "1180.00", Tags: "cable,electrical"},
		{SKU: "PIP-PVC-4", ProductName: "PVC pipe 4 in. class 8.5 (4 m)", Price: "385.00", Tags: "pipe,plumbing"},
		{SKU: "BRK-MCB-32", ProductName: "MCB breaker 1P 32A", Price: "240.00", Tags: "breaker,electrical"},
		{SKU: "LMP-LED-18", ProductName: "LED tube T8 18W daylight", Price: "89.00", Tags: "lighting"},
		{SKU: "SRV-INST", ProductName: "Installation labour (per day)", Price: 3500, Tags: "service"},
	}
}

// Run creates the demo templates and products. Templates whose name already
// exists and products whose SKU is taken are skipped, so reruns are safe.
// Other failures are collected and returned together.
func Run(ctx context.Context, tpls templates.Service, catalog products.Service, logg *logger.Logger) (Report, error) {
	var (
		report Report
		errs   error
	)

	existing, err := tpls.List(ctx, templates.ListInput{})
	if err != nil {
		return report, err
	}
	names := make(map[string]bool, len(existing))
	for _, tpl := range existing {
		names[strings.ToLower(tpl.Name)] = true
	}
	for _, input := range Templates() {
		if names[strings.ToLower(input.Name)] {
			report.TemplatesSkipped++
			continue
		}
		if _, err := tpls.Create(ctx, input); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("template %q: %w", input.Name, err))
			continue
		}
		report.TemplatesCreated++
	}

	for _, input := range Products() {
		_, err := catalog.Create(ctx, input)
		switch {
		case pkgerrors.IsCode(err, pkgerrors.CodeConflict):
			report.ProductsSkipped++
		case err != nil:
			errs = multierr.Append(errs, fmt.Errorf("product %q: %w", input.SKU, err))
		default:
			report.ProductsCreated++
		}
	}

	if logg != nil {
		logg.Info(logg.WithFields(ctx, map[string]any{
			"templates_created": report.TemplatesCreated,
			"templates_skipped": report.TemplatesSkipped,
			"products_created":  report.ProductsCreated,
			"products_skipped":  report.ProductsSkipped,
		}), "seed completed")
	}
	return report, errs
}
