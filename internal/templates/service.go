package templates

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/angelmondragon/quotebuilder-backend/internal/pricing"
	"github.com/angelmondragon/quotebuilder-backend/internal/quotations"
	"github.com/angelmondragon/quotebuilder-backend/internal/repo"
	"github.com/angelmondragon/quotebuilder-backend/internal/validation"
	"github.com/angelmondragon/quotebuilder-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/quotebuilder-backend/pkg/errors"
	"github.com/angelmondragon/quotebuilder-backend/pkg/types"
)

// Service manages the template library.
type Service interface {
	List(ctx context.Context, input ListInput) ([]TemplateDTO, error)
	Get(ctx context.Context, id int64) (*TemplateDTO, error)
	Create(ctx context.Context, input Input) (*TemplateDTO, error)
	Update(ctx context.Context, id int64, input Input) (*TemplateDTO, error)
	Delete(ctx context.Context, id int64) error
	Stats(ctx context.Context) (*Stats, error)
	// Start builds a new quotation from the template's content.
	Start(ctx context.Context, id int64, now time.Time, defaults quotations.Defaults) (quotations.Quotation, error)
}

type service struct {
	repo Repository
}

// NewService constructs a template service instance.
func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("template repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) List(ctx context.Context, input ListInput) ([]TemplateDTO, error) {
	filter := repo.Filter{Query: input.Query, Equals: map[string]any{}}
	if category := strings.TrimSpace(input.Category); category != "" {
		filter.Equals["category"] = category
	}
	if input.DefaultOnly {
		filter.Equals["is_default"] = true
	}
	if input.FeaturedOnly {
		filter.Equals["featured"] = true
	}

	rows, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	out := make([]TemplateDTO, len(rows))
	for i, row := range rows {
		out[i] = FromModel(row)
	}
	return out, nil
}

func (s *service) Get(ctx context.Context, id int64) (*TemplateDTO, error) {
	if id <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "template id is required")
	}
	row, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	dto := FromModel(*row)
	return &dto, nil
}

func (s *service) Create(ctx context.Context, input Input) (*TemplateDTO, error) {
	model, err := toModel(input)
	if err != nil {
		return nil, err
	}
	created, err := s.repo.Create(ctx, model)
	if err != nil {
		return nil, err
	}
	dto := FromModel(*created)
	return &dto, nil
}

func (s *service) Update(ctx context.Context, id int64, input Input) (*TemplateDTO, error) {
	if id <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "template id is required")
	}
	model, err := toModel(input)
	if err != nil {
		return nil, err
	}
	model.ID = id
	updated, err := s.repo.Update(ctx, id, model)
	if err != nil {
		return nil, err
	}
	dto := FromModel(*updated)
	return &dto, nil
}

func (s *service) Delete(ctx context.Context, id int64) error {
	deleted, err := s.repo.Delete(ctx, id)
	if err != nil {
		return err
	}
	if !deleted {
		return pkgerrors.Newf(pkgerrors.CodeNotFound, "template %d not found", id)
	}
	return nil
}

func (s *service) Stats(ctx context.Context) (*Stats, error) {
	rows, err := s.repo.List(ctx, repo.Filter{})
	if err != nil {
		return nil, err
	}
	stats := &Stats{Total: len(rows)}
	for _, row := range rows {
		if row.IsDefault {
			stats.Default++
		}
		if row.Featured {
			stats.Featured++
		}
	}
	return stats, nil
}

func (s *service) Start(ctx context.Context, id int64, now time.Time, defaults quotations.Defaults) (quotations.Quotation, error) {
	tpl, err := s.Get(ctx, id)
	if err != nil {
		return quotations.Quotation{}, err
	}
	return Apply(tpl.ID, tpl.Content, defaults.NewEmpty(now)), nil
}

// Apply stamps content onto q. The quote number of q is kept; empty template
// terms and currency leave the defaults in place.
func Apply(templateID int64, content Content, q quotations.Quotation) quotations.Quotation {
	out := q.Clone()
	id := templateID
	out.TemplateID = &id

	quoteNumber := out.Header.QuoteNumber
	out.Header = content.Header
	out.Header.QuoteNumber = quoteNumber
	out.Footer = content.Footer
	if strings.TrimSpace(content.Terms) != "" {
		out.Terms = content.Terms
	}
	if content.Currency.IsValid() {
		out.Currency = content.Currency
	}
	out.Items = make(types.LineItems, len(content.Items))
	for i, item := range content.Items {
		out.Items[i] = pricing.Recompute(item, item.Quantity, item.UnitPrice)
	}
	out.Recalculate()
	return out
}

func toModel(input Input) (*models.Template, error) {
	input.Name = strings.TrimSpace(input.Name)
	if err := validation.Template(input.Name).Err(); err != nil {
		return nil, err
	}
	content, err := types.EncodeJSON(input.Content)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid template content")
	}
	return &models.Template{
		Name:        input.Name,
		Description: strings.TrimSpace(input.Description),
		Category:    strings.TrimSpace(input.Category),
		IsDefault:   input.IsDefault,
		Featured:    input.Featured,
		Content:     content,
	}, nil
}
