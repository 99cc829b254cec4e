package products

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/angelmondragon/quotebuilder-backend/internal/repo"
	"github.com/angelmondragon/quotebuilder-backend/internal/validation"
	"github.com/angelmondragon/quotebuilder-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/quotebuilder-backend/pkg/errors"
	"github.com/angelmondragon/quotebuilder-backend/pkg/logger"
	"github.com/angelmondragon/quotebuilder-backend/pkg/metrics"
	"github.com/angelmondragon/quotebuilder-backend/pkg/pagination"
)

const defaultSearchLimit = 20

// Service exposes catalog management and the debounced editor lookup.
type Service interface {
	List(ctx context.Context, input ListInput) (*ListResult, error)
	Get(ctx context.Context, id int64) (*ProductDTO, error)
	Create(ctx context.Context, input Input) (*ProductDTO, error)
	Update(ctx context.Context, id int64, input Input) (*ProductDTO, error)
	Delete(ctx context.Context, id int64) error
	// Search runs a debounced lookup keyed by the caller (an editing session).
	// Calls replaced by a newer one for the same key fail with SUPERSEDED.
	Search(ctx context.Context, key, query string) (*SearchResult, error)
}

// ListInput captures the list endpoint filters.
type ListInput struct {
	Query      string
	Pagination pagination.Params
}

// ListResult is one page of products.
type ListResult struct {
	Items  []ProductDTO `json:"items"`
	Cursor string       `json:"cursor"`
}

// SearchResult is the outcome of a debounced lookup.
type SearchResult struct {
	Query    string       `json:"query"`
	Sequence uint64       `json:"sequence"`
	Cached   bool         `json:"cached"`
	Items    []ProductDTO `json:"items"`
}

// ServiceParams wires a product service.
type ServiceParams struct {
	Repo        Repository
	Cache       SearchCache
	Debounce    time.Duration
	SearchLimit int
	Metrics     *metrics.QuotationMetrics
	Logger      *logger.Logger
}

type service struct {
	repo        Repository
	cache       SearchCache
	debouncer   *Debouncer[*SearchResult]
	searchLimit int
	metrics     *metrics.QuotationMetrics
	logg        *logger.Logger
}

// NewService constructs a product service instance.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("product repository required")
	}
	if params.SearchLimit <= 0 {
		params.SearchLimit = defaultSearchLimit
	}
	return &service{
		repo:        params.Repo,
		cache:       params.Cache,
		debouncer:   NewDebouncer[*SearchResult](params.Debounce),
		searchLimit: params.SearchLimit,
		metrics:     params.Metrics,
		logg:        params.Logger,
	}, nil
}

func (s *service) List(ctx context.Context, input ListInput) (*ListResult, error) {
	limit := pagination.NormalizeLimit(input.Pagination.Limit)
	filter := repo.Filter{
		Query: input.Query,
		Limit: pagination.LimitWithBuffer(input.Pagination.Limit),
	}
	if input.Pagination.Cursor != "" {
		cursor, err := pagination.ParseCursor(input.Pagination.Cursor)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
		}
		filter.Cursor = cursor
	}

	rows, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, err
	}

	rows, nextCursor := pagination.NextPage(rows, limit, recordCursor)
	return &ListResult{Items: toDTOs(rows), Cursor: nextCursor}, nil
}

func (s *service) Get(ctx context.Context, id int64) (*ProductDTO, error) {
	if id <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product id is required")
	}
	row, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	dto := FromModel(*row)
	return &dto, nil
}

func (s *service) Create(ctx context.Context, input Input) (*ProductDTO, error) {
	if err := validation.Product(input.SKU, input.ProductName, input.Price).Err(); err != nil {
		return nil, err
	}
	model := toModel(input)
	if err := s.ensureUniqueSKU(ctx, model.SKU, 0); err != nil {
		return nil, err
	}
	created, err := s.repo.Create(ctx, model)
	if err != nil {
		return nil, err
	}
	s.invalidate(ctx)
	dto := FromModel(*created)
	return &dto, nil
}

func (s *service) Update(ctx context.Context, id int64, input Input) (*ProductDTO, error) {
	if id <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product id is required")
	}
	if err := validation.Product(input.SKU, input.ProductName, input.Price).Err(); err != nil {
		return nil, err
	}
	model := toModel(input)
	model.ID = id
	if err := s.ensureUniqueSKU(ctx, model.SKU, id); err != nil {
		return nil, err
	}
	updated, err := s.repo.Update(ctx, id, model)
	if err != nil {
		return nil, err
	}
	s.invalidate(ctx)
	dto := FromModel(*updated)
	return &dto, nil
}

func (s *service) Delete(ctx context.Context, id int64) error {
	deleted, err := s.repo.Delete(ctx, id)
	if err != nil {
		return err
	}
	if !deleted {
		return pkgerrors.Newf(pkgerrors.CodeNotFound, "product %d not found", id)
	}
	s.invalidate(ctx)
	return nil
}

func (s *service) Search(ctx context.Context, key, query string) (*SearchResult, error) {
	query = strings.TrimSpace(query)
	res, err := s.debouncer.Do(ctx, key, func(ctx context.Context) (*SearchResult, error) {
		return s.lookup(ctx, key, query)
	})
	switch {
	case IsSuperseded(err):
		s.metrics.IncSearch(metrics.SearchResultSuperseded)
		return nil, err
	case err != nil:
		s.metrics.IncSearch(metrics.SearchResultError)
		return nil, err
	case res.Cached:
		s.metrics.IncSearch(metrics.SearchResultCacheHit)
	default:
		s.metrics.IncSearch(metrics.SearchResultServed)
	}
	return res, nil
}

func (s *service) lookup(ctx context.Context, key, query string) (*SearchResult, error) {
	res := &SearchResult{Query: query, Sequence: s.debouncer.Latest(key)}

	if s.cache != nil {
		items, ok, err := s.cache.Get(ctx, query)
		if err != nil {
			s.warn(ctx, "product search cache read failed", err)
		} else if ok {
			res.Items = items
			res.Cached = true
			return res, nil
		}
	}

	rows, err := s.repo.List(ctx, repo.Filter{Query: query, Limit: s.searchLimit})
	if err != nil {
		return nil, err
	}
	res.Items = toDTOs(rows)

	if s.cache != nil {
		if err := s.cache.Set(ctx, query, res.Items); err != nil {
			s.warn(ctx, "product search cache write failed", err)
		}
	}
	return res, nil
}

func (s *service) ensureUniqueSKU(ctx context.Context, sku *string, selfID int64) error {
	if sku == nil {
		return nil
	}
	rows, err := s.repo.List(ctx, repo.Filter{Equals: map[string]any{"sku": *sku}, Limit: 2})
	if err != nil {
		return err
	}
	for _, row := range rows {
		if row.ID != selfID {
			return pkgerrors.Newf(pkgerrors.CodeConflict, "sku %q already exists", *sku)
		}
	}
	return nil
}

func (s *service) invalidate(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx); err != nil {
		s.warn(ctx, "product search cache invalidation failed", err)
	}
}

func (s *service) warn(ctx context.Context, msg string, err error) {
	if s.logg == nil {
		return
	}
	ctx = s.logg.WithField(ctx, "error", err.Error())
	s.logg.Warn(ctx, msg)
}

func toDTOs(rows []models.Product) []ProductDTO {
	out := make([]ProductDTO, len(rows))
	for i, row := range rows {
		out[i] = FromModel(row)
	}
	return out
}

func recordCursor(p models.Product) pagination.Cursor {
	return pagination.Cursor{CreatedAt: p.CreatedAt, ID: p.ID}
}
