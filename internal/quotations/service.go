package quotations

import (
	"context"
	"fmt"
	"time"

	"github.com/angelmondragon/quotebuilder-backend/internal/pricing"
	"github.com/angelmondragon/quotebuilder-backend/internal/repo"
	"github.com/angelmondragon/quotebuilder-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/quotebuilder-backend/pkg/errors"
	"github.com/angelmondragon/quotebuilder-backend/pkg/logger"
	"github.com/angelmondragon/quotebuilder-backend/pkg/metrics"
	"github.com/angelmondragon/quotebuilder-backend/pkg/pagination"
)

// Service exposes quotation persistence in the editing shape.
type Service interface {
	New(now time.Time) Quotation
	List(ctx context.Context, input ListInput) (*ListResult, error)
	Get(ctx context.Context, id int64) (*Quotation, error)
	Create(ctx context.Context, q Quotation) (*Quotation, error)
	Update(ctx context.Context, id int64, q Quotation) (*Quotation, error)
	Delete(ctx context.Context, id int64) error
	// Save creates the quotation when its id is zero or equals placeholderID,
	// and updates the stored record otherwise.
	Save(ctx context.Context, q Quotation, placeholderID int64) (*Quotation, error)
}

// ListInput captures the list endpoint filters.
type ListInput struct {
	Query      string
	Pagination pagination.Params
}

// ListResult is one page of quotations.
type ListResult struct {
	Items  []Quotation `json:"items"`
	Cursor string      `json:"cursor"`
}

// ServiceParams wires a quotation service.
type ServiceParams struct {
	Repo     Repository
	Defaults Defaults
	Metrics  *metrics.QuotationMetrics
	Logger   *logger.Logger
	Clock    func() time.Time
}

type service struct {
	repo       Repository
	normalizer Normalizer
	metrics    *metrics.QuotationMetrics
	logg       *logger.Logger
	now        func() time.Time
}

// NewService constructs a quotation service instance.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("quotation repository required")
	}
	if params.Defaults == (Defaults{}) {
		params.Defaults = StandardDefaults
	}
	if params.Clock == nil {
		params.Clock = time.Now
	}
	return &service{
		repo:       params.Repo,
		normalizer: NewNormalizer(params.Defaults),
		metrics:    params.Metrics,
		logg:       params.Logger,
		now:        params.Clock,
	}, nil
}

func (s *service) New(now time.Time) Quotation {
	return s.normalizer.ToEditable(nil, now)
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

	now := s.now()
	items := make([]Quotation, len(rows))
	for i := range rows {
		items[i] = s.normalizer.ToEditable(&rows[i], now)
	}
	return &ListResult{Items: items, Cursor: nextCursor}, nil
}

func (s *service) Get(ctx context.Context, id int64) (*Quotation, error) {
	if id <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quotation id is required")
	}
	rec, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	q := s.normalizer.ToEditable(rec, s.now())
	return &q, nil
}

func (s *service) Create(ctx context.Context, q Quotation) (*Quotation, error) {
	rec := s.prepare(q)
	rec.ID = 0

	created, err := s.repo.Create(ctx, &rec)
	if err != nil {
		s.metrics.IncSave(metrics.SaveOutcomeFailed)
		return nil, err
	}
	s.metrics.IncSave(metrics.SaveOutcomeCreated)
	s.logSaved(ctx, created.ID, metrics.SaveOutcomeCreated)

	out := s.normalizer.ToEditable(created, s.now())
	return &out, nil
}

func (s *service) Update(ctx context.Context, id int64, q Quotation) (*Quotation, error) {
	if id <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quotation id is required")
	}
	rec := s.prepare(q)
	rec.ID = id

	updated, err := s.repo.Update(ctx, id, &rec)
	if err != nil {
		s.metrics.IncSave(metrics.SaveOutcomeFailed)
		return nil, err
	}
	s.metrics.IncSave(metrics.SaveOutcomeUpdated)
	s.logSaved(ctx, id, metrics.SaveOutcomeUpdated)

	out := s.normalizer.ToEditable(updated, s.now())
	return &out, nil
}

func (s *service) Delete(ctx context.Context, id int64) error {
	if id <= 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "quotation id is required")
	}
	deleted, err := s.repo.Delete(ctx, id)
	if err != nil {
		return err
	}
	if !deleted {
		return pkgerrors.Newf(pkgerrors.CodeNotFound, "quotation %d not found", id)
	}
	return nil
}

func (s *service) Save(ctx context.Context, q Quotation, placeholderID int64) (*Quotation, error) {
	if q.ID == 0 || q.ID == placeholderID {
		return s.Create(ctx, q)
	}
	return s.Update(ctx, q.ID, q)
}

// prepare recomputes every line total and the document totals, then converts
// q for storage. Client-sent totals are never trusted. Timestamps are left to
// the store.
func (s *service) prepare(q Quotation) models.QuotationRecord {
	q = q.Clone()
	for i, item := range q.Items {
		q.Items[i] = pricing.Recompute(item, item.Quantity, item.UnitPrice)
	}
	q.Recalculate()
	rec := s.normalizer.ToPersisted(q)
	rec.CreatedAt = time.Time{}
	rec.UpdatedAt = time.Time{}
	return rec
}

func (s *service) logSaved(ctx context.Context, id int64, outcome string) {
	if s.logg == nil {
		return
	}
	ctx = s.logg.WithQuotationID(ctx, id)
	ctx = s.logg.WithField(ctx, "outcome", outcome)
	s.logg.Info(ctx, "quotation saved")
}

func recordCursor(rec models.QuotationRecord) pagination.Cursor {
	return pagination.Cursor{CreatedAt: rec.CreatedAt, ID: rec.ID}
}
