// Package editor holds server-side quotation editing sessions. A session is
// loaded once, mutated by small edits and written back to the quotation store
// on an explicit save.
package editor

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/angelmondragon/quotebuilder-backend/internal/export"
	"github.com/angelmondragon/quotebuilder-backend/internal/products"
	"github.com/angelmondragon/quotebuilder-backend/internal/quotations"
	"github.com/angelmondragon/quotebuilder-backend/internal/templates"
	"github.com/angelmondragon/quotebuilder-backend/internal/validation"
	"github.com/angelmondragon/quotebuilder-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/quotebuilder-backend/pkg/errors"
	"github.com/angelmondragon/quotebuilder-backend/pkg/logger"
	"github.com/angelmondragon/quotebuilder-backend/pkg/types"
)

// LoadInput selects the document a session edits. With neither id set a
// fresh quotation is created.
type LoadInput struct {
	QuotationID *int64
	TemplateID  *int64
}

// Service drives editing sessions.
type Service interface {
	// Open creates a session and loads its document. On a load failure the
	// session is still returned, in the load_failed state, with the error.
	Open(ctx context.Context, input LoadInput) (*Session, error)
	Get(ctx context.Context, sessionID string) (*Session, error)
	// Load (re)loads the session document; it is also the retry after a failure.
	Load(ctx context.Context, sessionID string, input LoadInput) (*Session, error)
	Close(ctx context.Context, sessionID string) error

	UpdateField(ctx context.Context, sessionID, path string, value any) (*Session, error)
	AddItem(ctx context.Context, sessionID string) (*Session, error)
	UpdateItem(ctx context.Context, sessionID string, item types.LineItem) (*Session, error)
	UpdateItemField(ctx context.Context, sessionID string, itemID int, field string, value any) (*Session, error)
	DeleteItem(ctx context.Context, sessionID string, itemID int) (*Session, error)
	ApplyProduct(ctx context.Context, sessionID string, itemID int, productID int64) (*Session, error)
	SearchProducts(ctx context.Context, sessionID, query string) (*products.SearchResult, error)

	Validate(ctx context.Context, sessionID string) (*validation.Result, error)
	// Save persists the document. On failure the session keeps its local
	// document and a DEPENDENCY_ERROR is returned.
	Save(ctx context.Context, sessionID string) (*Session, error)
	Export(ctx context.Context, sessionID string, format enums.ExportFormat) (*export.Output, error)
}

// ServiceParams wires an editor service.
type ServiceParams struct {
	Store      SessionStore
	Quotations quotations.Service
	Templates  templates.Service
	Products   products.Service
	Renderer   *export.Renderer
	Defaults   quotations.Defaults
	Logger     *logger.Logger
	Clock      func() time.Time
}

type service struct {
	store      SessionStore
	quotations quotations.Service
	templates  templates.Service
	products   products.Service
	renderer   *export.Renderer
	defaults   quotations.Defaults
	logg       *logger.Logger
	now        func() time.Time
	locks      *keyedMutex
}

// NewService constructs an editor service instance.
func NewService(params ServiceParams) (Service, error) {
	if params.Store == nil {
		return nil, fmt.Errorf("session store required")
	}
	if params.Quotations == nil {
		return nil, fmt.Errorf("quotation service required")
	}
	if params.Renderer == nil {
		params.Renderer = export.NewRenderer(export.Params{})
	}
	if params.Defaults == (quotations.Defaults{}) {
		params.Defaults = quotations.StandardDefaults
	}
	if params.Clock == nil {
		params.Clock = time.Now
	}
	return &service{
		store:      params.Store,
		quotations: params.Quotations,
		templates:  params.Templates,
		products:   params.Products,
		renderer:   params.Renderer,
		defaults:   params.Defaults,
		logg:       params.Logger,
		now:        params.Clock,
		locks:      newKeyedMutex(),
	}, nil
}

func (s *service) Open(ctx context.Context, input LoadInput) (*Session, error) {
	now := s.now()
	sess := &Session{
		ID:        NewSessionID(),
		State:     enums.EditorStateIdle,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.store.Create(ctx, sess); err != nil {
		return nil, err
	}
	unlock := s.locks.lock(sess.ID)
	defer unlock()
	return s.load(ctx, sess, input)
}

func (s *service) Get(ctx context.Context, sessionID string) (*Session, error) {
	return s.store.Get(ctx, sessionID)
}

func (s *service) Load(ctx context.Context, sessionID string, input LoadInput) (*Session, error) {
	unlock := s.locks.lock(sessionID)
	defer unlock()
	sess, err := s.store.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	return s.load(ctx, sess, input)
}

func (s *service) Close(ctx context.Context, sessionID string) error {
	unlock := s.locks.lock(sessionID)
	defer unlock()
	if _, err := s.store.Get(ctx, sessionID); err != nil {
		return err
	}
	return s.store.Delete(ctx, sessionID)
}

// load walks Idle/LoadFailed/Ready -> Loading -> Ready|LoadFailed. Callers hold
// the session lock.
func (s *service) load(ctx context.Context, sess *Session, input LoadInput) (*Session, error) {
	sess.State = enums.EditorStateLoading
	sess.Error = nil
	if err := s.store.Put(ctx, sess); err != nil {
		return nil, err
	}

	now := s.now()
	doc, placeholder, err := s.fetch(ctx, input, now)
	sess.UpdatedAt = now
	if err != nil {
		loadErr := err
		if !pkgerrors.IsCode(err, pkgerrors.CodeNotFound) && !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
			loadErr = pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load quotation")
		}
		empty := s.quotations.New(now)
		sess.State = enums.EditorStateLoadFailed
		sess.Document = empty
		sess.PlaceholderID = empty.ID
		sess.Error = &SessionError{Code: pkgerrors.CodeOf(loadErr), Message: err.Error()}
		if putErr := s.store.Put(ctx, sess); putErr != nil {
			return nil, putErr
		}
		s.warn(ctx, sess.ID, "editor load failed", err)
		return sess, loadErr
	}

	sess.State = enums.EditorStateReady
	sess.Document = doc
	sess.PlaceholderID = placeholder
	if err := s.store.Put(ctx, sess); err != nil {
		return nil, err
	}
	return sess, nil
}

func (s *service) fetch(ctx context.Context, input LoadInput, now time.Time) (quotations.Quotation, int64, error) {
	switch {
	case input.QuotationID != nil:
		q, err := s.quotations.Get(ctx, *input.QuotationID)
		if err != nil {
			return quotations.Quotation{}, 0, err
		}
		return q.Clone(), 0, nil
	case input.TemplateID != nil:
		if s.templates == nil {
			return quotations.Quotation{}, 0, pkgerrors.New(pkgerrors.CodeDependency, "template service unavailable")
		}
		q, err := s.templates.Start(ctx, *input.TemplateID, now, s.defaults)
		if err != nil {
			return quotations.Quotation{}, 0, err
		}
		return q, q.ID, nil
	default:
		q := s.quotations.New(now)
		return q, q.ID, nil
	}
}

func (s *service) UpdateField(ctx context.Context, sessionID, path string, value any) (*Session, error) {
	return s.edit(ctx, sessionID, func(doc *quotations.Quotation, now time.Time) error {
		return UpdateField(doc, path, value, now)
	})
}

func (s *service) AddItem(ctx context.Context, sessionID string) (*Session, error) {
	return s.edit(ctx, sessionID, func(doc *quotations.Quotation, now time.Time) error {
		AddItem(doc, now)
		return nil
	})
}

func (s *service) UpdateItem(ctx context.Context, sessionID string, item types.LineItem) (*Session, error) {
	return s.edit(ctx, sessionID, func(doc *quotations.Quotation, now time.Time) error {
		return UpdateItem(doc, item, now)
	})
}

func (s *service) UpdateItemField(ctx context.Context, sessionID string, itemID int, field string, value any) (*Session, error) {
	return s.edit(ctx, sessionID, func(doc *quotations.Quotation, now time.Time) error {
		return UpdateItemField(doc, itemID, field, value, now)
	})
}

func (s *service) DeleteItem(ctx context.Context, sessionID string, itemID int) (*Session, error) {
	return s.edit(ctx, sessionID, func(doc *quotations.Quotation, now time.Time) error {
		return DeleteItem(doc, itemID, now)
	})
}

func (s *service) ApplyProduct(ctx context.Context, sessionID string, itemID int, productID int64) (*Session, error) {
	if s.products == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "product catalog unavailable")
	}
	product, err := s.products.Get(ctx, productID)
	if err != nil {
		return nil, err
	}
	return s.edit(ctx, sessionID, func(doc *quotations.Quotation, now time.Time) error {
		return ApplyProduct(doc, itemID, *product, now)
	})
}

// SearchProducts runs the debounced catalog lookup keyed by the session, so a
// newer search from the same session supersedes an older one.
func (s *service) SearchProducts(ctx context.Context, sessionID, query string) (*products.SearchResult, error) {
	if s.products == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "product catalog unavailable")
	}
	if _, err := s.store.Get(ctx, sessionID); err != nil {
		return nil, err
	}
	return s.products.Search(ctx, sessionID, query)
}

func (s *service) Validate(ctx context.Context, sessionID string) (*validation.Result, error) {
	sess, err := s.store.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	res := validation.Quotation(sess.Document)
	return &res, nil
}

func (s *service) Save(ctx context.Context, sessionID string) (*Session, error) {
	unlock := s.locks.lock(sessionID)
	defer unlock()

	sess, err := s.ready(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	saved, err := s.quotations.Save(ctx, sess.Document.Clone(), sess.PlaceholderID)
	if err != nil {
		s.warn(ctx, sessionID, "editor save failed", err)
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save quotation")
	}

	sess.Document = *saved
	sess.PlaceholderID = 0
	sess.UpdatedAt = s.now()
	if err := s.store.Put(ctx, sess); err != nil {
		return nil, err
	}
	if s.logg != nil {
		lctx := s.logg.WithSessionID(ctx, sessionID)
		s.logg.Info(s.logg.WithQuotationID(lctx, saved.ID), "editor session saved")
	}
	return sess, nil
}

func (s *service) Export(ctx context.Context, sessionID string, format enums.ExportFormat) (*export.Output, error) {
	sess, err := s.ready(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	return s.renderer.Render(ctx, format, sess.Document)
}

// edit applies fn to the session document under the session lock and stores
// the result. Failed edits leave the stored session untouched.
func (s *service) edit(ctx context.Context, sessionID string, fn func(*quotations.Quotation, time.Time) error) (*Session, error) {
	unlock := s.locks.lock(sessionID)
	defer unlock()

	sess, err := s.ready(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	now := s.now()
	if err := fn(&sess.Document, now); err != nil {
		return nil, err
	}
	sess.UpdatedAt = now
	if err := s.store.Put(ctx, sess); err != nil {
		return nil, err
	}
	return sess, nil
}

func (s *service) ready(ctx context.Context, sessionID string) (*Session, error) {
	sess, err := s.store.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if !sess.State.CanEdit() {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "editor session is not ready").
			WithDetails(map[string]string{"state": sess.State.String()})
	}
	return sess, nil
}

func (s *service) warn(ctx context.Context, sessionID, msg string, err error) {
	if s.logg == nil {
		return
	}
	ctx = s.logg.WithSessionID(ctx, sessionID)
	ctx = s.logg.WithField(ctx, "error", err.Error())
	s.logg.Warn(ctx, msg)
}

// keyedMutex serializes work per key and forgets keys nobody holds.
type keyedMutex struct {
	mu    sync.Mutex
	locks map[string]*keyedLock
}

type keyedLock struct {
	mu   sync.Mutex
	refs int
}

func newKeyedMutex() *keyedMutex {
	return &keyedMutex{locks: map[string]*keyedLock{}}
}

func (k *keyedMutex) lock(key string) func() {
	k.mu.Lock()
	l := k.locks[key]
	if l == nil {
		l = &keyedLock{}
		k.locks[key] = l
	}
	l.refs++
	k.mu.Unlock()

	l.mu.Lock()
	return func() {
		l.mu.Unlock()
		k.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(k.locks, key)
		}
		k.mu.Unlock()
	}
}
