package routes

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/quotebuilder-backend/api/controllers"
	"github.com/angelmondragon/quotebuilder-backend/internal/attributes"
	"github.com/angelmondragon/quotebuilder-backend/internal/editor"
	"github.com/angelmondragon/quotebuilder-backend/internal/export"
	"github.com/angelmondragon/quotebuilder-backend/internal/products"
	"github.com/angelmondragon/quotebuilder-backend/internal/quotations"
	"github.com/angelmondragon/quotebuilder-backend/internal/templates"
	"github.com/angelmondragon/quotebuilder-backend/pkg/config"
	"github.com/angelmondragon/quotebuilder-backend/pkg/logger"
	"github.com/angelmondragon/quotebuilder-backend/pkg/metrics"
)

var now = time.Date(2026, time.October, 17, 9, 30, 0, 0, time.UTC)

type stubPinger struct{ err error }

func (p stubPinger) Ping(context.Context) error { return p.err }

type envelope struct {
	Data  json.RawMessage `json:"data"`
	Error *struct {
		Code    string         `json:"code"`
		Message string         `json:"message"`
		Details map[string]any `json:"details"`
	} `json:"error"`
}

func newTestRouter(t *testing.T, checks ...controllers.Dependency) http.Handler {
	t.Helper()
	clock := func() time.Time { return now }
	logg := logger.New(logger.Options{ServiceName: "router-test", Output: io.Discard})
	reg := prometheus.NewRegistry()
	quoteMetrics := metrics.NewQuotationMetrics(reg)

	cfg := &config.Config{App: config.AppConfig{Env: "test", CORSOrigins: []string{"http://localhost:3000"}}}

	quotes, err := quotations.NewService(quotations.ServiceParams{
		Repo:    quotations.NewMemoryRepository(),
		Metrics: quoteMetrics,
		Logger:  logg,
		Clock:   clock,
	})
	require.NoError(t, err)
	tpls, err := templates.NewService(templates.NewMemoryRepository())
	require.NoError(t, err)
	productRepo := products.NewMemoryRepository()
	catalog, err := products.NewService(products.ServiceParams{
		Repo:     productRepo,
		Debounce: time.Millisecond,
		Metrics:  quoteMetrics,
		Logger:   logg,
	})
	require.NoError(t, err)
	attrs, err := attributes.NewService(attributes.NewMemoryRepository(), productRepo)
	require.NoError(t, err)
	renderer := export.NewRenderer(export.Params{Locale: "th-TH", Metrics: quoteMetrics, Logger: logg, Clock: clock})
	sessions, err := editor.NewService(editor.ServiceParams{
		Store:      editor.NewMemorySessionStore(time.Hour),
		Quotations: quotes,
		Templates:  tpls,
		Products:   catalog,
		Renderer:   renderer,
		Logger:     logg,
		Clock:      clock,
	})
	require.NoError(t, err)

	return NewRouter(cfg, logg, Services{
		Quotations:  quotes,
		Templates:   tpls,
		Products:    catalog,
		Attributes:  attrs,
		Editor:      sessions,
		Renderer:    renderer,
		Checks:      checks,
		Registry:    reg,
		HTTPMetrics: metrics.NewHTTPMetrics(reg),
	})
}

func call(t *testing.T, h http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	require.Nil(t, env.Error, rec.Body.String())
	var out T
	require.NoError(t, json.Unmarshal(env.Data, &out))
	return out
}

func errorCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	require.NotNil(t, env.Error, rec.Body.String())
	return env.Error.Code
}

func TestHealthEndpoints(t *testing.T) {
	h := newTestRouter(t,
		controllers.Dependency{Name: "db", Pinger: stubPinger{}},
		controllers.Dependency{Name: "redis", Pinger: stubPinger{}},
	)

	rec := call(t, h, http.MethodGet, "/health/live", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "test", rec.Header().Get("X-QuoteBuilder-Env"))

	rec = call(t, h, http.MethodGet, "/health/ready", nil)
	assert.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
}

func TestHealthReadyReportsFailingDependency(t *testing.T) {
	h := newTestRouter(t,
		controllers.Dependency{Name: "db", Pinger: stubPinger{}},
		controllers.Dependency{Name: "redis", Pinger: stubPinger{err: errors.New("dial tcp: refused")}},
	)

	rec := call(t, h, http.MethodGet, "/health/ready", nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, "DEPENDENCY_ERROR", errorCode(t, rec))
}

func TestQuotationRoutes(t *testing.T) {
	h := newTestRouter(t)

	rec := call(t, h, http.MethodPost, "/api/v1/quotations", map[string]any{
		"clientInfo": map[string]any{"name": "Acme", "email": "buyer@acme.test"},
		"items": []map[string]any{
			{"id": 1, "description": "Widget", "quantity": 2, "unitPrice": 100, "total": 200},
		},
		"currency": "THB",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	created := decode[quotations.Quotation](t, rec)
	require.NotZero(t, created.ID)
	assert.Equal(t, 200.0, created.Subtotal)
	assert.Equal(t, 214.0, created.Total)

	id := itoa(created.ID)
	rec = call(t, h, http.MethodGet, "/api/v1/quotations/"+id, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Acme", decode[quotations.Quotation](t, rec).ClientInfo.Name)

	rec = call(t, h, http.MethodGet, "/api/v1/quotations?q=acme", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	list := decode[quotations.ListResult](t, rec)
	require.Len(t, list.Items, 1)

	created.ClientInfo.Name = "Globex"
	rec = call(t, h, http.MethodPut, "/api/v1/quotations/"+id, created)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "Globex", decode[quotations.Quotation](t, rec).ClientInfo.Name)

	rec = call(t, h, http.MethodGet, "/api/v1/quotations/"+id+"/export?format=xlsx", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Disposition"), ".xlsx")
	assert.NotEmpty(t, rec.Body.Bytes())

	rec = call(t, h, http.MethodGet, "/api/v1/quotations/"+id+"/export?format=docx", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = call(t, h, http.MethodDelete, "/api/v1/quotations/"+id, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	rec = call(t, h, http.MethodGet, "/api/v1/quotations/"+id, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "NOT_FOUND", errorCode(t, rec))

	rec = call(t, h, http.MethodGet, "/api/v1/quotations/abc", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestValidateQuotationReturnsResult(t *testing.T) {
	h := newTestRouter(t)

	rec := call(t, h, http.MethodPost, "/api/v1/quotations/validate", map[string]any{
		"clientInfo": map[string]any{"email": "nope"},
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	result := decode[struct {
		IsValid bool              `json:"isValid"`
		Errors  map[string]string `json:"errors"`
	}](t, rec)
	assert.False(t, result.IsValid)
	assert.Contains(t, result.Errors, "clientInfo.name")
	assert.Contains(t, result.Errors, "clientInfo.email")
}

func TestQuotationRoutesCoerceNumericText(t *testing.T) {
	h := newTestRouter(t)

	rec := call(t, h, http.MethodPost, "/api/v1/quotations", map[string]any{
		"clientInfo": map[string]any{"name": "Acme"},
		"items": []map[string]any{
			{"id": 1, "description": "Widget", "quantity": "2", "unitPrice": "100 THB", "total": 5},
			{"id": 2, "description": "Cable", "quantity": "abc", "unitPrice": 40},
		},
		"subtotal": "n/a",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	created := decode[quotations.Quotation](t, rec)
	require.Len(t, created.Items, 2)
	assert.Equal(t, 2.0, created.Items[0].Quantity)
	assert.Equal(t, 200.0, created.Items[0].Total)
	assert.Zero(t, created.Items[1].Quantity)
	assert.Zero(t, created.Items[1].Total)
	assert.Equal(t, 200.0, created.Subtotal)
	assert.Equal(t, 214.0, created.Total)

	rec = call(t, h, http.MethodPut, "/api/v1/quotations/"+itoa(created.ID), map[string]any{
		"items": []map[string]any{{"id": 1, "quantity": "1", "unitPrice": "75"}},
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, 75.0, decode[quotations.Quotation](t, rec).Subtotal)
}

func TestEditorReplaceItemCoercesNumericText(t *testing.T) {
	h := newTestRouter(t)

	rec := call(t, h, http.MethodPost, "/api/v1/editor/sessions", nil)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	base := "/api/v1/editor/sessions/" + decode[editor.Session](t, rec).ID

	rec = call(t, h, http.MethodPost, base+"/items", nil)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = call(t, h, http.MethodPut, base+"/items/1", map[string]any{"description": "Widget", "quantity": "4", "unitPrice": "12.5"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	sess := decode[editor.Session](t, rec)
	assert.Equal(t, 50.0, sess.Document.Items[0].Total)
	assert.Equal(t, 53.5, sess.Document.Total)

	rec = call(t, h, http.MethodPut, base+"/items/1", map[string]any{"description": "Widget", "quantity": "abc", "unitPrice": 12.5})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	sess = decode[editor.Session](t, rec)
	assert.Zero(t, sess.Document.Items[0].Quantity)
	assert.Zero(t, sess.Document.Items[0].Total)
	assert.Zero(t, sess.Document.Total)
}

func TestEditorSessionFlow(t *testing.T) {
	h := newTestRouter(t)

	rec := call(t, h, http.MethodPost, "/api/v1/editor/sessions", nil)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	sess := decode[editor.Session](t, rec)
	base := "/api/v1/editor/sessions/" + sess.ID

	rec = call(t, h, http.MethodPatch, base+"/fields", map[string]any{"path": "clientInfo.name", "value": "Acme"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	rec = call(t, h, http.MethodPatch, base+"/fields", map[string]any{"path": "clientInfo.email", "value": "buyer@acme.test"})
	require.Equal(t, http.StatusOK, rec.Code)
	rec = call(t, h, http.MethodPatch, base+"/fields", map[string]any{"path": "clientInfo.fax", "value": "1"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = call(t, h, http.MethodPost, base+"/items", nil)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	rec = call(t, h, http.MethodPatch, base+"/items/1", map[string]any{"field": "description", "value": "Widget"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	rec = call(t, h, http.MethodPatch, base+"/items/1", map[string]any{"field": "quantity", "value": "3"})
	require.Equal(t, http.StatusOK, rec.Code)
	rec = call(t, h, http.MethodPatch, base+"/items/1", map[string]any{"field": "unitPrice", "value": 10})
	require.Equal(t, http.StatusOK, rec.Code)
	sess = decode[editor.Session](t, rec)
	assert.Equal(t, 30.0, sess.Document.Subtotal)
	assert.Equal(t, 32.1, sess.Document.Total)

	rec = call(t, h, http.MethodPatch, base+"/items/9", map[string]any{"field": "quantity", "value": 1})
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = call(t, h, http.MethodGet, base+"/validate", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = call(t, h, http.MethodPost, base+"/save", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	saved := decode[editor.Session](t, rec)
	assert.NotZero(t, saved.Document.ID)
	assert.Zero(t, saved.PlaceholderID)

	rec = call(t, h, http.MethodGet, "/api/v1/quotations/"+itoa(saved.Document.ID), nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = call(t, h, http.MethodGet, base+"/export", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.HasPrefix(rec.Header().Get("Content-Type"), "text/html"))
	assert.Contains(t, rec.Body.String(), "Widget")

	rec = call(t, h, http.MethodDelete, base+"/items/1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, decode[editor.Session](t, rec).Document.Items)

	rec = call(t, h, http.MethodDelete, base, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	rec = call(t, h, http.MethodGet, base, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestEditorOpenMissingQuotationReturnsFailedSession(t *testing.T) {
	h := newTestRouter(t)

	rec := call(t, h, http.MethodPost, "/api/v1/editor/sessions", map[string]any{"quotationId": 404})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	sess := decode[editor.Session](t, rec)
	assert.Equal(t, "load_failed", string(sess.State))
	require.NotNil(t, sess.Error)

	rec = call(t, h, http.MethodPost, "/api/v1/editor/sessions/"+sess.ID+"/save", nil)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, "STATE_CONFLICT", errorCode(t, rec))

	rec = call(t, h, http.MethodPost, "/api/v1/editor/sessions/"+sess.ID+"/load", map[string]any{})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "ready", string(decode[editor.Session](t, rec).State))
}

func TestEditorAppliesCatalogProduct(t *testing.T) {
	h := newTestRouter(t)

	rec := call(t, h, http.MethodPost, "/api/v1/products", map[string]any{
		"sku": "CBL-1", "productName": "Copper cable", "price": "12.50",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	product := decode[products.ProductDTO](t, rec)

	rec = call(t, h, http.MethodPost, "/api/v1/editor/sessions", nil)
	sess := decode[editor.Session](t, rec)
	base := "/api/v1/editor/sessions/" + sess.ID
	call(t, h, http.MethodPost, base+"/items", nil)

	rec = call(t, h, http.MethodGet, base+"/products?q=copper", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	found := decode[products.SearchResult](t, rec)
	require.Len(t, found.Items, 1)

	rec = call(t, h, http.MethodPost, base+"/items/1/product", map[string]any{"productId": product.ID})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	item := decode[editor.Session](t, rec).Document.Items[0]
	assert.Equal(t, "Copper cable", item.Description)
	assert.Equal(t, 12.5, item.Total)
}

func TestCatalogRoutes(t *testing.T) {
	h := newTestRouter(t)

	rec := call(t, h, http.MethodPost, "/api/v1/templates", map[string]any{
		"name": "Standard", "category": "services", "isDefault": true,
		"content": map[string]any{"terms": "Net 30"},
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	tpl := decode[templates.TemplateDTO](t, rec)

	rec = call(t, h, http.MethodGet, "/api/v1/templates?default=true", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[struct {
		Items []templates.TemplateDTO `json:"items"`
	}](t, rec).Items, 1)

	rec = call(t, h, http.MethodGet, "/api/v1/templates/stats", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, decode[templates.Stats](t, rec).Default)

	rec = call(t, h, http.MethodPost, "/api/v1/editor/sessions", map[string]any{"templateId": tpl.ID})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Equal(t, "Net 30", decode[editor.Session](t, rec).Document.Terms)

	rec = call(t, h, http.MethodPost, "/api/v1/templates", map[string]any{"description": "no name"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = call(t, h, http.MethodPost, "/api/v1/products", map[string]any{"productName": "Pipe", "price": 4})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	product := decode[products.ProductDTO](t, rec)

	rec = call(t, h, http.MethodPost, "/api/v1/attributes", map[string]any{
		"attributeName": "diameter", "dataType": "Number", "attributeValue": "12", "productId": product.ID,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = call(t, h, http.MethodGet, "/api/v1/attributes?productId="+itoa(product.ID), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[struct {
		Items []attributes.AttributeDTO `json:"items"`
	}](t, rec).Items, 1)

	rec = call(t, h, http.MethodDelete, "/api/v1/templates/"+itoa(tpl.ID), nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	rec = call(t, h, http.MethodGet, "/api/v1/products/999", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestMetricsAndCORS(t *testing.T) {
	h := newTestRouter(t)
	call(t, h, http.MethodGet, "/api/v1/quotations", nil)

	rec := call(t, h, http.MethodGet, "/metrics", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "http_requests_total")

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/quotations", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	out := httptest.NewRecorder()
	h.ServeHTTP(out, req)
	assert.Equal(t, "http://localhost:3000", out.Header().Get("Access-Control-Allow-Origin"))
}

func itoa(id int64) string {
	return strconv.FormatInt(id, 10)
}
