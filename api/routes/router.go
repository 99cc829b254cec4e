package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/angelmondragon/quotebuilder-backend/api/controllers"
	"github.com/angelmondragon/quotebuilder-backend/api/middleware"
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

// Services bundles what the HTTP layer serves.
type Services struct {
	Quotations quotations.Service
	Templates  templates.Service
	Products   products.Service
	Attributes attributes.Service
	Editor     editor.Service
	Renderer   *export.Renderer
	// Checks are pinged by /health/ready.
	Checks []controllers.Dependency
	// Registry is exposed on /metrics when set.
	Registry    *prometheus.Registry
	HTTPMetrics *metrics.HTTPMetrics
}

func NewRouter(cfg *config.Config, logg *logger.Logger, svc Services) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.RequestID(logg),
		middleware.Recoverer(logg),
		middleware.Logging(logg, svc.HTTPMetrics),
		middleware.CORS(cfg.App.CORSOrigins),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, svc.Checks...))
	})
	if svc.Registry != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(svc.Registry, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/quotations", func(r chi.Router) {
			r.Get("/", controllers.ListQuotations(svc.Quotations, logg))
			r.Post("/", controllers.CreateQuotation(svc.Quotations, logg))
			r.Post("/validate", controllers.ValidateQuotation(logg))
			r.Route("/{quotationId}", func(r chi.Router) {
				r.Get("/", controllers.GetQuotation(svc.Quotations, logg))
				r.Put("/", controllers.UpdateQuotation(svc.Quotations, logg))
				r.Delete("/", controllers.DeleteQuotation(svc.Quotations, logg))
				r.Get("/export", controllers.ExportQuotation(svc.Quotations, svc.Renderer, logg))
			})
		})

		r.Route("/editor/sessions", func(r chi.Router) {
			r.Post("/", controllers.OpenEditorSession(svc.Editor, logg))
			r.Route("/{sessionId}", func(r chi.Router) {
				r.Get("/", controllers.GetEditorSession(svc.Editor, logg))
				r.Delete("/", controllers.CloseEditorSession(svc.Editor, logg))
				r.Post("/load", controllers.LoadEditorSession(svc.Editor, logg))
				r.Patch("/fields", controllers.UpdateEditorField(svc.Editor, logg))
				r.Post("/items", controllers.AddEditorItem(svc.Editor, logg))
				r.Route("/items/{itemId}", func(r chi.Router) {
					r.Put("/", controllers.ReplaceEditorItem(svc.Editor, logg))
					r.Patch("/", controllers.PatchEditorItem(svc.Editor, logg))
					r.Delete("/", controllers.DeleteEditorItem(svc.Editor, logg))
					r.Post("/product", controllers.ApplyEditorProduct(svc.Editor, logg))
				})
				r.Get("/products", controllers.SearchEditorProducts(svc.Editor, logg))
				r.Get("/validate", controllers.ValidateEditorSession(svc.Editor, logg))
				r.Post("/save", controllers.SaveEditorSession(svc.Editor, logg))
				r.Get("/export", controllers.ExportEditorSession(svc.Editor, logg))
			})
		})

		r.Route("/templates", func(r chi.Router) {
			r.Get("/", controllers.ListTemplates(svc.Templates, logg))
			r.Post("/", controllers.CreateTemplate(svc.Templates, logg))
			r.Get("/stats", controllers.TemplateStats(svc.Templates, logg))
			r.Get("/{templateId}", controllers.GetTemplate(svc.Templates, logg))
			r.Put("/{templateId}", controllers.UpdateTemplate(svc.Templates, logg))
			r.Delete("/{templateId}", controllers.DeleteTemplate(svc.Templates, logg))
		})

		r.Route("/products", func(r chi.Router) {
			r.Get("/", controllers.ListProducts(svc.Products, logg))
			r.Post("/", controllers.CreateProduct(svc.Products, logg))
			r.Get("/{productId}", controllers.GetProduct(svc.Products, logg))
			r.Put("/{productId}", controllers.UpdateProduct(svc.Products, logg))
			r.Delete("/{productId}", controllers.DeleteProduct(svc.Products, logg))
		})

		r.Route("/attributes", func(r chi.Router) {
			r.Get("/", controllers.ListAttributes(svc.Attributes, logg))
			r.Post("/", controllers.CreateAttribute(svc.Attributes, logg))
			r.Get("/{attributeId}", controllers.GetAttribute(svc.Attributes, logg))
			r.Put("/{attributeId}", controllers.UpdateAttribute(svc.Attributes, logg))
			r.Delete("/{attributeId}", controllers.DeleteAttribute(svc.Attributes, logg))
		})
	})

	return r
}
