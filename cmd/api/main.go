package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/multierr"

	"github.com/angelmondragon/quotebuilder-backend/api"
	"github.com/angelmondragon/quotebuilder-backend/api/controllers"
	"github.com/angelmondragon/quotebuilder-backend/api/routes"
	"github.com/angelmondragon/quotebuilder-backend/internal/attributes"
	"github.com/angelmondragon/quotebuilder-backend/internal/editor"
	"github.com/angelmondragon/quotebuilder-backend/internal/export"
	"github.com/angelmondragon/quotebuilder-backend/internal/products"
	"github.com/angelmondragon/quotebuilder-backend/internal/quotations"
	"github.com/angelmondragon/quotebuilder-backend/internal/templates"
	"github.com/angelmondragon/quotebuilder-backend/pkg/config"
	"github.com/angelmondragon/quotebuilder-backend/pkg/db"
	"github.com/angelmondragon/quotebuilder-backend/pkg/instance"
	"github.com/angelmondragon/quotebuilder-backend/pkg/logger"
	"github.com/angelmondragon/quotebuilder-backend/pkg/metrics"
	"github.com/angelmondragon/quotebuilder-backend/pkg/migrate"
	"github.com/angelmondragon/quotebuilder-backend/pkg/redis"
)

const sessionSweepInterval = time.Minute

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
		Format:      cfg.App.LogFormat,
	})

	if err := run(cfg, logg); err != nil {
		logg.Error(context.Background(), "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, logg *logger.Logger) (err error) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	dbClient, err := db.New(ctx, cfg.DB, logg)
	if err != nil {
		return err
	}
	defer func() { err = multierr.Append(err, dbClient.Close()) }()

	if err := migrate.MaybeRunDev(ctx, cfg, logg, dbClient); err != nil {
		return err
	}

	checks := []controllers.Dependency{{Name: "db", Pinger: dbClient}}

	var redisClient *redis.Client
	if cfg.FeatureFlags.NeedsRedis() {
		redisClient, err = redis.New(ctx, cfg.Redis, logg)
		if err != nil {
			return err
		}
		defer func() { err = multierr.Append(err, redisClient.Close()) }()
		checks = append(checks, controllers.Dependency{Name: "redis", Pinger: redisClient})
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	quoteMetrics := metrics.NewQuotationMetrics(registry)
	clock := func() time.Time { return time.Now().UTC() }

	quoteService, err := quotations.NewService(quotations.ServiceParams{
		Repo:     quotations.NewRepository(dbClient.DB()),
		Defaults: quotations.DefaultsFromConfig(cfg.Quotation),
		Metrics:  quoteMetrics,
		Logger:   logg,
		Clock:    clock,
	})
	if err != nil {
		return err
	}

	templateService, err := templates.NewService(templates.NewRepository(dbClient.DB()))
	if err != nil {
		return err
	}

	var searchCache products.SearchCache
	if !cfg.FeatureFlags.DisableSearchCache {
		searchCache = products.NewRedisSearchCache(redisClient, cfg.Editor.SearchCacheTTL)
	}
	productRepo := products.NewRepository(dbClient.DB())
	productService, err := products.NewService(products.ServiceParams{
		Repo:        productRepo,
		Cache:       searchCache,
		Debounce:    cfg.Editor.SearchDebounce,
		SearchLimit: cfg.Editor.SearchLimit,
		Metrics:     quoteMetrics,
		Logger:      logg,
	})
	if err != nil {
		return err
	}

	attributeService, err := attributes.NewService(attributes.NewRepository(dbClient.DB()), productRepo)
	if err != nil {
		return err
	}

	renderer := export.NewRenderer(export.Params{
		Locale:  cfg.Quotation.Locale,
		Metrics: quoteMetrics,
		Logger:  logg,
		Clock:   clock,
	})

	sessionStore, err := newSessionStore(ctx, cfg, logg, redisClient)
	if err != nil {
		return err
	}
	editorService, err := editor.NewService(editor.ServiceParams{
		Store:      sessionStore,
		Quotations: quoteService,
		Templates:  templateService,
		Products:   productService,
		Renderer:   renderer,
		Defaults:   quotations.DefaultsFromConfig(cfg.Quotation),
		Logger:     logg,
		Clock:      clock,
	})
	if err != nil {
		return err
	}

	handler := routes.NewRouter(cfg, logg, routes.Services{
		Quotations:  quoteService,
		Templates:   templateService,
		Products:    productService,
		Attributes:  attributeService,
		Editor:      editorService,
		Renderer:    renderer,
		Checks:      checks,
		Registry:    registry,
		HTTPMetrics: metrics.NewHTTPMetrics(registry),
	})

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	server := api.NewServer(addr, handler)

	logCtx := logg.WithFields(ctx, map[string]any{
		"env":      cfg.App.Env,
		"addr":     addr,
		"instance": instance.ID(),
		"driver":   cfg.DB.Driver,
	})
	logg.Info(logCtx, "starting api server")

	serveErr := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		return err
	case <-ctx.Done():
	}

	logg.Info(logCtx, "shutting down api server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.App.ShutdownTimeout)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

// newSessionStore picks the redis store unless in-process sessions are
// enabled, in which case expired sessions are swept until ctx ends.
func newSessionStore(ctx context.Context, cfg *config.Config, logg *logger.Logger, redisClient *redis.Client) (editor.SessionStore, error) {
	if !cfg.FeatureFlags.MemorySessions {
		store, err := editor.NewRedisSessionStore(redisClient, cfg.Editor.SessionTTL)
		if err != nil {
			return nil, err
		}
		return store, nil
	}

	store := editor.NewMemorySessionStore(cfg.Editor.SessionTTL)
	logg.Warn(ctx, "editor sessions are kept in memory; they are lost on restart")
	go func() {
		ticker := time.NewTicker(sessionSweepInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if n := store.Sweep(); n > 0 {
					logg.Debug(logg.WithField(ctx, "expired", n), "editor sessions swept")
				}
			}
		}
	}()
	return store, nil
}
