package main

import (
	"context"
	"os"
	"time"

	"github.com/joho/godotenv"

	"github.com/angelmondragon/quotebuilder-backend/internal/products"
	"github.com/angelmondragon/quotebuilder-backend/internal/seed"
	"github.com/angelmondragon/quotebuilder-backend/internal/templates"
	"github.com/angelmondragon/quotebuilder-backend/pkg/config"
	"github.com/angelmondragon/quotebuilder-backend/pkg/db"
	"github.com/angelmondragon/quotebuilder-backend/pkg/logger"
	"github.com/angelmondragon/quotebuilder-backend/pkg/migrate"
)

const seedTimeout = time.Minute

func main() {
	logg := logger.New(logger.Options{ServiceName: "seed"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}
	if cfg.App.IsProd() {
		logg.Warn(context.Background(), "refusing to seed demo data in production")
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "seed",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
		Format:      cfg.App.LogFormat,
	})

	ctx, cancel := context.WithTimeout(context.Background(), seedTimeout)
	defer cancel()
	ctx = logg.WithFields(ctx, map[string]any{"env": cfg.App.Env, "driver": cfg.DB.Driver})

	dbClient, err := db.New(ctx, cfg.DB, logg)
	if err != nil {
		logg.Error(ctx, "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(ctx, cfg, logg, dbClient); err != nil {
		logg.Error(ctx, "failed to run dev migrations", err)
		os.Exit(1)
	}

	tpls, err := templates.NewService(templates.NewRepository(dbClient.DB()))
	if err != nil {
		logg.Error(ctx, "failed to create template service", err)
		os.Exit(1)
	}
	catalog, err := products.NewService(products.ServiceParams{
		Repo:   products.NewRepository(dbClient.DB()),
		Logger: logg,
	})
	if err != nil {
		logg.Error(ctx, "failed to create product service", err)
		os.Exit(1)
	}

	if _, err := seed.Run(ctx, tpls, catalog, logg); err != nil {
		logg.Error(ctx, "seed finished with errors", err)
		os.Exit(1)
	}
}
