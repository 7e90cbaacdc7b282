package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"contentd/internal/adapters/httpapi"
	"contentd/internal/application"
	"contentd/internal/config"
	"contentd/internal/infrastructure/cache"
	"contentd/internal/infrastructure/database"
	"contentd/internal/infrastructure/i18n"
	"contentd/internal/logging"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		boot := logging.New("info", true)
		boot.Fatal().Err(err).Msg("❌ Invalid configuration")
	}
	log := logging.New(cfg.LogLevel, cfg.IsDevelopment())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.AutoMigrate || cfg.MigrationsPath != "" {
		if err := database.RunMigrations(cfg.DatabaseURL, cfg.MigrationsPath, log); err != nil {
			log.Fatal().Err(err).Msg("❌ Failed to apply migrations")
		}
	}

	pool, err := database.NewPool(ctx, cfg.DatabaseURL, database.PoolSettings{
		MaxConns:        cfg.DBMaxConns,
		MinConns:        cfg.DBMinConns,
		MaxConnIdleTime: cfg.DBMaxConnIdleTime,
	}, log)
	if err != nil {
		log.Fatal().Err(err).Msg("❌ Failed to initialise the database")
	}
	defer pool.Close()

	repo := database.NewContentRepository(pool)

	contentCache := cache.NewMemory(cfg.CacheTTL, cache.WithSweepInterval(cfg.CacheSweepInterval))

	matcher, err := i18n.NewMatcher(cfg.SupportedLanguages...)
	if err != nil {
		log.Fatal().Err(err).Msg("❌ Invalid language configuration")
	}
	translator := i18n.NewTranslator(cfg.DefaultLanguage, log)

	resolution := application.NewResolutionService(repo, repo, contentCache, matcher, application.ResolutionOptions{
		Source:          application.Source(cfg.DropdownSource),
		DefaultLanguage: cfg.DefaultLanguage,
		Logger:          log,
	})

	log.Info().
		Str("addr", cfg.HTTPAddr).
		Str("dropdown_source", cfg.DropdownSource).
		Strs("languages", matcher.Supported()).
		Dur("cache_ttl", cfg.CacheTTL).
		Msg("🚀 Starting content service")

	server := httpapi.NewServer(cfg.HTTPAddr, resolution, translator, log)
	if err := server.Start(ctx); err != nil {
		log.Error().Err(err).Msg("❌ HTTP server stopped")
		stop()
		os.Exit(1)
	}
	log.Info().Msg("👋 Content service stopped")
}
