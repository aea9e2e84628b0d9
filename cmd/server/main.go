package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/newsroom-comments-api/internal/api"
	"github.com/newsroom-comments-api/internal/cache"
	"github.com/newsroom-comments-api/internal/config"
	"github.com/newsroom-comments-api/internal/database"
	"github.com/newsroom-comments-api/internal/repository"
	"github.com/newsroom-comments-api/internal/service"
	"github.com/newsroom-comments-api/pkg/logger"
	"github.com/rs/zerolog"
)

func main() {
	// Initialize logger
	log := logger.New("newsroom-comments-api")
	log.Info().Msg("Starting newsroom comments API server...")

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	if os.Getenv("ENV") != "development" {
		gin.SetMode(gin.ReleaseMode)
	}

	// Initialize database
	db, err := database.New(&cfg.Database, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer db.Close()

	if err := db.RunMigrations(cfg.Database.MigrationsPath); err != nil {
		log.Fatal().Err(err).Msg("Failed to run database migrations")
	}

	repos := repository.New(db)
	treeCache := newTreeCache(cfg, log)

	services := service.NewServices(repos, treeCache, cfg, log)

	// Start background job processor
	go services.Job.StartProcessor(context.Background())
	log.Info().Msg("Background job processor started")

	router := api.NewRouter(services, cfg, log)

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.ReadTimeout,
	}

	go func() {
		log.Info().Str("port", cfg.Server.Port).Msg("Server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server failed")
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	services.Job.StopProcessor()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server exited gracefully")
}

// newTreeCache connects the Redis tree cache when enabled. The API keeps
// serving from the database when Redis is unreachable.
func newTreeCache(cfg *config.Config, log zerolog.Logger) cache.TreeCache {
	if !cfg.Cache.Enabled {
		log.Info().Msg("Comment tree cache disabled")
		return cache.Noop{}
	}

	client, err := cache.NewClient(cfg.Cache)
	if err != nil {
		log.Warn().Err(err).Str("address", cfg.Cache.Address).Msg("Redis unavailable, running without comment tree cache")
		return cache.Noop{}
	}

	log.Info().Str("address", cfg.Cache.Address).Dur("ttl", cfg.Cache.TTL).Msg("Comment tree cache enabled")
	return cache.NewRedisTreeCache(client, cfg.Cache.TTL, log)
}
