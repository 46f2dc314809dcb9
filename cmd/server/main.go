package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/forum-thread-engine/internal/api"
	"github.com/forum-thread-engine/internal/config"
	"github.com/forum-thread-engine/internal/database"
	"github.com/forum-thread-engine/internal/forumapi"
	"github.com/forum-thread-engine/internal/repository"
	"github.com/forum-thread-engine/internal/service"
	"github.com/forum-thread-engine/pkg/logger"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

func main() {
	// Initialize logger
	log := logger.New()
	log.Info().Msg("Starting forum thread engine...")

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	// Initialize repositories for the configured data source
	var repos *repository.Repositories
	var health service.HealthChecker
	switch cfg.Forum.DataSource {
	case config.DataSourcePostgres:
		db, err := database.New(&cfg.Database, log)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to connect to database")
		}
		defer db.Close()

		if err := db.RunMigrations(cfg.Database.MigrationsPath); err != nil {
			log.Fatal().Err(err).Msg("Failed to run database migrations")
		}
		repos = repository.New(db)
		health = db
	default:
		client := forumapi.New(cfg.Forum.APIBaseURL, cfg.Forum.RequestTimeout, log)
		repos = client.Repositories()
	}
	log.Info().
		Str("data_source", cfg.Forum.DataSource).
		Int("max_depth", cfg.Forum.MaxDepth).
		Msg("Repositories initialized")

	// Metrics
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics := service.NewMetrics(reg)

	// Initialize services
	services := service.NewServices(repos, cfg, metrics, log)
	services.Health = health

	// Start view janitor
	services.Janitor.StartJanitor(context.Background())

	// Initialize router
	router := api.NewRouter(services, cfg, reg, log)

	// Create HTTP server
	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.ReadTimeout,
	}

	// Start server in goroutine
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

	services.Janitor.StopJanitor()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server exited gracefully")
}
