// Command cashkeepd runs the cashkeep HTTP API and its nightly scheduler.
// Bootstrap shape follows the teacher's cmd/mma_backend/main.go: load
// config, open the store, apply migrations, build the service graph,
// register routes, serve.
package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/cashkeep/cashkeep/internal/handlers"
	"github.com/cashkeep/cashkeep/internal/middleware"
	"github.com/cashkeep/cashkeep/internal/platform/config"
	"github.com/cashkeep/cashkeep/internal/repositories/database/sqlite"
	"github.com/cashkeep/cashkeep/internal/scheduler"
	"github.com/cashkeep/cashkeep/internal/upstream"
	"github.com/cashkeep/cashkeep/pkg/database"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	if err := run(logger); err != nil {
		logger.Error("cashkeepd exited with error", "error", err)
		os.Exit(1)
	}
}

func run(logger *slog.Logger) error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return err
	}

	ctx := context.Background()
	db, err := database.Open(ctx, cfg.DBPath)
	if err != nil {
		return err
	}
	defer database.Close(db)

	if err := database.RunMigrations(db, "file://migrations"); err != nil {
		return err
	}

	store := sqlite.NewStore(db)
	deps := handlers.NewDependencies(cfg, db, store.Repos, store, uuid.NewString)

	if cfg.SchedulerEnabled {
		sources := map[string]upstream.Source{}
		if cfg.UpstreamBaseURL != "" {
			sources["upstream"] = upstream.NewClient(cfg.UpstreamBaseURL, cfg.UpstreamToken)
		}
		sched, err := scheduler.New(cfg, deps.Ingestor, deps.SnapshotJob, deps.Repos.Accounts, sources)
		if err != nil {
			return err
		}
		sched.Start()
		defer sched.Stop()
		logger.Info("scheduler started", "hour", cfg.SchedulerHour, "minute", cfg.SchedulerMinute, "tz", cfg.SchedulerTZ)
	}

	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(middleware.StructuredLoggingMiddleware(logger), gin.Recovery(), middleware.ErrorHandler())
	r.SetTrustedProxies(nil)

	handlers.RegisterRoutes(r, cfg, deps)

	logger.Info("cashkeepd listening", "port", cfg.Port)
	return r.Run(":" + cfg.Port)
}
