package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"lessonhub/internal/config"
	"lessonhub/internal/observability"
	"lessonhub/pkg/database"
	"lessonhub/pkg/logger"
)

func main() {
	configPath := flag.String("config", os.Getenv("LESSONHUB_CONFIG"), "path to a YAML or JSON config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	logg, err := logger.New(cfg.Log.Mode)
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}
	defer logg.Sync()

	if err := run(cfg, logg); err != nil {
		logg.Fatal("server stopped", "error", err)
	}
}

func run(cfg config.Config, logg *logger.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing := observability.InitTracing(ctx, logg, cfg.Tracing, cfg.Log.Mode)
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracing(sctx); err != nil {
			logg.Warn("tracing shutdown", "error", err)
		}
	}()

	db, err := database.Open(cfg.Database.Driver, cfg.Database.DSN)
	if err != nil {
		return err
	}
	defer database.Close(db)

	if err := database.Migrate(db); err != nil {
		return err
	}

	if _, err := os.Stat(cfg.SeedPath); err == nil {
		catalog, err := database.LoadCatalogFromJSON(cfg.SeedPath)
		if err != nil {
			return err
		}
		n, err := database.SeedCatalog(db, catalog)
		if err != nil {
			return err
		}
		logg.Info("catalog seeded", "path", cfg.SeedPath, "lessons_inserted", n)
	} else {
		logg.Warn("catalog file not found; skip seeding", "path", cfg.SeedPath)
	}

	if cfg.Log.Mode == "prod" || cfg.Log.Mode == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	srv := &http.Server{
		Addr:              cfg.HTTP.Addr,
		Handler:           newRouter(cfg, db, logg),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logg.Info("HTTP API listening", "addr", cfg.HTTP.Addr, "db_driver", cfg.Database.Driver)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logg.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
