package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Anas16278/Connected-Car-Telemetry-Dashboard/internal/app/migrate"
	httpx "github.com/Anas16278/Connected-Car-Telemetry-Dashboard/internal/http"
	"github.com/Anas16278/Connected-Car-Telemetry-Dashboard/internal/repository/postgres"
	"github.com/Anas16278/Connected-Car-Telemetry-Dashboard/internal/service/export"
	"github.com/Anas16278/Connected-Car-Telemetry-Dashboard/internal/service/fleet"
	"github.com/Anas16278/Connected-Car-Telemetry-Dashboard/internal/service/telemetry"
	"github.com/Anas16278/Connected-Car-Telemetry-Dashboard/internal/ws"
	"github.com/Anas16278/Connected-Car-Telemetry-Dashboard/pkg/config"
	"github.com/Anas16278/Connected-Car-Telemetry-Dashboard/pkg/logger"
)

func main() {
	cfg := config.LoadAPIConfig()
	log := logger.NewWithFile("telemetry-api", slog.LevelInfo, cfg.LogFile)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}

	runner, err := migrate.New(pool, cfg.DatabaseURL, cfg.MigrationsDir, log)
	if err != nil {
		log.Error("failed to configure migrations", "error", err)
		os.Exit(1)
	}
	defer runner.Close()
	if err := runner.Ping(ctx); err != nil {
		log.Error("database ping failed", "error", err)
		os.Exit(1)
	}
	if err := runner.Ensure(ctx); err != nil {
		log.Error("migrations failed", "error", err)
		os.Exit(1)
	}

	repo := postgres.New(pool)
	hub := ws.NewHub()

	fleetSvc := fleet.New(repo, log)
	exportSvc := export.New(repo, log)
	streamer := telemetry.NewStreamer(repo, repo, hub, log, cfg.StreamInterval)
	go streamer.Run(ctx)

	limiter := httpx.NewMemoryRateLimiter()
	if addr := strings.TrimSpace(cfg.RateLimitRedisAddr); addr != "" {
		redisLimiter, err := httpx.NewRedisRateLimiter(addr, cfg.RateLimitRedisPass, cfg.RateLimitRedisDB, log)
		if err != nil {
			log.Warn("redis rate limiter unavailable", "error", err)
		} else {
			limiter = redisLimiter
		}
	}

	router := httpx.NewRouter(log, fleetSvc, exportSvc, streamer, limiter, cfg.HistoryLimit, cfg.ExportWindowDays, pool.Ping)
	defer router.Close()

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errorCh := make(chan error, 1)
	go func() {
		log.Info("telemetry api starting", "addr", cfg.Addr)
		errorCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error("graceful shutdown failed", "error", err)
		}
		log.Info("telemetry api stopped")
	case err := <-errorCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server error", "error", err)
			os.Exit(1)
		}
	}
}
