package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"pcred/internal/config"
	mongodb "pcred/internal/infra/db/mongo"
	pg "pcred/internal/infra/db/postgres"
	"pcred/internal/infra/logging"
	"pcred/internal/infra/metrics"
	"pcred/internal/infra/ratelimit"
	red "pcred/internal/infra/redis"
	"pcred/internal/infra/sched"
	"pcred/internal/infra/storage/file"
	"pcred/internal/infra/web"
	"pcred/internal/usecase"

	"pcred/internal/domain/ports/repository"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// ---- CLI flags ----
	cfgPath := flag.String("config", "config.yaml", "path to YAML config file")
	devMode := flag.Bool("dev", false, "development mode (console logs)")
	flag.Parse()

	cfg, err := config.LoadConfig(*cfgPath, *devMode)
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger := logging.New(cfg.Log, cfg.Runtime.Dev)
	metrics.MustRegister()

	// ---- Stores ----
	var (
		codes  repository.CodeRepository
		ledger repository.LedgerRepository
		tm     repository.TransactionManager
	)
	switch cfg.Storage.Driver {
	case "file":
		st, err := file.New(cfg.Storage.File.Dir, logger)
		if err != nil {
			logger.Fatal().Err(err).Msg("file store")
		}
		codes, ledger, tm = st, st, st
	case "postgres":
		pool, err := pg.NewPgxPool(ctx, cfg.Storage.Postgres.URL, cfg.Storage.Postgres.MaxConns)
		if err != nil {
			logger.Fatal().Err(err).Msg("postgres")
		}
		defer pool.Close()
		codes = pg.NewCodeRepo(pool)
		ledger = pg.NewLedgerRepo(pool)
		tm = pg.NewTxManager(pool)
	case "mongo":
		db, err := mongodb.NewDatabase(ctx, cfg.Storage.Mongo.URI, cfg.Storage.Mongo.Database)
		if err != nil {
			logger.Fatal().Err(err).Msg("mongo")
		}
		codeRepo := mongodb.NewCodeRepo(db)
		if err := codeRepo.EnsureIndexes(ctx); err != nil {
			logger.Fatal().Err(err).Msg("mongo indexes")
		}
		codes = codeRepo
		ledger = mongodb.NewLedgerRepo(db)
		tm = mongodb.NewTxManager()
	}
	logger.Info().Str("driver", cfg.Storage.Driver).Msg("storage ready")

	// ---- Rate limiter ----
	var limiter ratelimit.Limiter
	if cfg.RateLimit.Backend == "redis" {
		redisClient, err := red.NewClient(ctx, &cfg.Redis)
		if err != nil {
			logger.Fatal().Err(err).Msg("redis")
		}
		defer redisClient.Close()
		limiter = ratelimit.NewRedisWindow(redisClient, cfg.RateLimit.Limit, cfg.RateLimit.Window)
	} else {
		limiter = ratelimit.NewSlidingWindow(cfg.RateLimit.Limit, cfg.RateLimit.Window)
	}

	// ---- Use case and HTTP surface ----
	uc := usecase.NewRedemptionUseCase(codes, ledger, tm, logger)
	gate := web.NewGate(cfg.Auth.Salt, cfg.Auth.KeyHashes)
	srv := web.NewServer(uc, gate, limiter, cfg.Auth.OpenRedeem, logger)

	// ---- Background purge ----
	purge := sched.NewPurgeWorker(cfg.Purge.Interval, codes, logger)
	go func() {
		if err := purge.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			logger.Error().Err(err).Msg("purge worker stopped")
		}
	}()

	httpServer := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: srv.Routes(),
	}
	go func() {
		logger.Info().Int("port", cfg.Server.Port).Msg("HTTP server listening")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("http server")
		}
	}()

	<-ctx.Done()
	logger.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("shutdown")
	}
}
