package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"factorylink/internal/config"
	"factorylink/internal/infra"
	"factorylink/internal/repository"
	"factorylink/internal/router"
	"factorylink/internal/service"
	"factorylink/internal/worker"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}
	setupLogger(cfg)

	db, err := infra.NewDatabase(cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to postgres")
	}
	if cfg.AutoMigrate {
		if err := infra.Migrate(db); err != nil {
			log.Fatal().Err(err).Msg("failed to migrate schema")
		}
	}

	rdb, err := infra.NewRedis(cfg.RedisURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to redis")
	}

	// Background work (notification delivery, reconcile cron) is wired here,
	// at the composition root, and stops when ctx is cancelled.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	breaker := infra.NewCircuitBreaker("commerce", infra.DefaultCBConfig())
	commerce := infra.NewCommerceClient(cfg.CommerceBaseURL, cfg.CommerceToken, cfg.CommerceTimeout(), breaker)

	delivery, err := infra.NewNotifier(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to build notifier")
	}
	dispatcher := worker.NewDispatcher(rdb)

	// Async mode queues notifications and lets the pool deliver them.
	var notifier infra.Notifier = delivery
	if cfg.NotifyAsync {
		notifier = dispatcher
		worker.StartWorkerPool(ctx, rdb, cfg.WorkerPoolSize, map[string]worker.JobHandler{
			worker.QueueNotification: worker.NewNotificationWorker(delivery, rdb),
		})
	}

	worker.StartReconcileCron(ctx, worker.ReconcileCronConfig{
		Reconciler: service.NewInventorySyncService(repository.NewProductRepository(db), commerce),
		Breaker:    breaker,
		Locker:     infra.NewLocker(rdb),
		Interval:   cfg.ReconcileInterval(),
	})

	r := router.New(cfg, db, rdb, router.Deps{
		Commerce:   commerce,
		Notifier:   notifier,
		Dispatcher: dispatcher,
	})

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown on SIGINT / SIGTERM
	go func() {
		log.Info().Msgf("factorylink listening on :%d", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server…")
	cancel()
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatal().Err(err).Msg("forced shutdown")
	}
	log.Info().Msg("server exited")
}

// setupLogger: dev gets a pretty console writer, prod gets JSON.
func setupLogger(cfg *config.Config) {
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)
	if cfg.Env != "production" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	}
}
