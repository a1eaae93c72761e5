package worker

// Background goroutine that periodically overwrites the local finished-goods
// cache with the commerce platform's numbers. A redislock lease keeps replicas
// from running it concurrently and an open breaker skips the tick.

import (
	"context"
	"errors"
	"time"

	"factorylink/internal/dto"
	"factorylink/internal/infra"

	"github.com/bsm/redislock"
	"github.com/rs/zerolog/log"
)

const reconcileLockKey = "lock:inventory_reconcile"

// Reconciler is the slice of the inventory sync service the cron needs.
type Reconciler interface {
	ReconcileAll(ctx context.Context) ([]dto.ReconcileResponse, error)
}

type ReconcileCronConfig struct {
	Reconciler Reconciler
	Breaker    *infra.CircuitBreaker
	Locker     *redislock.Client // nil runs without the lease (single instance)
	Interval   time.Duration
}

// StartReconcileCron launches the ticker goroutine. Interval <= 0 disables it.
func StartReconcileCron(ctx context.Context, cfg ReconcileCronConfig) {
	if cfg.Interval <= 0 {
		log.Info().Msg("reconcile_cron: disabled")
		return
	}
	go func() {
		ticker := time.NewTicker(cfg.Interval)
		defer ticker.Stop()

		log.Info().Dur("interval", cfg.Interval).Msg("reconcile_cron: started")

		for {
			select {
			case <-ctx.Done():
				log.Info().Msg("reconcile_cron: shutting down")
				return
			case <-ticker.C:
				runReconcile(ctx, cfg)
			}
		}
	}()
}

func runReconcile(ctx context.Context, cfg ReconcileCronConfig) {
	if cfg.Breaker != nil && cfg.Breaker.State() == infra.CBOpen {
		log.Debug().Msg("reconcile_cron: circuit breaker is open, skipping tick")
		return
	}

	if cfg.Locker != nil {
		lock, err := cfg.Locker.Obtain(ctx, reconcileLockKey, cfg.Interval, nil)
		if errors.Is(err, redislock.ErrNotObtained) {
			log.Debug().Msg("reconcile_cron: another instance holds the lock")
			return
		}
		if err != nil {
			log.Error().Err(err).Msg("reconcile_cron: obtain lock")
			return
		}
		defer func() {
			if err := lock.Release(context.Background()); err != nil && !errors.Is(err, redislock.ErrLockNotHeld) {
				log.Warn().Err(err).Msg("reconcile_cron: release lock")
			}
		}()
	}

	results, err := cfg.Reconciler.ReconcileAll(ctx)
	if err != nil {
		log.Error().Err(err).Msg("reconcile_cron: reconcile failed")
		return
	}
	corrected := 0
	for _, r := range results {
		if r.Corrected {
			corrected++
		}
	}
	log.Info().Int("checked", len(results)).Int("corrected", corrected).Msg("reconcile_cron: done")
}
