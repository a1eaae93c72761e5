package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// runTx executes fn inside a GORM transaction when db is available,
// or calls fn(nil) directly when db is nil (unit test mode).
func runTx(ctx context.Context, db *gorm.DB, fn func(tx *gorm.DB) error) error {
	if db == nil {
		return fn(nil)
	}
	return db.WithContext(ctx).Transaction(fn)
}

// runSavepoint runs fn in a nested transaction (SAVEPOINT) so its failure
// rolls back only its own statements.
func runSavepoint(tx *gorm.DB, fn func(tx *gorm.DB) error) error {
	if tx == nil {
		return fn(nil)
	}
	return tx.Transaction(fn)
}

// SQLSTATEs worth retrying: serialization_failure, deadlock_detected, lock_not_available.
var retryableCodes = map[string]bool{
	"40001": true,
	"40P01": true,
	"55P03": true,
}

func isRetryable(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && retryableCodes[pgErr.Code]
}

// withStockRetry re-runs fn while it fails with a retryable database error.
// Exhausted retries surface as ErrConcurrentModification.
func withStockRetry(ctx context.Context, attempts int, fn func() error) error {
	if attempts < 1 {
		attempts = 1
	}
	var err error
	for i := 0; i < attempts; i++ {
		if i > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(time.Duration(i*25) * time.Millisecond):
			}
		}
		err = fn()
		if err == nil || !isRetryable(err) {
			return err
		}
		log.Warn().Err(err).Int("attempt", i+1).Msg("stock transaction conflict, retrying")
	}
	return fmt.Errorf("%w: %v", ErrConcurrentModification, err)
}
