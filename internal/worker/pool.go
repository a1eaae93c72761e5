package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"factorylink/internal/infra"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const (
	QueueNotification = "jobs:notification"
	// QueueInventorySync never has consumers; it only names the DLQ that
	// collects failed pushes to the commerce platform.
	QueueInventorySync = "inventory_sync"

	jobTypeNotification = "notification"
)

// Job is the generic envelope for all async tasks.
type Job struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// JobHandler processes one job payload. Handlers own their retry and DLQ policy.
type JobHandler interface {
	Process(ctx context.Context, raw json.RawMessage)
}

// Dispatcher enqueues async jobs into Redis lists.
// The worker pool dequeues them via BRPOP.
type Dispatcher struct {
	rdb *redis.Client
}

func NewDispatcher(rdb *redis.Client) *Dispatcher {
	return &Dispatcher{rdb: rdb}
}

// Notify queues msg for delivery by the pool, so Dispatcher satisfies
// infra.Notifier and callers never wait on a slow channel.
func (d *Dispatcher) Notify(ctx context.Context, msg infra.Notification) error {
	return d.enqueue(ctx, QueueNotification, jobTypeNotification, msg)
}

// SyncFailure is the DLQ payload for a finished-goods delta that did not reach
// the commerce platform.
type SyncFailure struct {
	ProductID string `json:"product_id"`
	OrderID   string `json:"order_id,omitempty"`
	Delta     int    `json:"delta"`
}

// RecordSyncFailure stores a failed push for manual replay.
func (d *Dispatcher) RecordSyncFailure(ctx context.Context, f SyncFailure, cause error) {
	payload, err := json.Marshal(f)
	if err != nil {
		log.Error().Err(err).Msg("dispatcher: marshal sync failure")
		return
	}
	SendToDLQ(ctx, d.rdb, QueueInventorySync, "inventory_push", payload, cause.Error(), 1)
}

func (d *Dispatcher) enqueue(ctx context.Context, queue, jobType string, payload interface{}) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	encoded, err := json.Marshal(Job{Type: jobType, Payload: data})
	if err != nil {
		return err
	}
	if err := d.rdb.LPush(ctx, queue, encoded).Err(); err != nil {
		return fmt.Errorf("enqueue %s: %w", jobType, err)
	}
	return nil
}

// StartWorkerPool launches numWorkers goroutines consuming every queue in handlers.
// Each goroutine blocks on BRPOP, so idle workers cost nothing.
func StartWorkerPool(ctx context.Context, rdb *redis.Client, numWorkers int, handlers map[string]JobHandler) {
	queues := make([]string, 0, len(handlers))
	for q := range handlers {
		queues = append(queues, q)
	}
	for i := 0; i < numWorkers; i++ {
		go runWorker(ctx, rdb, i, queues, handlers)
	}
	log.Info().Int("workers", numWorkers).Strs("queues", queues).Msg("worker pool started")
}

// Bounds for the pause after a failed poll. An unreachable Redis answers
// BRPOP immediately, so without it the loop spins.
var (
	pollBackoffMin = 100 * time.Millisecond
	pollBackoffMax = 5 * time.Second
)

func nextPollBackoff(prev time.Duration) time.Duration {
	if prev < pollBackoffMin {
		return pollBackoffMin
	}
	if next := prev * 2; next < pollBackoffMax {
		return next
	}
	return pollBackoffMax
}

func runWorker(ctx context.Context, rdb *redis.Client, id int, queues []string, handlers map[string]JobHandler) {
	var backoff time.Duration
	for {
		select {
		case <-ctx.Done():
			log.Info().Msgf("worker %d shutting down", id)
			return
		default:
			// waits up to 5s then loops to check ctx
			result, err := rdb.BRPop(ctx, 5*time.Second, queues...).Result()
			if err != nil {
				if errors.Is(err, redis.Nil) || ctx.Err() != nil {
					backoff = 0
					continue
				}
				backoff = nextPollBackoff(backoff)
				log.Warn().Err(err).Int("worker", id).Dur("retry_in", backoff).Msg("worker: queue poll failed")
				select {
				case <-ctx.Done():
					log.Info().Msgf("worker %d shutting down", id)
					return
				case <-time.After(backoff):
				}
				continue
			}
			backoff = 0
			if len(result) < 2 {
				continue
			}
			dispatchJob(ctx, handlers, result[0], result[1])
		}
	}
}

func dispatchJob(ctx context.Context, handlers map[string]JobHandler, queue, raw string) {
	var job Job
	if err := json.Unmarshal([]byte(raw), &job); err != nil {
		log.Error().Str("queue", queue).Err(err).Msg("failed to unmarshal job")
		return
	}
	h, ok := handlers[queue]
	if !ok {
		log.Warn().Str("queue", queue).Str("type", job.Type).Msg("no handler for queue")
		return
	}
	h.Process(ctx, job.Payload)
}
