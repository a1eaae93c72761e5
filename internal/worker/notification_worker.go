package worker

import (
	"context"
	"encoding/json"

	"factorylink/internal/infra"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const notificationMaxAttempts = 3

// NotificationWorker delivers queued order notifications through the
// configured channel, retrying with backoff before giving up to the DLQ.
type NotificationWorker struct {
	notifier infra.Notifier
	rdb      *redis.Client
}

func NewNotificationWorker(notifier infra.Notifier, rdb *redis.Client) *NotificationWorker {
	return &NotificationWorker{notifier: notifier, rdb: rdb}
}

func (w *NotificationWorker) Process(ctx context.Context, raw json.RawMessage) {
	var msg infra.Notification
	if err := json.Unmarshal(raw, &msg); err != nil {
		log.Error().Err(err).Msg("notification_worker: invalid payload")
		return
	}

	err := withRetry(ctx, notificationMaxAttempts, func(attempt int) error {
		err := w.notifier.Notify(ctx, msg)
		if err != nil {
			log.Warn().Err(err).
				Int("attempt", attempt+1).
				Str("order_number", msg.OrderNumber).
				Msg("notification_worker: delivery failed")
		}
		return err
	})
	if err != nil {
		SendToDLQ(ctx, w.rdb, QueueNotification, jobTypeNotification, raw, err.Error(), notificationMaxAttempts)
		return
	}
	log.Info().Str("order_number", msg.OrderNumber).Str("status", msg.Status).
		Msg("notification_worker: delivered")
}
