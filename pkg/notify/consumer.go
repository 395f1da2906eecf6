package notify

import (
	"context"
	"encoding/json"
	"time"

	"github.com/adjust/rmq/v5"
	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog/log"
	"github.com/travigo/trainrac/pkg/rail"
)

const pushAttempts = 3

type NotifyBatchConsumer struct {
	Pusher Pusher

	Backoff func() backoff.BackOff
}

func NewNotifyBatchConsumer(pusher Pusher) *NotifyBatchConsumer {
	return &NotifyBatchConsumer{
		Pusher: pusher,
		Backoff: func() backoff.BackOff {
			exponential := backoff.NewExponentialBackOff()
			exponential.InitialInterval = 200 * time.Millisecond
			return backoff.WithMaxRetries(exponential, pushAttempts)
		},
	}
}

func (c *NotifyBatchConsumer) Consume(batch rmq.Deliveries) {
	for _, delivery := range batch {
		var notification rail.Notification
		if err := json.Unmarshal([]byte(delivery.Payload()), &notification); err != nil || notification.PNR == "" {
			log.Error().Err(err).Str("payload", delivery.Payload()).Msg("Dropping malformed notification")
			c.reject(delivery)
			continue
		}

		err := backoff.Retry(func() error {
			return c.Pusher.SendPush(context.Background(), notification)
		}, c.Backoff())
		if err != nil {
			log.Error().Err(err).Str("pnr", notification.PNR).Str("type", string(notification.Type)).Msg("Failed to deliver notification")
			c.reject(delivery)
			continue
		}

		if err := delivery.Ack(); err != nil {
			log.Error().Err(err).Msg("Failed to ack notification")
		}
	}
}

func (c *NotifyBatchConsumer) reject(delivery rmq.Delivery) {
	if err := delivery.Reject(); err != nil {
		log.Error().Err(err).Msg("Failed to reject notification")
	}
}
