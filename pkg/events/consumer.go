package events

import (
	"context"
	"encoding/json"

	"github.com/adjust/rmq/v5"
	"github.com/rs/zerolog/log"
	"github.com/travigo/trainrac/pkg/notify"
)

// EventsBatchConsumer renders queued events into notifications for the dispatcher
type EventsBatchConsumer struct {
	Dispatcher notify.Dispatcher
}

func NewEventsBatchConsumer(dispatcher notify.Dispatcher) *EventsBatchConsumer {
	return &EventsBatchConsumer{Dispatcher: dispatcher}
}

func (c *EventsBatchConsumer) Consume(batch rmq.Deliveries) {
	for _, delivery := range batch {
		var event TrainEvent
		if err := json.Unmarshal([]byte(delivery.Payload()), &event); err != nil {
			log.Error().Err(err).Msg("Failed to decode event")
			if err := delivery.Reject(); err != nil {
				log.Error().Err(err).Msg("Failed to reject event")
			}
			continue
		}

		if notification, ok := GetNotificationData(event.Event); ok {
			if err := c.Dispatcher.Dispatch(context.Background(), notification); err != nil {
				log.Error().Err(err).Str("pnr", notification.PNR).Msg("Failed to dispatch notification")
				if err := delivery.Push(); err != nil {
					log.Error().Err(err).Msg("Failed to push event")
				}
				continue
			}
		}

		if err := delivery.Ack(); err != nil {
			log.Error().Err(err).Msg("Failed to ack event")
		}
	}
}
