package events

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/adjust/rmq/v5"
	"github.com/rs/zerolog/log"
	"github.com/sourcegraph/conc"
	"github.com/travigo/trainrac/pkg/elastic_client"
	"github.com/travigo/trainrac/pkg/notify"
	"github.com/travigo/trainrac/pkg/rail"
	"github.com/travigo/trainrac/pkg/train"
)

const QueueName = "events-queue"

const dispatchTimeout = 10 * time.Second

// TrainEvent is the wire and index form of an event
type TrainEvent struct {
	TrainNo string `json:"train_no"`
	rail.Event
}

// Router fans committed events out to the audit sinks and turns passenger-facing ones into notifications
type Router struct {
	Sinks      []train.EventSink
	Dispatcher notify.Dispatcher

	dispatches *conc.WaitGroup
}

func NewRouter(dispatcher notify.Dispatcher, sinks ...train.EventSink) *Router {
	return &Router{
		Sinks:      sinks,
		Dispatcher: dispatcher,
		dispatches: conc.NewWaitGroup(),
	}
}

func (r *Router) HandleEvents(events []rail.Event) {
	for _, sink := range r.Sinks {
		sink.HandleEvents(events)
	}

	if r.Dispatcher == nil {
		return
	}

	for _, event := range events {
		notification, ok := GetNotificationData(event)
		if !ok {
			continue
		}

		r.dispatches.Go(func() {
			ctx, cancel := context.WithTimeout(context.Background(), dispatchTimeout)
			defer cancel()

			if err := r.Dispatcher.Dispatch(ctx, notification); err != nil {
				log.Error().Err(err).Str("pnr", notification.PNR).Str("type", string(notification.Type)).Msg("Failed to dispatch notification")
			}
		})
	}
}

// Wait blocks until in-flight notification dispatches finish
func (r *Router) Wait() {
	r.dispatches.Wait()
}

// ElasticSink indexes events for the journey audit trail
type ElasticSink struct {
	TrainNo string
}

func (s *ElasticSink) HandleEvents(events []rail.Event) {
	if !elastic_client.Connected() {
		return
	}

	for _, event := range events {
		document, err := json.Marshal(TrainEvent{TrainNo: s.TrainNo, Event: event})
		if err != nil {
			log.Error().Err(err).Msg("Failed to marshal event")
			continue
		}

		elastic_client.IndexRequest(indexName(event.Timestamp), bytes.NewReader(document))
	}
}

func indexName(timestamp time.Time) string {
	return fmt.Sprintf("trainrac-events-%d-%02d", timestamp.Year(), timestamp.Month())
}

// QueueSink publishes events onto the events queue for out of process consumers
type QueueSink struct {
	TrainNo string
	Queue   rmq.Queue
}

func NewQueueSink(trainNo string, connection rmq.Connection) (*QueueSink, error) {
	queue, err := connection.OpenQueue(QueueName)
	if err != nil {
		return nil, err
	}

	return &QueueSink{TrainNo: trainNo, Queue: queue}, nil
}

func (s *QueueSink) HandleEvents(events []rail.Event) {
	for _, event := range events {
		payload, err := json.Marshal(TrainEvent{TrainNo: s.TrainNo, Event: event})
		if err != nil {
			log.Error().Err(err).Msg("Failed to marshal event")
			continue
		}

		if err := s.Queue.PublishBytes(payload); err != nil {
			log.Error().Err(err).Str("type", string(event.Type)).Msg("Failed to publish event")
		}
	}
}
