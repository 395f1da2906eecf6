package notify

import (
	"context"
	"encoding/json"

	"github.com/adjust/rmq/v5"
	"github.com/rs/zerolog/log"
	"github.com/sourcegraph/conc/pool"
	"github.com/travigo/trainrac/pkg/rail"
)

const QueueName = "notify-queue"

type Dispatcher interface {
	Dispatch(ctx context.Context, notification rail.Notification) error
}

type LogDispatcher struct{}

func (LogDispatcher) Dispatch(_ context.Context, notification rail.Notification) error {
	log.Info().
		Str("pnr", notification.PNR).
		Str("type", string(notification.Type)).
		Str("title", notification.Title).
		Msg(notification.Message)
	return nil
}

// QueueDispatcher hands notifications to the notify consumers through redis
type QueueDispatcher struct {
	Queue rmq.Queue
}

func NewQueueDispatcher(connection rmq.Connection) (*QueueDispatcher, error) {
	queue, err := connection.OpenQueue(QueueName)
	if err != nil {
		return nil, err
	}

	return &QueueDispatcher{Queue: queue}, nil
}

func (d *QueueDispatcher) Dispatch(_ context.Context, notification rail.Notification) error {
	payload, err := json.Marshal(notification)
	if err != nil {
		return err
	}

	return d.Queue.PublishBytes(payload)
}

// FanOut delivers to every dispatcher concurrently and joins their errors
type FanOut struct {
	Dispatchers []Dispatcher
}

func NewFanOut(dispatchers ...Dispatcher) *FanOut {
	return &FanOut{Dispatchers: dispatchers}
}

func (f *FanOut) Dispatch(ctx context.Context, notification rail.Notification) error {
	if len(f.Dispatchers) == 0 {
		return nil
	}

	p := pool.New().WithErrors().WithMaxGoroutines(len(f.Dispatchers))
	for _, dispatcher := range f.Dispatchers {
		dispatcher := dispatcher
		p.Go(func() error {
			return dispatcher.Dispatch(ctx, notification)
		})
	}

	return p.Wait()
}
