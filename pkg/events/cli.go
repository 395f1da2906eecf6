package events

import (
	"encoding/json"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/travigo/trainrac/pkg/consumer"
	"github.com/travigo/trainrac/pkg/notify"
	"github.com/travigo/trainrac/pkg/rail"
	"github.com/travigo/trainrac/pkg/redis_client"
	"github.com/urfave/cli/v2"
)

func RegisterCLI() *cli.Command {
	return &cli.Command{
		Name:  "events",
		Usage: "Provides the events runner",
		Subcommands: []*cli.Command{
			{
				Name:  "run",
				Usage: "run events server",
				Action: func(c *cli.Context) error {
					if err := redis_client.Connect(); err != nil {
						return err
					}

					dispatcher, err := notify.NewQueueDispatcher(redis_client.QueueConnection)
					if err != nil {
						return err
					}

					redisConsumer := consumer.RedisConsumer{
						QueueName:       QueueName,
						NumberConsumers: 5,
						BatchSize:       20,
						Timeout:         2 * time.Second,
						Consumer:        NewEventsBatchConsumer(dispatcher),
						Connection:      redis_client.QueueConnection,
						StatsAddress:    ":3334",
					}
					if err := redisConsumer.Setup(); err != nil {
						return err
					}

					signals := make(chan os.Signal, 1)
					signal.Notify(signals, syscall.SIGINT)
					defer signal.Stop(signals)

					<-signals // wait for signal
					go func() {
						<-signals // hard exit on second signal (in case shutdown gets stuck)
						os.Exit(1)
					}()

					<-redis_client.QueueConnection.StopAllConsuming() // wait for all Consume() calls to finish

					return nil
				},
			},
			{
				Name:  "test-event",
				Usage: "generate a test boarding event",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "pnr",
						Usage:    "PNR to notify",
						Required: true,
					},
					&cli.StringFlag{
						Name:  "train",
						Usage: "Train number",
						Value: "00000",
					},
				},
				Action: func(c *cli.Context) error {
					if err := redis_client.Connect(); err != nil {
						return err
					}

					eventsQueue, err := redis_client.QueueConnection.OpenQueue(QueueName)
					if err != nil {
						log.Fatal().Err(err).Msg("Failed to start event queue")
					}

					event := TrainEvent{
						TrainNo: c.String("train"),
						Event: rail.Event{
							Type:        rail.EventTypePassengerBoarded,
							Timestamp:   time.Now(),
							StationCode: "TEST",
							PNR:         c.String("pnr"),
							Message:     "Test boarding event",
						},
					}

					eventBytes, err := json.Marshal(event)
					if err != nil {
						return err
					}

					return eventsQueue.PublishBytes(eventBytes)
				},
			},
		},
	}
}
