package api

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/kr/pretty"
	"github.com/rs/zerolog/log"
	"github.com/travigo/trainrac/pkg/api/routes"
	"github.com/travigo/trainrac/pkg/arrivals"
	"github.com/travigo/trainrac/pkg/config"
	"github.com/travigo/trainrac/pkg/database"
	"github.com/travigo/trainrac/pkg/elastic_client"
	"github.com/travigo/trainrac/pkg/events"
	"github.com/travigo/trainrac/pkg/notify"
	"github.com/travigo/trainrac/pkg/redis_client"
	"github.com/travigo/trainrac/pkg/service"
	"github.com/travigo/trainrac/pkg/snapshotcache"
	"github.com/travigo/trainrac/pkg/train"
	"github.com/travigo/trainrac/pkg/trainconfig"
	"github.com/urfave/cli/v2"
)

func RegisterCLI() *cli.Command {
	return &cli.Command{
		Name:  "api",
		Usage: "Provides the journey tracking web API",
		Subcommands: []*cli.Command{
			{
				Name:  "run",
				Usage: "run web api server for a single train",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "listen",
						Usage: "listen target for the web server",
					},
					&cli.StringFlag{
						Name:  "definition",
						Usage: "train definition YAML used when no stored journey exists",
					},
					&cli.BoolFlag{
						Name:  "direct-notifications",
						Usage: "dispatch notifications from this process instead of the events queue",
					},
				},
				Action: func(c *cli.Context) error {
					env := config.GetEnvironmentVariables()

					listen := config.ListenAddress(env)
					if c.String("listen") != "" {
						listen = c.String("listen")
					}
					definition := config.TrainDefinition(env)
					if c.String("definition") != "" {
						definition = c.String("definition")
					}

					trainNo, err := resolveTrainNumber(env, definition)
					if err != nil {
						return err
					}

					if err := connectAll(); err != nil {
						return err
					}

					router, err := newEventRouter(trainNo, c.Bool("direct-notifications"))
					if err != nil {
						return err
					}

					journey, err := newService(c.Context, env, trainNo, router, definition)
					if err != nil {
						return err
					}

					authenticator, err := newAuthenticator(env)
					if err != nil {
						return err
					}

					ctx, cancel := context.WithCancel(c.Context)
					defer cancel()

					if settings, enabled := config.ArrivalFeed(env); enabled {
						stompClient := &arrivals.StompClient{
							Address:   settings.Address,
							Username:  settings.Username,
							Password:  settings.Password,
							QueueName: settings.QueueName,
							Handler:   &arrivals.Handler{TrainNo: trainNo, Journey: journey},
						}
						go func() {
							if err := stompClient.Run(ctx); err != nil {
								log.Error().Err(err).Msg("Arrival feed stopped")
							}
						}()
					}

					go expireOffers(ctx, journey, time.Minute)

					webApp, serverErrors := SetupServer(listen, journey, authenticator)
					log.Info().Str("listen", listen).Str("train", trainNo).Msg("Web API started")

					signals := make(chan os.Signal, 1)
					signal.Notify(signals, syscall.SIGINT, syscall.SIGTERM)
					defer signal.Stop(signals)

					select {
					case err := <-serverErrors:
						return err
					case <-signals:
					}

					cancel()
					if err := webApp.ShutdownWithTimeout(10 * time.Second); err != nil {
						log.Error().Err(err).Msg("Web API shutdown")
					}
					router.Wait()
					elastic_client.WaitUntilQueueEmpty()
					<-redis_client.QueueConnection.StopAllConsuming()

					return nil
				},
			},
			{
				Name:  "dump",
				Usage: "print the stored journey of a train",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "train",
						Usage:    "Train number",
						Required: true,
					},
				},
				Action: func(c *cli.Context) error {
					if err := database.Connect(); err != nil {
						return err
					}

					snapshot, err := database.NewMongoJourneyStore().Load(c.Context, c.String("train"))
					if err != nil {
						return err
					}
					if snapshot == nil {
						return fmt.Errorf("no journey stored for train %s", c.String("train"))
					}

					pretty.Println(snapshot)

					return nil
				},
			},
		},
	}
}

// resolveTrainNumber prefers TRAINRAC_TRAIN_NUMBER over the train definition
func resolveTrainNumber(env map[string]string, definition string) (string, error) {
	if env["TRAINRAC_TRAIN_NUMBER"] != "" {
		return env["TRAINRAC_TRAIN_NUMBER"], nil
	}

	snapshot, err := trainconfig.Load(definition)
	if err != nil {
		return "", fmt.Errorf("TRAINRAC_TRAIN_NUMBER is not set and the train definition could not be read: %w", err)
	}

	return snapshot.TrainNo, nil
}

func connectAll() error {
	if err := database.Connect(); err != nil {
		return err
	}
	if err := redis_client.Connect(); err != nil {
		return err
	}
	if err := elastic_client.Connect(false); err != nil {
		return err
	}

	return nil
}

// newEventRouter sends events to the audit sinks and either the events queue or the notify queue directly
func newEventRouter(trainNo string, directNotifications bool) (*events.Router, error) {
	sinks := []train.EventSink{
		database.NewMongoEventSink(trainNo),
		&events.ElasticSink{TrainNo: trainNo},
	}

	if directNotifications {
		queueDispatcher, err := notify.NewQueueDispatcher(redis_client.QueueConnection)
		if err != nil {
			return nil, err
		}

		return events.NewRouter(notify.NewFanOut(notify.LogDispatcher{}, queueDispatcher), sinks...), nil
	}

	queueSink, err := events.NewQueueSink(trainNo, redis_client.QueueConnection)
	if err != nil {
		return nil, err
	}

	return events.NewRouter(nil, append(sinks, queueSink)...), nil
}

// newService restores the stored journey, falling back to the train definition file
func newService(ctx context.Context, env map[string]string, trainNo string, router *events.Router, definition string) (*service.Service, error) {
	trainConfig, err := config.TrainConfig(env)
	if err != nil {
		return nil, err
	}
	trainConfig.TrainNo = trainNo
	trainConfig.EventSink = router

	rules, err := config.ReallocationRules(env)
	if err != nil {
		return nil, err
	}
	strategy, err := config.GroupStrategy(env)
	if err != nil {
		return nil, err
	}

	store := snapshotcache.New(redis_client.Client, database.NewMongoJourneyStore(), snapshotcache.DefaultExpiration)

	journey := service.New(train.New(trainConfig), service.Options{
		Store:    store,
		Rules:    rules,
		Strategy: strategy,
	})

	restored, err := journey.Restore(ctx, trainNo)
	if err != nil {
		return nil, err
	}
	if restored {
		return journey, nil
	}

	snapshot, err := trainconfig.Load(definition)
	if err != nil {
		return nil, err
	}

	response, err := journey.InitializeTrain(ctx, snapshot)
	if err != nil {
		return nil, err
	}
	if !response.Success {
		return nil, errors.New(response.Message)
	}

	return journey, nil
}

// expireOffers sweeps overdue upgrade offers so their expiry is announced without waiting for a request
func expireOffers(ctx context.Context, journey *service.Service, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			expired, err := journey.Workflow.ExpireOverdue()
			if err != nil {
				log.Error().Err(err).Msg("Failed to expire upgrade offers")
				continue
			}
			if len(expired) > 0 {
				log.Info().Int("expired", len(expired)).Msg("Expired upgrade offers")
			}
		}
	}
}

func newAuthenticator(env map[string]string) (fiber.Handler, error) {
	settings, err := config.Auth(env)
	if err != nil {
		return nil, err
	}

	if settings.Disabled {
		log.Warn().Msg("Authentication disabled, every request is treated as a TTE")
		return StaticRole(routes.RoleTTE), nil
	}

	return EnsureValidToken(settings.Domain, settings.Audience)
}
