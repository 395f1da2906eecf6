package notify

import (
	"context"
	"encoding/base64"
	"fmt"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/messaging"
	"github.com/rs/zerolog/log"
	"github.com/travigo/trainrac/pkg/config"
	"github.com/travigo/trainrac/pkg/rail"
	"google.golang.org/api/option"
)

type Pusher interface {
	SendPush(ctx context.Context, notification rail.Notification) error
}

type PushManager struct {
	FirebaseApp *firebase.App
}

func (m *PushManager) Setup() error {
	env := config.GetEnvironmentVariables()

	decodedKey, err := base64.StdEncoding.DecodeString(env["TRAINRAC_FIREBASE_SERVICE_ACCOUNT"])
	if err != nil {
		return err
	}

	opts := []option.ClientOption{option.WithCredentialsJSON(decodedKey)}

	app, err := firebase.NewApp(context.Background(), nil, opts...)
	if err != nil {
		return err
	}

	m.FirebaseApp = app

	return nil
}

// Topic is the messaging topic a passenger's devices subscribe to
func Topic(pnr string) string {
	return fmt.Sprintf("pnr-%s", pnr)
}

func (m *PushManager) SendPush(ctx context.Context, notification rail.Notification) error {
	fcmClient, err := m.FirebaseApp.Messaging(ctx)
	if err != nil {
		return err
	}

	_, err = fcmClient.Send(ctx, &messaging.Message{
		Notification: &messaging.Notification{
			Title: notification.Title,
			Body:  notification.Message,
		},
		Data: map[string]string{
			"pnr":  notification.PNR,
			"type": string(notification.Type),
		},
		Topic: Topic(notification.PNR),
	})
	if err != nil {
		return err
	}

	log.Info().Str("pnr", notification.PNR).Str("type", string(notification.Type)).Msg("Sent Push Notification")

	return nil
}
