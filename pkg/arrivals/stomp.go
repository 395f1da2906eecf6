package arrivals

import (
	"context"

	"github.com/go-stomp/stomp/v3"
	"github.com/rs/zerolog/log"
)

type StompClient struct {
	Address   string
	Username  string
	Password  string
	QueueName string

	Handler *Handler
}

// Run consumes arrival messages until ctx is cancelled or the subscription fails
func (s *StompClient) Run(ctx context.Context) error {
	var stompOptions []func(*stomp.Conn) error = []func(*stomp.Conn) error{
		stomp.ConnOpt.Login(s.Username, s.Password),
	}
	conn, err := stomp.Dial("tcp", s.Address, stompOptions...)
	if err != nil {
		return err
	}
	defer conn.Disconnect()

	sub, err := conn.Subscribe(s.QueueName, stomp.AckClient)
	if err != nil {
		return err
	}
	defer sub.Unsubscribe()

	log.Info().Str("queue", s.QueueName).Str("address", s.Address).Msg("Listening for station arrivals")

	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-sub.C:
			if !ok {
				return nil
			}
			if msg.Err != nil {
				return msg.Err
			}

			if _, err := s.Handler.HandleBytes(ctx, msg.Body); err != nil {
				log.Error().Err(err).Str("queue", s.QueueName).Msg("Failed to process arrival")
			}

			if err := conn.Ack(msg); err != nil {
				log.Error().Err(err).Msg("Failed to ack arrival")
			}
		}
	}
}
