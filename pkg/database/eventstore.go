package database

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/travigo/trainrac/pkg/rail"
	"go.mongodb.org/mongo-driver/mongo"
)

type eventRecord struct {
	TrainNo    string `bson:"trainno"`
	rail.Event `bson:",inline"`
}

// MongoEventSink appends journey events to the train_events collection
type MongoEventSink struct {
	TrainNo    string
	Collection *mongo.Collection
}

func NewMongoEventSink(trainNo string) *MongoEventSink {
	return &MongoEventSink{
		TrainNo:    trainNo,
		Collection: GetCollection(TrainEventsCollection),
	}
}

func (s *MongoEventSink) HandleEvents(events []rail.Event) {
	if len(events) == 0 {
		return
	}

	documents := make([]interface{}, 0, len(events))
	for _, event := range events {
		documents = append(documents, eventRecord{TrainNo: s.TrainNo, Event: event})
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if _, err := s.Collection.InsertMany(ctx, documents); err != nil {
		log.Error().Err(err).Str("train", s.TrainNo).Int("events", len(events)).Msg("Failed to store train events")
	}
}
