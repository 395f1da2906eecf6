package database

import (
	"context"

	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	TrainsCollection               = "trains"
	PassengersCollection           = "passengers"
	UpgradeNotificationsCollection = "upgrade_notifications"
	TrainEventsCollection          = "train_events"
)

func createIndexes() {
	createTrainIndexes()
	createEventIndexes()
}

func createTrainIndexes() {
	// Trains
	trainsCollection := GetCollection(TrainsCollection)
	_, err := trainsCollection.Indexes().CreateMany(context.Background(), []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "trainno", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
	}, options.CreateIndexes())
	if err != nil {
		log.Error().Err(err).Msg("Creating Index")
	}

	// Passengers
	trainPassengerIndexName := "TrainPassenger"
	passengersCollection := GetCollection(PassengersCollection)
	_, err = passengersCollection.Indexes().CreateMany(context.Background(), []mongo.IndexModel{
		{
			Options: &options.IndexOptions{
				Name: &trainPassengerIndexName,
			},
			Keys: bson.D{
				{Key: "trainno", Value: 1},
				{Key: "pnr", Value: 1},
			},
		},
		{
			Keys: bson.D{{Key: "pnrstatus", Value: 1}},
		},
	}, options.CreateIndexes())
	if err != nil {
		log.Error().Err(err).Msg("Creating Index")
	}

	// Upgrade Notifications
	notificationsCollection := GetCollection(UpgradeNotificationsCollection)
	_, err = notificationsCollection.Indexes().CreateMany(context.Background(), []mongo.IndexModel{
		{
			Keys: bson.D{{Key: "id", Value: 1}},
		},
		{
			Keys: bson.D{
				{Key: "trainno", Value: 1},
				{Key: "pnr", Value: 1},
			},
		},
		{
			Keys: bson.D{{Key: "status", Value: 1}},
		},
	}, options.CreateIndexes())
	if err != nil {
		log.Error().Err(err).Msg("Creating Index")
	}
}

func createEventIndexes() {
	// Train Events
	eventsCollection := GetCollection(TrainEventsCollection)
	_, err := eventsCollection.Indexes().CreateMany(context.Background(), []mongo.IndexModel{
		{
			Keys: bson.D{
				{Key: "trainno", Value: 1},
				{Key: "timestamp", Value: 1},
			},
		},
		{
			Keys: bson.D{{Key: "pnr", Value: 1}},
		},
		{
			Keys:    bson.D{{Key: "timestamp", Value: 1}},
			Options: options.Index().SetExpireAfterSeconds(7 * 24 * 3600), // Expire after 7 days
		},
	}, options.CreateIndexes())
	if err != nil {
		log.Error().Err(err).Msg("Creating Index")
	}
}
