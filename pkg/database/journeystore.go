package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/travigo/trainrac/pkg/rail"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type trainRecord struct {
	rail.Snapshot `bson:",inline"`
}

type passengerRecord struct {
	TrainNo        string `bson:"trainno"`
	rail.Passenger `bson:",inline"`
}

type notificationRecord struct {
	TrainNo                  string `bson:"trainno"`
	rail.UpgradeNotification `bson:",inline"`
}

// MongoJourneyStore persists a journey split across the trains, passengers and upgrade_notifications collections
type MongoJourneyStore struct {
	Database *mongo.Database
}

func NewMongoJourneyStore() *MongoJourneyStore {
	return &MongoJourneyStore{Database: MongoGlobalInstance.Database}
}

// Load returns nil without an error when no journey has been stored for the train
func (s *MongoJourneyStore) Load(ctx context.Context, trainNo string) (*rail.Snapshot, error) {
	var train trainRecord
	err := s.Database.Collection(TrainsCollection).FindOne(ctx, bson.M{"trainno": trainNo}).Decode(&train)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	} else if err != nil {
		return nil, fmt.Errorf("loading train %s: %w", trainNo, err)
	}

	passengersCursor, err := s.Database.Collection(PassengersCollection).Find(
		ctx,
		bson.M{"trainno": trainNo},
		options.Find().SetSort(bson.D{{Key: "boardingseq", Value: 1}}),
	)
	if err != nil {
		return nil, fmt.Errorf("loading passengers for %s: %w", trainNo, err)
	}
	var passengers []passengerRecord
	if err := passengersCursor.All(ctx, &passengers); err != nil {
		return nil, fmt.Errorf("decoding passengers for %s: %w", trainNo, err)
	}

	notificationsCursor, err := s.Database.Collection(UpgradeNotificationsCollection).Find(
		ctx,
		bson.M{"trainno": trainNo},
		options.Find().SetSort(bson.D{{Key: "createdat", Value: 1}}),
	)
	if err != nil {
		return nil, fmt.Errorf("loading notifications for %s: %w", trainNo, err)
	}
	var notifications []notificationRecord
	if err := notificationsCursor.All(ctx, &notifications); err != nil {
		return nil, fmt.Errorf("decoding notifications for %s: %w", trainNo, err)
	}

	return mergeSnapshot(train, passengers, notifications), nil
}

// Save upserts every record of the journey and drops passengers and notifications no longer present
func (s *MongoJourneyStore) Save(ctx context.Context, snapshot *rail.Snapshot) error {
	if snapshot == nil || snapshot.TrainNo == "" {
		return errors.New("cannot save a journey without a train number")
	}

	snapshot.ModificationDateTime = time.Now()
	train, passengers, notifications := splitSnapshot(snapshot)

	_, err := s.Database.Collection(TrainsCollection).ReplaceOne(
		ctx,
		bson.M{"trainno": snapshot.TrainNo},
		train,
		options.Replace().SetUpsert(true),
	)
	if err != nil {
		return fmt.Errorf("saving train %s: %w", snapshot.TrainNo, err)
	}

	var pnrs []string
	var passengerOperations []mongo.WriteModel
	for _, passenger := range passengers {
		pnrs = append(pnrs, passenger.PNR)
		passengerOperations = append(passengerOperations, mongo.NewReplaceOneModel().
			SetFilter(bson.M{"trainno": passenger.TrainNo, "pnr": passenger.PNR}).
			SetReplacement(passenger).
			SetUpsert(true))
	}
	if err := s.bulkWrite(ctx, PassengersCollection, passengerOperations); err != nil {
		return err
	}
	if _, err := s.Database.Collection(PassengersCollection).DeleteMany(ctx, bson.M{
		"trainno": snapshot.TrainNo,
		"pnr":     bson.M{"$nin": nonNil(pnrs)},
	}); err != nil {
		return fmt.Errorf("pruning passengers for %s: %w", snapshot.TrainNo, err)
	}

	var ids []string
	var notificationOperations []mongo.WriteModel
	for _, notification := range notifications {
		ids = append(ids, notification.ID)
		notificationOperations = append(notificationOperations, mongo.NewReplaceOneModel().
			SetFilter(bson.M{"trainno": notification.TrainNo, "id": notification.ID}).
			SetReplacement(notification).
			SetUpsert(true))
	}
	if err := s.bulkWrite(ctx, UpgradeNotificationsCollection, notificationOperations); err != nil {
		return err
	}
	if _, err := s.Database.Collection(UpgradeNotificationsCollection).DeleteMany(ctx, bson.M{
		"trainno": snapshot.TrainNo,
		"id":      bson.M{"$nin": nonNil(ids)},
	}); err != nil {
		return fmt.Errorf("pruning notifications for %s: %w", snapshot.TrainNo, err)
	}

	log.Debug().
		Str("train", snapshot.TrainNo).
		Int("passengers", len(passengers)).
		Int("notifications", len(notifications)).
		Msg("Saved journey")

	return nil
}

func (s *MongoJourneyStore) bulkWrite(ctx context.Context, collection string, operations []mongo.WriteModel) error {
	if len(operations) == 0 {
		return nil
	}

	_, err := s.Database.Collection(collection).BulkWrite(ctx, operations, options.BulkWrite().SetOrdered(false))
	if err != nil {
		return fmt.Errorf("bulk writing %s: %w", collection, err)
	}
	return nil
}

func splitSnapshot(snapshot *rail.Snapshot) (trainRecord, []passengerRecord, []notificationRecord) {
	train := trainRecord{Snapshot: *snapshot}
	train.Passengers = nil
	train.Notifications = nil

	passengers := make([]passengerRecord, 0, len(snapshot.Passengers))
	for _, passenger := range snapshot.Passengers {
		passengers = append(passengers, passengerRecord{TrainNo: snapshot.TrainNo, Passenger: *passenger})
	}

	notifications := make([]notificationRecord, 0, len(snapshot.Notifications))
	for _, notification := range snapshot.Notifications {
		notifications = append(notifications, notificationRecord{TrainNo: snapshot.TrainNo, UpgradeNotification: *notification})
	}

	return train, passengers, notifications
}

func mergeSnapshot(train trainRecord, passengers []passengerRecord, notifications []notificationRecord) *rail.Snapshot {
	snapshot := train.Snapshot
	snapshot.Passengers = nil
	snapshot.Notifications = nil

	for i := range passengers {
		passenger := passengers[i].Passenger
		snapshot.Passengers = append(snapshot.Passengers, &passenger)
	}
	for i := range notifications {
		notification := notifications[i].UpgradeNotification
		snapshot.Notifications = append(snapshot.Notifications, &notification)
	}

	return &snapshot
}

func nonNil(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}
