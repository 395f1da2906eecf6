package events

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/adjust/rmq/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/travigo/trainrac/pkg/rail"
)

type recordingDispatcher struct {
	mutex sync.Mutex
	sent  []rail.Notification
	err   error
}

func (d *recordingDispatcher) Dispatch(_ context.Context, notification rail.Notification) error {
	d.mutex.Lock()
	defer d.mutex.Unlock()

	d.sent = append(d.sent, notification)
	return d.err
}

func (d *recordingDispatcher) types() []rail.NotificationType {
	d.mutex.Lock()
	defer d.mutex.Unlock()

	var types []rail.NotificationType
	for _, notification := range d.sent {
		types = append(types, notification.Type)
	}
	return types
}

type recordingSink struct {
	events []rail.Event
}

func (s *recordingSink) HandleEvents(events []rail.Event) {
	s.events = append(s.events, events...)
}

func event(eventType rail.EventType, pnr string, data map[string]interface{}) rail.Event {
	return rail.Event{
		Type:        eventType,
		Timestamp:   time.Date(2026, 10, 16, 9, 0, 0, 0, time.UTC),
		StationIdx:  1,
		StationCode: "AGC",
		PNR:         pnr,
		Data:        data,
	}
}

func TestGetNotificationData(t *testing.T) {
	tests := []struct {
		name     string
		event    rail.Event
		expected rail.NotificationType
		contains string
	}{
		{"boarding", event(rail.EventTypePassengerBoarded, "P1", nil), rail.NotificationTypeBoarding, "AGC"},
		{"no-show", event(rail.EventTypeNoShowMarked, "P1", nil), rail.NotificationTypeNoShow, "no-show"},
		{"offer", event(rail.EventTypeUpgradeOffered, "R1", map[string]interface{}{"berth": "S1-1", "berthType": "Lower"}), rail.NotificationTypeUpgradeOffered, "S1-1 (Lower)"},
		{"upgrade", event(rail.EventTypeRACUpgraded, "R1", map[string]interface{}{"from": "S1-7", "to": "S1-1"}), rail.NotificationTypeUpgradeApproved, "S1-1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			notification, ok := GetNotificationData(tt.event)

			require.True(t, ok)
			assert.Equal(t, tt.event.PNR, notification.PNR)
			assert.Equal(t, tt.expected, notification.Type)
			assert.NotEmpty(t, notification.Title)
			assert.Contains(t, notification.Message, tt.contains)
		})
	}
}

func TestGetNotificationDataSkipsInternalEvents(t *testing.T) {
	for _, eventType := range []rail.EventType{
		rail.EventTypeStationArrived,
		rail.EventTypeJourneyStarted,
		rail.EventTypeUpgradeAccepted,
		rail.EventTypeUpgradeConfirmed,
		rail.EventTypeUpgradeExpired,
	} {
		_, ok := GetNotificationData(event(eventType, "P1", nil))
		assert.False(t, ok, eventType)
	}

	_, ok := GetNotificationData(event(rail.EventTypePassengerBoarded, "", nil))
	assert.False(t, ok)
}

func TestRouter(t *testing.T) {
	dispatcher := &recordingDispatcher{}
	sink := &recordingSink{}
	router := NewRouter(dispatcher, sink)

	router.HandleEvents([]rail.Event{
		event(rail.EventTypeStationArrived, "", nil),
		event(rail.EventTypePassengerBoarded, "P1", nil),
		event(rail.EventTypeNoShowMarked, "P2", nil),
	})
	router.Wait()

	assert.Len(t, sink.events, 3)
	assert.ElementsMatch(t, []rail.NotificationType{rail.NotificationTypeBoarding, rail.NotificationTypeNoShow}, dispatcher.types())
}

func TestRouterSurvivesDispatchFailure(t *testing.T) {
	dispatcher := &recordingDispatcher{err: errors.New("queue down")}
	router := NewRouter(dispatcher)

	assert.NotPanics(t, func() {
		router.HandleEvents([]rail.Event{event(rail.EventTypePassengerBoarded, "P1", nil)})
		router.Wait()
	})
	assert.Len(t, dispatcher.types(), 1)
}

func TestQueueSinkToConsumer(t *testing.T) {
	connection := rmq.NewTestConnection()
	sink, err := NewQueueSink("12627", connection)
	require.NoError(t, err)

	sink.HandleEvents([]rail.Event{
		event(rail.EventTypeUpgradeOffered, "R1", map[string]interface{}{"berth": "S1-1", "berthType": "Lower"}),
		event(rail.EventTypeStationArrived, "", nil),
	})

	payloads := connection.GetDeliveries(QueueName)
	require.Len(t, payloads, 2)

	var decoded TrainEvent
	require.NoError(t, json.Unmarshal([]byte(payloads[0]), &decoded))
	assert.Equal(t, "12627", decoded.TrainNo)
	assert.Equal(t, rail.EventTypeUpgradeOffered, decoded.Type)

	dispatcher := &recordingDispatcher{}
	offered := rmq.NewTestDeliveryString(payloads[0])
	arrived := rmq.NewTestDeliveryString(payloads[1])
	garbage := rmq.NewTestDeliveryString("{")

	NewEventsBatchConsumer(dispatcher).Consume(rmq.Deliveries{offered, arrived, garbage})

	assert.Equal(t, rmq.Acked, offered.State)
	assert.Equal(t, rmq.Acked, arrived.State)
	assert.Equal(t, rmq.Rejected, garbage.State)
	require.Len(t, dispatcher.sent, 1)
	assert.Contains(t, dispatcher.sent[0].Message, "S1-1 (Lower)")
}

func TestIndexName(t *testing.T) {
	assert.Equal(t, "trainrac-events-2026-03", indexName(time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)))
}
