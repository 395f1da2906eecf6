package upgrade

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/travigo/trainrac/pkg/rail"
	"github.com/travigo/trainrac/pkg/train"
	"github.com/travigo/trainrac/pkg/train/traintest"
)

type fixture struct {
	train    *train.Train
	workflow *Workflow
	clock    *traintest.Clock
	recorder *traintest.Recorder
}

// newFixture leaves the train at AGC with S1-1 free for the rest of the journey
func newFixture(t *testing.T) fixture {
	t.Helper()

	clock := traintest.NewClock()
	recorder := &traintest.Recorder{}
	tr, err := traintest.New(train.Config{BoardingAutoConfirm: true, OfferTTL: time.Hour, Clock: clock.Now, EventSink: recorder},
		traintest.Confirmed("C1", "S1", 1, 0, 1),
		traintest.Online(traintest.RAC("R1", 1, "S1", 7, 0, 4)),
		traintest.RAC("R2", 2, "S1", 7, 0, 4),
	)
	require.NoError(t, err)
	require.NoError(t, tr.StartJourney())
	_, err = tr.AdvanceToNextStation()
	require.NoError(t, err)

	return fixture{train: tr, workflow: NewWorkflow(tr), clock: clock, recorder: recorder}
}

func (f fixture) passenger(pnr string) rail.Passenger {
	var passenger rail.Passenger
	f.train.Read(func(s *train.State) {
		passenger = *s.Passenger(pnr)
	})
	return passenger
}

func TestOffer(t *testing.T) {
	f := newFixture(t)

	notification, err := f.workflow.Offer("R1", "S1", 1)
	require.NoError(t, err)
	assert.Equal(t, rail.UpgradeStatusPending, notification.Status)
	assert.Equal(t, "S1-7", notification.CurrentBerth)
	assert.Equal(t, rail.BerthTypeLower, notification.ProposedBerthType)
	assert.Equal(t, "AGC", notification.StationCode)
	assert.Equal(t, f.clock.Now().Add(time.Hour), notification.ExpiresAt)
	assert.Equal(t, 1, notification.VacancyFromIdx)
	assert.Equal(t, 4, notification.VacancyToIdx)
	assert.NotEmpty(t, notification.ID)

	assert.Contains(t, f.recorder.Types(), rail.EventTypeUpgradeOffered)
	assert.Len(t, f.workflow.Pending(), 1)
}

func TestOfferRejectsInvalidRequests(t *testing.T) {
	f := newFixture(t)

	_, err := f.workflow.Offer("R1", "S1", 1)
	require.NoError(t, err)

	tests := []struct {
		name    string
		pnr     string
		coachNo string
		berthNo int
		kind    rail.ErrorKind
	}{
		{"duplicate pending offer", "R1", "S1", 4, rail.ErrorKindStateConflict},
		{"berth reserved by another offer", "R2", "S1", 1, rail.ErrorKindStateConflict},
		{"unknown passenger", "NOPE", "S1", 4, rail.ErrorKindNotFound},
		{"class mismatch", "R2", "B1", 1, rail.ErrorKindValidation},
		{"occupied berth", "R2", "S1", 7, rail.ErrorKindStateConflict},
		{"unknown berth", "R2", "S1", 80, rail.ErrorKindNotFound},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			_, err := f.workflow.Offer(test.pnr, test.coachNo, test.berthNo)
			assert.True(t, rail.IsKind(err, test.kind), "got %v", err)
		})
	}

	assert.Len(t, f.workflow.Pending(), 1)
}

func TestPassengerAcceptThenTTEConfirm(t *testing.T) {
	f := newFixture(t)

	_, err := f.workflow.Offer("R1", "S1", 1)
	require.NoError(t, err)

	notification, err := f.workflow.Respond("R1", true, "")
	require.NoError(t, err)
	assert.True(t, notification.PassengerApproved)
	assert.Equal(t, rail.UpgradeStatusPending, notification.Status)
	assert.Equal(t, rail.PNRStatusRAC, f.passenger("R1").PNRStatus, "accept alone never moves the passenger")

	notification, err = f.workflow.Confirm("R1")
	require.NoError(t, err)
	assert.Equal(t, rail.UpgradeStatusApproved, notification.Status)
	assert.NotNil(t, notification.RespondedAt)

	passenger := f.passenger("R1")
	assert.Equal(t, rail.PNRStatusConfirmed, passenger.PNRStatus)
	assert.Equal(t, "S1-1", passenger.BerthLabel())

	f.train.Read(func(s *train.State) {
		require.Len(t, s.RACQueue, 1)
		assert.Equal(t, "R2", s.RACQueue[0].PNR)
	})

	assert.Contains(t, f.recorder.Types(), rail.EventTypeUpgradeConfirmed)
	assert.Contains(t, f.recorder.Types(), rail.EventTypeRACUpgraded)
}

func TestTTEConfirmThenPassengerAccept(t *testing.T) {
	f := newFixture(t)

	_, err := f.workflow.Offer("R1", "S1", 1)
	require.NoError(t, err)

	notification, err := f.workflow.Confirm("R1")
	require.NoError(t, err)
	assert.True(t, notification.TTEApproved)
	assert.Equal(t, rail.UpgradeStatusPending, notification.Status)
	assert.Equal(t, rail.PNRStatusRAC, f.passenger("R1").PNRStatus, "confirm alone never moves the passenger")

	_, err = f.workflow.Confirm("R1")
	assert.True(t, rail.IsKind(err, rail.ErrorKindStateConflict))

	notification, err = f.workflow.Respond("R1", true, "")
	require.NoError(t, err)
	assert.Equal(t, rail.UpgradeStatusApproved, notification.Status)
	assert.Equal(t, rail.PNRStatusConfirmed, f.passenger("R1").PNRStatus)
}

func TestRejectedIsTerminal(t *testing.T) {
	f := newFixture(t)

	_, err := f.workflow.Offer("R1", "S1", 1)
	require.NoError(t, err)

	notification, err := f.workflow.Respond("R1", false, "prefer to stay with family")
	require.NoError(t, err)
	assert.Equal(t, rail.UpgradeStatusRejected, notification.Status)
	assert.Equal(t, "prefer to stay with family", notification.DenialReason)

	_, err = f.workflow.Confirm("R1")
	assert.True(t, rail.IsKind(err, rail.ErrorKindStateConflict))

	_, err = f.workflow.Respond("R1", true, "")
	assert.True(t, rail.IsKind(err, rail.ErrorKindStateConflict))

	assert.Equal(t, rail.PNRStatusRAC, f.passenger("R1").PNRStatus)

	history := f.workflow.History("R1")
	require.Len(t, history, 1)
	assert.Equal(t, rail.UpgradeStatusRejected, history[0].Status)

	f.train.Read(func(s *train.State) {
		assert.True(t, Declined(s, "R1", "S1", 1))
		assert.False(t, Declined(s, "R1", "S1", 3))
		assert.False(t, Declined(s, "R2", "S1", 1))
	})
}

func TestExpiry(t *testing.T) {
	f := newFixture(t)

	_, err := f.workflow.Offer("R1", "S1", 1)
	require.NoError(t, err)

	f.clock.Advance(61 * time.Minute)
	assert.Empty(t, f.workflow.Pending())

	_, err = f.workflow.Respond("R1", true, "")
	assert.True(t, rail.IsKind(err, rail.ErrorKindStateConflict))

	history := f.workflow.History("R1")
	require.Len(t, history, 1)
	assert.Equal(t, rail.UpgradeStatusExpired, history[0].Status)
	assert.Equal(t, rail.PNRStatusRAC, f.passenger("R1").PNRStatus)
	assert.Contains(t, f.recorder.Types(), rail.EventTypeUpgradeExpired)

	f.train.Read(func(s *train.State) {
		_, reserved := Reserved(s, "S1", 1, 1, 4)
		assert.False(t, reserved)
	})

	notification, err := f.workflow.Offer("R2", "S1", 1)
	require.NoError(t, err)
	assert.Equal(t, rail.UpgradeStatusPending, notification.Status)
}

func TestExpireOverdueSweep(t *testing.T) {
	f := newFixture(t)

	_, err := f.workflow.Offer("R1", "S1", 1)
	require.NoError(t, err)

	expired, err := f.workflow.ExpireOverdue()
	require.NoError(t, err)
	assert.Empty(t, expired)

	f.clock.Advance(time.Hour)
	expired, err = f.workflow.ExpireOverdue()
	require.NoError(t, err)
	require.Len(t, expired, 1)
	assert.Equal(t, "R1", expired[0].PNR)
}

func TestFailedCommitLeavesStateUntouched(t *testing.T) {
	f := newFixture(t)

	_, err := f.workflow.Offer("R1", "S1", 1)
	require.NoError(t, err)
	_, err = f.workflow.Respond("R1", true, "")
	require.NoError(t, err)

	require.NoError(t, f.train.AddPassenger(traintest.Confirmed("C9", "S1", 1, 1, 4)))

	_, err = f.workflow.Confirm("R1")
	assert.True(t, rail.IsKind(err, rail.ErrorKindStateConflict))

	history := f.workflow.History("R1")
	require.Len(t, history, 1)
	assert.Equal(t, rail.UpgradeStatusPending, history[0].Status)
	assert.False(t, history[0].TTEApproved)

	passenger := f.passenger("R1")
	assert.Equal(t, rail.PNRStatusRAC, passenger.PNRStatus)
	assert.Equal(t, "S1-7", passenger.BerthLabel())
}

func TestTransitionsRequireStartedJourney(t *testing.T) {
	tr, err := traintest.New(train.Config{}, traintest.RAC("R1", 1, "S1", 7, 0, 4))
	require.NoError(t, err)

	_, err = NewWorkflow(tr).Offer("R1", "S1", 1)
	assert.True(t, rail.IsKind(err, rail.ErrorKindJourneyState))
}
