package arrivals

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/travigo/trainrac/pkg/rail"
	"github.com/travigo/trainrac/pkg/service"
	"github.com/travigo/trainrac/pkg/train"
	"github.com/travigo/trainrac/pkg/train/traintest"
)

func newHandler(t *testing.T, start bool) (*Handler, *service.Service) {
	t.Helper()

	s := service.New(train.New(train.Config{TrainNo: "12627", BoardingAutoConfirm: true}), service.Options{})
	response, err := s.InitializeTrain(context.Background(), traintest.Snapshot(traintest.Confirmed("C1", "S1", 1, 0, 4)))
	require.NoError(t, err)
	require.True(t, response.Success)

	if start {
		response, err = s.StartJourney(context.Background())
		require.NoError(t, err)
		require.True(t, response.Success)
	}

	return &Handler{TrainNo: "12627", Journey: s}, s
}

func currentIdx(s *service.Service) int {
	_, idx, _ := s.Position()
	return idx
}

func TestHandleAdvancesToNextStation(t *testing.T) {
	handler, s := newHandler(t, true)

	advanced, err := handler.HandleBytes(context.Background(), []byte(`{"train_no":"12627","station_code":"AGC"}`))

	require.NoError(t, err)
	assert.Equal(t, 1, advanced)
	assert.Equal(t, 1, currentIdx(s))
}

func TestHandleCatchesUpSkippedStations(t *testing.T) {
	handler, s := newHandler(t, true)

	advanced, err := handler.Handle(context.Background(), ArrivalMessage{TrainNo: "12627", StationCode: "JHS"})

	require.NoError(t, err)
	assert.Equal(t, 3, advanced)
	assert.Equal(t, 3, currentIdx(s))
}

func TestHandleIgnores(t *testing.T) {
	handler, s := newHandler(t, true)
	ctx := context.Background()

	advanced, err := handler.Handle(ctx, ArrivalMessage{TrainNo: "99999", StationCode: "AGC"})
	require.NoError(t, err)
	assert.Zero(t, advanced, "other trains")

	_, err = handler.Handle(ctx, ArrivalMessage{TrainNo: "12627", StationCode: "GWL"})
	require.NoError(t, err)

	advanced, err = handler.Handle(ctx, ArrivalMessage{TrainNo: "12627", StationCode: "AGC"})
	require.NoError(t, err)
	assert.Zero(t, advanced, "stale arrival")
	assert.Equal(t, 2, currentIdx(s))

	advanced, err = handler.Handle(ctx, ArrivalMessage{TrainNo: "12627", StationCode: "GWL"})
	require.NoError(t, err)
	assert.Zero(t, advanced, "duplicate arrival")
}

func TestHandleBeforeStart(t *testing.T) {
	handler, s := newHandler(t, false)

	advanced, err := handler.Handle(context.Background(), ArrivalMessage{TrainNo: "12627", StationCode: "AGC"})

	require.NoError(t, err)
	assert.Zero(t, advanced)
	assert.Equal(t, 0, currentIdx(s))
}

func TestHandleRejectsBadMessages(t *testing.T) {
	handler, _ := newHandler(t, true)
	ctx := context.Background()

	_, err := handler.HandleBytes(ctx, []byte(`{`))
	assert.True(t, rail.IsKind(err, rail.ErrorKindValidation))

	_, err = handler.HandleBytes(ctx, []byte(`{"train_no":"12627"}`))
	assert.True(t, rail.IsKind(err, rail.ErrorKindValidation))

	_, err = handler.Handle(ctx, ArrivalMessage{TrainNo: "12627", StationCode: "XYZ"})
	assert.True(t, rail.IsKind(err, rail.ErrorKindNotFound))
}

func TestHandleStopsAtJourneyEnd(t *testing.T) {
	handler, s := newHandler(t, true)

	advanced, err := handler.Handle(context.Background(), ArrivalMessage{TrainNo: "12627", StationCode: "BPL"})
	require.NoError(t, err)
	assert.Equal(t, 4, advanced)

	_, _, phase := s.Position()
	assert.Equal(t, rail.JourneyPhaseComplete, phase)
}
