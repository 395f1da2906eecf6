package snapshotcache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/travigo/trainrac/pkg/rail"
)

type countingStore struct {
	snapshots map[string]*rail.Snapshot
	loads     int
	saveErr   error
}

func (s *countingStore) Load(_ context.Context, trainNo string) (*rail.Snapshot, error) {
	s.loads++
	return s.snapshots[trainNo], nil
}

func (s *countingStore) Save(_ context.Context, snapshot *rail.Snapshot) error {
	if s.saveErr != nil {
		return s.saveErr
	}
	s.snapshots[snapshot.TrainNo] = snapshot
	return nil
}

func newStore(t *testing.T, next JourneyStore) (*Store, *miniredis.Miniredis) {
	server := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: server.Addr()})
	t.Cleanup(func() { client.Close() })

	return New(client, next, time.Minute), server
}

func snapshot() *rail.Snapshot {
	return &rail.Snapshot{
		TrainNo:           "12627",
		Phase:             rail.JourneyPhaseStarted,
		CurrentStationIdx: 1,
		RACQueue:          []string{"R1", "R2"},
		Passengers: []*rail.Passenger{
			{PNR: "R1", PNRStatus: rail.PNRStatusRAC, RACNumber: 1, ToIdx: 3},
		},
	}
}

func TestLoadReadsThrough(t *testing.T) {
	backing := &countingStore{snapshots: map[string]*rail.Snapshot{"12627": snapshot()}}
	store, server := newStore(t, backing)
	ctx := context.Background()

	first, err := store.Load(ctx, "12627")
	require.NoError(t, err)
	require.NotNil(t, first)
	assert.True(t, server.Exists(cacheKey("12627")))

	second, err := store.Load(ctx, "12627")
	require.NoError(t, err)
	assert.Equal(t, []string{"R1", "R2"}, second.RACQueue)
	assert.Equal(t, 1, backing.loads)
}

func TestLoadMissing(t *testing.T) {
	store, _ := newStore(t, &countingStore{snapshots: map[string]*rail.Snapshot{}})

	loaded, err := store.Load(context.Background(), "99999")

	require.NoError(t, err)
	assert.Nil(t, loaded)
}

func TestSaveWritesThrough(t *testing.T) {
	backing := &countingStore{snapshots: map[string]*rail.Snapshot{}}
	store, _ := newStore(t, backing)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, snapshot()))
	assert.Contains(t, backing.snapshots, "12627")

	loaded, err := store.Load(ctx, "12627")
	require.NoError(t, err)
	assert.Equal(t, 0, backing.loads)
	assert.Equal(t, 1, loaded.CurrentStationIdx)
	require.Len(t, loaded.Passengers, 1)
	assert.Equal(t, "R1", loaded.Passengers[0].PNR)
}

func TestSaveFailureEvictsCache(t *testing.T) {
	backing := &countingStore{snapshots: map[string]*rail.Snapshot{}}
	store, server := newStore(t, backing)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, snapshot()))

	backing.saveErr = errors.New("mongo unavailable")
	assert.Error(t, store.Save(ctx, snapshot()))
	assert.False(t, server.Exists(cacheKey("12627")))
}

func TestCacheOnly(t *testing.T) {
	store, _ := newStore(t, nil)
	ctx := context.Background()

	loaded, err := store.Load(ctx, "12627")
	require.NoError(t, err)
	assert.Nil(t, loaded)

	require.NoError(t, store.Save(ctx, snapshot()))
	loaded, err = store.Load(ctx, "12627")
	require.NoError(t, err)
	assert.Equal(t, "12627", loaded.TrainNo)
}
