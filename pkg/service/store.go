package service

import (
	"context"
	"sync"

	"github.com/jinzhu/copier"
	"github.com/travigo/trainrac/pkg/rail"
)

type JourneyStore interface {
	Load(ctx context.Context, trainNo string) (*rail.Snapshot, error)
	Save(ctx context.Context, snapshot *rail.Snapshot) error
}

// MemoryStore keeps deep copies of saved journeys in process
type MemoryStore struct {
	mutex     sync.Mutex
	snapshots map[string]*rail.Snapshot
	saves     int
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{snapshots: map[string]*rail.Snapshot{}}
}

func (m *MemoryStore) Load(_ context.Context, trainNo string) (*rail.Snapshot, error) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	stored, ok := m.snapshots[trainNo]
	if !ok {
		return nil, nil
	}

	snapshot := &rail.Snapshot{}
	if err := copier.CopyWithOption(snapshot, stored, copier.Option{DeepCopy: true}); err != nil {
		return nil, err
	}
	return snapshot, nil
}

func (m *MemoryStore) Save(_ context.Context, snapshot *rail.Snapshot) error {
	stored := &rail.Snapshot{}
	if err := copier.CopyWithOption(stored, snapshot, copier.Option{DeepCopy: true}); err != nil {
		return err
	}

	m.mutex.Lock()
	defer m.mutex.Unlock()

	m.snapshots[snapshot.TrainNo] = stored
	m.saves++
	return nil
}

func (m *MemoryStore) Saves() int {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	return m.saves
}
