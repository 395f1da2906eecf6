// Package snapshotcache keeps the latest journey snapshot in redis in front of a slower journey store.
package snapshotcache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/eko/gocache/lib/v4/cache"
	"github.com/eko/gocache/lib/v4/store"
	redisstore "github.com/eko/gocache/store/redis/v4"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"github.com/travigo/trainrac/pkg/rail"
)

const DefaultExpiration = 6 * time.Hour

type JourneyStore interface {
	Load(ctx context.Context, trainNo string) (*rail.Snapshot, error)
	Save(ctx context.Context, snapshot *rail.Snapshot) error
}

type Store struct {
	Next  JourneyStore
	Cache *cache.Cache[string]
}

func New(client *redis.Client, next JourneyStore, expiration time.Duration) *Store {
	if expiration <= 0 {
		expiration = DefaultExpiration
	}

	redisStore := redisstore.NewRedis(client, store.WithExpiration(expiration))

	return &Store{
		Next:  next,
		Cache: cache.New[string](redisStore),
	}
}

func cacheKey(trainNo string) string {
	return fmt.Sprintf("trainrac:journey:%s", trainNo)
}

// Load serves from the cache and falls through to the backing store on a miss
func (s *Store) Load(ctx context.Context, trainNo string) (*rail.Snapshot, error) {
	cached, err := s.Cache.Get(ctx, cacheKey(trainNo))
	if err == nil && cached != "" {
		var snapshot rail.Snapshot
		if err := json.Unmarshal([]byte(cached), &snapshot); err == nil {
			return &snapshot, nil
		}
		log.Error().Err(err).Str("train", trainNo).Msg("Discarding unreadable cached journey")
	}

	if s.Next == nil {
		return nil, nil
	}

	snapshot, err := s.Next.Load(ctx, trainNo)
	if err != nil || snapshot == nil {
		return snapshot, err
	}

	s.set(ctx, snapshot)

	return snapshot, nil
}

// Save writes through to the backing store before refreshing the cache
func (s *Store) Save(ctx context.Context, snapshot *rail.Snapshot) error {
	if s.Next != nil {
		if err := s.Next.Save(ctx, snapshot); err != nil {
			if deleteErr := s.Cache.Delete(ctx, cacheKey(snapshot.TrainNo)); deleteErr != nil {
				log.Error().Err(deleteErr).Str("train", snapshot.TrainNo).Msg("Failed to evict cached journey")
			}
			return err
		}
	}

	s.set(ctx, snapshot)

	return nil
}

func (s *Store) set(ctx context.Context, snapshot *rail.Snapshot) {
	snapshotJSON, err := json.Marshal(snapshot)
	if err != nil {
		log.Error().Err(err).Str("train", snapshot.TrainNo).Msg("Failed to encode journey for cache")
		return
	}

	if err := s.Cache.Set(ctx, cacheKey(snapshot.TrainNo), string(snapshotJSON)); err != nil {
		log.Error().Err(err).Str("train", snapshot.TrainNo).Msg("Failed to cache journey")
	}
}
