package search

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
)

const (
	recentKeyPrefix = "driverhub:recent_searches:"
	recentCap       = 10
)

// RedisRecentStore keeps the recent-search list in a per-driver Redis list,
// most recent first, de-duplicated, capped at ten entries.
type RedisRecentStore struct {
	rdb      *redis.Client
	driverID string
}

// NewRedisRecentStore builds a store scoped to one driver.
func NewRedisRecentStore(rdb *redis.Client, driverID string) *RedisRecentStore {
	return &RedisRecentStore{rdb: rdb, driverID: driverID}
}

func (store *RedisRecentStore) key() string {
	return recentKeyPrefix + store.driverID
}

// Save pushes a selection to the head of the list. An existing identical
// entry is removed first so the list stays de-duplicated.
func (store *RedisRecentStore) Save(ctx context.Context, place Place) error {
	raw, err := json.Marshal(place)
	if err != nil {
		return fmt.Errorf("encode recent search: %w", err)
	}

	pipe := store.rdb.TxPipeline()
	pipe.LRem(ctx, store.key(), 0, raw)
	pipe.LPush(ctx, store.key(), raw)
	pipe.LTrim(ctx, store.key(), 0, recentCap-1)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("store recent search: %w", err)
	}
	return nil
}

// Load returns the stored selections, most recent first. Entries that no
// longer decode are skipped.
func (store *RedisRecentStore) Load(ctx context.Context) ([]Place, error) {
	raws, err := store.rdb.LRange(ctx, store.key(), 0, recentCap-1).Result()
	if err != nil {
		return nil, fmt.Errorf("load recent searches: %w", err)
	}

	places := make([]Place, 0, len(raws))
	for _, raw := range raws {
		var place Place
		if err := json.Unmarshal([]byte(raw), &place); err != nil {
			continue
		}
		places = append(places, place)
	}
	return places, nil
}
