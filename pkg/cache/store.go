package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/ErikPlachta/sheetpipe/pkg/observability"
	r "github.com/ErikPlachta/sheetpipe/pkg/redis"
	"github.com/ErikPlachta/sheetpipe/pkg/rows"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// Entry is the persisted cache record. Multiple entries may exist per cache
// key; Get returns the newest non-expired one.
type Entry struct {
	ID          string     `json:"id"`
	OperationID string     `json:"operation_id"`
	Rows        []rows.Row `json:"rows"`
	CreatedAt   time.Time  `json:"created_at"`
	ExpiresAt   time.Time  `json:"expires_at"`
}

// Stats summarizes the store contents
type Stats struct {
	Keys    int `json:"keys"`
	Entries int `json:"entries"`
}

// Store is the redis-backed cache of operation results. Entries are indexed
// per cache key in a sorted set scored by creation time; entry bodies are
// JSON blobs. Nothing is removed on read: size management is sweep-based
// only, matching the persistence contract.
type Store struct {
	client *redis.Client
	cfg    *r.Config
	log    logrus.FieldLogger
	now    func() time.Time
}

// NewStore creates a cache store on the given redis client
func NewStore(log logrus.FieldLogger, client *redis.Client, redisCfg *r.Config) *Store {
	return &Store{
		client: client,
		cfg:    redisCfg,
		log:    log.WithField("component", "cache"),
		now:    time.Now,
	}
}

func (s *Store) registryKey() string {
	return s.cfg.PrefixKey("cache:keys")
}

func (s *Store) indexKey(cacheKey string) string {
	return s.cfg.PrefixKey("cache:index:" + cacheKey)
}

func (s *Store) entryKey(id string) string {
	return s.cfg.PrefixKey("cache:entry:" + id)
}

// Get returns the rows of the newest non-expired entry for the operation and
// parameter map, or nil on a miss. Expired entries are skipped, never
// returned, and left in place for the sweeper.
func (s *Store) Get(ctx context.Context, operationID string, params map[string]interface{}) ([]rows.Row, error) {
	key, err := Key(operationID, params)
	if err != nil {
		return nil, err
	}

	// Newest first by created-at score
	ids, err := s.client.ZRevRange(ctx, s.indexKey(key), 0, -1).Result()
	if err != nil {
		observability.CacheRequestsTotal.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("failed to read cache index: %w", err)
	}

	now := s.now()
	for _, id := range ids {
		data, getErr := s.client.Get(ctx, s.entryKey(id)).Result()
		if getErr != nil {
			if errors.Is(getErr, redis.Nil) {
				continue // index entry without a body, sweeper will reap it
			}
			observability.CacheRequestsTotal.WithLabelValues("error").Inc()
			return nil, fmt.Errorf("failed to read cache entry: %w", getErr)
		}

		var entry Entry
		if err := json.Unmarshal([]byte(data), &entry); err != nil {
			s.log.WithError(err).WithField("entry_id", id).Warn("Skipping undecodable cache entry")
			continue
		}

		if !entry.ExpiresAt.After(now) {
			continue
		}

		observability.CacheRequestsTotal.WithLabelValues("hit").Inc()

		return entry.Rows, nil
	}

	observability.CacheRequestsTotal.WithLabelValues("miss").Inc()

	return nil, nil
}

// Put stores a new entry for the operation and parameter map
func (s *Store) Put(ctx context.Context, operationID string, params map[string]interface{}, rs []rows.Row, ttl time.Duration) error {
	key, err := Key(operationID, params)
	if err != nil {
		return err
	}

	now := s.now()
	entry := Entry{
		ID:          uuid.NewString(),
		OperationID: operationID,
		Rows:        rs,
		CreatedAt:   now,
		ExpiresAt:   now.Add(ttl),
	}

	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("failed to serialize cache entry: %w", err)
	}

	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, s.entryKey(entry.ID), data, 0)
		pipe.ZAdd(ctx, s.indexKey(key), redis.Z{
			Score:  float64(entry.CreatedAt.UnixMilli()),
			Member: entry.ID,
		})
		pipe.SAdd(ctx, s.registryKey(), key)
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to store cache entry: %w", err)
	}

	s.log.WithFields(logrus.Fields{
		"operation_id": operationID,
		"entry_id":     entry.ID,
		"rows":         len(rs),
		"expires_at":   entry.ExpiresAt,
	}).Debug("Cached operation result")

	return nil
}

// SweepExpired removes every entry whose expiry has passed, and drops index
// keys that end up empty. Returns the number of entries removed.
func (s *Store) SweepExpired(ctx context.Context) (int, error) {
	keys, err := s.client.SMembers(ctx, s.registryKey()).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to list cache keys: %w", err)
	}

	now := s.now()
	swept := 0

	for _, key := range keys {
		ids, zErr := s.client.ZRange(ctx, s.indexKey(key), 0, -1).Result()
		if zErr != nil {
			return swept, fmt.Errorf("failed to read cache index: %w", zErr)
		}

		for _, id := range ids {
			data, getErr := s.client.Get(ctx, s.entryKey(id)).Result()

			expired := false
			switch {
			case errors.Is(getErr, redis.Nil):
				expired = true // orphaned index member
			case getErr != nil:
				return swept, fmt.Errorf("failed to read cache entry: %w", getErr)
			default:
				var entry Entry
				if err := json.Unmarshal([]byte(data), &entry); err != nil {
					expired = true
				} else if !entry.ExpiresAt.After(now) {
					expired = true
				}
			}

			if !expired {
				continue
			}

			if err := s.client.Del(ctx, s.entryKey(id)).Err(); err != nil {
				return swept, fmt.Errorf("failed to delete cache entry: %w", err)
			}
			if err := s.client.ZRem(ctx, s.indexKey(key), id).Err(); err != nil {
				return swept, fmt.Errorf("failed to trim cache index: %w", err)
			}
			swept++
		}

		remaining, cardErr := s.client.ZCard(ctx, s.indexKey(key)).Result()
		if cardErr != nil {
			return swept, fmt.Errorf("failed to size cache index: %w", cardErr)
		}
		if remaining == 0 {
			_ = s.client.Del(ctx, s.indexKey(key)).Err()
			_ = s.client.SRem(ctx, s.registryKey(), key).Err()
		}
	}

	if swept > 0 {
		observability.CacheEntriesSwept.Add(float64(swept))
		s.log.WithField("entries", swept).Info("Swept expired cache entries")
	}

	return swept, nil
}

// ClearAll removes every cache entry and index
func (s *Store) ClearAll(ctx context.Context) error {
	keys, err := s.client.SMembers(ctx, s.registryKey()).Result()
	if err != nil {
		return fmt.Errorf("failed to list cache keys: %w", err)
	}

	for _, key := range keys {
		ids, zErr := s.client.ZRange(ctx, s.indexKey(key), 0, -1).Result()
		if zErr != nil {
			return fmt.Errorf("failed to read cache index: %w", zErr)
		}

		for _, id := range ids {
			if err := s.client.Del(ctx, s.entryKey(id)).Err(); err != nil {
				return fmt.Errorf("failed to delete cache entry: %w", err)
			}
		}

		if err := s.client.Del(ctx, s.indexKey(key)).Err(); err != nil {
			return fmt.Errorf("failed to delete cache index: %w", err)
		}
	}

	if err := s.client.Del(ctx, s.registryKey()).Err(); err != nil {
		return fmt.Errorf("failed to delete cache key registry: %w", err)
	}

	s.log.Info("Cleared cache")

	return nil
}

// GetStats counts keys and entries currently stored
func (s *Store) GetStats(ctx context.Context) (*Stats, error) {
	keys, err := s.client.SMembers(ctx, s.registryKey()).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list cache keys: %w", err)
	}

	stats := &Stats{Keys: len(keys)}
	for _, key := range keys {
		n, cardErr := s.client.ZCard(ctx, s.indexKey(key)).Result()
		if cardErr != nil {
			return nil, fmt.Errorf("failed to size cache index: %w", cardErr)
		}
		stats.Entries += int(n)
	}

	return stats, nil
}
