package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/odinsy/topheats-rating/internal/domain/model"
	"github.com/odinsy/topheats-rating/pkg/metrics"
)

const (
	keyRanking = "ranking:"
	keyIndex   = "index"
)

// RedisConfig holds Redis connection settings.
type RedisConfig struct {
	Addr        string
	Password    string
	DB          int
	Prefix      string
	DialTimeout time.Duration
}

// RedisStore keeps rankings in Redis so several API replicas serve the same
// data. Each ranking is a JSON value; a hash maps IDs to index entries.
type RedisStore struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// NewRedisStore connects to Redis and checks the connection.
func NewRedisStore(ctx context.Context, cfg RedisConfig, opts ...RedisOption) (*RedisStore, error) {
	if cfg.DialTimeout <= 0 {
		cfg.DialTimeout = 5 * time.Second
	}
	client := redis.NewClient(&redis.Options{
		Addr:        cfg.Addr,
		Password:    cfg.Password,
		DB:          cfg.DB,
		DialTimeout: cfg.DialTimeout,
	})

	pingCtx, cancel := context.WithTimeout(ctx, cfg.DialTimeout)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping %s: %w", cfg.Addr, err)
	}
	return NewRedisStoreWithClient(client, cfg.Prefix, opts...), nil
}

// NewRedisStoreWithClient wraps an existing client.
func NewRedisStoreWithClient(client *redis.Client, prefix string, opts ...RedisOption) *RedisStore {
	s := &RedisStore{client: client, prefix: prefix}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Close closes the Redis connection.
func (s *RedisStore) Close() error {
	return s.client.Close()
}

func (s *RedisStore) rankingKey(id string) string { return s.prefix + keyRanking + id }
func (s *RedisStore) indexKey() string           { return s.prefix + keyIndex }

func (s *RedisStore) Put(ctx context.Context, r model.Ranking) error {
	if r.Entry.ID == "" {
		return ErrEmptyID
	}
	data, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrCodec, err)
	}
	entry, err := json.Marshal(r.Entry)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrCodec, err)
	}

	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, s.rankingKey(r.Entry.ID), data, s.ttl)
		pipe.HSet(ctx, s.indexKey(), r.Entry.ID, entry)
		return nil
	})
	if err != nil {
		return fmt.Errorf("redis put %s: %w", r.Entry.ID, err)
	}
	metrics.UpdateRankingsTotal(s.Count(ctx))
	return nil
}

func (s *RedisStore) Get(ctx context.Context, id string) (model.Ranking, error) {
	data, err := s.client.Get(ctx, s.rankingKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return model.Ranking{}, ErrNotFound
	}
	if err != nil {
		return model.Ranking{}, fmt.Errorf("redis get %s: %w", id, err)
	}
	var r model.Ranking
	if err := json.Unmarshal(data, &r); err != nil {
		return model.Ranking{}, fmt.Errorf("%w: %w", ErrCodec, err)
	}
	return r, nil
}

func (s *RedisStore) List(ctx context.Context) ([]model.IndexEntry, error) {
	vals, err := s.client.HVals(ctx, s.indexKey()).Result()
	if err != nil {
		return nil, fmt.Errorf("redis list: %w", err)
	}
	out := make([]model.IndexEntry, 0, len(vals))
	for _, v := range vals {
		var e model.IndexEntry
		if err := json.Unmarshal([]byte(v), &e); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrCodec, err)
		}
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *RedisStore) Prune(ctx context.Context, keep []string) (int, error) {
	ids, err := s.client.HKeys(ctx, s.indexKey()).Result()
	if err != nil {
		return 0, fmt.Errorf("redis prune: %w", err)
	}
	wanted := make(map[string]struct{}, len(keep))
	for _, id := range keep {
		wanted[id] = struct{}{}
	}
	var stale []string
	for _, id := range ids {
		if _, ok := wanted[id]; !ok {
			stale = append(stale, id)
		}
	}
	if len(stale) == 0 {
		return 0, nil
	}

	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		for _, id := range stale {
			pipe.Del(ctx, s.rankingKey(id))
		}
		pipe.HDel(ctx, s.indexKey(), stale...)
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("redis prune: %w", err)
	}
	return len(stale), nil
}

func (s *RedisStore) Count(ctx context.Context) int {
	n, err := s.client.HLen(ctx, s.indexKey()).Result()
	if err != nil {
		return 0
	}
	return int(n)
}
