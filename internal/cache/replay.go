// Package cache holds Redis-backed helpers. Today that is the idempotency
// replay store used by the form endpoints when REDIS_URL is set.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrMiss is returned by Lookup when no live entry exists.
var ErrMiss = errors.New("cache: miss")

// ErrExists is returned by Save when the key was already recorded.
var ErrExists = errors.New("cache: key exists")

const keyPrefix = "idem:"

type replayEntry struct {
	Status int    `json:"s"`
	Body   []byte `json:"b"`
}

// ReplayStore keeps idempotent responses in Redis with a per-entry TTL.
// Expiry is left to Redis.
type ReplayStore struct {
	rdb redis.Cmdable
	now func() time.Time
}

// NewReplayStore wraps an existing client.
func NewReplayStore(rdb redis.Cmdable) *ReplayStore {
	return &ReplayStore{rdb: rdb, now: time.Now}
}

// Dial parses a redis:// URL (falling back to a bare host:port), pings the
// server, and returns the client.
func Dial(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		opts = &redis.Options{Addr: url}
	}
	client := redis.NewClient(opts)
	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, err
	}
	return client, nil
}

func replayKey(scope, key string) string {
	return keyPrefix + scope + "#" + key
}

// Lookup returns the stored status and body, or ErrMiss.
func (s *ReplayStore) Lookup(ctx context.Context, scope, key string, _ time.Time) (int, []byte, error) {
	raw, err := s.rdb.Get(ctx, replayKey(scope, key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return 0, nil, ErrMiss
	}
	if err != nil {
		return 0, nil, err
	}
	var e replayEntry
	if err := json.Unmarshal(raw, &e); err != nil {
		return 0, nil, err
	}
	return e.Status, e.Body, nil
}

// Save records the response only if no entry exists yet.
func (s *ReplayStore) Save(ctx context.Context, scope, key string, status int, body []byte, ttl time.Duration) error {
	raw, err := json.Marshal(replayEntry{Status: status, Body: body})
	if err != nil {
		return err
	}
	ok, err := s.rdb.SetNX(ctx, replayKey(scope, key), raw, ttl).Result()
	if err != nil {
		return err
	}
	if !ok {
		return ErrExists
	}
	return nil
}
