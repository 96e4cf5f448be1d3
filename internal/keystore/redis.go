package keystore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// Redis is a Store backed by a Redis server. Keys are prefixed with the
// plugin id; values are stored as JSON strings.
type Redis struct {
	rdb      *redis.Client
	pluginID string
}

// NewRedis connects to Redis and verifies the connection.
func NewRedis(ctx context.Context, opts *redis.Options, pluginID string) (*Redis, error) {
	if pluginID == "" {
		return nil, fmt.Errorf("keystore: plugin id is required")
	}
	rdb := redis.NewClient(opts)
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("keystore: redis ping: %w", err)
	}
	return &Redis{rdb: rdb, pluginID: pluginID}, nil
}

func (r *Redis) key(k string) string { return r.pluginID + ":" + k }

// Get implements Store.
func (r *Redis) Get(ctx context.Context, key string) (any, bool, error) {
	raw, err := r.rdb.Get(ctx, r.key(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("keystore: redis get: %w", err)
	}
	v, err := decode(raw)
	if err != nil {
		return nil, false, err
	}
	return v, true, nil
}

// Set implements Store.
func (r *Redis) Set(ctx context.Context, key string, value any) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("keystore: encode %q: %w", key, err)
	}
	if err := r.rdb.Set(ctx, r.key(key), raw, 0).Err(); err != nil {
		return fmt.Errorf("keystore: redis set: %w", err)
	}
	return nil
}

// Close closes the underlying client.
func (r *Redis) Close() error {
	return r.rdb.Close()
}
