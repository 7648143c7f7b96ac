package cache

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

// Aside implements the cache-aside pattern. On a hit, dest is populated from
// Redis and fetch never runs. On a miss, fetch loads dest from the source of
// truth and the result is written back with the given TTL. Cache failures
// degrade to fetch-only; they never surface to the caller.
func Aside(ctx context.Context, key string, dest interface{}, ttl time.Duration, fetch func() error) error {
	if client != nil {
		raw, err := client.Get(ctx, key).Bytes()
		if err == nil {
			if unmarshalErr := json.Unmarshal(raw, dest); unmarshalErr == nil {
				return nil
			}
			// Corrupt entry, drop it and fall through to the source.
			client.Del(ctx, key)
		} else if !errors.Is(err, redis.Nil) {
			slog.WarnContext(ctx, "cache read failed", "key", key, "err", err)
		}
	}

	if err := fetch(); err != nil {
		return err
	}

	if client != nil {
		raw, err := json.Marshal(dest)
		if err != nil {
			return nil
		}
		if err := client.Set(ctx, key, raw, ttl).Err(); err != nil {
			slog.WarnContext(ctx, "cache write failed", "key", key, "err", err)
		}
	}
	return nil
}
