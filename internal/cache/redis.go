// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package cache

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/redis/go-redis/v9"

	"github.com/pdiddy/outline-engine/pkg/types"
)

const scanBatch = 200

// Redis is a Store shared across processes.
type Redis struct {
	client *redis.Client
}

// NewRedis connects to the server named by cfg.RedisAddr, either host:port
// or a redis:// URL, and verifies the connection.
func NewRedis(ctx context.Context, cfg types.CacheConfig) (*Redis, error) {
	var opts *redis.Options
	if strings.HasPrefix(cfg.RedisAddr, "redis://") || strings.HasPrefix(cfg.RedisAddr, "rediss://") {
		parsed, err := redis.ParseURL(cfg.RedisAddr)
		if err != nil {
			return nil, fmt.Errorf("parsing redis URL: %w", err)
		}
		opts = parsed
	} else {
		addr := cfg.RedisAddr
		if addr == "" {
			addr = "localhost:6379"
		}
		opts = &redis.Options{Addr: addr, DB: cfg.RedisDB}
	}
	if cfg.RedisPassword != "" {
		opts.Password = cfg.RedisPassword
	}

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("connecting to redis at %s: %w", opts.Addr, err)
	}
	return &Redis{client: client}, nil
}

func (r *Redis) Get(ctx context.Context, key string) ([]byte, bool, error) {
	data, err := r.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis GET: %w", err)
	}
	return data, true, nil
}

func (r *Redis) Set(ctx context.Context, key string, value []byte) error {
	if err := r.client.Set(ctx, key, value, 0).Err(); err != nil {
		return fmt.Errorf("redis SET: %w", err)
	}
	return nil
}

func (r *Redis) DeletePrefix(ctx context.Context, prefix string) (int, error) {
	keys, err := r.scan(ctx, prefix)
	if err != nil {
		return 0, err
	}
	deleted := 0
	for start := 0; start < len(keys); start += scanBatch {
		end := min(start+scanBatch, len(keys))
		n, err := r.client.Del(ctx, keys[start:end]...).Result()
		if err != nil {
			return deleted, fmt.Errorf("redis DEL: %w", err)
		}
		deleted += int(n)
	}
	return deleted, nil
}

func (r *Redis) Count(ctx context.Context, prefix string) (int, error) {
	keys, err := r.scan(ctx, prefix)
	return len(keys), err
}

func (r *Redis) Close() error {
	return r.client.Close()
}

func (r *Redis) scan(ctx context.Context, prefix string) ([]string, error) {
	var keys []string
	seen := map[string]bool{}
	iter := r.client.Scan(ctx, 0, globEscape(prefix)+"*", scanBatch).Iterator()
	for iter.Next(ctx) {
		// SCAN may return a key more than once.
		if k := iter.Val(); !seen[k] {
			seen[k] = true
			keys = append(keys, k)
		}
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("redis SCAN: %w", err)
	}
	return keys, nil
}

// globEscape escapes Redis glob metacharacters.
func globEscape(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `*`, `\*`, `?`, `\?`, `[`, `\[`, `]`, `\]`)
	return r.Replace(s)
}
