// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package cache stores finished outlines under a content-addressed key so
// identical requests skip the pipeline. Outlines are stored as JSON; a hit
// decodes exactly the bytes that were written. Entries never expire; use
// Invalidate with KeywordPrefix to drop them.
package cache

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/pdiddy/outline-engine/pkg/types"
)

// Store is a byte-level key-value backend. Implementations are safe for
// concurrent use.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte) error

	// DeletePrefix removes every key starting with prefix and returns how
	// many were removed.
	DeletePrefix(ctx context.Context, prefix string) (int, error)

	// Count returns the number of keys starting with prefix.
	Count(ctx context.Context, prefix string) (int, error)

	Close() error
}

// Stats describes the cache contents.
type Stats struct {
	Backend types.CacheBackend `json:"backend" yaml:"backend"`
	Entries int                `json:"entries" yaml:"entries"`
}

// OutlineCache stores OutlineResults in a Store.
type OutlineCache struct {
	store   Store
	backend types.CacheBackend
}

// New wraps store. backend names the store in Stats.
func New(store Store, backend types.CacheBackend) *OutlineCache {
	return &OutlineCache{store: store, backend: backend}
}

// Open builds the cache selected by cfg.Backend.
func Open(ctx context.Context, cfg types.CacheConfig) (*OutlineCache, error) {
	switch cfg.Backend {
	case types.CacheMemory, "":
		return New(NewMemory(), types.CacheMemory), nil
	case types.CacheSQLite:
		s, err := NewSQLite(cfg.Dir)
		if err != nil {
			return nil, err
		}
		return New(s, types.CacheSQLite), nil
	case types.CacheRedis:
		s, err := NewRedis(ctx, cfg)
		if err != nil {
			return nil, err
		}
		return New(s, types.CacheRedis), nil
	default:
		return nil, fmt.Errorf("unsupported cache backend %q: use memory, sqlite, or redis", cfg.Backend)
	}
}

// Get returns the outline stored under key.
func (c *OutlineCache) Get(ctx context.Context, key string) (*types.OutlineResult, bool, error) {
	data, ok, err := c.store.Get(ctx, key)
	if err != nil || !ok {
		return nil, false, err
	}
	result, err := Decode(data)
	if err != nil {
		return nil, false, fmt.Errorf("decoding cached outline %s: %w", key, err)
	}
	return result, true, nil
}

// Set stores result under key.
func (c *OutlineCache) Set(ctx context.Context, key string, result *types.OutlineResult) error {
	data, err := Encode(result)
	if err != nil {
		return err
	}
	if err := c.store.Set(ctx, key, data); err != nil {
		return fmt.Errorf("storing outline %s: %w", key, err)
	}
	return nil
}

// Invalidate removes every outline whose key starts with prefix.
func (c *OutlineCache) Invalidate(ctx context.Context, prefix string) (int, error) {
	n, err := c.store.DeletePrefix(ctx, prefix)
	if err != nil {
		return 0, fmt.Errorf("invalidating %q: %w", prefix, err)
	}
	return n, nil
}

// Stats counts the cached outlines.
func (c *OutlineCache) Stats(ctx context.Context) (Stats, error) {
	n, err := c.store.Count(ctx, Namespace)
	if err != nil {
		return Stats{}, fmt.Errorf("counting cache entries: %w", err)
	}
	return Stats{Backend: c.backend, Entries: n}, nil
}

// Close releases the backend.
func (c *OutlineCache) Close() error {
	return c.store.Close()
}

// Encode serializes an outline in the cache format.
func Encode(result *types.OutlineResult) ([]byte, error) {
	data, err := json.Marshal(result)
	if err != nil {
		return nil, fmt.Errorf("encoding outline: %w", err)
	}
	return data, nil
}

// Decode parses an outline in the cache format.
func Decode(data []byte) (*types.OutlineResult, error) {
	var result types.OutlineResult
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// Canonical returns result as a later cache hit would return it.
func Canonical(result *types.OutlineResult) (*types.OutlineResult, error) {
	data, err := Encode(result)
	if err != nil {
		return nil, err
	}
	return Decode(data)
}
