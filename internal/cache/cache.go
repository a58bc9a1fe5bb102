// Package cache stores short-lived string values keyed by normalised
// queries. Search results are the only tenant today.
package cache

import (
	"context"
	"time"
)

// Cache is a TTL key/value store. A miss is (value "", ok false, err nil).
type Cache interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
	Close() error
}

// Config selects and sizes the backing store. RedisURL wins when set.
type Config struct {
	RedisURL string
	Prefix   string
	Size     int
	TTL      time.Duration
}

// New returns a redis cache when RedisURL is set, otherwise a process-local
// LRU.
func New(ctx context.Context, cfg Config) (Cache, error) {
	if cfg.RedisURL != "" {
		return NewRedis(ctx, cfg.RedisURL, cfg.Prefix, cfg.TTL)
	}
	return NewLRU(cfg.Size, cfg.TTL), nil
}
