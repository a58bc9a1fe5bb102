package cache

import (
	"context"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

const (
	defaultSize = 256
	defaultTTL  = 10 * time.Minute
)

// LRU is an in-process cache with a bounded entry count and per-entry TTL.
type LRU struct {
	entries *expirable.LRU[string, string]
}

func NewLRU(size int, ttl time.Duration) *LRU {
	if size <= 0 {
		size = defaultSize
	}
	if ttl <= 0 {
		ttl = defaultTTL
	}
	return &LRU{entries: expirable.NewLRU[string, string](size, nil, ttl)}
}

func (c *LRU) Get(_ context.Context, key string) (string, bool, error) {
	v, ok := c.entries.Get(key)
	return v, ok, nil
}

func (c *LRU) Set(_ context.Context, key, value string) error {
	c.entries.Add(key, value)
	return nil
}

func (c *LRU) Len() int { return c.entries.Len() }

func (c *LRU) Close() error {
	c.entries.Purge()
	return nil
}
