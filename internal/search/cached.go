package search

import (
	"context"
	"encoding/json"
	"strconv"
	"strings"

	"github.com/rs/zerolog"

	"github.com/ent0n29/zoya/internal/cache"
)

// Cached serves repeated queries from a cache. Cache errors never fail a
// search; failed searches are not cached.
type Cached struct {
	next   Searcher
	cache  cache.Cache
	logger zerolog.Logger
}

func NewCached(next Searcher, c cache.Cache) *Cached {
	return &Cached{next: next, cache: c, logger: zerolog.Nop()}
}

// WithLogger sets the logger used for cache errors.
func (c *Cached) WithLogger(l zerolog.Logger) *Cached {
	c.logger = l
	return c
}

func (c *Cached) Name() string { return c.next.Name() }

func (c *Cached) Search(ctx context.Context, query string, maxResults int) ([]Result, error) {
	key := cacheKey(query, maxResults)
	if raw, ok, err := c.cache.Get(ctx, key); err != nil {
		c.logger.Warn().Err(err).Msg("search cache read failed")
	} else if ok {
		var results []Result
		if err := json.Unmarshal([]byte(raw), &results); err == nil && len(results) > 0 {
			return results, nil
		}
	}

	results, err := c.next.Search(ctx, query, maxResults)
	if err != nil {
		return nil, err
	}
	if raw, err := json.Marshal(results); err == nil {
		if err := c.cache.Set(ctx, key, string(raw)); err != nil {
			c.logger.Warn().Err(err).Msg("search cache write failed")
		}
	}
	return results, nil
}

func cacheKey(query string, maxResults int) string {
	return "search:" + strconv.Itoa(maxResults) + ":" + strings.Join(strings.Fields(strings.ToLower(query)), " ")
}
