// Package cache stores rendered search responses in Redis. Concurrent
// misses for the same key are collapsed into one computation, and any
// index change invalidates every cached response.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync/atomic"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/Adithya-Monish-Kumar-K/wiki-search-engine/internal/indexer/index"
	"github.com/Adithya-Monish-Kumar-K/wiki-search-engine/internal/indexer/tokenizer"
	"github.com/Adithya-Monish-Kumar-K/wiki-search-engine/internal/searcher/executor"
	"github.com/Adithya-Monish-Kumar-K/wiki-search-engine/internal/searcher/parser"
	"github.com/Adithya-Monish-Kumar-K/wiki-search-engine/pkg/config"
	pkgredis "github.com/Adithya-Monish-Kumar-K/wiki-search-engine/pkg/redis"
)

const keyPrefix = "search:"

// Store is the subset of the Redis client the cache needs.
type Store interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	FlushByPattern(ctx context.Context, pattern string) (int64, error)
}

// Key identifies a cached response.
type Key struct {
	Query    string
	Option   parser.SearchOption
	TypeTags []string
	Limit    int
}

type QueryCache struct {
	client Store
	cfg    config.RedisConfig
	group  singleflight.Group
	logger *slog.Logger
	hits   atomic.Int64
	misses atomic.Int64
	// generation counts invalidations; a response computed across one is
	// not stored.
	generation atomic.Uint64
}

func New(client Store, cfg config.RedisConfig) *QueryCache {
	return &QueryCache{
		client: client,
		cfg:    cfg,
		logger: slog.Default().With("component", "query-cache"),
	}
}

func (c *QueryCache) Get(ctx context.Context, key Key) (*executor.Response, bool) {
	redisKey := buildKey(key)
	data, err := c.client.Get(ctx, redisKey)
	if err != nil {
		if !pkgredis.IsNilError(err) {
			c.logger.Error("cache get failed", "key", redisKey, "error", err)
		}
		c.misses.Add(1)
		return nil, false
	}
	var resp executor.Response
	if err := json.Unmarshal([]byte(data), &resp); err != nil {
		c.logger.Error("cache unmarshal failed", "key", redisKey, "error", err)
		c.misses.Add(1)
		return nil, false
	}
	c.hits.Add(1)
	c.logger.Debug("cache hit", "query", key.Query, "key", redisKey)
	return &resp, true
}

func (c *QueryCache) Set(ctx context.Context, key Key, resp *executor.Response) {
	redisKey := buildKey(key)
	data, err := json.Marshal(resp)
	if err != nil {
		c.logger.Error("cache marshal failed", "key", redisKey, "error", err)
		return
	}
	if err := c.client.Set(ctx, redisKey, data, c.cfg.CacheTTL); err != nil {
		c.logger.Error("cache set failed", "key", redisKey, "error", err)
	}
}

// GetOrCompute returns the cached response for key or computes, stores and
// returns it. hit reports whether the response came from the cache.
func (c *QueryCache) GetOrCompute(
	ctx context.Context,
	key Key,
	computeFn func() (*executor.Response, error),
) (resp *executor.Response, hit bool, err error) {
	if cached, ok := c.Get(ctx, key); ok {
		return cached, true, nil
	}
	val, err, _ := c.group.Do(buildKey(key), func() (interface{}, error) {
		gen := c.generation.Load()
		if cached, ok := c.Get(ctx, key); ok {
			return cached, nil
		}
		computed, err := computeFn()
		if err != nil {
			return nil, err
		}
		if c.generation.Load() == gen {
			c.Set(ctx, key, computed)
		} else {
			c.logger.Debug("index changed during search, response not cached", "query", key.Query)
		}
		return computed, nil
	})
	if err != nil {
		return nil, false, err
	}
	return val.(*executor.Response), false, nil
}

func (c *QueryCache) Invalidate(ctx context.Context) error {
	c.generation.Add(1)
	deleted, err := c.client.FlushByPattern(ctx, keyPrefix+"*")
	if err != nil {
		return fmt.Errorf("invalidating cache: %w", err)
	}
	c.logger.Info("cache invalidate", "keys_deleted", deleted)
	return nil
}

// IndexChanged drops every cached response. A failed invalidation is
// logged rather than failing the index mutation; entries still expire
// after the configured TTL.
func (c *QueryCache) IndexChanged(ctx context.Context, change *index.Change) error {
	if err := c.Invalidate(ctx); err != nil {
		c.logger.Error("cache invalidation on index change failed",
			"kind", change.Kind.String(),
			"error", err,
		)
	}
	return nil
}

func (c *QueryCache) Stats() (hits, misses int64) {
	return c.hits.Load(), c.misses.Load()
}

func buildKey(key Key) string {
	tags := slices.Clone(key.TypeTags)
	slices.Sort(tags)
	raw := fmt.Sprintf("%s|%s|types=%s|limit=%d",
		key.Option.String(),
		normalizeQuery(key.Query, key.Option),
		strings.Join(tags, ","),
		key.Limit,
	)
	hash := sha256.Sum256([]byte(raw))
	return fmt.Sprintf("%s%x", keyPrefix, hash[:16])
}

// normalizeQuery reduces a query to its normalised words. Word order only
// matters for phrase searches.
func normalizeQuery(query string, option parser.SearchOption) string {
	words := tokenizer.Tokenize(query, index.LocationContent)
	terms := make([]string, 0, len(words))
	for _, w := range words {
		if term := tokenizer.NormalizeWord(w.Text); term != "" {
			terms = append(terms, term)
		}
	}
	if option != parser.ExactPhrase {
		slices.Sort(terms)
		terms = slices.Compact(terms)
	}
	return strings.Join(terms, ",")
}
