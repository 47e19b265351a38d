// Package cache stores search responses in Redis. Keys embed the snapshot
// version, so a reload makes every older entry unreachable even before the
// explicit flush runs.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"sync/atomic"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/Adithya-Monish-Kumar-K/article-retrieval/internal/searcher/executor"
	"github.com/Adithya-Monish-Kumar-K/article-retrieval/pkg/metrics"
	pkgredis "github.com/Adithya-Monish-Kumar-K/article-retrieval/pkg/redis"
)

const keyPrefix = "search:"

// Store is the subset of *redis.Client the cache needs. Get must report a
// missing key with an error for which redis.IsNilError is true.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	FlushByPattern(ctx context.Context, pattern string) (int64, error)
}

// Key identifies one cacheable response.
type Key struct {
	Query   string
	Version uint64
	Order   executor.Order
	Limit   int
	All     bool
	Stemmed bool
}

// String renders the Redis key. Queries differing only in case or spacing
// share an entry because both normalizers lower-case and split on spaces.
func (k Key) String() string {
	q := strings.Join(strings.Fields(strings.ToLower(k.Query)), " ")
	raw := fmt.Sprintf("%s|order=%s|limit=%d|all=%t|stem=%t", q, k.Order, k.Limit, k.All, k.Stemmed)
	sum := sha256.Sum256([]byte(raw))
	return fmt.Sprintf("%sv%d:%x", keyPrefix, k.Version, sum[:16])
}

// QueryCache wraps a Store with singleflight and hit/miss accounting.
type QueryCache struct {
	store   Store
	ttl     time.Duration
	group   singleflight.Group
	metrics *metrics.Metrics
	logger  *slog.Logger
	hits    atomic.Int64
	misses  atomic.Int64
}

// New creates a QueryCache. m may be nil.
func New(store Store, ttl time.Duration, m *metrics.Metrics) *QueryCache {
	return &QueryCache{
		store:   store,
		ttl:     ttl,
		metrics: m,
		logger:  slog.Default().With("component", "query-cache"),
	}
}

// Get returns the cached response for k. Redis errors are logged and treated
// as misses.
func (c *QueryCache) Get(ctx context.Context, k Key) (*executor.SearchResult, bool) {
	key := k.String()
	data, err := c.store.Get(ctx, key)
	if err != nil {
		if !pkgredis.IsNilError(err) {
			c.logger.Error("cache get failed", "key", key, "error", err)
		}
		c.miss()
		return nil, false
	}
	var result executor.SearchResult
	if err := json.Unmarshal(data, &result); err != nil {
		c.logger.Error("cache unmarshal failed", "key", key, "error", err)
		c.miss()
		return nil, false
	}
	c.hits.Add(1)
	if c.metrics != nil {
		c.metrics.CacheHitsTotal.Inc()
	}
	c.logger.Debug("cache hit", "query", k.Query, "key", key)
	return &result, true
}

// Set stores result under k. Failures are logged only.
func (c *QueryCache) Set(ctx context.Context, k Key, result *executor.SearchResult) {
	key := k.String()
	data, err := json.Marshal(result)
	if err != nil {
		c.logger.Error("cache marshal failed", "key", key, "error", err)
		return
	}
	if err := c.store.Set(ctx, key, data, c.ttl); err != nil {
		c.logger.Error("cache set failed", "key", key, "error", err)
	}
}

// GetOrCompute returns the cached response for k or computes and stores it.
// Concurrent misses for the same key share one computation.
func (c *QueryCache) GetOrCompute(
	ctx context.Context,
	k Key,
	compute func() (*executor.SearchResult, error),
) (*executor.SearchResult, bool, error) {
	if result, ok := c.Get(ctx, k); ok {
		return result, true, nil
	}
	val, err, _ := c.group.Do(k.String(), func() (any, error) {
		result, err := compute()
		if err != nil {
			return nil, err
		}
		c.Set(ctx, k, result)
		return result, nil
	})
	if err != nil {
		return nil, false, err
	}
	return val.(*executor.SearchResult), false, nil
}

// Invalidate removes every cached search response.
func (c *QueryCache) Invalidate(ctx context.Context) (int64, error) {
	deleted, err := c.store.FlushByPattern(ctx, keyPrefix+"*")
	if err != nil {
		return deleted, fmt.Errorf("invalidating cache: %w", err)
	}
	c.logger.Info("cache invalidated", "keys_deleted", deleted)
	return deleted, nil
}

// Stats returns the hit and miss counts since startup.
func (c *QueryCache) Stats() (hits, misses int64) {
	return c.hits.Load(), c.misses.Load()
}

func (c *QueryCache) miss() {
	c.misses.Add(1)
	if c.metrics != nil {
		c.metrics.CacheMissesTotal.Inc()
	}
}
