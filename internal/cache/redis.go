// internal/cache/redis.go
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/jason-s-yu/taboo/internal/models"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// DefaultPrefix namespaces every key written by the word cache.
const DefaultPrefix = "taboo:"

// WordSource is the store the cache reads through to.
type WordSource interface {
	FindWordByID(ctx context.Context, id int) (*models.WordRecord, error)
	CountWords(ctx context.Context) (int, error)
}

// WordCache is a read-through Redis cache in front of a WordSource. Cache
// failures are logged and fall back to the source.
type WordCache struct {
	rdb    *redis.Client
	source WordSource
	ttl    time.Duration
	prefix string
	logger *logrus.Logger
}

// Connect creates a Redis client for addr and pings it.
func Connect(ctx context.Context, addr string, db int) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr: addr,
		DB:   db,
	})

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("failed to connect to Redis at %s: %w", addr, err)
	}
	return rdb, nil
}

func NewWordCache(rdb *redis.Client, source WordSource, ttl time.Duration, logger *logrus.Logger) *WordCache {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &WordCache{rdb: rdb, source: source, ttl: ttl, prefix: DefaultPrefix, logger: logger}
}

func (c *WordCache) wordKey(id int) string {
	return c.prefix + "word:" + strconv.Itoa(id)
}

func (c *WordCache) countKey() string {
	return c.prefix + "word_count"
}

// FindWordByID serves the record from Redis, loading and storing it on a miss.
// Errors of the source, including not-found, are returned unchanged and never
// cached.
func (c *WordCache) FindWordByID(ctx context.Context, id int) (*models.WordRecord, error) {
	data, err := c.rdb.Get(ctx, c.wordKey(id)).Bytes()
	switch {
	case err == nil:
		var w models.WordRecord
		if jsonErr := json.Unmarshal(data, &w); jsonErr == nil {
			return &w, nil
		}
		c.logger.WithField("word", id).Warn("cache: dropping undecodable word entry")
	case !errors.Is(err, redis.Nil):
		c.logger.WithError(err).WithField("word", id).Warn("cache: word lookup failed")
	}

	w, err := c.source.FindWordByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if data, err := json.Marshal(w); err == nil {
		if err := c.rdb.Set(ctx, c.wordKey(id), data, c.ttl).Err(); err != nil {
			c.logger.WithError(err).WithField("word", id).Warn("cache: word store failed")
		}
	}
	return w, nil
}

// CountWords caches the deck size under the same TTL as the words.
func (c *WordCache) CountWords(ctx context.Context) (int, error) {
	n, err := c.rdb.Get(ctx, c.countKey()).Int()
	if err == nil {
		return n, nil
	}
	if !errors.Is(err, redis.Nil) {
		c.logger.WithError(err).Warn("cache: word count lookup failed")
	}

	n, err = c.source.CountWords(ctx)
	if err != nil {
		return 0, err
	}
	if err := c.rdb.Set(ctx, c.countKey(), n, c.ttl).Err(); err != nil {
		c.logger.WithError(err).Warn("cache: word count store failed")
	}
	return n, nil
}

// Invalidate drops the cached count and the given words.
func (c *WordCache) Invalidate(ctx context.Context, ids ...int) error {
	keys := []string{c.countKey()}
	for _, id := range ids {
		keys = append(keys, c.wordKey(id))
	}
	return c.rdb.Del(ctx, keys...).Err()
}
