// Package cache holds the optional read-through cache of rendered comment
// trees. The database stays the source of truth: every cache failure is
// logged and treated as a miss.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/newsroom-comments-api/internal/config"
	"github.com/newsroom-comments-api/internal/metrics"
	"github.com/newsroom-comments-api/internal/models"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

const (
	keyPrefix        = "comments:tree:"
	generationPrefix = "comments:tree:gen:"
)

// connectionTimeout bounds the startup ping.
const connectionTimeout = 5 * time.Second

// TreeCache stores the visible comment tree of an article.
//
// Entries are tagged with the article's generation. Get reports the
// generation it looked at, and Set stores under that generation, so a tree
// read before an Invalidate can never be served after it.
type TreeCache interface {
	Get(ctx context.Context, articleID string) (tree []models.CommentNode, generation int64, ok bool)
	Set(ctx context.Context, articleID string, generation int64, tree []models.CommentNode)
	Invalidate(ctx context.Context, articleID string)
}

// Key returns the cache key of an article's tree at a generation
func Key(articleID string, generation int64) string {
	return keyPrefix + articleID + ":" + strconv.FormatInt(generation, 10)
}

// GenerationKey returns the key holding an article's current generation
func GenerationKey(articleID string) string {
	return generationPrefix + articleID
}

// NewClient creates a Redis client and verifies the connection
func NewClient(cfg config.CacheConfig) (*redis.Client, error) {
	if cfg.Address == "" {
		return nil, errors.New("redis address is required")
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Address,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), connectionTimeout)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	return client, nil
}

type redisTreeCache struct {
	client *redis.Client
	ttl    time.Duration
	log    zerolog.Logger
}

// NewRedisTreeCache returns a TreeCache backed by Redis
func NewRedisTreeCache(client *redis.Client, ttl time.Duration, log zerolog.Logger) TreeCache {
	return &redisTreeCache{
		client: client,
		ttl:    ttl,
		log:    log.With().Str("component", "tree_cache").Logger(),
	}
}

func (c *redisTreeCache) Get(ctx context.Context, articleID string) ([]models.CommentNode, int64, bool) {
	generation, err := c.client.Get(ctx, GenerationKey(articleID)).Int64()
	if errors.Is(err, redis.Nil) {
		generation, err = 0, nil
	}
	if err != nil {
		metrics.TreeCache.WithLabelValues("error").Inc()
		c.log.Warn().Err(err).Str("article_id", articleID).Msg("Cache generation read failed")
		return nil, -1, false
	}

	data, err := c.client.Get(ctx, Key(articleID, generation)).Bytes()
	if errors.Is(err, redis.Nil) {
		metrics.TreeCache.WithLabelValues("miss").Inc()
		return nil, generation, false
	}
	if err != nil {
		metrics.TreeCache.WithLabelValues("error").Inc()
		c.log.Warn().Err(err).Str("article_id", articleID).Msg("Cache read failed")
		return nil, -1, false
	}

	var tree []models.CommentNode
	if err := json.Unmarshal(data, &tree); err != nil {
		metrics.TreeCache.WithLabelValues("error").Inc()
		c.log.Warn().Err(err).Str("article_id", articleID).Msg("Discarding corrupt cache entry")
		return nil, generation, false
	}

	metrics.TreeCache.WithLabelValues("hit").Inc()
	return tree, generation, true
}

// Set is a no-op for a negative generation, which Get returns when it could
// not tell the current one.
func (c *redisTreeCache) Set(ctx context.Context, articleID string, generation int64, tree []models.CommentNode) {
	if generation < 0 {
		return
	}
	data, err := json.Marshal(tree)
	if err != nil {
		c.log.Warn().Err(err).Str("article_id", articleID).Msg("Cache encode failed")
		return
	}
	if err := c.client.Set(ctx, Key(articleID, generation), data, c.ttl).Err(); err != nil {
		c.log.Warn().Err(err).Str("article_id", articleID).Msg("Cache write failed")
	}
}

// Invalidate moves the article to a new generation. Trees stored under older
// generations are never read again and expire with their TTL.
func (c *redisTreeCache) Invalidate(ctx context.Context, articleID string) {
	if err := c.client.Incr(ctx, GenerationKey(articleID)).Err(); err != nil {
		c.log.Warn().Err(err).Str("article_id", articleID).Msg("Cache invalidation failed")
	}
}

// Noop is a TreeCache that never stores anything
type Noop struct{}

func (Noop) Get(context.Context, string) ([]models.CommentNode, int64, bool) { return nil, -1, false }
func (Noop) Set(context.Context, string, int64, []models.CommentNode)        {}
func (Noop) Invalidate(context.Context, string)                              {}
