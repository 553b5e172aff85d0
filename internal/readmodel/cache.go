package readmodel

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// minGenerationTTL keeps a user's generation counter alive well past any
// document cached under it.
const minGenerationTTL = 24 * time.Hour

// Cache keeps user documents in Redis. A Cache without a client is a
// pass-through: every Get misses and writes are dropped.
//
// Documents are keyed by a per-user generation that InvalidateUser bumps. A
// reader that loaded a document before an invalidation writes it under the
// old generation, where no later lookup reads it.
type Cache struct {
	client *redis.Client
	ttl    time.Duration
	prefix string
	logger *zap.Logger
}

// NewCache wraps client; client may be nil.
func NewCache(client *redis.Client, ttl time.Duration, prefix string, logger *zap.Logger) *Cache {
	return &Cache{client: client, ttl: ttl, prefix: prefix, logger: logger}
}

func (c *Cache) key(id string, gen int64) string {
	return c.prefix + ":user:" + id + ":" + strconv.FormatInt(gen, 10)
}

func (c *Cache) genKey(id string) string {
	return c.prefix + ":user-gen:" + id
}

func (c *Cache) genTTL() time.Duration {
	if ttl := 2 * c.ttl; ttl > minGenerationTTL {
		return ttl
	}
	return minGenerationTTL
}

// Generation returns the current generation of id. Pass it to SetUser after
// loading the document from the store.
func (c *Cache) Generation(ctx context.Context, id string) (int64, bool) {
	if c == nil || c.client == nil {
		return 0, false
	}
	gen, err := c.client.Get(ctx, c.genKey(id)).Int64()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, true
		}
		c.logger.Warn("user cache generation read failed", zap.String("user_id", id), zap.Error(err))
		return 0, false
	}
	return gen, true
}

// GetUser returns the document cached under generation gen. Redis failures
// count as a miss.
func (c *Cache) GetUser(ctx context.Context, id string, gen int64) (*UserDocument, bool) {
	if c == nil || c.client == nil {
		return nil, false
	}
	raw, err := c.client.Get(ctx, c.key(id, gen)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.logger.Warn("user cache read failed", zap.String("user_id", id), zap.Error(err))
		}
		return nil, false
	}
	var doc UserDocument
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, false
	}
	return &doc, true
}

// SetUser stores doc under generation gen for the configured ttl.
func (c *Cache) SetUser(ctx context.Context, doc UserDocument, gen int64) {
	if c == nil || c.client == nil {
		return
	}
	raw, err := json.Marshal(doc)
	if err != nil {
		return
	}
	if err := c.client.Set(ctx, c.key(doc.ID, gen), raw, c.ttl).Err(); err != nil {
		c.logger.Warn("user cache write failed", zap.String("user_id", doc.ID), zap.Error(err))
	}
}

// InvalidateUser moves id to a new generation, orphaning every document
// cached under earlier ones.
func (c *Cache) InvalidateUser(ctx context.Context, id string) {
	if c == nil || c.client == nil {
		return
	}
	pipe := c.client.TxPipeline()
	pipe.Incr(ctx, c.genKey(id))
	pipe.Expire(ctx, c.genKey(id), c.genTTL())
	if _, err := pipe.Exec(ctx); err != nil {
		c.logger.Warn("user cache invalidation failed", zap.String("user_id", id), zap.Error(err))
	}
}
