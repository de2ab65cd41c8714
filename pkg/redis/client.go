package redis

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Nil is re-exported so callers don't need to import go-redis directly.
const Nil = redis.Nil

// Client wraps go-redis with key building and per-call logging.
type Client struct {
	rdb        *redis.Client
	KeyBuilder *KeyBuilder
	log        *zap.Logger
}

// NewClient creates a new Redis client
func NewClient(redisURL string, environment string, log *zap.Logger) (*Client, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	opts.PoolSize = 50
	opts.MinIdleConns = 5
	opts.MaxRetries = 3
	opts.DialTimeout = 5 * time.Second
	opts.ReadTimeout = 3 * time.Second
	opts.WriteTimeout = 3 * time.Second

	rdb := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &Client{rdb: rdb, KeyBuilder: NewKeyBuilder(environment), log: log}, nil
}

// Close closes the Redis connection
func (c *Client) Close() error {
	if c.rdb != nil {
		return c.rdb.Close()
	}
	return nil
}

// Health checks the Redis connection
func (c *Client) Health(ctx context.Context) error {
	return c.rdb.Ping(ctx).Err()
}

func (c *Client) trace(op, key string, start time.Time, err error, fields ...zap.Field) {
	dur := time.Since(start)
	fields = append(fields,
		zap.String("key_prefix", prefixForLog(key)),
		zap.Duration("duration", dur))
	if err != nil && err != redis.Nil {
		fields = append(fields, zap.Error(err))
		c.log.Info("redis_"+op, fields...)
		return
	}
	c.log.Debug("redis_"+op, fields...)
}

// Get retrieves a string value. Returns redis.Nil if the key is absent.
func (c *Client) Get(ctx context.Context, key string) (string, error) {
	start := time.Now()
	val, err := c.rdb.Get(ctx, key).Result()
	c.trace("get", key, start, err)
	return val, err
}

// Set stores a value. A zero ttl means no expiration.
func (c *Client) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	start := time.Now()
	err := c.rdb.Set(ctx, key, value, ttl).Err()
	c.trace("set", key, start, err)
	return err
}

// Delete removes keys. Deleting an absent key is not an error.
func (c *Client) Delete(ctx context.Context, keys ...string) error {
	start := time.Now()
	err := c.rdb.Del(ctx, keys...).Err()
	c.trace("del", "", start, err, zap.Int("keys", len(keys)))
	return err
}

// Exists reports how many of the given keys exist.
func (c *Client) Exists(ctx context.Context, keys ...string) (int64, error) {
	start := time.Now()
	n, err := c.rdb.Exists(ctx, keys...).Result()
	c.trace("exists", "", start, err, zap.Int("keys", len(keys)))
	return n, err
}

// HSet sets hash fields
func (c *Client) HSet(ctx context.Context, key string, values ...interface{}) error {
	start := time.Now()
	err := c.rdb.HSet(ctx, key, values...).Err()
	c.trace("hset", key, start, err)
	return err
}

// HGetAll reads all fields of a hash. An absent key yields an empty map.
func (c *Client) HGetAll(ctx context.Context, key string) (map[string]string, error) {
	start := time.Now()
	m, err := c.rdb.HGetAll(ctx, key).Result()
	c.trace("hgetall", key, start, err)
	return m, err
}

// HGet reads a single hash field. Returns redis.Nil if the field is absent.
func (c *Client) HGet(ctx context.Context, key, field string) (string, error) {
	start := time.Now()
	v, err := c.rdb.HGet(ctx, key, field).Result()
	c.trace("hget", key, start, err)
	return v, err
}

// SIsMember tests set membership
func (c *Client) SIsMember(ctx context.Context, key string, member interface{}) (bool, error) {
	start := time.Now()
	ok, err := c.rdb.SIsMember(ctx, key, member).Result()
	c.trace("sismember", key, start, err)
	return ok, err
}

// SCard returns the cardinality of a set
func (c *Client) SCard(ctx context.Context, key string) (int64, error) {
	start := time.Now()
	n, err := c.rdb.SCard(ctx, key).Result()
	c.trace("scard", key, start, err)
	return n, err
}

// SMembers returns all members of a set
func (c *Client) SMembers(ctx context.Context, key string) ([]string, error) {
	start := time.Now()
	members, err := c.rdb.SMembers(ctx, key).Result()
	c.trace("smembers", key, start, err)
	return members, err
}

// ZRevRangeWithScores reads a sorted set range, highest score first.
func (c *Client) ZRevRangeWithScores(ctx context.Context, key string, start, stop int64) ([]redis.Z, error) {
	began := time.Now()
	zs, err := c.rdb.ZRevRangeWithScores(ctx, key, start, stop).Result()
	c.trace("zrevrange", key, began, err)
	return zs, err
}

// ZRange reads sorted set members in ascending score order.
func (c *Client) ZRange(ctx context.Context, key string, start, stop int64) ([]string, error) {
	began := time.Now()
	members, err := c.rdb.ZRange(ctx, key, start, stop).Result()
	c.trace("zrange", key, began, err)
	return members, err
}

// ZScore reads a member's score. Returns redis.Nil for an absent member.
func (c *Client) ZScore(ctx context.Context, key, member string) (float64, error) {
	start := time.Now()
	score, err := c.rdb.ZScore(ctx, key, member).Result()
	c.trace("zscore", key, start, err)
	return score, err
}

// ZCard returns the number of members in a sorted set
func (c *Client) ZCard(ctx context.Context, key string) (int64, error) {
	start := time.Now()
	n, err := c.rdb.ZCard(ctx, key).Result()
	c.trace("zcard", key, start, err)
	return n, err
}

// RunScript executes a Lua script against the wrapped client.
func (c *Client) RunScript(ctx context.Context, script *redis.Script, keys []string, args ...interface{}) (interface{}, error) {
	start := time.Now()
	res, err := script.Run(ctx, c.rdb, keys, args...).Result()
	key := ""
	if len(keys) > 0 {
		key = keys[0]
	}
	c.trace("eval", key, start, err)
	return res, err
}

// prefixForLog trims a key down to its namespace so logs never carry user ids.
func prefixForLog(key string) string {
	if key == "" {
		return ""
	}
	parts := strings.SplitN(key, ":", 4)
	if len(parts) > 3 {
		return strings.Join(parts[:3], ":")
	}
	return key
}
