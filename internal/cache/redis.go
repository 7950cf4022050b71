package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// KeyPrefix namespaces every key this service writes
const KeyPrefix = "internhub"

// Client wraps a Redis connection with JSON get/set helpers. It is shared by
// the LLM quota and the review draft cache.
type Client struct {
	client *redis.Client
	logger *logrus.Entry
	ttl    time.Duration
}

// NewClient connects to redisURL (redis://[:password@]host:port/db) and
// verifies the connection
func NewClient(ctx context.Context, redisURL string, ttl time.Duration, logger *logrus.Logger) (*Client, error) {
	if redisURL == "" {
		return nil, fmt.Errorf("redis url missing")
	}
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}

	client := redis.NewClient(opts)
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to redis at %s: %w", opts.Addr, err)
	}

	c := Wrap(client, ttl, logger)
	c.logger.WithField("addr", opts.Addr).Info("redis client connected")
	return c, nil
}

// Wrap uses an existing go-redis client
func Wrap(client *redis.Client, ttl time.Duration, logger *logrus.Logger) *Client {
	if ttl <= 0 {
		ttl = 15 * time.Minute
	}
	return &Client{
		client: client,
		logger: logger.WithField("component", "redis"),
		ttl:    ttl,
	}
}

// Redis returns the underlying client
func (c *Client) Redis() *redis.Client {
	return c.client
}

func (c *Client) Close() error {
	if err := c.client.Close(); err != nil {
		return fmt.Errorf("failed to close redis client: %w", err)
	}
	return nil
}

// HealthCheck verifies Redis connectivity
func (c *Client) HealthCheck(ctx context.Context) error {
	if err := c.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis health check failed: %w", err)
	}
	return nil
}

// Get unmarshals the value at key into target. A miss returns false
// without error.
func (c *Client) Get(ctx context.Context, key string, target interface{}) (bool, error) {
	val, err := c.client.Get(ctx, key).Bytes()
	if err == redis.Nil {
		c.logger.WithField("key", key).Debug("cache miss")
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("redis get failed for key %s: %w", key, err)
	}

	if err := json.Unmarshal(val, target); err != nil {
		return false, fmt.Errorf("failed to unmarshal cached value for key %s: %w", key, err)
	}

	c.logger.WithField("key", key).Debug("cache hit")
	return true, nil
}

// Set stores value with the default TTL
func (c *Client) Set(ctx context.Context, key string, value interface{}) error {
	return c.SetWithTTL(ctx, key, value, c.ttl)
}

func (c *Client) SetWithTTL(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal value for key %s: %w", key, err)
	}
	if err := c.client.Set(ctx, key, data, ttl).Err(); err != nil {
		return fmt.Errorf("redis set failed for key %s: %w", key, err)
	}
	return nil
}

func (c *Client) Delete(ctx context.Context, key string) error {
	if err := c.client.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("redis delete failed for key %s: %w", key, err)
	}
	return nil
}

// DeletePattern removes every key matching pattern, e.g. "internhub:draft:*"
func (c *Client) DeletePattern(ctx context.Context, pattern string) (int64, error) {
	var cursor uint64
	var keys []string
	for {
		batch, next, err := c.client.Scan(ctx, cursor, pattern, 100).Result()
		if err != nil {
			return 0, fmt.Errorf("redis scan failed for pattern %s: %w", pattern, err)
		}
		keys = append(keys, batch...)
		if cursor = next; cursor == 0 {
			break
		}
	}
	if len(keys) == 0 {
		return 0, nil
	}

	deleted, err := c.client.Del(ctx, keys...).Result()
	if err != nil {
		return 0, fmt.Errorf("redis delete failed for pattern %s: %w", pattern, err)
	}
	c.logger.WithFields(logrus.Fields{"pattern": pattern, "deleted": deleted}).Info("cache pattern delete")
	return deleted, nil
}

// Key joins parts under KeyPrefix: Key("draft", id) = "internhub:draft:<id>"
func Key(parts ...string) string {
	return KeyPrefix + ":" + strings.Join(parts, ":")
}
