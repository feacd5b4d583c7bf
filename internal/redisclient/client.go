package redisclient

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

// Client wraps Redis for the projected-order view cache.
type Client struct {
	rdb *redis.Client
}

// NewClient creates a new Redis client
func NewClient(addr, password string, db int) (*Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	return &Client{rdb: rdb}, nil
}

// GetClient returns the underlying Redis client
func (c *Client) GetClient() *redis.Client {
	return c.rdb
}

// Close closes the Redis connection
func (c *Client) Close() error {
	return c.rdb.Close()
}

func viewKey(orderID string) string {
	return fmt.Sprintf("order:view:%s", orderID)
}

// GetOrderView returns a cached projected order view, or (nil, nil) on miss.
func (c *Client) GetOrderView(ctx context.Context, orderID string) ([]byte, error) {
	payload, err := c.rdb.Get(ctx, viewKey(orderID)).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("order view read failed: %w", err)
	}
	return payload, nil
}

// SetOrderView caches a projected order view with a TTL.
func (c *Client) SetOrderView(ctx context.Context, orderID string, payload []byte, ttl time.Duration) error {
	return c.rdb.Set(ctx, viewKey(orderID), payload, ttl).Err()
}

// InvalidateOrderView drops a cached view after a mutation.
func (c *Client) InvalidateOrderView(ctx context.Context, orderID string) error {
	return c.rdb.Del(ctx, viewKey(orderID)).Err()
}
