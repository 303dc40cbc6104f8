// Package redis connects the client that backs the distributed
// active-transfer lock. The lock is advisory, so the process starts
// without Redis and falls back to a process-local lock; this package only
// reports whether a configured backend is actually reachable.
package redis

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"

	"fowlgate/internal/platform/config"
)

// Client wraps the go-redis client used by the active-transfer lock.
type Client struct {
	*redis.Client
}

// New connects and verifies the backend with a ping bounded by the dial
// timeout. Returns nil when no URL is configured.
func New(cfg config.RedisConfig) (*Client, error) {
	if cfg.URL == "" {
		return nil, nil
	}

	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parse redis URL: %w", err)
	}

	opts.PoolSize = cfg.PoolSize
	opts.MinIdleConns = cfg.MinIdleConns
	opts.DialTimeout = cfg.DialTimeout
	opts.ReadTimeout = cfg.ReadTimeout
	opts.WriteTimeout = cfg.WriteTimeout

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), cfg.DialTimeout)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	return &Client{Client: client}, nil
}

// Health reports whether the lock backend is reachable.
func (c *Client) Health(ctx context.Context) error {
	return c.Ping(ctx).Err()
}

// Close closes the connection pool.
func (c *Client) Close() error {
	return c.Client.Close()
}
