package redisclient

import (
	"context"
	_ "embed"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

//go:embed scripts/token_bucket.lua
var tokenBucketScript string

type Client struct {
	rdb          *redis.Client
	bucketScript *redis.Script
}

// NewClient creates a new Redis client with Lua scripts loaded
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

	return &Client{
		rdb:          rdb,
		bucketScript: redis.NewScript(tokenBucketScript),
	}, nil
}

// GetClient returns the underlying Redis client
func (c *Client) GetClient() *redis.Client {
	return c.rdb
}

// Close closes the Redis connection
func (c *Client) Close() error {
	return c.rdb.Close()
}

// Ping checks the Redis connection
func (c *Client) Ping(ctx context.Context) error {
	return c.rdb.Ping(ctx).Err()
}

// TakeToken atomically refills and takes one token from the named bucket.
// Returns false when the bucket is empty.
func (c *Client) TakeToken(ctx context.Context, bucket string, ratePerSecond float64, capacity int) (bool, error) {
	key := fmt.Sprintf("ratelimit:%s", bucket)
	now := time.Now().UnixMilli()

	result, err := c.bucketScript.Run(ctx, c.rdb, []string{key}, ratePerSecond, capacity, now, 1).Result()
	if err != nil {
		return false, fmt.Errorf("token bucket script failed: %w", err)
	}

	allowed, ok := result.(int64)
	if !ok {
		return false, fmt.Errorf("unexpected script result type")
	}

	return allowed == 1, nil
}
