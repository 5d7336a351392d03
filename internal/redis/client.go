package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

type Client struct {
	*redis.Client
}

// NewClient parses redisURL and verifies the server answers PING within
// pingTimeout. A client that cannot reach the server is closed and not returned.
func NewClient(redisURL string, pingTimeout time.Duration) (*Client, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}

	return &Client{client}, nil
}

func (c *Client) Close() error {
	return c.Client.Close()
}

func SessionKey(prefix, phone string) string {
	return prefix + phone
}

func InboundRateLimitKey(phone string) string {
	return fmt.Sprintf("ratelimit:inbound:%s", phone)
}

func OpsRateLimitKey(ip string) string {
	return fmt.Sprintf("ratelimit:ops:%s", ip)
}
