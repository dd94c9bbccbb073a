// Package redisbus is the Redis transport shared by the feeder and the
// analyzer: pub/sub notifications plus key/value snapshots.
package redisbus

import (
	"context"
	"crypto/tls"
	"errors"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/fd1az/spread-analyzer/internal/apperror"
)

// ClientConfig holds connection parameters for the Redis client.
type ClientConfig struct {
	Addr       string
	Password   string
	DB         int
	PoolSize   int
	MaxRetries int
	TLSEnabled bool
}

// Client wraps a go-redis client.
type Client struct {
	rdb *redis.Client
}

// New connects and pings. A failed ping is a startup error.
func New(ctx context.Context, cfg ClientConfig) (*Client, error) {
	opts := &redis.Options{
		Addr:       cfg.Addr,
		Password:   cfg.Password,
		DB:         cfg.DB,
		PoolSize:   cfg.PoolSize,
		MaxRetries: cfg.MaxRetries,
	}
	if cfg.TLSEnabled {
		opts.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
	}

	rdb := redis.NewClient(opts)
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, apperror.New(apperror.CodeRedisConnectionFailed,
			apperror.WithCause(err),
			apperror.WithContext(cfg.Addr))
	}

	return &Client{rdb: rdb}, nil
}

// NewFromRedis wraps an existing go-redis client without pinging.
func NewFromRedis(rdb *redis.Client) *Client {
	return &Client{rdb: rdb}
}

// Ping checks the Redis connection.
func (c *Client) Ping(ctx context.Context) error {
	if err := c.rdb.Ping(ctx).Err(); err != nil {
		return apperror.External(apperror.CodeRedisConnectionFailed, "ping", err)
	}
	return nil
}

// Close closes the Redis connection.
func (c *Client) Close() error {
	return c.rdb.Close()
}

// Get returns the value stored at key. A missing key is a SNAPSHOT_MISSING
// lookup error; anything else is a transport error.
func (c *Client) Get(ctx context.Context, key string) ([]byte, error) {
	b, err := c.rdb.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, apperror.NotFound(apperror.CodeSnapshotMissing, key)
	}
	if err != nil {
		return nil, apperror.External(apperror.CodeSnapshotFetchFailed, key, err)
	}
	return b, nil
}

// Publish sends payload on channel.
func (c *Client) Publish(ctx context.Context, channel string, payload []byte) error {
	if err := c.rdb.Publish(ctx, channel, payload).Err(); err != nil {
		return apperror.External(apperror.CodePublishFailed, channel, err)
	}
	return nil
}

// SetAndPublish stores value under key with ttl and then announces it on
// channel, in one MULTI/EXEC round trip.
func (c *Client) SetAndPublish(ctx context.Context, key string, value []byte, ttl time.Duration, channel string, notification []byte) error {
	_, err := c.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, key, value, ttl)
		pipe.Publish(ctx, channel, notification)
		return nil
	})
	if err != nil {
		return apperror.External(apperror.CodePublishFailed, key, err)
	}
	return nil
}

// Subscribe listens on channel (glob patterns use PSUBSCRIBE) and returns the
// payloads. The returned channel closes when ctx ends or the subscription
// drops.
func (c *Client) Subscribe(ctx context.Context, channel string) (<-chan []byte, error) {
	var pubsub *redis.PubSub
	if strings.ContainsAny(channel, "*?[") {
		pubsub = c.rdb.PSubscribe(ctx, channel)
	} else {
		pubsub = c.rdb.Subscribe(ctx, channel)
	}

	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return nil, apperror.New(apperror.CodeSubscribeFailed,
			apperror.WithCause(err),
			apperror.WithContext(channel),
			apperror.WithKind(apperror.KindStartup))
	}

	out := make(chan []byte, 128)
	go func() {
		defer close(out)
		defer pubsub.Close()

		ch := pubsub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				select {
				case out <- []byte(msg.Payload):
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	return out, nil
}
