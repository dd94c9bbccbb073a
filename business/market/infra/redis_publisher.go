// Package infra contains the Redis adapter of the market context.
package infra

import (
	"context"
	"encoding/json"
	"time"

	"github.com/fd1az/spread-analyzer/business/market/app"
	"github.com/fd1az/spread-analyzer/business/spread/domain"
	"github.com/fd1az/spread-analyzer/internal/apperror"
)

// Bus is the subset of the Redis transport the publisher needs.
type Bus interface {
	SetAndPublish(ctx context.Context, key string, value []byte, ttl time.Duration, channel string, notification []byte) error
}

// RedisPublisherConfig holds the key layout shared with the analyzer.
type RedisPublisherConfig struct {
	KeyPrefix   string // e.g. "orderbook:"
	Channel     string
	SnapshotTTL time.Duration
}

// RedisPublisher stores snapshots as JSON and announces their key.
type RedisPublisher struct {
	bus    Bus
	config RedisPublisherConfig
}

var _ app.SnapshotPublisher = (*RedisPublisher)(nil)

// NewRedisPublisher creates a RedisPublisher.
func NewRedisPublisher(bus Bus, cfg RedisPublisherConfig) *RedisPublisher {
	return &RedisPublisher{bus: bus, config: cfg}
}

// SnapshotKey returns the Redis key a book is stored under.
func (p *RedisPublisher) SnapshotKey(book *domain.OrderBook) string {
	return p.config.KeyPrefix + book.Key()
}

// Publish writes the snapshot with the configured TTL and publishes the key
// as the notification payload.
func (p *RedisPublisher) Publish(ctx context.Context, book *domain.OrderBook) (string, error) {
	data, err := json.Marshal(book)
	if err != nil {
		return "", apperror.New(apperror.CodeInvalidOrderbook,
			apperror.WithCause(err),
			apperror.WithContext(book.Key()))
	}

	key := p.SnapshotKey(book)
	if err := p.bus.SetAndPublish(ctx, key, data, p.config.SnapshotTTL, p.config.Channel, []byte(key)); err != nil {
		return "", err
	}
	return key, nil
}
