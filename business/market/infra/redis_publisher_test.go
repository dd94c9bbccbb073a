package infra

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/fd1az/spread-analyzer/business/spread/domain"
)

type setCall struct {
	key          string
	value        []byte
	ttl          time.Duration
	channel      string
	notification string
}

type fakeBus struct {
	calls []setCall
	err   error
}

func (b *fakeBus) SetAndPublish(ctx context.Context, key string, value []byte, ttl time.Duration, channel string, notification []byte) error {
	if b.err != nil {
		return b.err
	}
	b.calls = append(b.calls, setCall{key, value, ttl, channel, string(notification)})
	return nil
}

func testBook() *domain.OrderBook {
	return &domain.OrderBook{
		Exchange:  "binance",
		Pair:      "BTCUSDT",
		Bids:      []domain.Level{domain.NewLevel(decimal.RequireFromString("30000.5"), decimal.RequireFromString("1.2"))},
		Asks:      []domain.Level{domain.NewLevel(decimal.RequireFromString("30001"), decimal.RequireFromString("0.4"))},
		Timestamp: 42,
	}
}

func TestRedisPublisher_Publish(t *testing.T) {
	bus := &fakeBus{}
	p := NewRedisPublisher(bus, RedisPublisherConfig{
		KeyPrefix:   "orderbook:",
		Channel:     "orderbook_updates",
		SnapshotTTL: 30 * time.Second,
	})

	key, err := p.Publish(context.Background(), testBook())
	if err != nil {
		t.Fatalf("Publish() error = %v", err)
	}
	if key != "orderbook:binance:BTCUSDT" {
		t.Errorf("key = %q", key)
	}
	if len(bus.calls) != 1 {
		t.Fatalf("calls = %d, want 1", len(bus.calls))
	}

	call := bus.calls[0]
	if call.key != key || call.notification != key {
		t.Errorf("key/notification = %q/%q, want %q", call.key, call.notification, key)
	}
	if call.channel != "orderbook_updates" {
		t.Errorf("channel = %q", call.channel)
	}
	if call.ttl != 30*time.Second {
		t.Errorf("ttl = %v", call.ttl)
	}

	var got domain.OrderBook
	if err := json.Unmarshal(call.value, &got); err != nil {
		t.Fatalf("stored value does not decode: %v", err)
	}
	if got.Key() != "binance:BTCUSDT" || got.Timestamp != 42 {
		t.Errorf("decoded book = %+v", got)
	}
	if !got.Bids[0].Price.Equal(decimal.RequireFromString("30000.5")) {
		t.Errorf("best bid = %s", got.Bids[0].Price)
	}
}

func TestRedisPublisher_PublishError(t *testing.T) {
	bus := &fakeBus{err: errors.New("redis down")}
	p := NewRedisPublisher(bus, RedisPublisherConfig{KeyPrefix: "orderbook:", Channel: "c"})

	key, err := p.Publish(context.Background(), testBook())
	if err == nil {
		t.Fatal("expected error")
	}
	if key != "" {
		t.Errorf("key = %q, want empty", key)
	}
}
