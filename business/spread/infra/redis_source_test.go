package infra

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"

	"github.com/fd1az/spread-analyzer/internal/apperror"
	"github.com/fd1az/spread-analyzer/internal/circuitbreaker"
	"github.com/fd1az/spread-analyzer/internal/logger"
	"github.com/fd1az/spread-analyzer/internal/redisbus"
)

type fakeBus struct {
	values  map[string][]byte
	getErr  error
	gets    int
	subErr  error
	channel string
}

func (b *fakeBus) Get(ctx context.Context, key string) ([]byte, error) {
	b.gets++
	if b.getErr != nil {
		return nil, b.getErr
	}
	v, ok := b.values[key]
	if !ok {
		return nil, apperror.NotFound(apperror.CodeSnapshotMissing, key)
	}
	return v, nil
}

func (b *fakeBus) Subscribe(ctx context.Context, channel string) (<-chan []byte, error) {
	b.channel = channel
	if b.subErr != nil {
		return nil, b.subErr
	}
	return make(chan []byte), nil
}

func newTestSource(bus Bus) *RedisSource {
	cfg := RedisSourceConfig{
		Channel:      "orderbook_updates",
		FetchTimeout: time.Second,
		Breaker:      circuitbreaker.DefaultConfig("test"),
	}
	cfg.Breaker.FailureThreshold = 3
	cfg.Breaker.Timeout = time.Hour
	return NewRedisSource(bus, cfg, logger.New(io.Discard, logger.LevelInfo, "test", nil))
}

func TestRedisSource_Fetch(t *testing.T) {
	bus := &fakeBus{values: map[string][]byte{
		"orderbook:binance:BTCUSDT": []byte(`{"exchange":"binance","pair":"BTCUSDT","bids":[[30000,1]],"asks":[[30001,2]],"timestamp":5}`),
		"orderbook:bad":             []byte(`{"exchange":`),
	}}
	src := newTestSource(bus)
	ctx := context.Background()

	book, err := src.Fetch(ctx, "orderbook:binance:BTCUSDT")
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	if book.Key() != "binance:BTCUSDT" || len(book.Asks) != 1 {
		t.Errorf("book = %+v", book)
	}

	if _, err := src.Fetch(ctx, "orderbook:bad"); !apperror.HasCode(err, apperror.CodeInvalidOrderbook) {
		t.Errorf("malformed error = %v", err)
	}
	if _, err := src.Fetch(ctx, "orderbook:none"); !apperror.HasCode(err, apperror.CodeSnapshotMissing) {
		t.Errorf("missing error = %v", err)
	}
}

func TestRedisSource_MissingKeysDoNotTripBreaker(t *testing.T) {
	src := newTestSource(&fakeBus{values: map[string][]byte{}})

	for i := 0; i < 10; i++ {
		_, err := src.Fetch(context.Background(), "orderbook:none")
		if !apperror.HasCode(err, apperror.CodeSnapshotMissing) {
			t.Fatalf("attempt %d: error = %v", i, err)
		}
	}
}

func TestRedisSource_BreakerOpens(t *testing.T) {
	bus := &fakeBus{getErr: apperror.External(apperror.CodeSnapshotFetchFailed, "k", errors.New("i/o timeout"))}
	src := newTestSource(bus)

	for i := 0; i < 3; i++ {
		if _, err := src.Fetch(context.Background(), "k"); !apperror.HasCode(err, apperror.CodeSnapshotFetchFailed) {
			t.Fatalf("attempt %d: error = %v", i, err)
		}
	}

	_, err := src.Fetch(context.Background(), "k")
	if !apperror.HasCode(err, apperror.CodeCircuitOpen) {
		t.Fatalf("error = %v, want %s", err, apperror.CodeCircuitOpen)
	}
	if bus.gets != 3 {
		t.Errorf("open breaker still reached redis: %d gets", bus.gets)
	}
}

func TestRedisSource_Subscribe(t *testing.T) {
	bus := &fakeBus{}
	src := newTestSource(bus)

	if _, err := src.Subscribe(context.Background()); err != nil {
		t.Fatalf("Subscribe() error = %v", err)
	}
	if bus.channel != "orderbook_updates" {
		t.Errorf("channel = %q", bus.channel)
	}

	bus.subErr = apperror.New(apperror.CodeSubscribeFailed)
	if _, err := src.Subscribe(context.Background()); !apperror.HasCode(err, apperror.CodeSubscribeFailed) {
		t.Errorf("error = %v", err)
	}
}

func TestRedisSource_RedisMissingKeysKeepBreakerClosed(t *testing.T) {
	srv := miniredis.RunT(t)
	bus, err := redisbus.New(context.Background(), redisbus.ClientConfig{Addr: srv.Addr(), MaxRetries: -1})
	if err != nil {
		t.Fatalf("redisbus.New() error = %v", err)
	}
	t.Cleanup(func() { _ = bus.Close() })

	src := newTestSource(bus)
	ctx := context.Background()

	for i := 0; i < 10; i++ {
		if _, err := src.Fetch(ctx, "orderbook:kraken:BTCUSDT"); !apperror.HasCode(err, apperror.CodeSnapshotMissing) {
			t.Fatalf("attempt %d: error = %v, want %s", i, err, apperror.CodeSnapshotMissing)
		}
	}

	key := "orderbook:binance:BTCUSDT"
	if err := srv.Set(key, `{"exchange":"binance","pair":"BTCUSDT","bids":[[30000,1]],"asks":[[30001,2]],"timestamp":5}`); err != nil {
		t.Fatalf("seed: %v", err)
	}
	book, err := src.Fetch(ctx, key)
	if err != nil {
		t.Fatalf("Fetch() after misses error = %v", err)
	}
	if book.Key() != "binance:BTCUSDT" {
		t.Errorf("book key = %s", book.Key())
	}
}
