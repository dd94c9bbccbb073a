package app

import (
	"context"
	"fmt"
	"sync/atomic"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/fd1az/spread-analyzer/business/spread/domain"
	"github.com/fd1az/spread-analyzer/internal/logger"
	"github.com/fd1az/spread-analyzer/internal/ratelimit"
)

const meterName = "github.com/fd1az/spread-analyzer/business/market"

// FeederConfig holds the publishing settings.
type FeederConfig struct {
	Exchange    string  // exchange name written into every snapshot
	Depth       int     // levels kept per side
	PublishRate float64 // snapshots per second per symbol, <= 0 means unlimited
}

type feederMetrics struct {
	published metric.Int64Counter
	throttled metric.Int64Counter
	failed    metric.Int64Counter
}

// Feeder turns depth events into order book snapshots and publishes them.
type Feeder struct {
	config    FeederConfig
	publisher SnapshotPublisher
	limiter   *ratelimit.Keyed
	logger    logger.LoggerInterface
	metrics   *feederMetrics

	published atomic.Uint64
	throttled atomic.Uint64
}

// NewFeeder creates a Feeder.
func NewFeeder(cfg FeederConfig, publisher SnapshotPublisher, log logger.LoggerInterface) (*Feeder, error) {
	if cfg.Depth < 1 {
		cfg.Depth = 20
	}

	m, err := newFeederMetrics()
	if err != nil {
		return nil, fmt.Errorf("init metrics: %w", err)
	}

	return &Feeder{
		config:    cfg,
		publisher: publisher,
		limiter:   ratelimit.NewKeyed(cfg.PublishRate, 1),
		logger:    log,
		metrics:   m,
	}, nil
}

func newFeederMetrics() (*feederMetrics, error) {
	meter := otel.Meter(meterName)
	var err error
	m := &feederMetrics{}

	m.published, err = meter.Int64Counter("feeder_snapshots_published_total",
		metric.WithDescription("Snapshots written and announced"))
	if err != nil {
		return nil, err
	}

	m.throttled, err = meter.Int64Counter("feeder_snapshots_throttled_total",
		metric.WithDescription("Snapshots skipped by the per-symbol rate limit"))
	if err != nil {
		return nil, err
	}

	m.failed, err = meter.Int64Counter("feeder_publish_errors_total",
		metric.WithDescription("Snapshots that could not be published"))
	if err != nil {
		return nil, err
	}
	return m, nil
}

// Attach registers the feeder as the depth handler of src.
func (f *Feeder) Attach(src DepthSource) {
	src.OnDepth(f.HandleDepth)
}

// BuildOrderBook converts a depth event into the shared snapshot format.
// The update id stands in for the timestamp.
func (f *Feeder) BuildOrderBook(ev DepthEvent) *domain.OrderBook {
	return &domain.OrderBook{
		Exchange:  f.config.Exchange,
		Pair:      ev.Symbol,
		Bids:      truncate(ev.Bids, f.config.Depth),
		Asks:      truncate(ev.Asks, f.config.Depth),
		Timestamp: ev.UpdateID,
	}
}

// HandleDepth publishes the event unless its symbol is over the rate limit.
// Failures are logged; the stream keeps going.
func (f *Feeder) HandleDepth(ctx context.Context, ev DepthEvent) {
	attrs := metric.WithAttributes(attribute.String("symbol", ev.Symbol))

	if !f.limiter.Allow(ev.Symbol) {
		f.throttled.Add(1)
		f.metrics.throttled.Add(ctx, 1, attrs)
		return
	}

	book := f.BuildOrderBook(ev)
	key, err := f.publisher.Publish(ctx, book)
	if err != nil {
		f.metrics.failed.Add(ctx, 1, attrs)
		f.logger.Error(ctx, "publish snapshot failed", "symbol", ev.Symbol, "error", err)
		return
	}

	f.published.Add(1)
	f.metrics.published.Add(ctx, 1, attrs)
	f.logger.Debug(ctx, "snapshot published",
		"key", key,
		"bids", len(book.Bids),
		"asks", len(book.Asks),
		"update_id", ev.UpdateID)
}

// Seed publishes one fetched snapshot per symbol so the analyzer has books
// before the stream delivers. Seeds bypass the rate limit. It returns how
// many symbols were seeded; failures are logged and skipped.
func (f *Feeder) Seed(ctx context.Context, src DepthSnapshotter, symbols []string) int {
	seeded := 0
	for _, sym := range symbols {
		ev, err := src.Snapshot(ctx, sym)
		if err != nil {
			f.logger.Warn(ctx, "depth seed failed", "symbol", sym, "error", err)
			continue
		}
		if _, err := f.publisher.Publish(ctx, f.BuildOrderBook(ev)); err != nil {
			f.metrics.failed.Add(ctx, 1, metric.WithAttributes(attribute.String("symbol", sym)))
			f.logger.Error(ctx, "publish seed failed", "symbol", sym, "error", err)
			continue
		}
		f.published.Add(1)
		seeded++
	}
	return seeded
}

// Published returns how many snapshots were published.
func (f *Feeder) Published() uint64 {
	return f.published.Load()
}

// Throttled returns how many snapshots the rate limit skipped.
func (f *Feeder) Throttled() uint64 {
	return f.throttled.Load()
}

func truncate(levels []domain.Level, n int) []domain.Level {
	if len(levels) > n {
		levels = levels[:n]
	}
	out := make([]domain.Level, len(levels))
	copy(out, levels)
	return out
}
