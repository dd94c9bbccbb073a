// Package infra contains infrastructure adapters for the spread context.
package infra

import (
	"context"
	"time"

	"github.com/sony/gobreaker/v2"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/fd1az/spread-analyzer/business/spread/app"
	"github.com/fd1az/spread-analyzer/business/spread/domain"
	"github.com/fd1az/spread-analyzer/internal/apm"
	"github.com/fd1az/spread-analyzer/internal/apperror"
	"github.com/fd1az/spread-analyzer/internal/circuitbreaker"
	"github.com/fd1az/spread-analyzer/internal/logger"
)

const tracerName = "github.com/fd1az/spread-analyzer/business/spread/infra"

// Bus is the subset of the Redis transport the source needs.
type Bus interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Subscribe(ctx context.Context, channel string) (<-chan []byte, error)
}

// RedisSourceConfig holds the channel and fetch settings.
type RedisSourceConfig struct {
	Channel      string
	FetchTimeout time.Duration
	Breaker      circuitbreaker.Config
}

// RedisSource receives update notifications over pub/sub and fetches
// snapshots with GET.
type RedisSource struct {
	bus    Bus
	config RedisSourceConfig
	cb     *circuitbreaker.CircuitBreaker[[]byte]
	tracer apm.Tracer
	logger logger.LoggerInterface
}

var (
	_ app.NotificationSource = (*RedisSource)(nil)
	_ app.SnapshotSource     = (*RedisSource)(nil)
)

// NewRedisSource creates a RedisSource.
func NewRedisSource(bus Bus, cfg RedisSourceConfig, log logger.LoggerInterface) *RedisSource {
	if cfg.Breaker.Name == "" {
		cfg.Breaker = circuitbreaker.DefaultConfig("redis-snapshots")
	}
	// a missing key is an answer, not a transport failure
	cfg.Breaker.IsSuccessful = func(err error) bool {
		return err == nil || snapshotMissing(err)
	}
	cfg.Breaker.OnStateChange = func(name string, from, to gobreaker.State) {
		log.Warn(context.Background(), "circuit breaker state change",
			"breaker", name, "from", from.String(), "to", to.String())
	}

	return &RedisSource{
		bus:    bus,
		config: cfg,
		cb:     circuitbreaker.New[[]byte](cfg.Breaker),
		tracer: apm.NewTracer(tracerName),
		logger: log,
	}
}

// Subscribe listens on the configured update channel.
func (s *RedisSource) Subscribe(ctx context.Context) (<-chan []byte, error) {
	ch, err := s.bus.Subscribe(ctx, s.config.Channel)
	if err != nil {
		return nil, err
	}
	s.logger.Info(ctx, "subscribed to order book updates", "channel", s.config.Channel)
	return ch, nil
}

// Fetch reads and decodes the snapshot stored under key.
func (s *RedisSource) Fetch(ctx context.Context, key string) (*domain.OrderBook, error) {
	return apm.Traced(ctx, s.tracer, "redis.fetch_snapshot", snapshotMissing,
		func(ctx context.Context, span apm.Span) (*domain.OrderBook, error) {
			data, err := s.cb.Execute(func() ([]byte, error) {
				fetchCtx := ctx
				if s.config.FetchTimeout > 0 {
					var cancel context.CancelFunc
					fetchCtx, cancel = context.WithTimeout(ctx, s.config.FetchTimeout)
					defer cancel()
				}
				return s.bus.Get(fetchCtx, key)
			})
			if err != nil {
				return nil, err
			}
			span.SetAttributes(attribute.Int("bytes", len(data)))
			return domain.DecodeOrderBook(key, data)
		},
		trace.WithAttributes(attribute.String("key", key)))
}

func snapshotMissing(err error) bool {
	return apperror.HasCode(err, apperror.CodeSnapshotMissing)
}
