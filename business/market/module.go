// Package market implements the market data bounded context: it streams
// Binance depth and publishes order book snapshots to Redis.
package market

import (
	"context"

	"github.com/fd1az/spread-analyzer/business/market/app"
	marketDI "github.com/fd1az/spread-analyzer/business/market/di"
	"github.com/fd1az/spread-analyzer/business/market/infra"
	"github.com/fd1az/spread-analyzer/business/market/infra/binance"
	"github.com/fd1az/spread-analyzer/internal/config"
	"github.com/fd1az/spread-analyzer/internal/di"
	"github.com/fd1az/spread-analyzer/internal/logger"
	"github.com/fd1az/spread-analyzer/internal/monolith"
	"github.com/fd1az/spread-analyzer/internal/redisbus"
)

// Module implements the market bounded context.
type Module struct{}

// RegisterServices registers all market services with the DI container.
func (m *Module) RegisterServices(c di.Container) error {
	di.RegisterToken(c, marketDI.BinanceClient, func(sr di.ServiceRegistry) *binance.Client {
		cfg := sr.Get("config").(*config.Config)
		log := sr.Get("logger").(logger.LoggerInterface)

		clientCfg := binance.DefaultClientConfig(cfg.Feeder.Symbols)
		if cfg.Feeder.WebSocketURL != "" {
			clientCfg.BaseURL = cfg.Feeder.WebSocketURL
		}
		if cfg.Feeder.Depth > 0 {
			clientCfg.Depth = cfg.Feeder.Depth
		}
		if cfg.Feeder.DepthSpeedMs > 0 {
			clientCfg.DepthSpeedMs = cfg.Feeder.DepthSpeedMs
		}
		if cfg.Feeder.ReadTimeout > 0 {
			clientCfg.ReadTimeout = cfg.Feeder.ReadTimeout
		}

		client, err := binance.NewClient(clientCfg, log)
		if err != nil {
			panic("failed to create binance client: " + err.Error())
		}
		return client
	})

	di.RegisterToken(c, marketDI.RESTClient, func(sr di.ServiceRegistry) *binance.RESTClient {
		cfg := sr.Get("config").(*config.Config)

		client, err := binance.NewRESTClient(cfg.Feeder.RESTURL, cfg.Feeder.RESTTimeout, cfg.Feeder.Depth)
		if err != nil {
			panic("failed to create binance rest client: " + err.Error())
		}
		return client
	})

	di.RegisterToken(c, marketDI.Publisher, func(sr di.ServiceRegistry) *infra.RedisPublisher {
		cfg := sr.Get("config").(*config.Config)
		bus := sr.Get("redis").(*redisbus.Client)

		return infra.NewRedisPublisher(bus, infra.RedisPublisherConfig{
			KeyPrefix:   cfg.Redis.KeyPrefix,
			Channel:     cfg.Redis.Channel,
			SnapshotTTL: cfg.Redis.SnapshotTTL,
		})
	})

	di.RegisterToken(c, marketDI.Feeder, func(sr di.ServiceRegistry) *app.Feeder {
		cfg := sr.Get("config").(*config.Config)
		log := sr.Get("logger").(logger.LoggerInterface)

		feeder, err := app.NewFeeder(app.FeederConfig{
			Exchange:    cfg.Feeder.Exchange,
			Depth:       cfg.Feeder.Depth,
			PublishRate: cfg.Feeder.PublishRate,
		}, marketDI.GetPublisher(sr), log)
		if err != nil {
			panic("failed to create feeder: " + err.Error())
		}
		return feeder
	})

	return nil
}

// Startup optionally seeds every symbol over REST, then attaches the feeder
// to the Binance stream and connects. It blocks until the first connection
// succeeds or ctx ends.
func (m *Module) Startup(ctx context.Context, mono monolith.Monolith) error {
	log := mono.Logger()
	cfg := mono.Config()

	client := marketDI.GetBinanceClient(mono.Services())
	feeder := marketDI.GetFeeder(mono.Services())

	feeder.Attach(client)
	client.OnConnectionChange(func(connected bool) {
		log.Info(context.Background(), "binance stream state", "connected", connected)
	})

	if cfg.Feeder.SeedOnStart {
		n := feeder.Seed(ctx, marketDI.GetRESTClient(mono.Services()), cfg.Feeder.Symbols)
		log.Info(ctx, "seeded order books", "symbols", n)
	}

	if err := client.Connect(ctx); err != nil {
		return err
	}

	log.Info(ctx, "market module started",
		"exchange", cfg.Feeder.Exchange,
		"symbols", cfg.Feeder.Symbols,
		"channel", cfg.Redis.Channel,
		"key_prefix", cfg.Redis.KeyPrefix)
	return nil
}
