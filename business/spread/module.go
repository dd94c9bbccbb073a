// Package spread implements the cross-exchange spread detection bounded context.
package spread

import (
	"context"
	"strings"

	"github.com/shopspring/decimal"

	blockchainDI "github.com/fd1az/spread-analyzer/business/blockchain/di"
	"github.com/fd1az/spread-analyzer/business/spread/app"
	spreadDI "github.com/fd1az/spread-analyzer/business/spread/di"
	"github.com/fd1az/spread-analyzer/business/spread/domain"
	"github.com/fd1az/spread-analyzer/business/spread/infra"
	"github.com/fd1az/spread-analyzer/internal/circuitbreaker"
	"github.com/fd1az/spread-analyzer/internal/config"
	"github.com/fd1az/spread-analyzer/internal/di"
	"github.com/fd1az/spread-analyzer/internal/logger"
	"github.com/fd1az/spread-analyzer/internal/monolith"
	"github.com/fd1az/spread-analyzer/internal/redisbus"
)

// Module implements the spread bounded context.
type Module struct{}

// RegisterServices registers all spread services with the DI container.
func (m *Module) RegisterServices(c di.Container) error {
	di.RegisterToken(c, spreadDI.Normalizer, func(sr di.ServiceRegistry) *domain.PairNormalizer {
		cfg := sr.Get("config").(*config.Config)
		return pairNormalizer(cfg.Analyzer)
	})

	di.RegisterToken(c, spreadDI.BookStore, func(sr di.ServiceRegistry) *app.BookStore {
		return app.NewBookStore(spreadDI.GetNormalizer(sr))
	})

	di.RegisterToken(c, spreadDI.Evaluator, func(sr di.ServiceRegistry) *app.OpportunityEvaluator {
		cfg := sr.Get("config").(*config.Config)

		fees, err := domain.NewFeeModel(feeSchedule(cfg.Fees), spreadDI.GetNormalizer(sr))
		if err != nil {
			panic("failed to create fee model: " + err.Error())
		}
		return app.NewOpportunityEvaluator(fees, sizingPolicy(cfg.Analyzer), app.Thresholds{
			MinAbsoluteProfit: decimal.NewFromFloat(cfg.Analyzer.MinAbsoluteProfit),
			MinROIPercentage:  decimal.NewFromFloat(cfg.Analyzer.MinROIPercentage),
		})
	})

	di.RegisterToken(c, spreadDI.Analyzer, func(sr di.ServiceRegistry) *app.SpreadAnalyzer {
		cfg := sr.Get("config").(*config.Config)
		log := sr.Get("logger").(logger.LoggerInterface)

		return app.NewSpreadAnalyzer(
			spreadDI.GetBookStore(sr),
			spreadDI.GetNormalizer(sr),
			spreadDI.GetEvaluator(sr),
			app.AnalyzerConfig{
				Workers:           cfg.Analyzer.ScanWorkers,
				TargetedBothSides: cfg.Analyzer.TargetedBothSides,
			},
			log,
		)
	})

	di.RegisterToken(c, spreadDI.RedisSource, func(sr di.ServiceRegistry) *infra.RedisSource {
		cfg := sr.Get("config").(*config.Config)
		log := sr.Get("logger").(logger.LoggerInterface)
		bus := sr.Get("redis").(*redisbus.Client)

		return infra.NewRedisSource(bus, infra.RedisSourceConfig{
			Channel:      cfg.Redis.Channel,
			FetchTimeout: cfg.Redis.FetchTimeout,
			Breaker:      circuitbreaker.DefaultConfig("redis-snapshots"),
		}, log)
	})

	di.RegisterToken(c, spreadDI.Reporter, func(sr di.ServiceRegistry) app.Reporter {
		cfg := sr.Get("config").(*config.Config)
		if cfg.Analyzer.TUIMode {
			return infra.NewTUIReporter(nil)
		}
		return infra.NewConsoleReporter(nil)
	})

	di.RegisterToken(c, spreadDI.Detector, func(sr di.ServiceRegistry) *app.Detector {
		cfg := sr.Get("config").(*config.Config)
		log := sr.Get("logger").(logger.LoggerInterface)
		source := spreadDI.GetRedisSource(sr)

		var gas app.GasCostSource
		if cfg.Ethereum.Enabled {
			gas = blockchainDI.GetGasService(sr)
		}

		detector, err := app.NewDetector(
			source,
			source,
			spreadDI.GetAnalyzer(sr),
			spreadDI.GetReporter(sr),
			gas,
			app.DetectorConfig{
				FullScanInterval: cfg.Analyzer.FullScanInterval,
				SourceName:       "Redis",
			},
			log,
		)
		if err != nil {
			panic("failed to create detector: " + err.Error())
		}
		return detector
	})

	return nil
}

// Startup subscribes the detector. A subscription failure stops the process.
func (m *Module) Startup(ctx context.Context, mono monolith.Monolith) error {
	log := mono.Logger()
	cfg := mono.Config()

	detector := spreadDI.GetDetector(mono.Services())
	if err := detector.Start(ctx); err != nil {
		return err
	}

	log.Info(ctx, "spread module started",
		"channel", cfg.Redis.Channel,
		"full_scan_interval", cfg.Analyzer.FullScanInterval,
		"min_profit", cfg.Analyzer.MinAbsoluteProfit,
		"min_roi", cfg.Analyzer.MinROIPercentage)
	return nil
}

func pairNormalizer(cfg config.AnalyzerConfig) *domain.PairNormalizer {
	if len(cfg.WrappedAssets) == 0 {
		return domain.DefaultPairNormalizer()
	}
	adj := decimal.NewFromFloat(cfg.WrappedPriceAdjustment)
	if !adj.IsPositive() {
		adj = domain.DefaultWrappedPriceAdjustment
	}
	return domain.NewPairNormalizer(cfg.WrappedAssets, adj)
}

func feeSchedule(cfg config.FeesConfig) domain.FeeSchedule {
	if len(cfg.Venues) == 0 {
		s := domain.DefaultFeeSchedule()
		s.UseMarketOrders = cfg.UseMarketOrders
		return s
	}

	s := domain.FeeSchedule{
		Venues:            make(map[string]domain.VenueFee, len(cfg.Venues)),
		DefaultFeePercent: decimal.NewFromFloat(cfg.DefaultFeePercent),
		WithdrawalFees:    make(map[string]decimal.Decimal, len(cfg.WithdrawalFees)),
		UseMarketOrders:   cfg.UseMarketOrders,
	}
	for venue, v := range cfg.Venues {
		s.Venues[strings.ToLower(venue)] = domain.VenueFee{
			TakerPercent: decimal.NewFromFloat(v.TakerPercent),
			MakerPercent: decimal.NewFromFloat(v.MakerPercent),
			GasCostUSD:   decimal.NewFromFloat(v.GasCostUSD),
		}
	}
	for asset, fee := range cfg.WithdrawalFees {
		s.WithdrawalFees[strings.ToUpper(asset)] = decimal.NewFromFloat(fee)
	}
	return s
}

func sizingPolicy(cfg config.AnalyzerConfig) domain.SizingPolicy {
	p := domain.DefaultSizingPolicy()
	if cfg.MaxNotionalUSD > 0 {
		p.MaxNotionalUSD = decimal.NewFromFloat(cfg.MaxNotionalUSD)
	}
	if cfg.DefaultReferencePrice > 0 {
		p.DefaultReferencePrice = decimal.NewFromFloat(cfg.DefaultReferencePrice)
	}
	if len(cfg.ReferencePrices) > 0 {
		p.ReferencePrices = make(map[string]decimal.Decimal, len(cfg.ReferencePrices))
		for asset, price := range cfg.ReferencePrices {
			p.ReferencePrices[strings.ToUpper(asset)] = decimal.NewFromFloat(price)
		}
	}
	return p
}
