// Package blockchain implements the blockchain bounded context: the live gas
// cost of on-chain venues.
package blockchain

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/fd1az/spread-analyzer/business/blockchain/app"
	blockchainDI "github.com/fd1az/spread-analyzer/business/blockchain/di"
	"github.com/fd1az/spread-analyzer/business/blockchain/domain"
	"github.com/fd1az/spread-analyzer/business/blockchain/infra/ethereum"
	spreadDI "github.com/fd1az/spread-analyzer/business/spread/di"
	"github.com/fd1az/spread-analyzer/internal/config"
	"github.com/fd1az/spread-analyzer/internal/di"
	"github.com/fd1az/spread-analyzer/internal/logger"
	"github.com/fd1az/spread-analyzer/internal/monolith"
)

// gasReporter is implemented by reporters that display the live gas cost.
type gasReporter interface {
	ReportGasCost(venue string, usd float64)
}

// Module implements the blockchain bounded context.
type Module struct{}

// RegisterServices registers all blockchain services with the DI container.
func (m *Module) RegisterServices(c di.Container) error {
	di.RegisterToken(c, blockchainDI.GasOracle, func(sr di.ServiceRegistry) app.GasOracle {
		cfg := sr.Get("config").(*config.Config)
		log := sr.Get("logger").(logger.LoggerInterface)

		oracleCfg := ethereum.DefaultGasOracleConfig(cfg.Ethereum.HTTPURL)
		if cfg.Ethereum.CacheTTL > 0 {
			oracleCfg.CacheTTL = cfg.Ethereum.CacheTTL
		}
		if cfg.Ethereum.MaxGasPriceGwei > 0 {
			oracleCfg.MaxGasPrice = domain.GweiToWei(cfg.Ethereum.MaxGasPriceGwei)
		}

		oracle, err := ethereum.NewGasOracle(oracleCfg, log)
		if err != nil {
			panic("failed to create gas oracle: " + err.Error())
		}
		return oracle
	})

	di.RegisterToken(c, blockchainDI.GasService, func(sr di.ServiceRegistry) *app.GasService {
		cfg := sr.Get("config").(*config.Config)
		log := sr.Get("logger").(logger.LoggerInterface)

		return app.NewGasService(
			blockchainDI.GetGasOracle(sr),
			spreadDI.GetBookStore(sr),
			app.GasServiceConfig{
				Venue:           cfg.Ethereum.OnChainVenue,
				GasLimit:        cfg.Ethereum.GasLimit,
				RefreshInterval: cfg.Ethereum.RefreshInterval,
				ETHPriceBook:    cfg.Ethereum.ETHPriceBook,
				ETHPriceUSD:     decimal.NewFromFloat(cfg.Ethereum.ETHPriceUSD),
			},
			log,
		)
	})

	return nil
}

// Startup connects the gas oracle and starts the refresh loop. It does
// nothing when the gas feed is disabled; a failed dial leaves the static
// schedule value in place.
func (m *Module) Startup(ctx context.Context, mono monolith.Monolith) error {
	log := mono.Logger()
	cfg := mono.Config()

	if !cfg.Ethereum.Enabled {
		log.Info(ctx, "blockchain module disabled, using static gas costs")
		return nil
	}

	reporter := spreadDI.GetReporter(mono.Services())
	oracle := blockchainDI.GetGasOracle(mono.Services())
	if connector, ok := oracle.(interface{ Connect(context.Context) error }); ok {
		started := time.Now()
		if err := connector.Connect(ctx); err != nil {
			reporter.UpdateConnectionStatus("Ethereum", false, 0)
			log.Error(ctx, "failed to connect gas oracle", "error", err)
			return nil
		}
		reporter.UpdateConnectionStatus("Ethereum", true, time.Since(started))
	}

	gas := blockchainDI.GetGasService(mono.Services())
	if r, ok := reporter.(gasReporter); ok {
		gas.OnUpdate(func(cost *domain.GasCost) {
			r.ReportGasCost(gas.Venue(), cost.USD.InexactFloat64())
		})
	}
	gas.Start(ctx)

	log.Info(ctx, "blockchain module started",
		"venue", cfg.Ethereum.OnChainVenue,
		"gas_limit", cfg.Ethereum.GasLimit,
		"refresh_interval", cfg.Ethereum.RefreshInterval.String())
	return nil
}
