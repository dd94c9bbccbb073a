// Package main is the entry point for the Binance depth feeder. It streams
// partial depth from Binance and publishes snapshots for the analyzer.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/fd1az/spread-analyzer/business/market"
	marketDI "github.com/fd1az/spread-analyzer/business/market/di"
	"github.com/fd1az/spread-analyzer/internal/config"
	"github.com/fd1az/spread-analyzer/internal/health"
	"github.com/fd1az/spread-analyzer/internal/logger"
	"github.com/fd1az/spread-analyzer/internal/metrics"
	"github.com/fd1az/spread-analyzer/internal/monolith"
)

var (
	version   = "dev"
	commit    = "none"
	buildDate = "unknown"
)

func main() {
	_ = godotenv.Load()

	configPath := flag.String("config", "", "Path to configuration file")
	showVersion := flag.Bool("version", false, "Show version information")
	flag.Parse()

	if *showVersion {
		fmt.Printf("spread-feeder %s (commit: %s, built: %s)\n", version, commit, buildDate)
		os.Exit(0)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, *configPath); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if err := cfg.ValidateFeeder(); err != nil {
		return fmt.Errorf("invalid feeder config: %w", err)
	}

	log := logger.New(os.Stderr, logger.ParseLevel(cfg.App.LogLevel), cfg.App.Name+"-feeder", nil)
	log.Info(ctx, "starting depth feeder",
		"version", version,
		"exchange", cfg.Feeder.Exchange,
		"symbols", cfg.Feeder.Symbols)

	if cfg.Telemetry.Enabled && cfg.Telemetry.PrometheusPort > 0 {
		mp, err := metrics.NewMetricProvider(ctx,
			metrics.WithServiceName(cfg.Telemetry.ServiceName+"-feeder"),
			metrics.WithProviderConfig(metrics.ProviderCfg{Provider: metrics.PrometheusProvider}))
		if err != nil {
			log.Warn(ctx, "metrics disabled", "error", err)
		} else {
			defer mp.Shutdown(context.Background())
			prom := metrics.NewPromServer(metrics.WithPort(strconv.Itoa(cfg.Telemetry.PrometheusPort)))
			go func() {
				if err := prom.Serve(); err != nil {
					log.Warn(ctx, "prometheus server stopped", "error", err)
				}
			}()
			defer prom.Shutdown(context.Background())
		}
	}

	mono, err := monolith.New(ctx, cfg, log)
	if err != nil {
		return fmt.Errorf("failed to create monolith: %w", err)
	}
	defer mono.Close()

	modules := []monolith.Module{&market.Module{}}
	if err := mono.RegisterModules(modules...); err != nil {
		return fmt.Errorf("failed to register modules: %w", err)
	}

	client := marketDI.GetBinanceClient(mono.Services())
	defer client.Close()

	if cfg.Health.Enabled {
		hs := health.NewServer(cfg.Health.Port, version, log)
		hs.RegisterCheck("redis", func(ctx context.Context) (bool, string) {
			if err := mono.Redis().Ping(ctx); err != nil {
				return false, err.Error()
			}
			return true, "ok"
		})
		hs.RegisterCheck("binance", func(ctx context.Context) (bool, string) {
			if !client.IsConnected() {
				return false, "stream disconnected"
			}
			return true, "connected"
		})
		hs.Start(ctx)
		defer hs.Stop(context.Background())
	}

	if err := mono.StartModules(ctx, modules...); err != nil {
		return fmt.Errorf("failed to start modules: %w", err)
	}

	feeder := marketDI.GetFeeder(mono.Services())
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Info(context.Background(), "shutting down",
				"published", feeder.Published(),
				"throttled", feeder.Throttled())
			return nil
		case <-ticker.C:
			log.Info(ctx, "feeder stats",
				"published", feeder.Published(),
				"throttled", feeder.Throttled(),
				"connected", client.IsConnected())
		}
	}
}
