// Package main is the entry point for the spread analyzer.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/fd1az/spread-analyzer/business/blockchain"
	blockchainDI "github.com/fd1az/spread-analyzer/business/blockchain/di"
	"github.com/fd1az/spread-analyzer/business/spread"
	spreadDI "github.com/fd1az/spread-analyzer/business/spread/di"
	"github.com/fd1az/spread-analyzer/internal/apm"
	"github.com/fd1az/spread-analyzer/internal/config"
	"github.com/fd1az/spread-analyzer/internal/health"
	"github.com/fd1az/spread-analyzer/internal/logger"
	"github.com/fd1az/spread-analyzer/internal/metrics"
	"github.com/fd1az/spread-analyzer/internal/monolith"
	"github.com/fd1az/spread-analyzer/pkg/ui"
)

var (
	version   = "dev"
	commit    = "none"
	buildDate = "unknown"
)

func main() {
	// Load .env file if present (ignore error if not found)
	_ = godotenv.Load()

	configPath := flag.String("config", "", "Path to configuration file")
	cliMode := flag.Bool("cli", false, "Run in CLI mode with logs (no TUI)")
	showVersion := flag.Bool("version", false, "Show version information")
	flag.Parse()

	if *showVersion {
		fmt.Printf("spread-analyzer %s (commit: %s, built: %s)\n", version, commit, buildDate)
		os.Exit(0)
	}

	tuiMode := !*cliMode

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		if !tuiMode {
			fmt.Fprintf(os.Stderr, "received shutdown signal: %v\n", sig)
		}
		cancel()
	}()

	if err := run(ctx, *configPath, tuiMode); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, configPath string, tuiMode bool) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	cfg.Analyzer.TUIMode = tuiMode

	// the dashboard owns the terminal, so logs are discarded in TUI mode
	var out io.Writer = os.Stderr
	if tuiMode {
		out = io.Discard
	}
	log := logger.New(out, logger.ParseLevel(cfg.App.LogLevel), cfg.App.Name, nil)
	log.Info(ctx, "starting spread analyzer",
		"version", version,
		"environment", cfg.App.Environment)

	stopTelemetry := setupTelemetry(ctx, cfg, log)
	defer stopTelemetry()

	if tuiMode {
		return runTUI(ctx, cfg, log)
	}
	return runCLI(ctx, cfg, log)
}

// setupTelemetry installs the trace and meter providers when enabled and
// returns their shutdown.
func setupTelemetry(ctx context.Context, cfg *config.Config, log *logger.Logger) func() {
	if !cfg.Telemetry.Enabled {
		return func() {}
	}

	tp, err := apm.NewTraceProvider(ctx, log, apm.Provider(cfg.Telemetry.TraceProvider), apm.ExporterConfig{
		ServiceName: cfg.Telemetry.ServiceName,
		Endpoint:    cfg.Telemetry.OTLPEndpoint,
		Headers:     apm.ParseHeaders(cfg.Telemetry.OTLPHeaders),
		Insecure:    cfg.Telemetry.Insecure,
	})
	if err == nil {
		log.Info(ctx, "tracing initialized", "provider", cfg.Telemetry.TraceProvider)
	}

	opts := []metrics.OptionFn{metrics.WithServiceName(cfg.Telemetry.ServiceName)}
	if cfg.Telemetry.PrometheusPort > 0 {
		opts = append(opts, metrics.WithProviderConfig(metrics.ProviderCfg{Provider: metrics.PrometheusProvider}))
	}
	if cfg.Telemetry.OTLPEndpoint != "" && cfg.Telemetry.TraceProvider == string(apm.OTLPGRPCProvider) {
		opts = append(opts, metrics.WithProviderConfig(metrics.NewOtelCollectorConfig(
			cfg.Telemetry.OTLPEndpoint, apm.ParseHeaders(cfg.Telemetry.OTLPHeaders), cfg.Telemetry.Insecure)))
	}

	mp, err := metrics.NewMetricProvider(ctx, opts...)
	if err != nil {
		log.Warn(ctx, "metrics disabled", "error", err)
	}

	var prom *metrics.PromServer
	if mp != nil && cfg.Telemetry.PrometheusPort > 0 {
		prom = metrics.NewPromServer(metrics.WithPort(strconv.Itoa(cfg.Telemetry.PrometheusPort)))
		go func() {
			if err := prom.Serve(); err != nil {
				log.Warn(ctx, "prometheus server stopped", "error", err)
			}
		}()
		log.Info(ctx, "prometheus metrics server started", "addr", prom.Addr())
	}

	return func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if prom != nil {
			_ = prom.Shutdown(shutdownCtx)
		}
		if mp != nil {
			_ = mp.Shutdown(shutdownCtx)
		}
		_ = tp.Stop()
	}
}

// startHealth serves the probes with a Redis ping and a working set check.
func startHealth(ctx context.Context, cfg *config.Config, log *logger.Logger, mono monolith.Monolith) *health.Server {
	if !cfg.Health.Enabled {
		return nil
	}

	srv := health.NewServer(cfg.Health.Port, version, log)
	srv.RegisterCheck("redis", func(ctx context.Context) (bool, string) {
		if err := mono.Redis().Ping(ctx); err != nil {
			return false, err.Error()
		}
		return true, "ok"
	})
	srv.RegisterCheck("books", func(ctx context.Context) (bool, string) {
		n := spreadDI.GetBookStore(mono.Services()).Len()
		return true, fmt.Sprintf("%d books held", n)
	})
	if cfg.Ethereum.Enabled {
		srv.RegisterCheck("gas", func(ctx context.Context) (bool, string) {
			usd, ok := blockchainDI.GetGasService(mono.Services()).LatestGasCostUSD()
			if !ok {
				return false, "no gas price yet"
			}
			return true, "$" + usd.StringFixed(2) + " per leg"
		})
	}
	srv.Start(ctx)
	log.Info(ctx, "health server started", "port", cfg.Health.Port)
	return srv
}

// start connects Redis, registers the modules and starts them in dependency
// order. The returned monolith must be closed by the caller.
func start(ctx context.Context, cfg *config.Config, log *logger.Logger) (monolith.Monolith, func(), error) {
	mono, err := monolith.New(ctx, cfg, log)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create monolith: %w", err)
	}

	modules := []monolith.Module{
		&blockchain.Module{}, // gas feed for on-chain venues
		&spread.Module{},     // detector, depends on blockchain
	}

	if err := mono.RegisterModules(modules...); err != nil {
		mono.Close()
		return nil, nil, fmt.Errorf("failed to register modules: %w", err)
	}

	hs := startHealth(ctx, cfg, log, mono)

	if err := mono.StartModules(ctx, modules...); err != nil {
		if hs != nil {
			_ = hs.Stop(context.Background())
		}
		mono.Close()
		return nil, nil, fmt.Errorf("failed to start modules: %w", err)
	}

	stop := func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := spreadDI.GetDetector(mono.Services()).Stop(); err != nil {
			log.Error(shutdownCtx, "error stopping detector", "error", err)
		}
		if cfg.Ethereum.Enabled {
			blockchainDI.GetGasService(mono.Services()).Stop()
			if c, ok := blockchainDI.GetGasOracle(mono.Services()).(io.Closer); ok {
				_ = c.Close()
			}
		}
		if hs != nil {
			_ = hs.Stop(shutdownCtx)
		}
		mono.Close()
	}
	return mono, stop, nil
}

func runCLI(ctx context.Context, cfg *config.Config, log *logger.Logger) error {
	mono, stop, err := start(ctx, cfg, log)
	if err != nil {
		return err
	}

	log.Info(ctx, "all modules started, waiting for order book updates")

	select {
	case <-ctx.Done():
	case <-spreadDI.GetDetector(mono.Services()).Done():
		log.Warn(ctx, "update subscription closed")
	}

	log.Info(ctx, "shutting down")
	stop()
	return nil
}

func runTUI(ctx context.Context, cfg *config.Config, log *logger.Logger) error {
	startSignal := make(chan struct{}, 1)
	ui.OnStartModules = func() {
		select {
		case startSignal <- struct{}{}:
		default:
		}
	}

	errCh := make(chan error, 1)
	go func() {
		select {
		case <-startSignal:
		case <-ctx.Done():
			errCh <- nil
			return
		}

		ui.Send(ui.StartupMsg{Step: "config", Status: "done"})
		ui.Send(ui.StartupMsg{Step: "redis", Status: "connecting"})
		if cfg.Ethereum.Enabled {
			ui.Send(ui.StartupMsg{Step: "ethereum", Status: "connecting"})
		} else {
			ui.Send(ui.StartupMsg{Step: "ethereum", Status: "done"})
		}

		_, stop, err := start(ctx, cfg, log)
		if err != nil {
			ui.Send(ui.StartupMsg{Step: "redis", Status: "failed"})
			ui.Send(ui.ErrorMsg{Error: err})
			errCh <- err
			return
		}

		<-ctx.Done()
		stop()
		ui.Quit()
		errCh <- nil
	}()

	if err := ui.Run(); err != nil {
		return fmt.Errorf("TUI error: %w", err)
	}

	select {
	case err := <-errCh:
		return err
	default:
		return nil
	}
}
