package app

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/shopspring/decimal"

	"github.com/fd1az/spread-analyzer/business/blockchain/domain"
	"github.com/fd1az/spread-analyzer/internal/logger"
)

// GasServiceConfig configures the gas cost feed.
type GasServiceConfig struct {
	Venue           string // fee schedule venue the cost applies to
	GasLimit        uint64
	RefreshInterval time.Duration
	ETHPriceBook    string // book key whose mid price quotes ETH in USD
	ETHPriceUSD     decimal.Decimal
}

// GasService turns the live gas price into a per-leg USD gas cost.
type GasService struct {
	oracle GasOracle
	prices PriceSource
	cfg    GasServiceConfig
	logger logger.LoggerInterface

	latest   atomic.Pointer[domain.GasCost]
	onUpdate func(cost *domain.GasCost)

	started  atomic.Bool
	stopOnce sync.Once
	stop     chan struct{}
	done     chan struct{}
}

// NewGasService creates a GasService. prices may be nil, in which case the
// configured ETH price is always used.
func NewGasService(oracle GasOracle, prices PriceSource, cfg GasServiceConfig, log logger.LoggerInterface) *GasService {
	if cfg.RefreshInterval <= 0 {
		cfg.RefreshInterval = 15 * time.Second
	}
	return &GasService{
		oracle: oracle,
		prices: prices,
		cfg:    cfg,
		logger: log,
		stop:   make(chan struct{}),
		done:   make(chan struct{}),
	}
}

// OnUpdate registers a callback run after every successful refresh.
func (s *GasService) OnUpdate(fn func(cost *domain.GasCost)) {
	s.onUpdate = fn
}

// Venue is the fee schedule venue the cost applies to.
func (s *GasService) Venue() string {
	return s.cfg.Venue
}

// LatestGasCostUSD returns the last computed cost, false before the first
// successful refresh.
func (s *GasService) LatestGasCostUSD() (decimal.Decimal, bool) {
	cost := s.latest.Load()
	if cost == nil {
		return decimal.Zero, false
	}
	return cost.USD, true
}

// Latest returns the last computed cost or nil.
func (s *GasService) Latest() *domain.GasCost {
	return s.latest.Load()
}

// ETHPrice returns the mid of the configured book, or the static price when
// the book is absent or unusable.
func (s *GasService) ETHPrice() decimal.Decimal {
	if s.prices != nil && s.cfg.ETHPriceBook != "" {
		if mid, ok := s.prices.MidPrice(s.cfg.ETHPriceBook); ok && mid.IsPositive() {
			return mid
		}
	}
	return s.cfg.ETHPriceUSD
}

// Refresh fetches the gas price and recomputes the cost. On failure the
// previous value is kept.
func (s *GasService) Refresh(ctx context.Context) (*domain.GasCost, error) {
	price, err := s.oracle.GetGasPrice(ctx)
	if err != nil {
		return nil, err
	}

	cost := domain.NewGasCost(s.cfg.GasLimit, price, s.ETHPrice())
	s.latest.Store(cost)

	s.logger.Debug(ctx, "gas cost refreshed",
		"venue", s.cfg.Venue,
		"gwei", price.Gwei,
		"eth_usd", cost.ETHPriceUSD.StringFixed(2),
		"usd", cost.USD.StringFixed(2))

	if s.onUpdate != nil {
		s.onUpdate(cost)
	}
	return cost, nil
}

// Start refreshes once and then every RefreshInterval until ctx ends or
// Stop is called.
func (s *GasService) Start(ctx context.Context) {
	if !s.started.CompareAndSwap(false, true) {
		return
	}
	go func() {
		defer close(s.done)

		ticker := time.NewTicker(s.cfg.RefreshInterval)
		defer ticker.Stop()

		for {
			if _, err := s.Refresh(ctx); err != nil {
				s.logger.Warn(ctx, "gas cost refresh failed", "error", err)
			}

			select {
			case <-ctx.Done():
				return
			case <-s.stop:
				return
			case <-ticker.C:
			}
		}
	}()
}

// Stop ends the refresh loop and waits for it.
func (s *GasService) Stop() {
	s.stopOnce.Do(func() { close(s.stop) })
	if s.started.Load() {
		<-s.done
	}
}
