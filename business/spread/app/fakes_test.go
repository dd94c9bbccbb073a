package app

import (
	"context"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/fd1az/spread-analyzer/business/spread/domain"
	"github.com/fd1az/spread-analyzer/internal/apperror"
	"github.com/fd1az/spread-analyzer/internal/logger"
)

func testLogger() logger.LoggerInterface {
	return logger.New(io.Discard, logger.LevelDebug, "spread-test", nil)
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

// book builds a one-level book; empty price strings leave that side empty.
func book(exchange, pair, bid, bidSize, ask, askSize string) *domain.OrderBook {
	b := &domain.OrderBook{Exchange: exchange, Pair: pair, Timestamp: 1}
	if bid != "" {
		b.Bids = []domain.Level{domain.NewLevel(dec(bid), dec(bidSize))}
	}
	if ask != "" {
		b.Asks = []domain.Level{domain.NewLevel(dec(ask), dec(askSize))}
	}
	return b
}

func testSchedule() domain.FeeSchedule {
	return domain.FeeSchedule{
		Venues: map[string]domain.VenueFee{
			"venue-a":          {TakerPercent: dec("0.1"), MakerPercent: dec("0.1")},
			"venue-b":          {TakerPercent: dec("0.1"), MakerPercent: dec("0.1")},
			"venue-c":          {TakerPercent: dec("0.1"), MakerPercent: dec("0.1")},
			"uniswap-v3-exact": {TakerPercent: dec("0.3"), MakerPercent: dec("0.3"), GasCostUSD: dec("50")},
		},
		DefaultFeePercent: dec("0.15"),
		WithdrawalFees:    map[string]decimal.Decimal{},
		UseMarketOrders:   true,
	}
}

func newTestEvaluator(t *testing.T) *OpportunityEvaluator {
	t.Helper()
	fees, err := domain.NewFeeModel(testSchedule(), domain.DefaultPairNormalizer())
	if err != nil {
		t.Fatalf("NewFeeModel() error = %v", err)
	}
	e := NewOpportunityEvaluator(fees, domain.DefaultSizingPolicy(), DefaultThresholds())
	e.now = func() time.Time { return time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC) }
	return e
}

func newTestAnalyzer(t *testing.T, cfg AnalyzerConfig, books ...*domain.OrderBook) *SpreadAnalyzer {
	t.Helper()
	n := domain.DefaultPairNormalizer()
	store := NewBookStore(n)
	for _, b := range books {
		store.Upsert(b)
	}
	return NewSpreadAnalyzer(store, n, newTestEvaluator(t), cfg, testLogger())
}

type fakeNotifications struct {
	ch  chan []byte
	err error
	ctx context.Context
}

func (f *fakeNotifications) Subscribe(ctx context.Context) (<-chan []byte, error) {
	f.ctx = ctx
	if f.err != nil {
		return nil, f.err
	}
	return f.ch, nil
}

type fakeSnapshots struct {
	mu    sync.Mutex
	books map[string]*domain.OrderBook
	errs  map[string]error
}

func newFakeSnapshots() *fakeSnapshots {
	return &fakeSnapshots{
		books: make(map[string]*domain.OrderBook),
		errs:  make(map[string]error),
	}
}

func (f *fakeSnapshots) put(key string, b *domain.OrderBook) {
	f.mu.Lock()
	f.books[key] = b
	f.mu.Unlock()
}

func (f *fakeSnapshots) Fetch(ctx context.Context, key string) (*domain.OrderBook, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err, ok := f.errs[key]; ok {
		return nil, err
	}
	b, ok := f.books[key]
	if !ok {
		return nil, apperror.NotFound(apperror.CodeSnapshotMissing, key)
	}
	return b, nil
}

type fakeReporter struct {
	mu       sync.Mutex
	startErr error
	started  bool
	stopped  bool
	reports  []*ScanReport
	statuses map[string]bool
}

func newFakeReporter() *fakeReporter {
	return &fakeReporter{statuses: make(map[string]bool)}
}

func (r *fakeReporter) Start(ctx context.Context) error {
	if r.startErr != nil {
		return r.startErr
	}
	r.mu.Lock()
	r.started = true
	r.mu.Unlock()
	return nil
}

func (r *fakeReporter) Report(report *ScanReport) {
	r.mu.Lock()
	r.reports = append(r.reports, report)
	r.mu.Unlock()
}

func (r *fakeReporter) UpdateConnectionStatus(name string, connected bool, latency time.Duration) {
	r.mu.Lock()
	r.statuses[name] = connected
	r.mu.Unlock()
}

func (r *fakeReporter) Stop() error {
	r.mu.Lock()
	r.stopped = true
	r.mu.Unlock()
	return nil
}

func (r *fakeReporter) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.reports)
}

type fakeGas struct {
	venue string
	usd   decimal.Decimal
	ok    bool
}

func (g *fakeGas) Venue() string { return g.venue }

func (g *fakeGas) LatestGasCostUSD() (decimal.Decimal, bool) { return g.usd, g.ok }
