package infra

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/fd1az/spread-analyzer/business/spread/app"
	"github.com/fd1az/spread-analyzer/business/spread/domain"
)

func sampleOpportunity() *domain.ArbitrageOpportunity {
	return &domain.ArbitrageOpportunity{
		ID:                 "3f1c",
		BuyExchange:        "venue-a",
		SellExchange:       "venue-b",
		Pair:               "BTC/USDT",
		BuyPrice:           decimal.NewFromInt(30000),
		SellPrice:          decimal.NewFromInt(30200),
		MaxSize:            decimal.RequireFromString("0.8"),
		GrossProfitPerUnit: decimal.NewFromInt(200),
		EstimatedFees:      decimal.RequireFromString("48.16"),
		NetProfit:          decimal.RequireFromString("111.84"),
		ROIPercentage:      decimal.RequireFromString("0.466"),
		Timestamp:          time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
	}
}

func sampleSummary() app.MarketSummary {
	return app.MarketSummary{
		TotalBooks:     3,
		ExchangePairs:  map[string]int{"venue-a": 2, "venue-b": 1},
		CanonicalPairs: map[string]int{"BTC/USDT": 2, "ETH/USDT": 1},
	}
}

func TestConsoleReporter_Report(t *testing.T) {
	var buf bytes.Buffer
	r := NewConsoleReporter(&buf)

	r.Report(&app.ScanReport{
		Iteration: 4,
		Mode:      app.ScanTargeted,
		Result:    &app.ScanResult{Mode: app.ScanTargeted, Opportunities: []*domain.ArbitrageOpportunity{sampleOpportunity()}},
		Summary:   sampleSummary(),
	})

	out := buf.String()
	for _, want := range []string{
		"MARKET DATA SUMMARY",
		"Active Exchanges: 2",
		"- venue-a: 2 pairs",
		"BTC/USDT: 2 exchanges",
		"Opportunity #1",
		"Buy on venue-a -> Sell on venue-b",
		"$30000.0000",
		"$200.0000 (0.667%)",
		"Gross Profit:   $160.00",
		"NET PROFIT:     $111.84",
		"ROI:            0.47%",
		"2024-05-01 12:00:00 UTC",
		"LOW MARGIN",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q\n%s", want, out)
		}
	}
	if strings.Contains(out, "ETH/USDT: 1 exchanges") {
		t.Error("pairs on a single exchange should not be listed")
	}
}

func TestConsoleReporter_EmptyScans(t *testing.T) {
	var buf bytes.Buffer
	r := NewConsoleReporter(&buf)

	r.Report(&app.ScanReport{Mode: app.ScanTargeted, Result: &app.ScanResult{Mode: app.ScanTargeted}, Summary: sampleSummary()})
	if buf.Len() != 0 {
		t.Errorf("empty targeted scan printed %q", buf.String())
	}

	r.Report(&app.ScanReport{Iteration: 10, Mode: app.ScanFull, Result: &app.ScanResult{Mode: app.ScanFull}, Summary: sampleSummary()})
	if !strings.Contains(buf.String(), "no profitable opportunities found") {
		t.Errorf("full scan output = %q", buf.String())
	}
}

func TestConsoleReporter_Lifecycle(t *testing.T) {
	var buf bytes.Buffer
	r := NewConsoleReporter(&buf)

	if err := r.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	r.UpdateConnectionStatus("redis", true, 3*time.Millisecond)
	r.UpdateConnectionStatus("redis", false, 0)
	if err := r.Stop(); err != nil {
		t.Fatal(err)
	}

	out := buf.String()
	for _, want := range []string{"Spread Analyzer Started", "redis: connected (3ms)", "redis: disconnected", "Spread Analyzer Stopped"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q", want)
		}
	}
}
