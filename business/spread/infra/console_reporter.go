package infra

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/fd1az/spread-analyzer/business/spread/app"
	"github.com/fd1az/spread-analyzer/business/spread/domain"
)

const (
	heavyRule = "================================================================================"
	lightRule = "--------------------------------------------------------------------------------"
)

// ConsoleReporter implements Reporter for CLI output.
type ConsoleReporter struct {
	mu  sync.Mutex
	out io.Writer
}

var _ app.Reporter = (*ConsoleReporter)(nil)

// NewConsoleReporter creates a ConsoleReporter writing to out, or stdout
// when out is nil.
func NewConsoleReporter(out io.Writer) *ConsoleReporter {
	if out == nil {
		out = os.Stdout
	}
	return &ConsoleReporter{out: out}
}

// Start prints the banner.
func (r *ConsoleReporter) Start(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	fmt.Fprintln(r.out, "Spread Analyzer Started")
	fmt.Fprintln(r.out, "=======================")
	return nil
}

// Report prints the market summary and every opportunity. Scans without
// opportunities print nothing, except full scans which say so.
func (r *ConsoleReporter) Report(report *app.ScanReport) {
	if report == nil || report.Result == nil {
		return
	}
	opps := report.Result.Opportunities

	r.mu.Lock()
	defer r.mu.Unlock()

	if len(opps) == 0 {
		if report.Mode == app.ScanFull {
			r.printSummary(report.Summary)
			fmt.Fprintf(r.out, "\nFull scan #%d complete: no profitable opportunities found\n", report.Iteration)
		}
		return
	}

	r.printSummary(report.Summary)

	fmt.Fprintln(r.out, "")
	fmt.Fprintln(r.out, heavyRule)
	fmt.Fprintf(r.out, "ARBITRAGE OPPORTUNITIES DETECTED (%s scan, update #%d)\n", report.Mode, report.Iteration)
	fmt.Fprintln(r.out, heavyRule)
	for i, opp := range opps {
		r.printOpportunity(i+1, opp)
	}
	fmt.Fprintln(r.out, heavyRule)
}

func (r *ConsoleReporter) printSummary(s app.MarketSummary) {
	fmt.Fprintln(r.out, "")
	fmt.Fprintln(r.out, "MARKET DATA SUMMARY")
	fmt.Fprintln(r.out, lightRule)
	fmt.Fprintf(r.out, "  Active Exchanges: %d\n", len(s.ExchangePairs))
	fmt.Fprintf(r.out, "  Trading Pairs:    %d\n", len(s.CanonicalPairs))
	fmt.Fprintf(r.out, "  Total Orderbooks: %d\n", s.TotalBooks)
	for _, ex := range s.ActiveExchanges() {
		fmt.Fprintf(r.out, "  - %s: %d pairs\n", ex, s.ExchangePairs[ex])
	}
	for _, pair := range s.SharedPairs() {
		fmt.Fprintf(r.out, "    %s: %d exchanges\n", pair, s.CanonicalPairs[pair])
	}
}

func (r *ConsoleReporter) printOpportunity(n int, opp *domain.ArbitrageOpportunity) {
	fmt.Fprintln(r.out, "")
	fmt.Fprintf(r.out, "Opportunity #%d\n", n)
	fmt.Fprintf(r.out, "  ID:             %s\n", opp.ID)
	fmt.Fprintf(r.out, "  Strategy:       %s\n", opp.Strategy())
	fmt.Fprintf(r.out, "  Pair:           %s\n", opp.Pair)
	fmt.Fprintf(r.out, "  Buy Price:      $%s\n", opp.BuyPrice.StringFixed(4))
	fmt.Fprintf(r.out, "  Sell Price:     $%s\n", opp.SellPrice.StringFixed(4))
	fmt.Fprintf(r.out, "  Spread:         $%s (%s%%)\n", opp.GrossProfitPerUnit.StringFixed(4), opp.SpreadPercent().StringFixed(3))
	fmt.Fprintf(r.out, "  Max Size:       %s\n", opp.MaxSize.StringFixed(6))
	fmt.Fprintln(r.out, lightRule)
	fmt.Fprintf(r.out, "  Gross Profit:   $%s\n", opp.GrossProfit().StringFixed(2))
	fmt.Fprintf(r.out, "  Est. Fees:      $%s\n", opp.EstimatedFees.StringFixed(2))
	fmt.Fprintf(r.out, "  NET PROFIT:     $%s\n", opp.NetProfit.StringFixed(2))
	fmt.Fprintf(r.out, "  ROI:            %s%%\n", opp.ROIPercentage.StringFixed(2))
	fmt.Fprintf(r.out, "  Timestamp:      %s\n", opp.Timestamp.UTC().Format("2006-01-02 15:04:05 UTC"))
	fmt.Fprintf(r.out, "  Risk Level:     %s\n", opp.RiskLevel())
}

// UpdateConnectionStatus outputs connection status changes.
func (r *ConsoleReporter) UpdateConnectionStatus(name string, connected bool, latency time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	status := "disconnected"
	if connected {
		status = fmt.Sprintf("connected (%s)", latency.Round(time.Microsecond))
	}
	fmt.Fprintf(r.out, "[%s] %s: %s\n", time.Now().Format("15:04:05"), name, status)
}

// Stop prints the shutdown line.
func (r *ConsoleReporter) Stop() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	fmt.Fprintln(r.out, "")
	fmt.Fprintln(r.out, "Spread Analyzer Stopped")
	return nil
}
