package infra

import (
	"context"
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/fd1az/spread-analyzer/business/spread/app"
	"github.com/fd1az/spread-analyzer/pkg/ui"
	"github.com/fd1az/spread-analyzer/pkg/ui/components"
)

// TUIReporter implements Reporter for the Bubble Tea dashboard. The program
// itself is owned by main; the reporter only sends messages to it.
type TUIReporter struct {
	send func(tea.Msg)
}

var _ app.Reporter = (*TUIReporter)(nil)

// NewTUIReporter creates a TUIReporter. A nil send uses ui.Send.
func NewTUIReporter(send func(tea.Msg)) *TUIReporter {
	if send == nil {
		send = ui.Send
	}
	return &TUIReporter{send: send}
}

// Start marks the analyzer step ready on the startup screen.
func (r *TUIReporter) Start(ctx context.Context) error {
	r.send(ui.StartupMsg{Step: "analyzer", Status: "done"})
	return nil
}

// Report forwards the market summary, every opportunity and the scan totals.
func (r *TUIReporter) Report(report *app.ScanReport) {
	if report == nil {
		return
	}

	r.send(ui.MarketSummaryMsg{
		Key: report.Key,
		Summary: components.MarketSummary{
			TotalBooks:     report.Summary.TotalBooks,
			ExchangePairs:  report.Summary.ExchangePairs,
			CanonicalPairs: report.Summary.CanonicalPairs,
		},
	})

	found := 0
	var warnings []string
	if report.Result != nil {
		found = len(report.Result.Opportunities)
		warnings = report.Result.Warnings
		for _, opp := range report.Result.Opportunities {
			r.send(ui.OpportunityMsg{Opportunity: opp})
		}
	}

	for _, exec := range report.Executions {
		r.send(ui.LogMsg{
			Level:   "info",
			Message: fmt.Sprintf("would execute %s: %s size %s", exec.ID, exec.Opportunity.Strategy(), exec.ExecutionSize.StringFixed(4)),
		})
	}

	r.send(ui.ScanMsg{
		Iteration:     report.Iteration,
		Mode:          string(report.Mode),
		Key:           report.Key,
		Opportunities: found,
		Warnings:      warnings,
		Duration:      report.Duration,
	})
}

// UpdateConnectionStatus forwards a connection status change.
func (r *TUIReporter) UpdateConnectionStatus(name string, connected bool, latency time.Duration) {
	r.send(ui.ConnectionStatusMsg{Name: name, Connected: connected, Latency: latency})
}

// ReportGasCost shows the live per-leg gas cost of an on-chain venue.
func (r *TUIReporter) ReportGasCost(venue string, usd float64) {
	r.send(ui.GasCostMsg{Venue: venue, USD: usd})
}

// ReportError surfaces an error in the dashboard error panel.
func (r *TUIReporter) ReportError(err error) {
	if err != nil {
		r.send(ui.ErrorMsg{Error: err})
	}
}

// Stop is a no-op; quitting the program is left to the user.
func (r *TUIReporter) Stop() error {
	return nil
}
