package ui

import (
	"time"

	"github.com/fd1az/spread-analyzer/business/spread/domain"
	"github.com/fd1az/spread-analyzer/pkg/ui/components"
)

// OpportunityMsg is sent for every opportunity a scan reports.
type OpportunityMsg struct {
	Opportunity *domain.ArbitrageOpportunity
}

// ScanMsg summarizes a finished scan.
type ScanMsg struct {
	Iteration     uint64
	Mode          string
	Key           string
	Opportunities int
	Warnings      []string
	Duration      time.Duration
}

// MarketSummaryMsg carries the book store content after an update.
type MarketSummaryMsg struct {
	Summary components.MarketSummary
	Key     string
}

// ConnectionStatusMsg is sent when a connection status changes.
type ConnectionStatusMsg struct {
	Name      string
	Connected bool
	Latency   time.Duration
}

// GasCostMsg is sent when the per-leg gas cost of an on-chain venue changes.
type GasCostMsg struct {
	Venue string
	USD   float64
}

// ErrorMsg is sent when an error occurs.
type ErrorMsg struct {
	Error error
}

// TickMsg is sent periodically for animations and timers.
type TickMsg struct{}

// StartModulesMsg is sent when the welcome screen ends and modules should start.
type StartModulesMsg struct{}

// LogMsg is sent for log messages to display in the TUI.
type LogMsg struct {
	Level   string
	Message string
}

// StartupMsg is sent to update a startup step status.
type StartupMsg struct {
	Step   string // "config", "redis", "ethereum", "analyzer"
	Status string // "pending", "connecting", "connected", "done", "failed"
}
