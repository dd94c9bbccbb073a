// Package app contains application services and port definitions for the spread context.
package app

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/fd1az/spread-analyzer/business/spread/domain"
)

// NotificationSource delivers "book K changed" payloads in arrival order.
type NotificationSource interface {
	// Subscribe returns a channel of raw notification payloads. It fails
	// when the transport cannot be reached. The channel closes when ctx ends.
	Subscribe(ctx context.Context) (<-chan []byte, error)
}

// SnapshotSource fetches the current snapshot for a key on demand.
type SnapshotSource interface {
	Fetch(ctx context.Context, key string) (*domain.OrderBook, error)
}

// GasCostSource provides the latest per-leg gas cost of an on-chain venue.
type GasCostSource interface {
	// Venue is the fee schedule venue the cost applies to.
	Venue() string

	// LatestGasCostUSD returns the last computed cost, false until the
	// first successful refresh.
	LatestGasCostUSD() (decimal.Decimal, bool)
}

// Reporter defines the interface for presenting scan results.
type Reporter interface {
	// Start initializes the reporter.
	Start(ctx context.Context) error

	// Report presents the result of one scan.
	Report(report *ScanReport)

	// UpdateConnectionStatus updates a connection status display.
	UpdateConnectionStatus(name string, connected bool, latency time.Duration)

	// Stop gracefully shuts down the reporter.
	Stop() error
}

// ScanReport is everything a reporter shows for one processed update.
type ScanReport struct {
	Iteration  uint64
	Key        string
	Mode       ScanMode
	Result     *ScanResult
	Summary    MarketSummary
	Executions []*domain.ExecutionRequest
	Duration   time.Duration
	ScannedAt  time.Time
}
