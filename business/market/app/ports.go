// Package app contains the feeder service and its ports.
package app

import (
	"context"

	"github.com/fd1az/spread-analyzer/business/spread/domain"
)

// DepthEvent is one top-of-book snapshot for a venue symbol. Levels are best
// first and never carry a zero size.
type DepthEvent struct {
	Symbol   string
	UpdateID int64
	Bids     []domain.Level
	Asks     []domain.Level
}

// DepthHandler receives depth snapshots on the stream goroutine.
type DepthHandler func(ctx context.Context, ev DepthEvent)

// DepthSource streams depth snapshots from an exchange.
type DepthSource interface {
	OnDepth(handler DepthHandler)
	Connect(ctx context.Context) error
	IsConnected() bool
	Close() error
}

// SnapshotPublisher stores a snapshot and announces its key.
type SnapshotPublisher interface {
	// Publish returns the key the snapshot was stored under.
	Publish(ctx context.Context, book *domain.OrderBook) (string, error)
}

// DepthSnapshotter fetches a full depth snapshot on demand.
type DepthSnapshotter interface {
	Snapshot(ctx context.Context, symbol string) (DepthEvent, error)
}
