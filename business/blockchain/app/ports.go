// Package app contains application services and port definitions for the blockchain context.
package app

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/fd1az/spread-analyzer/business/blockchain/domain"
)

// GasOracle defines the interface for gas price information.
type GasOracle interface {
	// GetGasPrice retrieves the current gas price.
	GetGasPrice(ctx context.Context) (*domain.GasPrice, error)
}

// PriceSource quotes the mid price of a stored order book.
type PriceSource interface {
	MidPrice(key string) (decimal.Decimal, bool)
}
