package domain

import (
	"strings"

	"github.com/shopspring/decimal"
)

// ConservativeFactor is the share of the thinner side's top-of-book size the
// engine assumes it can fill on both legs.
var ConservativeFactor = decimal.RequireFromString("0.8")

// SizingPolicy converts top-of-book liquidity into an executable size.
type SizingPolicy struct {
	MaxNotionalUSD        decimal.Decimal
	DefaultReferencePrice decimal.Decimal
	ReferencePrices       map[string]decimal.Decimal // keyed by canonical base asset
}

// DefaultSizingPolicy caps trades at 100000 USD priced at 50000 per unit.
func DefaultSizingPolicy() SizingPolicy {
	return SizingPolicy{
		MaxNotionalUSD:        decimal.NewFromInt(100000),
		DefaultReferencePrice: decimal.NewFromInt(50000),
		ReferencePrices:       map[string]decimal.Decimal{"BTC": decimal.NewFromInt(50000)},
	}
}

// ReferencePrice returns the configured price used to turn the USD cap into
// a unit cap for asset.
func (p SizingPolicy) ReferencePrice(asset string) decimal.Decimal {
	if ref, ok := p.ReferencePrices[strings.ToUpper(asset)]; ok && ref.IsPositive() {
		return ref
	}
	return p.DefaultReferencePrice
}

// UnitCap returns the largest size allowed for asset.
func (p SizingPolicy) UnitCap(asset string) decimal.Decimal {
	ref := p.ReferencePrice(asset)
	if !ref.IsPositive() || !p.MaxNotionalUSD.IsPositive() {
		return decimal.Zero
	}
	return p.MaxNotionalUSD.Div(ref)
}

// ChooseExecutionSize returns min(askSize, bidSize) * 0.8 capped at the
// asset's unit cap. Negative sizes count as zero.
func (p SizingPolicy) ChooseExecutionSize(askSize, bidSize decimal.Decimal, asset string) decimal.Decimal {
	maxPossible := decimal.Min(askSize, bidSize)
	if !maxPossible.IsPositive() {
		return decimal.Zero
	}
	return decimal.Min(maxPossible.Mul(ConservativeFactor), p.UnitCap(asset))
}
