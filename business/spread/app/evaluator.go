package app

import (
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/fd1az/spread-analyzer/business/spread/domain"
)

// RejectReason explains why a candidate did not become an opportunity.
type RejectReason string

const (
	Accepted        RejectReason = ""
	RejectNoSpread  RejectReason = "no_positive_spread"
	RejectNoSize    RejectReason = "no_executable_size"
	RejectLowProfit RejectReason = "below_min_profit"
	RejectLowROI    RejectReason = "below_min_roi"
)

// Thresholds are the profitability floors a candidate must both clear.
type Thresholds struct {
	MinAbsoluteProfit decimal.Decimal
	MinROIPercentage  decimal.Decimal
}

// DefaultThresholds requires 1 unit of quote currency and 0.1% ROI.
func DefaultThresholds() Thresholds {
	return Thresholds{
		MinAbsoluteProfit: decimal.NewFromInt(1),
		MinROIPercentage:  decimal.RequireFromString("0.1"),
	}
}

// OpportunityEvaluator applies sizing, fees and thresholds to one candidate
// buy/sell quote pair.
type OpportunityEvaluator struct {
	fees       atomic.Pointer[domain.FeeModel]
	sizing     domain.SizingPolicy
	thresholds Thresholds

	now   func() time.Time
	newID func() string
}

// NewOpportunityEvaluator creates an evaluator.
func NewOpportunityEvaluator(fees *domain.FeeModel, sizing domain.SizingPolicy, thresholds Thresholds) *OpportunityEvaluator {
	e := &OpportunityEvaluator{
		sizing:     sizing,
		thresholds: thresholds,
		now:        time.Now,
		newID:      uuid.NewString,
	}
	e.fees.Store(fees)
	return e
}

// FeeModel returns the fee model in use.
func (e *OpportunityEvaluator) FeeModel() *domain.FeeModel {
	return e.fees.Load()
}

// SetGasCost swaps in a fee model with the venue's gas cost replaced. Call it
// between scans.
func (e *OpportunityEvaluator) SetGasCost(venue string, usd decimal.Decimal) {
	e.fees.Store(e.fees.Load().WithGasCost(venue, usd))
}

// Evaluate scores buying at buyPrice on buyExchange and selling at sellPrice
// on sellExchange. pair is the canonical pair. It returns the opportunity, or
// nil and the first failed check.
func (e *OpportunityEvaluator) Evaluate(
	buyExchange, sellExchange, pair string,
	buyPrice, sellPrice, buySize, sellSize decimal.Decimal,
) (*domain.ArbitrageOpportunity, RejectReason) {
	if sellPrice.LessThanOrEqual(buyPrice) {
		return nil, RejectNoSpread
	}

	size := e.sizing.ChooseExecutionSize(buySize, sellSize, domain.BaseAsset(pair))
	if !size.IsPositive() {
		return nil, RejectNoSize
	}

	grossPerUnit := sellPrice.Sub(buyPrice)
	fees := e.fees.Load().Estimate(domain.Trade{
		Size:         size,
		BuyPrice:     buyPrice,
		SellPrice:    sellPrice,
		BuyExchange:  buyExchange,
		SellExchange: sellExchange,
		Pair:         pair,
	})
	net := grossPerUnit.Mul(size).Sub(fees)

	capital := buyPrice.Mul(size)
	if !capital.IsPositive() {
		return nil, RejectNoSize
	}
	roi := net.Div(capital).Mul(decimal.NewFromInt(100))

	if net.LessThan(e.thresholds.MinAbsoluteProfit) {
		return nil, RejectLowProfit
	}
	if roi.LessThan(e.thresholds.MinROIPercentage) {
		return nil, RejectLowROI
	}

	return &domain.ArbitrageOpportunity{
		ID:                 e.newID(),
		BuyExchange:        buyExchange,
		SellExchange:       sellExchange,
		Pair:               pair,
		BuyPrice:           buyPrice,
		SellPrice:          sellPrice,
		MaxSize:            size,
		GrossProfitPerUnit: grossPerUnit,
		EstimatedFees:      fees,
		NetProfit:          net,
		ROIPercentage:      roi,
		Timestamp:          e.now(),
	}, Accepted
}
