package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// RiskLevel grades an opportunity by ROI.
type RiskLevel string

const (
	RiskHighProfit     RiskLevel = "HIGH_PROFIT"
	RiskModerateProfit RiskLevel = "MODERATE_PROFIT"
	RiskLowMargin      RiskLevel = "LOW_MARGIN"
)

// String returns a human-readable label.
func (r RiskLevel) String() string {
	switch r {
	case RiskHighProfit:
		return "HIGH PROFIT (>2%)"
	case RiskModerateProfit:
		return "MODERATE PROFIT (>1%)"
	case RiskLowMargin:
		return "LOW MARGIN (<1%)"
	default:
		return "UNKNOWN"
	}
}

var (
	highProfitROI     = decimal.NewFromInt(2)
	moderateProfitROI = decimal.NewFromInt(1)
)

// ArbitrageOpportunity is a profitable buy/sell pair found by a scan.
// It is immutable once created.
type ArbitrageOpportunity struct {
	ID                 string          `json:"id"`
	BuyExchange        string          `json:"buy_exchange"`
	SellExchange       string          `json:"sell_exchange"`
	Pair               string          `json:"pair"`
	BuyPrice           decimal.Decimal `json:"buy_price"`
	SellPrice          decimal.Decimal `json:"sell_price"`
	MaxSize            decimal.Decimal `json:"max_size"`
	GrossProfitPerUnit decimal.Decimal `json:"gross_profit_per_unit"`
	EstimatedFees      decimal.Decimal `json:"estimated_fees"`
	NetProfit          decimal.Decimal `json:"net_profit"`
	ROIPercentage      decimal.Decimal `json:"roi_percentage"`
	Timestamp          time.Time       `json:"timestamp"`
}

// GrossProfit returns the profit before costs over the whole size.
func (o *ArbitrageOpportunity) GrossProfit() decimal.Decimal {
	return o.GrossProfitPerUnit.Mul(o.MaxSize)
}

// SpreadPercent returns the spread relative to the buy price.
func (o *ArbitrageOpportunity) SpreadPercent() decimal.Decimal {
	if o.BuyPrice.IsZero() {
		return decimal.Zero
	}
	return o.GrossProfitPerUnit.Div(o.BuyPrice).Mul(hundred)
}

// Strategy describes the trade direction.
func (o *ArbitrageOpportunity) Strategy() string {
	return "Buy on " + o.BuyExchange + " -> Sell on " + o.SellExchange
}

// RiskLevel grades the opportunity by ROI.
func (o *ArbitrageOpportunity) RiskLevel() RiskLevel {
	switch {
	case o.ROIPercentage.GreaterThan(highProfitROI):
		return RiskHighProfit
	case o.ROIPercentage.GreaterThan(moderateProfitROI):
		return RiskModerateProfit
	default:
		return RiskLowMargin
	}
}

// ExecutionRequest wraps an opportunity for a downstream executor. Requests
// are built and reported but never dispatched.
type ExecutionRequest struct {
	ID            string                `json:"id"`
	Opportunity   *ArbitrageOpportunity `json:"opportunity"`
	ExecutionSize decimal.Decimal       `json:"execution_size"`
	CreatedAt     time.Time             `json:"created_at"`
}

// NewExecutionRequest sizes a request at the opportunity's full size.
func NewExecutionRequest(opp *ArbitrageOpportunity, now time.Time) *ExecutionRequest {
	return &ExecutionRequest{
		ID:            uuid.NewString(),
		Opportunity:   opp,
		ExecutionSize: opp.MaxSize,
		CreatedAt:     now,
	}
}
