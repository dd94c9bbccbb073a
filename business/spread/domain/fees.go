package domain

import (
	"strings"

	"github.com/shopspring/decimal"

	"github.com/fd1az/spread-analyzer/internal/apperror"
)

var hundred = decimal.NewFromInt(100)

// VenueFee is one venue row of the fee schedule. Percentages are in percent
// units (0.1 means 0.1%). GasCostUSD is charged once per leg executed on the
// venue.
type VenueFee struct {
	TakerPercent decimal.Decimal
	MakerPercent decimal.Decimal
	GasCostUSD   decimal.Decimal
}

// FeeSchedule is the static cost table the fee model reads from.
type FeeSchedule struct {
	Venues            map[string]VenueFee
	DefaultFeePercent decimal.Decimal
	WithdrawalFees    map[string]decimal.Decimal
	UseMarketOrders   bool
}

// DefaultFeeSchedule returns the schedule used when nothing is configured.
func DefaultFeeSchedule() FeeSchedule {
	return FeeSchedule{
		Venues: map[string]VenueFee{
			"binance": {
				TakerPercent: decimal.RequireFromString("0.1"),
				MakerPercent: decimal.RequireFromString("0.1"),
			},
			"uniswap-v3-exact": {
				TakerPercent: decimal.RequireFromString("0.3"),
				MakerPercent: decimal.RequireFromString("0.3"),
				GasCostUSD:   decimal.NewFromInt(50),
			},
		},
		DefaultFeePercent: decimal.RequireFromString("0.15"),
		WithdrawalFees: map[string]decimal.Decimal{
			"BTC":  decimal.RequireFromString("0.0005"),
			"WBTC": decimal.RequireFromString("0.0005"),
			"ETH":  decimal.RequireFromString("0.005"),
			"USDT": decimal.NewFromInt(10),
		},
		UseMarketOrders: true,
	}
}

// Validate rejects negative fee components.
func (s FeeSchedule) Validate() error {
	if s.DefaultFeePercent.IsNegative() {
		return apperror.Validation(apperror.CodeInvalidFeeSchedule, "default fee percent is negative")
	}
	for venue, f := range s.Venues {
		if f.TakerPercent.IsNegative() || f.MakerPercent.IsNegative() || f.GasCostUSD.IsNegative() {
			return apperror.Validation(apperror.CodeInvalidFeeSchedule, "venue "+venue+" has a negative fee")
		}
	}
	for asset, f := range s.WithdrawalFees {
		if f.IsNegative() {
			return apperror.Validation(apperror.CodeInvalidFeeSchedule, "withdrawal fee for "+asset+" is negative")
		}
	}
	return nil
}

// WithGasCost returns a copy of the schedule with the venue's gas cost
// replaced. The receiver is not modified.
func (s FeeSchedule) WithGasCost(venue string, usd decimal.Decimal) FeeSchedule {
	venues := make(map[string]VenueFee, len(s.Venues)+1)
	for k, v := range s.Venues {
		venues[k] = v
	}
	key := strings.ToLower(venue)
	f := venues[key]
	if _, ok := s.Venues[key]; !ok {
		f.TakerPercent = s.DefaultFeePercent
		f.MakerPercent = s.DefaultFeePercent
	}
	f.GasCostUSD = usd
	venues[key] = f

	out := s
	out.Venues = venues
	return out
}

// legFee returns the percentage and flat gas cost for one leg on venue.
func (s FeeSchedule) legFee(venue string) (decimal.Decimal, decimal.Decimal) {
	f, ok := s.Venues[strings.ToLower(venue)]
	if !ok {
		return s.DefaultFeePercent, decimal.Zero
	}
	if s.UseMarketOrders {
		return f.TakerPercent, f.GasCostUSD
	}
	return f.MakerPercent, f.GasCostUSD
}

// Trade describes the two legs the fee model prices.
type Trade struct {
	Size         decimal.Decimal
	BuyPrice     decimal.Decimal
	SellPrice    decimal.Decimal
	BuyExchange  string
	SellExchange string
	Pair         string
}

// FeeBreakdown splits a fee estimate by component.
type FeeBreakdown struct {
	Trading    decimal.Decimal
	Gas        decimal.Decimal
	Withdrawal decimal.Decimal
}

// Total returns the sum of all components.
func (b FeeBreakdown) Total() decimal.Decimal {
	return b.Trading.Add(b.Gas).Add(b.Withdrawal)
}

// FeeModel estimates the total cost of executing a trade.
type FeeModel struct {
	schedule   FeeSchedule
	normalizer *PairNormalizer
}

// NewFeeModel validates the schedule and creates a FeeModel.
func NewFeeModel(schedule FeeSchedule, normalizer *PairNormalizer) (*FeeModel, error) {
	if err := schedule.Validate(); err != nil {
		return nil, err
	}
	if normalizer == nil {
		normalizer = DefaultPairNormalizer()
	}
	return &FeeModel{schedule: schedule, normalizer: normalizer}, nil
}

// Schedule returns the schedule the model prices with.
func (m *FeeModel) Schedule() FeeSchedule {
	return m.schedule
}

// WithGasCost returns a model whose venue gas cost is usd.
func (m *FeeModel) WithGasCost(venue string, usd decimal.Decimal) *FeeModel {
	if usd.IsNegative() {
		usd = decimal.Zero
	}
	return &FeeModel{schedule: m.schedule.WithGasCost(venue, usd), normalizer: m.normalizer}
}

// Estimate returns the total estimated cost of the trade.
func (m *FeeModel) Estimate(t Trade) decimal.Decimal {
	return m.Breakdown(t).Total()
}

// Breakdown prices each leg on its venue's notional (size times leg price),
// adds the flat gas cost once per leg, and charges the base asset's
// withdrawal fee per unit of size.
func (m *FeeModel) Breakdown(t Trade) FeeBreakdown {
	var b FeeBreakdown
	if !t.Size.IsPositive() {
		return b
	}

	legs := []struct {
		venue string
		price decimal.Decimal
	}{
		{t.BuyExchange, t.BuyPrice},
		{t.SellExchange, t.SellPrice},
	}
	for _, leg := range legs {
		pct, gas := m.schedule.legFee(leg.venue)
		notional := t.Size.Mul(leg.price.Abs())
		b.Trading = b.Trading.Add(notional.Mul(pct).Div(hundred))
		b.Gas = b.Gas.Add(gas)
	}

	asset := m.normalizer.Canonical(BaseAsset(t.Pair))
	if fee, ok := m.schedule.WithdrawalFees[asset]; ok {
		b.Withdrawal = fee.Mul(t.Size)
	}
	return b
}

// BaseAsset derives the base ticker of a pair: the left side of "/", else the
// pair with "USDT" or "USD" removed, else its first four characters.
// Symbols with other quote assets and no separator come out wrong.
func BaseAsset(pair string) string {
	switch {
	case strings.Contains(pair, "/"):
		return strings.SplitN(pair, "/", 2)[0]
	case strings.Contains(pair, "USDT"):
		return strings.ReplaceAll(pair, "USDT", "")
	case strings.Contains(pair, "USD"):
		return strings.ReplaceAll(pair, "USD", "")
	}
	r := []rune(pair)
	if len(r) > 4 {
		r = r[:4]
	}
	return string(r)
}
