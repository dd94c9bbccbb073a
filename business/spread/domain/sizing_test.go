package domain

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestSizingPolicy_ChooseExecutionSize(t *testing.T) {
	p := DefaultSizingPolicy()

	tests := []struct {
		name     string
		ask, bid string
		asset    string
		want     string
	}{
		{"equal sizes", "1", "1", "BTC", "0.8"},
		{"thinner ask", "0.5", "3", "BTC", "0.4"},
		{"capped by notional", "10", "10", "BTC", "2"},
		{"zero side", "0", "5", "BTC", "0"},
		{"negative side", "-1", "5", "BTC", "0"},
		{"unknown asset uses default reference", "10", "10", "SOL", "2"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := p.ChooseExecutionSize(decimal.RequireFromString(tt.ask), decimal.RequireFromString(tt.bid), tt.asset)
			if !got.Equal(decimal.RequireFromString(tt.want)) {
				t.Errorf("ChooseExecutionSize() = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestSizingPolicy_PerAssetReference(t *testing.T) {
	p := DefaultSizingPolicy()
	p.ReferencePrices["ETH"] = decimal.NewFromInt(2500)

	got := p.ChooseExecutionSize(decimal.NewFromInt(100), decimal.NewFromInt(100), "eth")
	if !got.Equal(decimal.NewFromInt(40)) {
		t.Errorf("ETH size = %s, want 40", got)
	}
}

func TestSizingPolicy_Bounded(t *testing.T) {
	p := DefaultSizingPolicy()
	limit := p.UnitCap("BTC")
	sizes := []string{"0", "0.001", "0.5", "1", "2.5", "3", "17", "1000"}

	for _, a := range sizes {
		for _, b := range sizes {
			da, db := decimal.RequireFromString(a), decimal.RequireFromString(b)
			got := p.ChooseExecutionSize(da, db, "BTC")
			if got.GreaterThan(decimal.Min(da, db)) {
				t.Errorf("size(%s, %s) = %s exceeds min side", a, b, got)
			}
			if got.GreaterThan(limit) {
				t.Errorf("size(%s, %s) = %s exceeds cap %s", a, b, got, limit)
			}
			if got.IsNegative() {
				t.Errorf("size(%s, %s) = %s is negative", a, b, got)
			}
		}
	}
}
