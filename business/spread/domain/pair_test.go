package domain

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestPairNormalizer_Normalize(t *testing.T) {
	n := DefaultPairNormalizer()
	one := decimal.NewFromInt(1)

	tests := []struct {
		name       string
		a, b       string
		wantA      string
		wantB      string
		wantAdjust decimal.Decimal
	}{
		{"wrapped vs underlying", "WBTC/USDT", "BTC/USDT", "BTC/USDT", "BTC/USDT", DefaultWrappedPriceAdjustment},
		{"underlying vs wrapped", "BTC/USDT", "WBTC/USDT", "BTC/USDT", "BTC/USDT", DefaultWrappedPriceAdjustment},
		{"same plain pair", "BTC/USDT", "BTC/USDT", "BTC/USDT", "BTC/USDT", one},
		{"no separator", "WBTCUSDT", "BTCUSDT", "BTCUSDT", "BTCUSDT", DefaultWrappedPriceAdjustment},
		{"unrelated", "ETHUSDT", "BTCUSDT", "ETHUSDT", "BTCUSDT", one},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a, b, adj := n.Normalize(tt.a, tt.b)
			if a != tt.wantA || b != tt.wantB {
				t.Errorf("Normalize() = (%q, %q), want (%q, %q)", a, b, tt.wantA, tt.wantB)
			}
			if !adj.Equal(tt.wantAdjust) {
				t.Errorf("adjustment = %s, want %s", adj, tt.wantAdjust)
			}
		})
	}
}

func TestPairNormalizer_RoundTrip(t *testing.T) {
	n := DefaultPairNormalizer()

	a, b, adj := n.Normalize("WBTC/USDT", "BTC/USDT")
	if a != b {
		t.Errorf("canonical pairs differ: %q vs %q", a, b)
	}
	if !adj.LessThan(decimal.NewFromInt(1)) {
		t.Errorf("adjustment = %s, want < 1", adj)
	}

	_, _, adj = n.Normalize("BTC/USDT", "BTC/USDT")
	if !adj.Equal(decimal.NewFromInt(1)) {
		t.Errorf("adjustment = %s, want 1", adj)
	}
}

func TestPairNormalizer_MultipleMappings(t *testing.T) {
	n := NewPairNormalizer(map[string]string{
		"WBTC":   "BTC",
		"WETH":   "ETH",
		"WSTETH": "STETH",
	}, decimal.RequireFromString("0.999"))

	tests := []struct {
		in   string
		want string
	}{
		{"WETH/USDT", "ETH/USDT"},
		{"WSTETH/WETH", "STETH/ETH"},
		{"WBTC/WETH", "BTC/ETH"},
		{"SOL/USDT", "SOL/USDT"},
	}
	for _, tt := range tests {
		if got := n.Canonical(tt.in); got != tt.want {
			t.Errorf("Canonical(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}

	if !n.SameMarket("WETH/USDT", "ETH/USDT") {
		t.Error("WETH/USDT and ETH/USDT should be the same market")
	}
	if n.SameMarket("ETH/USDT", "BTC/USDT") {
		t.Error("ETH/USDT and BTC/USDT are different markets")
	}
	if _, _, adj := n.Normalize("SOL/USDT", "WETH/USDT"); !adj.Equal(decimal.RequireFromString("0.999")) {
		t.Errorf("adjustment = %s", adj)
	}
}

func TestPairNormalizer_EmptyTable(t *testing.T) {
	n := NewPairNormalizer(nil, DefaultWrappedPriceAdjustment)

	a, b, adj := n.Normalize("WBTC/USDT", "BTC/USDT")
	if a != "WBTC/USDT" || b != "BTC/USDT" {
		t.Errorf("Normalize() = (%q, %q)", a, b)
	}
	if !adj.Equal(decimal.NewFromInt(1)) {
		t.Errorf("adjustment = %s, want 1", adj)
	}
}
