package domain

import (
	"math/big"
	"testing"

	"github.com/shopspring/decimal"
)

func TestNewGasPrice(t *testing.T) {
	p := NewGasPrice(big.NewInt(25_000_000_000))
	if p.Gwei != 25 {
		t.Errorf("Gwei = %v, want 25", p.Gwei)
	}
}

func TestGweiToWei(t *testing.T) {
	tests := []struct {
		gwei float64
		want string
	}{
		{500, "500000000000"},
		{0.5, "500000000"},
		{0, "0"},
	}
	for _, tt := range tests {
		if got := GweiToWei(tt.gwei).String(); got != tt.want {
			t.Errorf("GweiToWei(%v) = %s, want %s", tt.gwei, got, tt.want)
		}
	}
}

func TestNewGasCost(t *testing.T) {
	// 200k gas at 20 gwei is 0.004 ETH.
	price := NewGasPrice(big.NewInt(20_000_000_000))
	cost := NewGasCost(200_000, price, decimal.NewFromInt(3000))

	if want := decimal.NewFromInt(12); !cost.USD.Equal(want) {
		t.Errorf("USD = %s, want %s", cost.USD, want)
	}
	if cost.GasLimit != 200_000 || cost.Price != price {
		t.Errorf("cost = %+v", cost)
	}
}
