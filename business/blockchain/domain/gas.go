// Package domain contains the core domain types for the blockchain context.
package domain

import (
	"math/big"
	"time"

	"github.com/shopspring/decimal"
)

const weiPerGwei = 9

// GasPrice represents gas price information.
type GasPrice struct {
	Wei       *big.Int
	Gwei      float64
	Timestamp time.Time
}

// NewGasPrice creates a GasPrice from wei.
func NewGasPrice(wei *big.Int) *GasPrice {
	return &GasPrice{
		Wei:       wei,
		Gwei:      decimal.NewFromBigInt(wei, -weiPerGwei).InexactFloat64(),
		Timestamp: time.Now(),
	}
}

// GweiToWei converts a gwei amount to wei, truncating below one wei.
func GweiToWei(gwei float64) *big.Int {
	return decimal.NewFromFloat(gwei).Shift(weiPerGwei).BigInt()
}

// GasCost is the USD cost of one on-chain swap at a given gas price.
type GasCost struct {
	GasLimit    uint64
	Price       *GasPrice
	ETHPriceUSD decimal.Decimal
	USD         decimal.Decimal
}

// NewGasCost computes gasLimit * price / 1e18 * ethPriceUSD.
func NewGasCost(gasLimit uint64, price *GasPrice, ethPriceUSD decimal.Decimal) *GasCost {
	totalWei := new(big.Int).Mul(price.Wei, new(big.Int).SetUint64(gasLimit))
	return &GasCost{
		GasLimit:    gasLimit,
		Price:       price,
		ETHPriceUSD: ethPriceUSD,
		USD:         decimal.NewFromBigInt(totalWei, -18).Mul(ethPriceUSD),
	}
}
