package domain

import (
	"sort"
	"strings"

	"github.com/shopspring/decimal"
)

// DefaultWrappedPriceAdjustment is the buy-side discount applied when a
// wrapped ticker is involved.
var DefaultWrappedPriceAdjustment = decimal.RequireFromString("0.9999")

// PairNormalizer collapses wrapped-asset tickers onto their underlying asset
// so books quoted in different spellings can be compared.
type PairNormalizer struct {
	tickers    []string // wrapped tickers, longest first
	replacer   *strings.Replacer
	adjustment decimal.Decimal
}

// NewPairNormalizer builds a normalizer from a wrapped -> underlying table.
func NewPairNormalizer(wrapped map[string]string, adjustment decimal.Decimal) *PairNormalizer {
	tickers := make([]string, 0, len(wrapped))
	for t := range wrapped {
		if t != "" {
			tickers = append(tickers, t)
		}
	}
	sort.Slice(tickers, func(i, j int) bool {
		if len(tickers[i]) != len(tickers[j]) {
			return len(tickers[i]) > len(tickers[j])
		}
		return tickers[i] < tickers[j]
	})

	oldnew := make([]string, 0, 2*len(tickers))
	for _, t := range tickers {
		oldnew = append(oldnew, t, wrapped[t])
	}

	return &PairNormalizer{
		tickers:    tickers,
		replacer:   strings.NewReplacer(oldnew...),
		adjustment: adjustment,
	}
}

// DefaultPairNormalizer maps WBTC onto BTC with a 0.9999 buy-side adjustment.
func DefaultPairNormalizer() *PairNormalizer {
	return NewPairNormalizer(map[string]string{"WBTC": "BTC"}, DefaultWrappedPriceAdjustment)
}

// Canonical replaces every wrapped ticker in pair with its underlying.
func (n *PairNormalizer) Canonical(pair string) string {
	return n.replacer.Replace(pair)
}

// MentionsWrapped reports whether pair contains any wrapped ticker.
func (n *PairNormalizer) MentionsWrapped(pair string) bool {
	for _, t := range n.tickers {
		if strings.Contains(pair, t) {
			return true
		}
	}
	return false
}

// Normalize canonicalizes both pairs independently and returns the price
// multiplier for the buy side: the wrapped adjustment when either pair
// mentions a wrapped ticker, otherwise one.
func (n *PairNormalizer) Normalize(pairA, pairB string) (string, string, decimal.Decimal) {
	adjustment := decimal.NewFromInt(1)
	if n.MentionsWrapped(pairA) || n.MentionsWrapped(pairB) {
		adjustment = n.adjustment
	}
	return n.Canonical(pairA), n.Canonical(pairB), adjustment
}

// SameMarket reports whether two pairs denote the same canonical market.
func (n *PairNormalizer) SameMarket(pairA, pairB string) bool {
	return n.Canonical(pairA) == n.Canonical(pairB)
}
