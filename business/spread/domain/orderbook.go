// Package domain contains the core domain types for the spread context.
package domain

import (
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/fd1az/spread-analyzer/internal/apperror"
)

// Level is one price level of an order book.
type Level struct {
	Price decimal.Decimal
	Size  decimal.Decimal
}

// NewLevel creates a Level.
func NewLevel(price, size decimal.Decimal) Level {
	return Level{Price: price, Size: size}
}

// MarshalJSON encodes the level as a [price, size] number pair.
func (l Level) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]json.Number{
		json.Number(l.Price.String()),
		json.Number(l.Size.String()),
	})
}

// UnmarshalJSON accepts [price, size] with numbers or numeric strings.
func (l *Level) UnmarshalJSON(data []byte) error {
	var pair []decimal.Decimal
	if err := json.Unmarshal(data, &pair); err != nil {
		return err
	}
	if len(pair) != 2 {
		return fmt.Errorf("level must have 2 elements, got %d", len(pair))
	}
	l.Price, l.Size = pair[0], pair[1]
	return nil
}

// OrderBook is an immutable venue snapshot. Bids are sorted descending and
// asks ascending, so the best price of each side sits at index 0.
type OrderBook struct {
	Exchange  string  `json:"exchange"`
	Pair      string  `json:"pair"`
	Bids      []Level `json:"bids"`
	Asks      []Level `json:"asks"`
	Timestamp int64   `json:"timestamp"`
}

// BookKey identifies the latest book of one venue-native pair.
func BookKey(exchange, pair string) string {
	return exchange + ":" + pair
}

// Key returns the store key of the book.
func (b *OrderBook) Key() string {
	return BookKey(b.Exchange, b.Pair)
}

// BestBid returns the highest bid, or nil when there are no bids.
func (b *OrderBook) BestBid() *Level {
	if len(b.Bids) == 0 {
		return nil
	}
	return &b.Bids[0]
}

// BestAsk returns the lowest ask, or nil when there are no asks.
func (b *OrderBook) BestAsk() *Level {
	if len(b.Asks) == 0 {
		return nil
	}
	return &b.Asks[0]
}

// Usable reports whether both sides are quoted.
func (b *OrderBook) Usable() bool {
	return len(b.Bids) > 0 && len(b.Asks) > 0
}

// MidPrice returns the midpoint of the best bid and ask.
func (b *OrderBook) MidPrice() (decimal.Decimal, bool) {
	if !b.Usable() {
		return decimal.Zero, false
	}
	return b.Bids[0].Price.Add(b.Asks[0].Price).Div(decimal.NewFromInt(2)), true
}

// DecodeOrderBook parses a serialized snapshot.
func DecodeOrderBook(key string, data []byte) (*OrderBook, error) {
	var book OrderBook
	if err := json.Unmarshal(data, &book); err != nil {
		return nil, apperror.New(apperror.CodeInvalidOrderbook,
			apperror.WithCause(err),
			apperror.WithContext(key))
	}
	if book.Exchange == "" || book.Pair == "" {
		return nil, apperror.New(apperror.CodeInvalidOrderbook,
			apperror.WithMessage("snapshot is missing exchange or pair"),
			apperror.WithContext(key))
	}
	return &book, nil
}

// Encode serializes the book in the snapshot wire format.
func (b *OrderBook) Encode() ([]byte, error) {
	return json.Marshal(b)
}
