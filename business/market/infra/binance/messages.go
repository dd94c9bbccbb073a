// Package binance streams partial order book depth from Binance.
package binance

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/fd1az/spread-analyzer/business/spread/domain"
)

// WSRequest is a WebSocket control request.
type WSRequest struct {
	Method string   `json:"method"`
	Params []string `json:"params,omitempty"`
	ID     int64    `json:"id"`
}

// WSResponse is a WebSocket control response.
type WSResponse struct {
	Result json.RawMessage `json:"result"`
	ID     int64           `json:"id"`
}

// StreamEvent is the combined-stream envelope.
type StreamEvent struct {
	Stream string          `json:"stream"`
	Data   json.RawMessage `json:"data"`
}

// PartialDepthEvent is a top-N book snapshot from a @depthN stream. The
// payload carries no symbol; it is taken from the stream name.
type PartialDepthEvent struct {
	LastUpdateID int64      `json:"lastUpdateId"`
	Bids         [][]string `json:"bids"`
	Asks         [][]string `json:"asks"`
	Symbol       string     `json:"-"`
}

// ParseLevels converts raw [price, qty] pairs, skipping zero quantities.
func ParseLevels(raw [][]string) ([]domain.Level, error) {
	levels := make([]domain.Level, 0, len(raw))
	for _, r := range raw {
		if len(r) < 2 {
			continue
		}
		price, err := decimal.NewFromString(r[0])
		if err != nil {
			return nil, err
		}
		qty, err := decimal.NewFromString(r[1])
		if err != nil {
			return nil, err
		}
		if qty.IsZero() {
			continue
		}
		levels = append(levels, domain.NewLevel(price, qty))
	}
	return levels, nil
}

// DepthStream returns the partial depth stream name for a symbol,
// e.g. btcusdt@depth20@100ms.
func DepthStream(symbol string, depth, speedMs int) string {
	return strings.ToLower(symbol) + "@depth" + strconv.Itoa(depth) + "@" + strconv.Itoa(speedMs) + "ms"
}

// SymbolFromStream extracts the upper-case symbol from a stream name.
func SymbolFromStream(stream string) string {
	if idx := strings.Index(stream, "@"); idx > 0 {
		return strings.ToUpper(stream[:idx])
	}
	return strings.ToUpper(stream)
}
