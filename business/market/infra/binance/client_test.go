package binance

import (
	"context"
	"io"
	"testing"

	"github.com/fd1az/spread-analyzer/business/market/app"
	"github.com/fd1az/spread-analyzer/internal/logger"
)

func newTestClient(t *testing.T, cfg ClientConfig) *Client {
	t.Helper()
	c, err := NewClient(cfg, logger.New(io.Discard, logger.LevelInfo, "test", nil))
	if err != nil {
		t.Fatalf("NewClient() error = %v", err)
	}
	return c
}

func TestClient_StreamURL(t *testing.T) {
	tests := []struct {
		name    string
		cfg     ClientConfig
		want    string
		wantErr bool
	}{
		{
			name: "combined streams",
			cfg:  ClientConfig{BaseURL: BaseWSURL, Symbols: []string{"BTCUSDT", "ETHUSDT"}, Depth: 20, DepthSpeedMs: 100},
			want: "wss://stream.binance.com:9443/stream?streams=btcusdt@depth20@100ms/ethusdt@depth20@100ms",
		},
		{
			name: "depth rounds up to a stream size",
			cfg:  ClientConfig{BaseURL: BaseWSURLUS, Symbols: []string{"BTCUSD"}, Depth: 7, DepthSpeedMs: 1000},
			want: "wss://stream.binance.us:9443/stream?streams=btcusd@depth10@1000ms",
		},
		{
			name:    "no symbols",
			cfg:     ClientConfig{BaseURL: BaseWSURL},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, tt.cfg)
			got, err := c.StreamURL()
			if (err != nil) != tt.wantErr {
				t.Fatalf("StreamURL() error = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("StreamURL() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestClient_HandleMessage(t *testing.T) {
	c := newTestClient(t, DefaultClientConfig([]string{"BTCUSDT"}))

	var events []app.DepthEvent
	c.OnDepth(func(ctx context.Context, ev app.DepthEvent) {
		events = append(events, ev)
	})

	ctx := context.Background()
	c.handleMessage(ctx, []byte(`{"stream":"btcusdt@depth20@100ms","data":{"lastUpdateId":160,"bids":[["30000.00","1.0"],["29999.00","0.00"]],"asks":[["30001.00","2.5"]]}}`))
	c.handleMessage(ctx, []byte(`{"result":["btcusdt@depth20@100ms"],"id":3}`))
	c.handleMessage(ctx, []byte(`not json`))
	c.handleMessage(ctx, []byte(`{"stream":"btcusdt@depth20@100ms","data":{"lastUpdateId":161,"bids":[["oops","1"]],"asks":[]}}`))
	c.handleMessage(ctx, []byte(`{"stream":"btcusdt@trade","data":{}}`))

	if len(events) != 1 {
		t.Fatalf("events = %d, want 1", len(events))
	}
	ev := events[0]
	if ev.Symbol != "BTCUSDT" || ev.UpdateID != 160 {
		t.Errorf("event = %s/%d", ev.Symbol, ev.UpdateID)
	}
	if len(ev.Bids) != 1 || len(ev.Asks) != 1 {
		t.Errorf("levels = %d/%d, want 1/1", len(ev.Bids), len(ev.Asks))
	}
}

func TestClient_CloseWithoutConnect(t *testing.T) {
	c := newTestClient(t, DefaultClientConfig([]string{"BTCUSDT"}))
	if c.IsConnected() {
		t.Error("IsConnected() = true before Connect")
	}
	if err := c.Close(); err != nil {
		t.Errorf("Close() error = %v", err)
	}
	if err := c.Close(); err != nil {
		t.Errorf("second Close() error = %v", err)
	}
}
