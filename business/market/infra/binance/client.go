package binance

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/fd1az/spread-analyzer/business/market/app"
	"github.com/fd1az/spread-analyzer/internal/apperror"
	"github.com/fd1az/spread-analyzer/internal/logger"
	"github.com/fd1az/spread-analyzer/internal/wsconn"
)

const (
	tracerName = "github.com/fd1az/spread-analyzer/business/market/infra/binance"
	meterName  = "github.com/fd1az/spread-analyzer/business/market"

	// Binance WebSocket endpoints
	BaseWSURL   = "wss://stream.binance.com:9443"
	BaseWSURLUS = "wss://stream.binance.us:9443"

	// Binance drops connections silent for more than 3 minutes.
	keepAliveInterval = 2 * time.Minute
)

// ClientConfig holds configuration for the Binance client.
type ClientConfig struct {
	BaseURL      string
	Symbols      []string // e.g. "BTCUSDT"
	Depth        int      // levels per side; the stream uses 5, 10 or 20
	DepthSpeedMs int      // 100 or 1000
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// DefaultClientConfig returns sensible defaults.
func DefaultClientConfig(symbols []string) ClientConfig {
	return ClientConfig{
		BaseURL:      BaseWSURL,
		Symbols:      symbols,
		Depth:        20,
		DepthSpeedMs: 100,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 10 * time.Second,
	}
}

type clientMetrics struct {
	messagesReceived metric.Int64Counter
	depthUpdates     metric.Int64Counter
	parseErrors      metric.Int64Counter
}

// Client is a Binance combined-stream depth client.
type Client struct {
	config ClientConfig
	logger logger.LoggerInterface

	conn   *wsconn.Client
	connMu sync.RWMutex

	onDepth    app.DepthHandler
	onState    func(connected bool)
	handlersMu sync.RWMutex

	nextID        atomic.Int64
	stopKeepAlive chan struct{}
	closeOnce     sync.Once

	tracer  trace.Tracer
	metrics *clientMetrics
}

var _ app.DepthSource = (*Client)(nil)

// NewClient creates a new Binance client. It does not dial.
func NewClient(cfg ClientConfig, log logger.LoggerInterface) (*Client, error) {
	if cfg.Depth < 1 {
		cfg.Depth = 20
	}
	if cfg.DepthSpeedMs != 1000 {
		cfg.DepthSpeedMs = 100
	}

	c := &Client{
		config:        cfg,
		logger:        log,
		stopKeepAlive: make(chan struct{}),
		tracer:        otel.Tracer(tracerName),
	}

	if err := c.initMetrics(); err != nil {
		return nil, fmt.Errorf("init metrics: %w", err)
	}
	return c, nil
}

func (c *Client) initMetrics() error {
	meter := otel.Meter(meterName)
	var err error

	c.metrics = &clientMetrics{}

	c.metrics.messagesReceived, err = meter.Int64Counter(
		"feeder_messages_total",
		metric.WithDescription("Total WebSocket messages received"),
	)
	if err != nil {
		return err
	}

	c.metrics.depthUpdates, err = meter.Int64Counter(
		"feeder_depth_updates_total",
		metric.WithDescription("Total partial depth snapshots received"),
	)
	if err != nil {
		return err
	}

	c.metrics.parseErrors, err = meter.Int64Counter(
		"feeder_parse_errors_total",
		metric.WithDescription("Message parse errors"),
	)
	return err
}

// OnDepth registers the depth snapshot handler. Register before Connect.
func (c *Client) OnDepth(handler app.DepthHandler) {
	c.handlersMu.Lock()
	c.onDepth = handler
	c.handlersMu.Unlock()
}

// OnConnectionChange registers an observer of connection state.
func (c *Client) OnConnectionChange(handler func(connected bool)) {
	c.handlersMu.Lock()
	c.onState = handler
	c.handlersMu.Unlock()
}

// Connect dials the combined stream, retrying with backoff until ctx ends.
func (c *Client) Connect(ctx context.Context) error {
	ctx, span := c.tracer.Start(ctx, "binance.connect",
		trace.WithAttributes(attribute.StringSlice("symbols", c.config.Symbols)),
	)
	defer span.End()

	wsURL, err := c.StreamURL()
	if err != nil {
		return err
	}

	wsCfg := wsconn.DefaultConfig(wsURL, "binance")
	wsCfg.ReadTimeout = c.config.ReadTimeout
	wsCfg.WriteTimeout = c.config.WriteTimeout

	conn, err := wsconn.New(wsCfg)
	if err != nil {
		return err
	}
	conn.OnMessage(c.handleMessage)
	conn.OnStateChange(func(state wsconn.State, cause error) {
		if cause != nil {
			c.logger.Warn(context.Background(), "binance connection state change", "state", string(state), "error", cause)
		}
		c.handlersMu.RLock()
		h := c.onState
		c.handlersMu.RUnlock()
		if h != nil {
			h(state == wsconn.StateConnected)
		}
	})

	if err := conn.ConnectWithRetry(ctx); err != nil {
		span.RecordError(err)
		return apperror.Wrap(err, apperror.CodeWebSocketConnectionError, "binance")
	}

	c.connMu.Lock()
	c.conn = conn
	c.connMu.Unlock()

	go c.keepAlive(ctx)

	c.logger.Info(ctx, "binance client connected",
		"url", wsURL,
		"symbols", c.config.Symbols)
	return nil
}

// StreamURL builds the combined streams URL:
// <base>/stream?streams=s1@depth20@100ms/s2@depth20@100ms
func (c *Client) StreamURL() (string, error) {
	if len(c.config.Symbols) == 0 {
		return "", apperror.New(apperror.CodeConfigurationError,
			apperror.WithContext("no symbols configured"))
	}

	streams := make([]string, 0, len(c.config.Symbols))
	for _, sym := range c.config.Symbols {
		streams = append(streams, DepthStream(sym, streamDepth(c.config.Depth), c.config.DepthSpeedMs))
	}

	u, err := url.Parse(c.config.BaseURL)
	if err != nil {
		return "", apperror.New(apperror.CodeConfigurationError,
			apperror.WithCause(err),
			apperror.WithContext("invalid binance url: "+c.config.BaseURL))
	}
	u.Path = "/stream"
	u.RawQuery = "streams=" + strings.Join(streams, "/")
	return u.String(), nil
}

// streamDepth picks the smallest partial depth stream holding depth levels.
func streamDepth(depth int) int {
	switch {
	case depth <= 5:
		return 5
	case depth <= 10:
		return 10
	default:
		return 20
	}
}

func (c *Client) handleMessage(ctx context.Context, data []byte) {
	c.metrics.messagesReceived.Add(ctx, 1)

	var event StreamEvent
	if err := json.Unmarshal(data, &event); err != nil || event.Stream == "" {
		var resp WSResponse
		if json.Unmarshal(data, &resp) == nil && resp.ID != 0 {
			return
		}
		c.metrics.parseErrors.Add(ctx, 1)
		c.logger.Debug(ctx, "failed to parse message", "data", string(data[:min(len(data), 200)]))
		return
	}

	if !strings.Contains(event.Stream, "@depth") {
		return
	}

	var depth PartialDepthEvent
	if err := json.Unmarshal(event.Data, &depth); err != nil {
		c.metrics.parseErrors.Add(ctx, 1)
		c.logger.Warn(ctx, "failed to parse partial depth", "stream", event.Stream, "error", err)
		return
	}
	depth.Symbol = SymbolFromStream(event.Stream)

	bids, err := ParseLevels(depth.Bids)
	if err != nil {
		c.invalidLevels(ctx, depth.Symbol, err)
		return
	}
	asks, err := ParseLevels(depth.Asks)
	if err != nil {
		c.invalidLevels(ctx, depth.Symbol, err)
		return
	}

	c.metrics.depthUpdates.Add(ctx, 1, metric.WithAttributes(attribute.String("symbol", depth.Symbol)))
	c.dispatch(ctx, app.DepthEvent{
		Symbol:   depth.Symbol,
		UpdateID: depth.LastUpdateID,
		Bids:     bids,
		Asks:     asks,
	})
}

func (c *Client) invalidLevels(ctx context.Context, symbol string, err error) {
	c.metrics.parseErrors.Add(ctx, 1)
	c.logger.Warn(ctx, "invalid depth level", "symbol", symbol, "error", err)
}

func (c *Client) dispatch(ctx context.Context, ev app.DepthEvent) {
	c.handlersMu.RLock()
	h := c.onDepth
	c.handlersMu.RUnlock()
	if h != nil {
		h(ctx, ev)
	}
}

// keepAlive sends a LIST_SUBSCRIPTIONS request so idle streams stay open.
func (c *Client) keepAlive(ctx context.Context) {
	ticker := time.NewTicker(keepAliveInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-c.stopKeepAlive:
			return
		case <-ticker.C:
			c.connMu.RLock()
			conn := c.conn
			c.connMu.RUnlock()
			if conn == nil {
				continue
			}
			req := WSRequest{Method: "LIST_SUBSCRIPTIONS", ID: c.nextID.Add(1)}
			if err := conn.SendJSON(ctx, req); err != nil {
				c.logger.Warn(ctx, "keep-alive failed", "error", err)
			}
		}
	}
}

// IsConnected reports whether the stream is live.
func (c *Client) IsConnected() bool {
	c.connMu.RLock()
	defer c.connMu.RUnlock()
	return c.conn != nil && c.conn.IsConnected()
}

// Close closes the client connection. It is idempotent.
func (c *Client) Close() error {
	c.closeOnce.Do(func() { close(c.stopKeepAlive) })

	c.connMu.Lock()
	defer c.connMu.Unlock()
	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}
