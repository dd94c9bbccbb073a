// Package httpclient provides an HTTP client for JSON APIs with OTel tracing
// and request metrics.
package httpclient

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/http/httptrace"
	"net/url"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/httptrace/otelhttptrace"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

const (
	instrumentationName = "github.com/fd1az/spread-analyzer/internal/httpclient"

	defaultTimeout         = 10 * time.Second
	defaultDialKeepAlive   = 10 * time.Second
	defaultMaxConnsPerHost = 5
	defaultIdleConnTimeout = 2 * time.Minute

	// bodies larger than this are truncated before decoding
	maxBodyBytes = 4 << 20
)

// StatusError is returned for a non-2xx response without a decoded error.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("http %d: %s", e.StatusCode, e.Body)
}

// Client issues instrumented JSON requests against one API.
type Client struct {
	http         *http.Client
	name         string
	baseURL      string
	headers      map[string]string
	errorDecoder ErrorDecoder
	tracer       trace.Tracer
	requests     metric.Int64Counter
	latency      metric.Float64Histogram
}

// New creates a Client.
func New(opts ...Option) (*Client, error) {
	o := options{name: "default", timeout: defaultTimeout}
	for _, opt := range opts {
		opt(&o)
	}

	base := o.transport
	if base == nil {
		base = &http.Transport{
			DialContext:     (&net.Dialer{KeepAlive: defaultDialKeepAlive}).DialContext,
			MaxConnsPerHost: defaultMaxConnsPerHost,
			IdleConnTimeout: defaultIdleConnTimeout,
		}
	}

	mp := o.meterProvider
	if mp == nil {
		mp = otel.GetMeterProvider()
	}
	meter := mp.Meter(instrumentationName)

	requests, err := meter.Int64Counter("http_client_requests_total",
		metric.WithDescription("HTTP requests by provider and outcome"))
	if err != nil {
		return nil, err
	}
	latency, err := meter.Float64Histogram("http_client_request_duration_ms",
		metric.WithDescription("HTTP request latency"),
		metric.WithUnit("ms"))
	if err != nil {
		return nil, err
	}

	return &Client{
		http: &http.Client{
			Timeout: o.timeout,
			Transport: otelhttp.NewTransport(base,
				otelhttp.WithClientTrace(func(ctx context.Context) *httptrace.ClientTrace {
					return otelhttptrace.NewClientTrace(ctx)
				}),
			),
		},
		name:         o.name,
		baseURL:      strings.TrimSuffix(o.baseURL, "/"),
		headers:      o.headers,
		errorDecoder: o.errorDecoder,
		tracer:       otel.Tracer(instrumentationName),
		requests:     requests,
		latency:      latency,
	}, nil
}

// URL resolves path against the base URL and appends query.
func (c *Client) URL(path string, query url.Values) string {
	full := path
	if c.baseURL != "" && !strings.HasPrefix(path, "http://") && !strings.HasPrefix(path, "https://") {
		full = c.baseURL + "/" + strings.TrimPrefix(path, "/")
	}
	if len(query) > 0 {
		sep := "?"
		if strings.Contains(full, "?") {
			sep = "&"
		}
		full += sep + query.Encode()
	}
	return full
}

// GetJSON issues a GET and decodes a 2xx body into out.
func (c *Client) GetJSON(ctx context.Context, path string, query url.Values, out any, labels ...Label) error {
	target := c.URL(path, query)

	ctx, span := c.tracer.Start(ctx, "http.get",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("http.url", target),
			attribute.String("provider", c.name),
		))
	defer span.End()

	started := time.Now()
	status, body, err := c.do(ctx, http.MethodGet, target)
	c.record(ctx, started, err == nil && status < 300, labels)

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "request failed")
		return err
	}
	span.SetAttributes(attribute.Int("http.status_code", status))

	if status >= 300 {
		err := c.statusError(status, body)
		span.RecordError(err)
		span.SetStatus(codes.Error, "unexpected status")
		return err
	}

	if out != nil {
		if err := json.Unmarshal(body, out); err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "decode failed")
			return fmt.Errorf("decode response: %w", err)
		}
	}
	span.SetStatus(codes.Ok, "")
	return nil
}

func (c *Client) do(ctx context.Context, method, target string) (int, []byte, error) {
	req, err := http.NewRequestWithContext(ctx, method, target, nil)
	if err != nil {
		return 0, nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	for k, v := range c.headers {
		req.Header.Set(k, v)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return resp.StatusCode, nil, fmt.Errorf("read body: %w", err)
	}
	return resp.StatusCode, body, nil
}

func (c *Client) statusError(status int, body []byte) error {
	if c.errorDecoder != nil {
		if err := c.errorDecoder(status, body); err != nil {
			return err
		}
	}
	return &StatusError{StatusCode: status, Body: string(body)}
}

func (c *Client) record(ctx context.Context, started time.Time, success bool, labels []Label) {
	attrs := []attribute.KeyValue{
		attribute.String("provider", c.name),
		attribute.Bool("success", success),
	}
	for _, l := range labels {
		attrs = append(attrs, attribute.String(l.Key, l.Value))
	}
	set := metric.WithAttributes(attrs...)
	c.requests.Add(ctx, 1, set)
	c.latency.Record(ctx, float64(time.Since(started).Microseconds())/1000, set)
}
