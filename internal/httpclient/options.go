package httpclient

import (
	"net/http"
	"time"

	"go.opentelemetry.io/otel/metric"
)

type options struct {
	name          string
	baseURL       string
	timeout       time.Duration
	headers       map[string]string
	transport     http.RoundTripper
	meterProvider metric.MeterProvider
	errorDecoder  ErrorDecoder
}

// Option configures a Client.
type Option func(*options)

// WithName sets the provider label on metrics and spans.
func WithName(name string) Option {
	return func(o *options) {
		o.name = name
	}
}

// WithBaseURL sets the URL relative paths are resolved against.
func WithBaseURL(url string) Option {
	return func(o *options) {
		o.baseURL = url
	}
}

// WithTimeout sets the per-request timeout.
func WithTimeout(timeout time.Duration) Option {
	return func(o *options) {
		o.timeout = timeout
	}
}

// WithHeaders sets headers sent on every request.
func WithHeaders(headers map[string]string) Option {
	return func(o *options) {
		o.headers = headers
	}
}

// WithTransport replaces the base transport. It is still wrapped with
// tracing.
func WithTransport(rt http.RoundTripper) Option {
	return func(o *options) {
		o.transport = rt
	}
}

// WithMeterProvider overrides the global meter provider.
func WithMeterProvider(mp metric.MeterProvider) Option {
	return func(o *options) {
		o.meterProvider = mp
	}
}

// ErrorDecoder turns a non-2xx response into an error. A nil return falls
// back to a generic status error.
type ErrorDecoder func(statusCode int, body []byte) error

// WithErrorDecoder sets how error bodies are decoded.
func WithErrorDecoder(fn ErrorDecoder) Option {
	return func(o *options) {
		o.errorDecoder = fn
	}
}

// Label is an extra metric attribute for one request.
type Label struct {
	Key   string
	Value string
}

// NewLabel creates a Label.
func NewLabel(key, value string) Label {
	return Label{Key: key, Value: value}
}
