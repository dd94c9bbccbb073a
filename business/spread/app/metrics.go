package app

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const meterName = "github.com/fd1az/spread-analyzer/business/spread"

// detectorMetrics holds OTEL metric instruments.
type detectorMetrics struct {
	updates       metric.Int64Counter
	fetchErrors   metric.Int64Counter
	opportunities metric.Int64Counter
	scanDuration  metric.Float64Histogram
	booksHeld     metric.Int64Gauge
}

func newDetectorMetrics() (*detectorMetrics, error) {
	meter := otel.Meter(meterName)
	m := &detectorMetrics{}
	var err error

	m.updates, err = meter.Int64Counter(
		"spread_updates_total",
		metric.WithDescription("Update notifications processed"),
		metric.WithUnit("{update}"),
	)
	if err != nil {
		return nil, err
	}

	m.fetchErrors, err = meter.Int64Counter(
		"spread_fetch_errors_total",
		metric.WithDescription("Updates abandoned because the snapshot could not be fetched or decoded"),
		metric.WithUnit("{error}"),
	)
	if err != nil {
		return nil, err
	}

	m.opportunities, err = meter.Int64Counter(
		"spread_opportunities_total",
		metric.WithDescription("Profitable opportunities found"),
		metric.WithUnit("{opportunity}"),
	)
	if err != nil {
		return nil, err
	}

	m.scanDuration, err = meter.Float64Histogram(
		"spread_scan_duration_ms",
		metric.WithDescription("Scan latency"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, err
	}

	m.booksHeld, err = meter.Int64Gauge(
		"spread_books_held",
		metric.WithDescription("Order books held in memory"),
		metric.WithUnit("{book}"),
	)
	if err != nil {
		return nil, err
	}

	return m, nil
}

func (m *detectorMetrics) recordFetchError(ctx context.Context, code string) {
	m.fetchErrors.Add(ctx, 1, metric.WithAttributes(attribute.String("code", code)))
}

func (m *detectorMetrics) recordScan(ctx context.Context, mode ScanMode, ms float64, found int, books int) {
	attrs := metric.WithAttributes(attribute.String("mode", string(mode)))
	m.scanDuration.Record(ctx, ms, attrs)
	m.opportunities.Add(ctx, int64(found), attrs)
	m.booksHeld.Record(ctx, int64(books))
}
