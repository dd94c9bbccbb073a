package app

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/fd1az/spread-analyzer/business/spread/domain"
	"github.com/fd1az/spread-analyzer/internal/apperror"
	"github.com/fd1az/spread-analyzer/internal/logger"
)

const tracerName = "github.com/fd1az/spread-analyzer/business/spread"

// DetectorConfig holds configuration for the detection loop.
type DetectorConfig struct {
	// FullScanInterval makes every Nth update run a full scan; the others
	// run a targeted scan of the updated book.
	FullScanInterval int
	// SourceName labels the transport in connection status reports.
	SourceName string
}

// Detector is the sequential receive/process loop: one notification at a
// time, in arrival order.
type Detector struct {
	notifications NotificationSource
	snapshots     SnapshotSource
	analyzer      *SpreadAnalyzer
	reporter      Reporter
	gas           GasCostSource
	config        DetectorConfig
	logger        logger.LoggerInterface

	tracer  trace.Tracer
	metrics *detectorMetrics

	processed atomic.Uint64
	done      chan struct{}
	now       func() time.Time

	mu     sync.Mutex
	cancel context.CancelFunc
}

// NewDetector creates a Detector. gas may be nil when no live gas feed is
// configured.
func NewDetector(
	notifications NotificationSource,
	snapshots SnapshotSource,
	analyzer *SpreadAnalyzer,
	reporter Reporter,
	gas GasCostSource,
	config DetectorConfig,
	log logger.LoggerInterface,
) (*Detector, error) {
	if config.FullScanInterval < 1 {
		config.FullScanInterval = 1
	}
	if config.SourceName == "" {
		config.SourceName = "redis"
	}

	m, err := newDetectorMetrics()
	if err != nil {
		return nil, fmt.Errorf("init metrics: %w", err)
	}

	return &Detector{
		notifications: notifications,
		snapshots:     snapshots,
		analyzer:      analyzer,
		reporter:      reporter,
		gas:           gas,
		config:        config,
		logger:        log,
		tracer:        otel.Tracer(tracerName),
		metrics:       m,
		done:          make(chan struct{}),
		now:           time.Now,
	}, nil
}

// Start subscribes to update notifications, starts the reporter and
// launches the processing loop. A subscription failure is returned and is
// fatal for the caller.
func (d *Detector) Start(ctx context.Context) error {
	d.logger.Info(ctx, "starting spread detector",
		"full_scan_interval", d.config.FullScanInterval)

	ctx, cancel := context.WithCancel(ctx)

	started := d.now()
	updates, err := d.notifications.Subscribe(ctx)
	if err != nil {
		cancel()
		d.reporter.UpdateConnectionStatus(d.config.SourceName, false, 0)
		return apperror.Wrap(err, apperror.CodeSubscribeFailed, d.config.SourceName)
	}

	if err := d.reporter.Start(ctx); err != nil {
		cancel()
		d.reporter.UpdateConnectionStatus(d.config.SourceName, false, 0)
		return err
	}
	d.reporter.UpdateConnectionStatus(d.config.SourceName, true, d.now().Sub(started))

	d.mu.Lock()
	d.cancel = cancel
	d.mu.Unlock()

	go d.run(ctx, updates)

	return nil
}

// Done is closed when the loop exits.
func (d *Detector) Done() <-chan struct{} {
	return d.done
}

// Processed returns how many notifications yielded a stored snapshot.
func (d *Detector) Processed() uint64 {
	return d.processed.Load()
}

func (d *Detector) run(ctx context.Context, updates <-chan []byte) {
	defer close(d.done)

	for {
		select {
		case <-ctx.Done():
			d.logger.Info(ctx, "detector stopping", "reason", ctx.Err())
			return
		case payload, ok := <-updates:
			if !ok {
				d.logger.Warn(ctx, "update channel closed")
				d.reporter.UpdateConnectionStatus(d.config.SourceName, false, 0)
				return
			}
			if _, err := d.HandleNotification(ctx, payload); err != nil {
				d.logError(ctx, err)
			}
		}
	}
}

// HandleNotification processes one update: fetch the snapshot, store it,
// run a full or targeted scan and report. Errors abandon only this update.
func (d *Detector) HandleNotification(ctx context.Context, payload []byte) (*ScanReport, error) {
	ctx, span := d.tracer.Start(ctx, "spread.HandleNotification")
	defer span.End()

	d.metrics.updates.Add(ctx, 1)

	key, err := domain.ParseNotificationKey(payload)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	span.SetAttributes(attribute.String("book.key", key))

	book, err := d.snapshots.Fetch(ctx, key)
	if err != nil {
		d.metrics.recordFetchError(ctx, string(apperror.GetCode(err)))
		span.RecordError(err)
		span.SetStatus(codes.Error, "fetch failed")
		return nil, err
	}

	d.applyGasCost(ctx)

	storeKey := d.analyzer.Store().Upsert(book)
	iteration := d.processed.Add(1)

	started := d.now()
	var result *ScanResult
	if iteration%uint64(d.config.FullScanInterval) == 0 {
		result, err = d.analyzer.FullScan(ctx)
	} else {
		result, err = d.analyzer.TargetedScan(ctx, storeKey)
	}
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	elapsed := d.now().Sub(started)

	books := d.analyzer.Store().Len()
	d.metrics.recordScan(ctx, result.Mode, float64(elapsed.Microseconds())/1000, len(result.Opportunities), books)
	span.SetAttributes(
		attribute.String("scan.mode", string(result.Mode)),
		attribute.Int("scan.opportunities", len(result.Opportunities)),
	)

	report := &ScanReport{
		Iteration:  iteration,
		Key:        storeKey,
		Mode:       result.Mode,
		Result:     result,
		Summary:    d.analyzer.Store().Summary(),
		Executions: d.buildExecutions(ctx, result.Opportunities),
		Duration:   elapsed,
		ScannedAt:  started,
	}

	d.logger.Debug(ctx, "update processed",
		"key", storeKey,
		"iteration", iteration,
		"mode", string(result.Mode),
		"opportunities", len(result.Opportunities),
		"warnings", len(result.Warnings),
		"books", books)

	d.reporter.Report(report)
	return report, nil
}

// buildExecutions wraps each opportunity in a request. Requests are logged,
// never dispatched.
func (d *Detector) buildExecutions(ctx context.Context, opps []*domain.ArbitrageOpportunity) []*domain.ExecutionRequest {
	if len(opps) == 0 {
		return nil
	}
	reqs := make([]*domain.ExecutionRequest, 0, len(opps))
	for _, opp := range opps {
		req := domain.NewExecutionRequest(opp, d.now())
		reqs = append(reqs, req)
		d.logger.Info(ctx, "would execute",
			"request_id", req.ID,
			"opportunity_id", opp.ID,
			"pair", opp.Pair,
			"buy", opp.BuyExchange,
			"sell", opp.SellExchange,
			"size", req.ExecutionSize.String(),
			"net_profit", opp.NetProfit.StringFixed(2),
			"roi_pct", opp.ROIPercentage.StringFixed(4))
	}
	return reqs
}

func (d *Detector) applyGasCost(ctx context.Context) {
	if d.gas == nil {
		return
	}
	usd, ok := d.gas.LatestGasCostUSD()
	if !ok {
		return
	}
	venue := d.gas.Venue()
	current := d.analyzer.Evaluator().FeeModel().Schedule().Venues[venue].GasCostUSD
	if current.Equal(usd) {
		return
	}
	d.analyzer.Evaluator().SetGasCost(venue, usd)
	d.logger.Debug(ctx, "gas cost updated", "venue", venue, "usd", usd.StringFixed(2))
}

func (d *Detector) logError(ctx context.Context, err error) {
	args := []any{"error", err}
	var appErr *apperror.AppError
	if errors.As(err, &appErr) {
		args = append(args, appErr.LogAttrs()...)
	}

	switch apperror.GetKind(err) {
	case apperror.KindLookup, apperror.KindDecode:
		d.logger.Warnc(ctx, 1, "update skipped", args...)
	default:
		d.logger.Errorc(ctx, 1, "update failed", args...)
	}
}

// Stop gracefully shuts down the reporter.
func (d *Detector) Stop() error {
	d.logger.Info(context.Background(), "stopping spread detector")

	d.mu.Lock()
	if d.cancel != nil {
		d.cancel()
	}
	d.mu.Unlock()

	return d.reporter.Stop()
}
