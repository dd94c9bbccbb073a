package app

import (
	"context"
	"fmt"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/fd1az/spread-analyzer/business/spread/domain"
	"github.com/fd1az/spread-analyzer/internal/apperror"
	"github.com/fd1az/spread-analyzer/internal/logger"
)

// ScanMode names the two analysis modes.
type ScanMode string

const (
	ScanFull     ScanMode = "full"
	ScanTargeted ScanMode = "targeted"
)

// ScanResult holds the opportunities of one scan, best ROI first, and the
// warnings raised for books that could not be compared.
type ScanResult struct {
	Mode          ScanMode
	Opportunities []*domain.ArbitrageOpportunity
	Warnings      []string
	Comparisons   int
}

// AnalyzerConfig tunes the scan driver.
type AnalyzerConfig struct {
	// Workers bounds how many canonical-pair groups a full scan evaluates
	// at once.
	Workers int
	// TargetedBothSides also evaluates buying on the updated venue during
	// a targeted scan.
	TargetedBothSides bool
}

// SpreadAnalyzer runs full and targeted scans over a BookStore.
type SpreadAnalyzer struct {
	store      *BookStore
	normalizer *domain.PairNormalizer
	evaluator  *OpportunityEvaluator
	config     AnalyzerConfig
	logger     logger.LoggerInterface
}

// NewSpreadAnalyzer creates a SpreadAnalyzer.
func NewSpreadAnalyzer(
	store *BookStore,
	normalizer *domain.PairNormalizer,
	evaluator *OpportunityEvaluator,
	config AnalyzerConfig,
	log logger.LoggerInterface,
) *SpreadAnalyzer {
	if config.Workers < 1 {
		config.Workers = 1
	}
	return &SpreadAnalyzer{
		store:      store,
		normalizer: normalizer,
		evaluator:  evaluator,
		config:     config,
		logger:     log,
	}
}

// Store returns the book store the analyzer scans.
func (a *SpreadAnalyzer) Store() *BookStore {
	return a.store
}

// Evaluator returns the opportunity evaluator.
func (a *SpreadAnalyzer) Evaluator() *OpportunityEvaluator {
	return a.evaluator
}

// groupResult is what one canonical-pair group contributes to a full scan.
type groupResult struct {
	opportunities []*domain.ArbitrageOpportunity
	warnings      []string
	comparisons   int
}

// FullScan compares every pair of distinct venues quoting the same canonical
// pair, in both directions.
func (a *SpreadAnalyzer) FullScan(ctx context.Context) (*ScanResult, error) {
	groups := a.store.GroupByCanonicalPair()

	pairs := make([]string, 0, len(groups))
	for pair, entries := range groups {
		if len(entries) < 2 {
			continue
		}
		pairs = append(pairs, pair)
	}
	sort.Strings(pairs)

	results := make([]groupResult, len(pairs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(a.config.Workers)
	for i, pair := range pairs {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			results[i] = a.scanGroup(gctx, pair, groups[pair])
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := &ScanResult{Mode: ScanFull}
	for _, r := range results {
		out.Opportunities = append(out.Opportunities, r.opportunities...)
		out.Warnings = append(out.Warnings, r.warnings...)
		out.Comparisons += r.comparisons
	}
	sortByROI(out.Opportunities)
	return out, nil
}

func (a *SpreadAnalyzer) scanGroup(ctx context.Context, pair string, entries []Entry) groupResult {
	var r groupResult
	for i := 0; i < len(entries); i++ {
		for j := i + 1; j < len(entries); j++ {
			e1, e2 := entries[i], entries[j]
			if e1.Book.Exchange == e2.Book.Exchange {
				continue
			}
			if !e1.Book.Usable() || !e2.Book.Usable() {
				r.warnings = append(r.warnings, a.unusable(ctx, e1.Key, e2.Key))
				continue
			}

			for _, dir := range [2][2]*domain.OrderBook{{e1.Book, e2.Book}, {e2.Book, e1.Book}} {
				r.comparisons++
				if opp := a.compare(ctx, pair, dir[0], dir[1]); opp != nil {
					r.opportunities = append(r.opportunities, opp)
				}
			}
		}
	}
	return r
}

// TargetedScan compares the book held for key against every other held
// book of the same canonical pair. The other venue is the buy side and the
// updated venue the sell side; with TargetedBothSides the reverse direction
// is evaluated as well.
func (a *SpreadAnalyzer) TargetedScan(ctx context.Context, key string) (*ScanResult, error) {
	updated, ok := a.store.Get(key)
	if !ok {
		return nil, apperror.NotFound(apperror.CodeBookNotFound, key)
	}

	out := &ScanResult{Mode: ScanTargeted}
	canonical := a.normalizer.Canonical(updated.Pair)

	for _, other := range a.store.Entries() {
		if other.Key == key {
			continue
		}
		if !a.normalizer.SameMarket(other.Book.Pair, updated.Pair) {
			continue
		}
		if other.Book.Exchange == updated.Exchange {
			continue
		}
		if !updated.Usable() || !other.Book.Usable() {
			out.Warnings = append(out.Warnings, a.unusable(ctx, other.Key, key))
			continue
		}

		out.Comparisons++
		if opp := a.compare(ctx, canonical, other.Book, updated); opp != nil {
			out.Opportunities = append(out.Opportunities, opp)
		}
		if a.config.TargetedBothSides {
			out.Comparisons++
			if opp := a.compare(ctx, canonical, updated, other.Book); opp != nil {
				out.Opportunities = append(out.Opportunities, opp)
			}
		}
	}

	sortByROI(out.Opportunities)
	return out, nil
}

// compare evaluates buying at buy's best ask and selling into sell's best bid.
func (a *SpreadAnalyzer) compare(ctx context.Context, pair string, buy, sell *domain.OrderBook) *domain.ArbitrageOpportunity {
	_, _, adjustment := a.normalizer.Normalize(buy.Pair, sell.Pair)
	ask, bid := buy.BestAsk(), sell.BestBid()

	opp, reason := a.evaluator.Evaluate(
		buy.Exchange, sell.Exchange, pair,
		ask.Price.Mul(adjustment), bid.Price,
		ask.Size, bid.Size,
	)
	if opp == nil && reason != RejectNoSpread {
		a.logger.Debug(ctx, "candidate rejected",
			"pair", pair,
			"buy", buy.Exchange,
			"sell", sell.Exchange,
			"reason", string(reason))
	}
	return opp
}

func (a *SpreadAnalyzer) unusable(ctx context.Context, keyA, keyB string) string {
	msg := fmt.Sprintf("empty order book side: %s or %s", keyA, keyB)
	a.logger.Warn(ctx, "skipping unusable order book", "book_a", keyA, "book_b", keyB)
	return msg
}

func sortByROI(opps []*domain.ArbitrageOpportunity) {
	sort.SliceStable(opps, func(i, j int) bool {
		return opps[i].ROIPercentage.GreaterThan(opps[j].ROIPercentage)
	})
}
