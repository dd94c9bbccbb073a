package app

import (
	"sort"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/fd1az/spread-analyzer/business/spread/domain"
)

// Entry is a held book and its store key.
type Entry struct {
	Key  string
	Book *domain.OrderBook
}

// MarketSummary describes what the store currently holds.
type MarketSummary struct {
	TotalBooks int
	// ExchangePairs counts held books per exchange.
	ExchangePairs map[string]int
	// CanonicalPairs counts exchanges quoting each canonical pair.
	CanonicalPairs map[string]int
}

// ActiveExchanges returns the exchanges with at least one book, sorted.
func (s MarketSummary) ActiveExchanges() []string {
	out := make([]string, 0, len(s.ExchangePairs))
	for ex := range s.ExchangePairs {
		out = append(out, ex)
	}
	sort.Strings(out)
	return out
}

// SharedPairs returns canonical pairs quoted by more than one book, sorted.
func (s MarketSummary) SharedPairs() []string {
	var out []string
	for pair, n := range s.CanonicalPairs {
		if n > 1 {
			out = append(out, pair)
		}
	}
	sort.Strings(out)
	return out
}

// BookStore owns the most recent order book per exchange:pair key. Books
// are never deleted; the last snapshot for a key wins.
type BookStore struct {
	normalizer *domain.PairNormalizer

	mu    sync.RWMutex
	books map[string]*domain.OrderBook
}

// NewBookStore creates an empty store.
func NewBookStore(normalizer *domain.PairNormalizer) *BookStore {
	if normalizer == nil {
		normalizer = domain.DefaultPairNormalizer()
	}
	return &BookStore{
		normalizer: normalizer,
		books:      make(map[string]*domain.OrderBook),
	}
}

// Upsert stores book under its key, replacing any previous snapshot.
func (s *BookStore) Upsert(book *domain.OrderBook) string {
	key := book.Key()
	s.mu.Lock()
	s.books[key] = book
	s.mu.Unlock()
	return key
}

// Get returns the book held for key.
func (s *BookStore) Get(key string) (*domain.OrderBook, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	b, ok := s.books[key]
	return b, ok
}

// Len returns the number of held books.
func (s *BookStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.books)
}

// Entries returns every held book ordered by key.
func (s *BookStore) Entries() []Entry {
	s.mu.RLock()
	out := make([]Entry, 0, len(s.books))
	for k, b := range s.books {
		out = append(out, Entry{Key: k, Book: b})
	}
	s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out
}

// GroupByCanonicalPair buckets held books by their canonical pair. Entries
// inside a group are ordered by key.
func (s *BookStore) GroupByCanonicalPair() map[string][]Entry {
	groups := make(map[string][]Entry)
	for _, e := range s.Entries() {
		canonical := s.normalizer.Canonical(e.Book.Pair)
		groups[canonical] = append(groups[canonical], e)
	}
	return groups
}

// Summary counts books per exchange and per canonical pair.
func (s *BookStore) Summary() MarketSummary {
	sum := MarketSummary{
		ExchangePairs:  make(map[string]int),
		CanonicalPairs: make(map[string]int),
	}
	for pair, entries := range s.GroupByCanonicalPair() {
		sum.CanonicalPairs[pair] = len(entries)
		for _, e := range entries {
			sum.ExchangePairs[e.Book.Exchange]++
			sum.TotalBooks++
		}
	}
	return sum
}

// MidPrice returns the mid of the book held for key.
func (s *BookStore) MidPrice(key string) (decimal.Decimal, bool) {
	b, ok := s.Get(key)
	if !ok {
		return decimal.Zero, false
	}
	return b.MidPrice()
}
