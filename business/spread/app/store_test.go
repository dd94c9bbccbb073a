package app

import (
	"reflect"
	"testing"

	"github.com/fd1az/spread-analyzer/business/spread/domain"
)

func TestBookStore_UpsertOverwrites(t *testing.T) {
	s := NewBookStore(nil)

	first := book("binance", "BTCUSDT", "100", "1", "101", "1")
	second := book("binance", "BTCUSDT", "200", "1", "201", "1")

	if key := s.Upsert(first); key != "binance:BTCUSDT" {
		t.Fatalf("Upsert() key = %q", key)
	}
	s.Upsert(second)

	if s.Len() != 1 {
		t.Fatalf("Len() = %d, want 1", s.Len())
	}
	got, ok := s.Get("binance:BTCUSDT")
	if !ok || got != second {
		t.Error("last snapshot should win")
	}
	if _, ok := s.Get("binance:ETHUSDT"); ok {
		t.Error("Get() found a key that was never stored")
	}
}

func TestBookStore_GroupByCanonicalPair(t *testing.T) {
	s := NewBookStore(domain.DefaultPairNormalizer())
	s.Upsert(book("uniswap-v3-exact", "WBTC/USDT", "1", "1", "2", "1"))
	s.Upsert(book("kraken", "BTC/USDT", "1", "1", "2", "1"))
	s.Upsert(book("binance", "BTCUSDT", "1", "1", "2", "1"))
	s.Upsert(book("binance", "ETHUSDT", "1", "1", "2", "1"))

	groups := s.GroupByCanonicalPair()

	var keys []string
	for _, e := range groups["BTC/USDT"] {
		keys = append(keys, e.Key)
	}
	want := []string{"kraken:BTC/USDT", "uniswap-v3-exact:WBTC/USDT"}
	if !reflect.DeepEqual(keys, want) {
		t.Errorf("BTC/USDT group = %v, want %v", keys, want)
	}
	if len(groups["BTCUSDT"]) != 1 || len(groups["ETHUSDT"]) != 1 {
		t.Errorf("unexpected groups: %v", groups)
	}
}

func TestBookStore_Summary(t *testing.T) {
	s := NewBookStore(nil)
	s.Upsert(book("uniswap-v3-exact", "WBTC/USDT", "1", "1", "2", "1"))
	s.Upsert(book("kraken", "BTC/USDT", "1", "1", "2", "1"))
	s.Upsert(book("kraken", "ETH/USDT", "1", "1", "2", "1"))

	sum := s.Summary()
	if sum.TotalBooks != 3 {
		t.Errorf("TotalBooks = %d", sum.TotalBooks)
	}
	if sum.ExchangePairs["kraken"] != 2 {
		t.Errorf("kraken pairs = %d", sum.ExchangePairs["kraken"])
	}
	if got := sum.ActiveExchanges(); !reflect.DeepEqual(got, []string{"kraken", "uniswap-v3-exact"}) {
		t.Errorf("ActiveExchanges() = %v", got)
	}
	if got := sum.SharedPairs(); !reflect.DeepEqual(got, []string{"BTC/USDT"}) {
		t.Errorf("SharedPairs() = %v", got)
	}
}

func TestBookStore_MidPrice(t *testing.T) {
	s := NewBookStore(nil)
	s.Upsert(book("binance", "ETHUSDT", "3000", "1", "3002", "1"))

	mid, ok := s.MidPrice("binance:ETHUSDT")
	if !ok || !mid.Equal(dec("3001")) {
		t.Errorf("MidPrice() = %s, %v", mid, ok)
	}
	if _, ok := s.MidPrice("binance:BTCUSDT"); ok {
		t.Error("MidPrice() of a missing book should fail")
	}
}
