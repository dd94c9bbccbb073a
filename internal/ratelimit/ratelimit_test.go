package ratelimit

import (
	"context"
	"testing"
	"time"
)

func TestLimiter_BurstThenThrottle(t *testing.T) {
	l := NewWithBurst(1, 2)

	if !l.Allow() || !l.Allow() {
		t.Fatal("burst of 2 should be allowed immediately")
	}
	if l.Allow() {
		t.Fatal("third immediate event should be throttled")
	}
}

func TestLimiter_NonPositiveRateIsUnlimited(t *testing.T) {
	l := NewWithBurst(0, 1)
	for i := 0; i < 100; i++ {
		if !l.Allow() {
			t.Fatalf("event %d throttled with limiting disabled", i)
		}
	}
}

func TestLimiter_WaitHonoursContext(t *testing.T) {
	l := NewWithBurst(0.001, 1)
	l.Allow()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if err := l.Wait(ctx); err == nil {
		t.Fatal("expected Wait to fail once the context deadline passes")
	}
}

func TestKeyed_IndependentBuckets(t *testing.T) {
	k := NewKeyed(1, 1)

	if !k.Allow("BTCUSDT") {
		t.Fatal("first BTCUSDT event should pass")
	}
	if k.Allow("BTCUSDT") {
		t.Fatal("second BTCUSDT event should be throttled")
	}
	if !k.Allow("ETHUSDT") {
		t.Fatal("ETHUSDT has its own bucket")
	}
	if k.For("BTCUSDT") != k.For("BTCUSDT") {
		t.Fatal("For must return the same limiter per key")
	}
}
