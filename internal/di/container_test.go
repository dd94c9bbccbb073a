package di

import (
	"sync"
	"sync/atomic"
	"testing"
)

type clock struct{ name string }

func TestContainer_LazySingleton(t *testing.T) {
	c := NewContainer()
	var builds atomic.Int32

	tok := NewToken[*clock]("test:clock")
	RegisterToken(c, tok, func(ServiceRegistry) *clock {
		builds.Add(1)
		return &clock{name: "utc"}
	})

	if builds.Load() != 0 {
		t.Fatal("factory ran before first Get")
	}

	var wg sync.WaitGroup
	results := make([]*clock, 8)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = GetToken(c, tok)
		}(i)
	}
	wg.Wait()

	for _, r := range results {
		if r != results[0] {
			t.Fatal("expected the same instance for every Get")
		}
	}
	if builds.Load() != 1 {
		t.Errorf("factory ran %d times, want 1", builds.Load())
	}
}

func TestContainer_FactoryResolvesDependencies(t *testing.T) {
	c := NewContainer()
	c.Register("name", "exchange-clock")

	tok := NewToken[*clock]("test:clock")
	RegisterToken(c, tok, func(sr ServiceRegistry) *clock {
		return &clock{name: sr.Get("name").(string)}
	})

	if got := GetToken(c, tok).name; got != "exchange-clock" {
		t.Errorf("name = %q", got)
	}
	if !c.Has("test:clock") || c.Has("missing") {
		t.Error("Has reported wrong membership")
	}
}

func TestContainer_UnknownServicePanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic for unknown service")
		}
	}()
	NewContainer().Get("nope")
}
