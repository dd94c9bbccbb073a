package monolith

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/redis/go-redis/v9"

	"github.com/fd1az/spread-analyzer/internal/config"
	"github.com/fd1az/spread-analyzer/internal/di"
	"github.com/fd1az/spread-analyzer/internal/logger"
	"github.com/fd1az/spread-analyzer/internal/redisbus"
)

type recordingModule struct {
	name   string
	calls  *[]string
	failAt string
}

func (m recordingModule) RegisterServices(c di.Container) error {
	*m.calls = append(*m.calls, "register:"+m.name)
	if m.failAt == "register" {
		return errors.New("register failed")
	}
	return nil
}

func (m recordingModule) Startup(ctx context.Context, mono Monolith) error {
	*m.calls = append(*m.calls, "start:"+m.name)
	if mono.Config() == nil || mono.Logger() == nil || mono.Redis() == nil {
		return errors.New("missing shared services")
	}
	if m.failAt == "start" {
		return errors.New("start failed")
	}
	return nil
}

func newTestApp() *app {
	log := logger.New(io.Discard, logger.LevelError, "test", nil)
	rdb := redisbus.NewFromRedis(redis.NewClient(&redis.Options{Addr: "127.0.0.1:0"}))
	return NewWithRedis(&config.Config{}, log, rdb)
}

func TestApp_RegistersSharedServices(t *testing.T) {
	a := newTestApp()
	defer a.Close()

	for _, name := range []string{"config", "logger", "redis"} {
		if !a.Container().Has(name) {
			t.Errorf("service %q not registered", name)
		}
	}
	if _, ok := a.Services().Get("redis").(*redisbus.Client); !ok {
		t.Error("redis service has the wrong type")
	}
}

func TestApp_ModuleLifecycle(t *testing.T) {
	a := newTestApp()
	defer a.Close()

	var calls []string
	first := recordingModule{name: "a", calls: &calls}
	second := recordingModule{name: "b", calls: &calls}

	if err := a.RegisterModules(first, second); err != nil {
		t.Fatalf("RegisterModules: %v", err)
	}
	if err := a.StartModules(context.Background(), first, second); err != nil {
		t.Fatalf("StartModules: %v", err)
	}

	want := []string{"register:a", "register:b", "start:a", "start:b"}
	if len(calls) != len(want) {
		t.Fatalf("calls = %v, want %v", calls, want)
	}
	for i := range want {
		if calls[i] != want[i] {
			t.Errorf("calls[%d] = %s, want %s", i, calls[i], want[i])
		}
	}
}

func TestApp_StartStopsAtFirstError(t *testing.T) {
	a := newTestApp()
	defer a.Close()

	var calls []string
	failing := recordingModule{name: "a", calls: &calls, failAt: "start"}
	never := recordingModule{name: "b", calls: &calls}

	if err := a.StartModules(context.Background(), failing, never); err == nil {
		t.Fatal("expected error")
	}
	if len(calls) != 1 {
		t.Errorf("calls = %v, want only the failing module", calls)
	}
}
