package apm

import (
	"context"
	"io"
	"testing"

	"github.com/fd1az/spread-analyzer/internal/logger"
)

func TestParseHeaders(t *testing.T) {
	got := ParseHeaders("x-honeycomb-team=abc, api-key=k=v,broken,=skip")
	if len(got) != 2 {
		t.Fatalf("headers = %v", got)
	}
	if got["x-honeycomb-team"] != "abc" {
		t.Errorf("team = %q", got["x-honeycomb-team"])
	}
	if got["api-key"] != "k=v" {
		t.Errorf("api-key = %q", got["api-key"])
	}
}

func TestNewTraceProvider_EmptyAndUnknown(t *testing.T) {
	log := logger.New(io.Discard, logger.LevelError, "test", nil)
	ctx := context.Background()

	tp, err := NewTraceProvider(ctx, log, EmptyProvider, ExporterConfig{})
	if err != nil || tp == nil {
		t.Fatalf("empty provider: %v", err)
	}
	if err := tp.Stop(); err != nil {
		t.Errorf("Stop: %v", err)
	}

	tp, err = NewTraceProvider(ctx, log, Provider("jaeger-classic"), ExporterConfig{})
	if err == nil {
		t.Error("expected error for unknown provider")
	}
	if tp == nil {
		t.Fatal("unknown provider should still return a usable no-op provider")
	}
}
