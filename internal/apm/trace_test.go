package apm

import (
	"context"
	"errors"
	"testing"
)

var errMissing = errors.New("missing")

func TestTracer_SpanLifecycle(t *testing.T) {
	tracer := NewTracer("test")

	ctx, span := tracer.StartSpanFromContext(context.Background(), "op")
	if span == nil {
		t.Fatal("nil span")
	}
	span.NoticeError(errors.New("boom"))
	span.SetOK()
	span.End()

	// without an installed provider spans are no-ops but still retrievable
	if got := tracer.SpanFromContext(ctx); got == nil {
		t.Error("SpanFromContext returned nil")
	}
}

func TestTraced(t *testing.T) {
	tracer := NewTracer("test")
	isMissing := func(err error) bool { return errors.Is(err, errMissing) }

	tests := []struct {
		name    string
		ret     int
		err     error
		wantErr error
	}{
		{name: "success", ret: 7},
		{name: "expected error", err: errMissing, wantErr: errMissing},
		{name: "failure", err: errors.New("boom")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			called := false
			got, err := Traced(context.Background(), tracer, "op", isMissing,
				func(ctx context.Context, span Span) (int, error) {
					called = true
					if span == nil {
						t.Error("nil span passed to fn")
					}
					return tt.ret, tt.err
				})
			if !called {
				t.Fatal("fn not called")
			}
			if got != tt.ret {
				t.Errorf("got %d, want %d", got, tt.ret)
			}
			if (err != nil) != (tt.err != nil) {
				t.Errorf("err = %v, want %v", err, tt.err)
			}
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Errorf("err = %v, want %v", err, tt.wantErr)
			}
		})
	}
}
