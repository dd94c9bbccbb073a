package apperror

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestNew_DefaultsFromCatalogue(t *testing.T) {
	err := New(CodeBookNotFound, WithContext("binance:BTCUSDT"))

	if err.Message != messages[CodeBookNotFound] {
		t.Errorf("message = %q", err.Message)
	}
	if err.Kind != KindLookup {
		t.Errorf("kind = %s", err.Kind)
	}
	if !strings.Contains(err.Error(), "binance:BTCUSDT") {
		t.Errorf("Error() = %q", err.Error())
	}
}

func TestDefaultKind(t *testing.T) {
	tests := []struct {
		code Code
		want Kind
	}{
		{CodeRedisConnectionFailed, KindStartup},
		{CodeSnapshotFetchFailed, KindTransport},
		{CodeCircuitOpen, KindTransport},
		{CodeInvalidOrderbook, KindDecode},
		{CodeSnapshotMissing, KindLookup},
		{CodeInternalError, KindInternal},
	}
	for _, tt := range tests {
		if got := New(tt.code).Kind; got != tt.want {
			t.Errorf("%s kind = %s, want %s", tt.code, got, tt.want)
		}
	}
}

func TestWrapAndHasCode(t *testing.T) {
	cause := errors.New("connection reset")
	err := fmt.Errorf("iteration 7: %w", New(CodeSnapshotFetchFailed, WithCause(cause)))

	if !HasCode(err, CodeSnapshotFetchFailed) {
		t.Error("HasCode should see through fmt wrapping")
	}
	if HasCode(err, CodeBookNotFound) {
		t.Error("HasCode matched the wrong code")
	}
	if !errors.Is(err, cause) {
		t.Error("cause should be reachable with errors.Is")
	}

	wrapped := Wrap(err, CodeInternalError, "detector")
	if wrapped.Code != CodeSnapshotFetchFailed {
		t.Errorf("Wrap replaced existing code with %s", wrapped.Code)
	}
	if Wrap(nil, CodeInternalError, "") != nil {
		t.Error("Wrap(nil) must be nil")
	}

	foreign := Wrap(cause, CodeInvalidOrderbook, "decode")
	if foreign.Code != CodeInvalidOrderbook || GetKind(foreign) != KindDecode {
		t.Errorf("foreign wrap = %s/%s", foreign.Code, foreign.Kind)
	}
	if GetCode(cause) != CodeUnknownError {
		t.Error("plain errors have the unknown code")
	}
}
