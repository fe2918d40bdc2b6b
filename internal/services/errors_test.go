package services

import (
	"errors"
	"strings"
	"testing"
)

func TestWrapTagsMarker(t *testing.T) {
	err := Wrap(ErrExternalTool, "compose", "encode clip", "ffmpeg exited 1", nil)
	if !errors.Is(err, ErrExternalTool) {
		t.Fatalf("expected ErrExternalTool marker, got %v", err)
	}
	if !strings.Contains(err.Error(), "compose: encode clip: ffmpeg exited 1") {
		t.Fatalf("unexpected detail: %v", err)
	}
}

func TestWrapPreservesCause(t *testing.T) {
	cause := errors.New("boom")
	err := Wrap(ErrTimeout, "narrate", "synthesize", "", cause)
	if !errors.Is(err, cause) {
		t.Fatalf("expected wrapped cause, got %v", err)
	}
	if !errors.Is(err, ErrTimeout) {
		t.Fatalf("expected ErrTimeout marker, got %v", err)
	}
}

func TestWrapNilMarkerDefaultsTransient(t *testing.T) {
	err := Wrap(nil, "", "", "", nil)
	if !errors.Is(err, ErrTransient) {
		t.Fatalf("expected ErrTransient, got %v", err)
	}
	if !strings.Contains(err.Error(), "service failure") {
		t.Fatalf("expected fallback detail, got %v", err)
	}
}

func TestIsFatal(t *testing.T) {
	if !IsFatal(Wrap(ErrValidation, "compose", "validate", "count mismatch", nil)) {
		t.Fatal("validation errors are fatal")
	}
	if IsFatal(Wrap(ErrExternalTool, "compose", "encode", "exit 1", nil)) {
		t.Fatal("tool errors are per-asset recoverable")
	}
	if IsFatal(nil) {
		t.Fatal("nil is not fatal")
	}
}
