package services_test

import (
	"errors"
	"strings"
	"testing"

	"lathe/internal/services"
)

func TestWrapTagsMarker(t *testing.T) {
	base := errors.New("dial tcp: connection refused")
	err := services.Wrap(services.ErrExternalCall, "blob", "copy", "audio/abc/track.wav", base)

	if !errors.Is(err, services.ErrExternalCall) {
		t.Fatalf("expected ErrExternalCall marker, got %v", err)
	}
	if !errors.Is(err, base) {
		t.Fatalf("expected wrapped base error, got %v", err)
	}
	for _, fragment := range []string{"blob", "copy", "audio/abc/track.wav", "connection refused"} {
		if !strings.Contains(err.Error(), fragment) {
			t.Fatalf("expected %q in %q", fragment, err.Error())
		}
	}
}

func TestWrapDefaultsToTransient(t *testing.T) {
	err := services.Wrap(nil, "catalog", "scan", "", nil)
	if !errors.Is(err, services.ErrTransient) {
		t.Fatalf("expected transient marker, got %v", err)
	}
}

func TestWrapWithoutContextUsesFallbackDetail(t *testing.T) {
	err := services.Wrap(services.ErrConfiguration, "", "", "", nil)
	if !strings.Contains(err.Error(), "service failure") {
		t.Fatalf("expected fallback detail, got %q", err.Error())
	}
}
