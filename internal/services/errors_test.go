package services_test

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"sift/internal/services"
)

func TestWrapIncludesContext(t *testing.T) {
	base := errors.New("boom")
	err := services.Wrap(services.ErrIO, "moving", "rename", "move failed", base)
	if !errors.Is(err, services.ErrIO) {
		t.Fatalf("expected marker to be retained, got %v", err)
	}
	if !errors.Is(err, base) {
		t.Fatalf("expected wrapped error to contain base error, got %v", err)
	}
	msg := err.Error()
	for _, fragment := range []string{"moving", "rename", "move failed", "boom"} {
		if !strings.Contains(msg, fragment) {
			t.Fatalf("expected %q in error string %q", fragment, msg)
		}
	}
}

func TestWrapDefaultsMarker(t *testing.T) {
	err := services.Wrap(nil, "", "", "", nil)
	if !errors.Is(err, services.ErrIO) {
		t.Fatalf("expected io marker by default, got %v", err)
	}
	if !strings.Contains(err.Error(), "pipeline failure") {
		t.Fatalf("expected default detail, got %q", err.Error())
	}
}

func TestKindAndFatal(t *testing.T) {
	tests := []struct {
		err   error
		kind  string
		fatal bool
	}{
		{nil, "", false},
		{services.Wrap(services.ErrModelNotReady, "startup", "load", "", nil), "model_not_ready", true},
		{services.Wrap(services.ErrSchemaMismatch, "classifying", "score", "", nil), "schema_mismatch", false},
		{fmt.Errorf("outer: %w", services.ErrFolder), "folder", false},
		{services.ErrValidation, "validation", false},
		{errors.New("plain"), "io", false},
	}
	for _, tc := range tests {
		if got := services.Kind(tc.err); got != tc.kind {
			t.Errorf("Kind(%v) = %q, want %q", tc.err, got, tc.kind)
		}
		if got := services.Fatal(tc.err); got != tc.fatal {
			t.Errorf("Fatal(%v) = %v, want %v", tc.err, got, tc.fatal)
		}
	}
}
