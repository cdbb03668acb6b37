package services_test

import (
	"errors"
	"strings"
	"testing"

	"callcheck/internal/services"
)

func TestWrapTagsMarker(t *testing.T) {
	base := errors.New("connection refused")
	err := services.Wrap(services.ErrTransfer, "dispatch", "copy audio", "source unreachable", base)

	if !errors.Is(err, services.ErrTransfer) {
		t.Fatalf("expected error to match ErrTransfer: %v", err)
	}
	if !errors.Is(err, base) {
		t.Fatalf("expected wrapped cause to survive: %v", err)
	}
	for _, fragment := range []string{"dispatch", "copy audio", "source unreachable"} {
		if !strings.Contains(err.Error(), fragment) {
			t.Fatalf("error %q missing fragment %q", err, fragment)
		}
	}
}

func TestWrapDefaultsToTransient(t *testing.T) {
	err := services.Wrap(nil, "analyze", "", "", nil)
	if !errors.Is(err, services.ErrTransient) {
		t.Fatalf("expected nil marker to default to ErrTransient: %v", err)
	}
}

func TestRecordsFailure(t *testing.T) {
	cases := []struct {
		err  error
		want bool
	}{
		{services.Wrap(services.ErrTransfer, "dispatch", "copy", "", nil), true},
		{services.Wrap(services.ErrDispatch, "dispatch", "start job", "", nil), true},
		{services.Wrap(services.ErrStorage, "dispatch", "put", "", nil), false},
		{services.Wrap(services.ErrNotFound, "dispatch", "get", "", nil), false},
	}
	for _, tc := range cases {
		if got := services.RecordsFailure(tc.err); got != tc.want {
			t.Fatalf("RecordsFailure(%v) = %v, want %v", tc.err, got, tc.want)
		}
	}
}
