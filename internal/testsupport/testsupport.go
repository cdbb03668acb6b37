// Package testsupport provides shared helpers for package tests.
package testsupport

import (
	"context"
	"path/filepath"
	"testing"

	"callcheck/internal/config"
	"callcheck/internal/request"
)

// NewConfig returns a validated configuration rooted in a per-test temporary
// directory. Timing intervals are shortened so lease and polling tests run
// quickly.
func NewConfig(t *testing.T) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfg := config.Default()
	cfg.Paths.DataDir = filepath.Join(base, "data")
	cfg.Paths.LogDir = filepath.Join(base, "logs")
	cfg.Transcriber.APIKey = "test-api-key"
	cfg.Presign.Secret = "test-presign-secret"
	cfg.Workflow.QueuePollInterval = 1
	cfg.Workflow.ErrorRetryInterval = 1
	cfg.Workflow.LeaseSeconds = 2
	cfg.Workflow.HeartbeatInterval = 1

	if err := cfg.Validate(); err != nil {
		t.Fatalf("test config failed validation: %v", err)
	}
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("create test directories: %v", err)
	}
	return &cfg
}

// NewRecord returns a pending record with deterministic content suitable for
// store and workflow tests.
func NewRecord(t *testing.T, sentences ...string) *request.Record {
	t.Helper()

	if len(sentences) == 0 {
		sentences = []string{"hello world"}
	}
	return request.New("https://example.com/audio/call.wav", sentences, request.FileTypeWAV)
}

// Context returns a context cancelled at test cleanup.
func Context(t *testing.T) context.Context {
	t.Helper()

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	return ctx
}
