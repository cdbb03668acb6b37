package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"callcheck/internal/config"
)

func TestDefaultValidates(t *testing.T) {
	cfg := config.Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config should validate: %v", err)
	}
}

func TestLoadParsesAndExpandsPaths(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	content := `
[paths]
data_dir = "` + filepath.Join(dir, "data") + `"
log_dir = "` + filepath.Join(dir, "logs") + `"
api_bind = "127.0.0.1:0"

[transcriber]
provider = "whisper"
model = "whisper-1"
language = "en-US"
timeout_seconds = 30
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, resolved, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if !exists {
		t.Fatal("expected config file to be reported as existing")
	}
	if resolved != path {
		t.Fatalf("resolved path = %q, want %q", resolved, path)
	}
	if !filepath.IsAbs(cfg.Paths.DataDir) {
		t.Fatalf("data dir not absolute: %q", cfg.Paths.DataDir)
	}
	if cfg.Transcriber.TimeoutSeconds != 30 {
		t.Fatalf("timeout = %d, want 30", cfg.Transcriber.TimeoutSeconds)
	}
	if cfg.Workflow.LeaseSeconds == 0 {
		t.Fatal("expected workflow defaults to apply")
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*config.Config)
		want   string
	}{
		{"provider", func(c *config.Config) { c.Transcriber.Provider = "parrot" }, "transcriber.provider"},
		{"language", func(c *config.Config) { c.Transcriber.Language = "not a tag!!" }, "transcriber.language"},
		{"log format", func(c *config.Config) { c.Logging.Format = "yaml" }, "logging.format"},
		{"log level", func(c *config.Config) { c.Logging.Level = "loud" }, "logging.level"},
		{"poll interval", func(c *config.Config) { c.Workflow.QueuePollInterval = 0 }, "queue_poll_interval"},
		{"heartbeat vs lease", func(c *config.Config) { c.Workflow.HeartbeatInterval = 500 }, "heartbeat_interval"},
		{"presign ttl", func(c *config.Config) { c.Presign.TTLMinutes = 0 }, "ttl_minutes"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := config.Default()
			tc.mutate(&cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("error %q does not mention %q", err, tc.want)
			}
		})
	}
}

func TestCreateSampleWritesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.toml")
	if err := config.CreateSample(path); err != nil {
		t.Fatalf("CreateSample failed: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read sample: %v", err)
	}
	if !strings.Contains(string(data), "[transcriber]") {
		t.Fatal("sample config missing transcriber section")
	}
}
