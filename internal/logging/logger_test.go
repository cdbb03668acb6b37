package logging_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"callcheck/internal/config"
	"callcheck/internal/logging"
)

func fileLogger(t *testing.T, opts logging.Options) (*logging.Options, func() string) {
	t.Helper()
	logPath := filepath.Join(t.TempDir(), "test.log")
	opts.OutputPaths = []string{logPath}
	return &opts, func() string {
		content, err := os.ReadFile(logPath)
		if err != nil {
			t.Fatalf("read log file: %v", err)
		}
		return string(content)
	}
}

func TestNewFromConfigWritesLogFile(t *testing.T) {
	cfg := config.Default()
	cfg.Paths.LogDir = t.TempDir()

	logger, err := logging.NewFromConfig(&cfg)
	if err != nil {
		t.Fatalf("NewFromConfig returned error: %v", err)
	}
	logger.Info("daemon started")

	content, err := os.ReadFile(filepath.Join(cfg.Paths.LogDir, "callcheck.log"))
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	if !strings.Contains(string(content), "daemon started") {
		t.Fatalf("log file missing message, got %q", content)
	}
}

func TestConsoleHandlerPrefixesComponent(t *testing.T) {
	opts, read := fileLogger(t, logging.Options{Format: "console", Level: "info"})
	logger, err := logging.New(*opts)
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	logger.With(logging.String(logging.FieldComponent, "api-server")).
		Info("server started", logging.Int("port", 80), logging.String("dir", "/tmp/a b"))

	content := read()
	if !strings.Contains(content, "INFO api-server: server started") {
		t.Fatalf("expected component prefix, got %q", content)
	}
	if !strings.Contains(content, "port=80") {
		t.Fatalf("expected port attribute, got %q", content)
	}
	if !strings.Contains(content, `dir="/tmp/a b"`) {
		t.Fatalf("expected quoted value with spaces, got %q", content)
	}
	if strings.Contains(content, "component=") {
		t.Fatalf("component must fold into the prefix, got %q", content)
	}
}

func TestLevelParsingFiltersOutput(t *testing.T) {
	opts, read := fileLogger(t, logging.Options{Format: "console", Level: "warn"})
	logger, err := logging.New(*opts)
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	logger.Info("too quiet")
	logger.Warn("loud enough")

	content := read()
	if strings.Contains(content, "too quiet") {
		t.Fatalf("info record leaked past warn level: %q", content)
	}
	if !strings.Contains(content, "loud enough") {
		t.Fatalf("warn record missing: %q", content)
	}
}

func TestConsoleLoggerOmitsCallerForInfo(t *testing.T) {
	opts, read := fileLogger(t, logging.Options{Format: "console", Level: "info"})
	logger, err := logging.New(*opts)
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	logger.Info("message without caller")

	if content := read(); strings.Contains(content, ".go:") {
		t.Fatalf("expected no caller information in info logs, got %q", content)
	}
}

func TestConsoleLoggerIncludesCallerForDebug(t *testing.T) {
	opts, read := fileLogger(t, logging.Options{Format: "console", Level: "debug"})
	logger, err := logging.New(*opts)
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	logger.Debug("message with caller")

	if content := read(); !strings.Contains(content, ".go:") {
		t.Fatalf("expected caller information in debug logs, got %q", content)
	}
}

func TestJSONHandlerFieldNames(t *testing.T) {
	opts, read := fileLogger(t, logging.Options{Format: "json", Level: "info"})
	logger, err := logging.New(*opts)
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	logger.Info("encoded", logging.String(logging.FieldRequestID, "abc"))

	content := read()
	for _, want := range []string{`"level":"info"`, `"msg":"encoded"`, `"ts":"`, `"request_id":"abc"`} {
		if !strings.Contains(content, want) {
			t.Fatalf("json output missing %s, got %q", want, content)
		}
	}
}

func TestUnsupportedFormatRejected(t *testing.T) {
	if _, err := logging.New(logging.Options{Format: "xml"}); err == nil {
		t.Fatal("expected error for unsupported log format")
	}
}
