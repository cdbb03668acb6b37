package config

import (
	"errors"
	"fmt"

	"golang.org/x/text/language"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validatePaths(); err != nil {
		return err
	}
	if err := c.validateTranscriber(); err != nil {
		return err
	}
	if err := c.validatePresign(); err != nil {
		return err
	}
	if err := c.validateWorkflow(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validatePaths() error {
	if c.Paths.DataDir == "" {
		return errors.New("paths.data_dir must be set")
	}
	if c.Paths.LogDir == "" {
		return errors.New("paths.log_dir must be set")
	}
	if c.Paths.APIBind == "" {
		return errors.New("paths.api_bind must be set")
	}
	return nil
}

func (c *Config) validateTranscriber() error {
	switch c.Transcriber.Provider {
	case "whisper":
	default:
		return fmt.Errorf("transcriber.provider: unsupported value %q (supported: whisper)", c.Transcriber.Provider)
	}
	if c.Transcriber.Model == "" {
		return errors.New("transcriber.model must be set")
	}
	if c.Transcriber.Language != "" {
		if _, err := language.Parse(c.Transcriber.Language); err != nil {
			return fmt.Errorf("transcriber.language: invalid language tag %q: %w", c.Transcriber.Language, err)
		}
	}
	if c.Transcriber.TimeoutSeconds <= 0 {
		return errors.New("transcriber.timeout_seconds must be positive")
	}
	return nil
}

func (c *Config) validatePresign() error {
	if c.Presign.TTLMinutes <= 0 {
		return errors.New("presign.ttl_minutes must be positive")
	}
	return nil
}

func (c *Config) validateWorkflow() error {
	if c.Workflow.QueuePollInterval <= 0 {
		return errors.New("workflow.queue_poll_interval must be positive")
	}
	if c.Workflow.ErrorRetryInterval <= 0 {
		return errors.New("workflow.error_retry_interval must be positive")
	}
	if c.Workflow.LeaseSeconds <= 0 {
		return errors.New("workflow.lease_seconds must be positive")
	}
	if c.Workflow.HeartbeatInterval <= 0 {
		return errors.New("workflow.heartbeat_interval must be positive")
	}
	if c.Workflow.HeartbeatInterval >= c.Workflow.LeaseSeconds {
		return errors.New("workflow.heartbeat_interval must be shorter than workflow.lease_seconds")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format: unsupported value %q (supported: console, json)", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level: unsupported value %q (supported: debug, info, warn, error)", c.Logging.Level)
	}
	return nil
}
