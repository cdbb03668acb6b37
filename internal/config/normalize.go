package config

import (
	"os"
	"strings"
)

// normalize expands paths, trims whitespace, and applies environment overrides.
func (c *Config) normalize() error {
	var err error
	if c.Paths.DataDir, err = expandPath(strings.TrimSpace(c.Paths.DataDir)); err != nil {
		return err
	}
	if c.Paths.LogDir, err = expandPath(strings.TrimSpace(c.Paths.LogDir)); err != nil {
		return err
	}
	c.Paths.APIBind = strings.TrimSpace(c.Paths.APIBind)

	c.Transcriber.Provider = strings.ToLower(strings.TrimSpace(c.Transcriber.Provider))
	c.Transcriber.APIKey = strings.TrimSpace(c.Transcriber.APIKey)
	c.Transcriber.BaseURL = strings.TrimSpace(c.Transcriber.BaseURL)
	c.Transcriber.Model = strings.TrimSpace(c.Transcriber.Model)
	c.Transcriber.Language = strings.TrimSpace(c.Transcriber.Language)

	c.Presign.Secret = strings.TrimSpace(c.Presign.Secret)

	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))

	// Secrets may come from the environment instead of the config file.
	if c.Transcriber.APIKey == "" {
		c.Transcriber.APIKey = strings.TrimSpace(os.Getenv("CALLCHECK_TRANSCRIBER_API_KEY"))
	}
	if c.Presign.Secret == "" {
		c.Presign.Secret = strings.TrimSpace(os.Getenv("CALLCHECK_PRESIGN_SECRET"))
	}

	return nil
}
