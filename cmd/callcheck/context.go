package main

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"callcheck/internal/config"
)

type commandContext struct {
	apiFlag    *string
	configFlag *string

	configOnce sync.Once
	config     *config.Config
	configErr  error
}

func newCommandContext(apiFlag, configFlag *string) *commandContext {
	return &commandContext{
		apiFlag:    apiFlag,
		configFlag: configFlag,
	}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, _, _, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

// apiBase resolves the daemon API base URL from the --api flag or the
// configured bind address.
func (c *commandContext) apiBase() (string, error) {
	if c.apiFlag != nil {
		if addr := strings.TrimSpace(*c.apiFlag); addr != "" {
			return "http://" + addr, nil
		}
	}
	cfg, err := c.ensureConfig()
	if err != nil {
		return "", err
	}
	return "http://" + cfg.Paths.APIBind, nil
}

func (c *commandContext) httpClient() *http.Client {
	return &http.Client{Timeout: 30 * time.Second}
}

// getJSON fetches a daemon endpoint and decodes the response, translating
// connection failures into a hint to start the daemon.
func (c *commandContext) getJSON(path string, target any) (int, error) {
	base, err := c.apiBase()
	if err != nil {
		return 0, err
	}
	resp, err := c.httpClient().Get(base + path)
	if err != nil {
		return 0, fmt.Errorf("connect to daemon at %s: %w (is callcheckd running?)", base, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, err
	}
	if target != nil {
		if err := json.Unmarshal(body, target); err != nil {
			return resp.StatusCode, fmt.Errorf("decode daemon response: %w", err)
		}
	}
	return resp.StatusCode, nil
}
