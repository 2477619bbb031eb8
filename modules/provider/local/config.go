package local

import (
	"fmt"
	"net/url"
	"strings"
	"time"
)

const (
	defaultBaseURL = "http://localhost:11964"
	defaultTimeout = 30 * time.Second
)

// Config holds the YAML configuration for the local endpoint provider.
type Config struct {
	// BaseURL is the local completion endpoint.
	// Default: "http://localhost:11964".
	BaseURL string `yaml:"base_url"`

	// Timeout bounds the blocking completion call. Default: 30s.
	Timeout time.Duration `yaml:"timeout"`
}

// defaults fills in zero-value fields.
func (c *Config) defaults() {
	if c.BaseURL == "" {
		c.BaseURL = defaultBaseURL
	}
	c.BaseURL = strings.TrimRight(c.BaseURL, "/")
	if c.Timeout <= 0 {
		c.Timeout = defaultTimeout
	}
}

// validate returns an error if the configuration is unusable.
func (c *Config) validate() error {
	u, err := url.Parse(c.BaseURL)
	if err != nil {
		return fmt.Errorf("provider.local: invalid base_url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("provider.local: base_url scheme must be http or https, got %q", u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("provider.local: base_url must include a host")
	}
	return nil
}
